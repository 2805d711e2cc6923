package models

import "errors"

var (
	// ErrUnauthenticated indicates no resolved identity accompanied the call.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden indicates the identity lacks the role the operation needs.
	ErrForbidden = errors.New("forbidden")

	// ErrLocationMissing indicates a geofenced operation arrived without coordinates.
	ErrLocationMissing = errors.New("location not provided")

	// ErrPerimeterUnconfigured indicates no perimeter has ever been set.
	ErrPerimeterUnconfigured = errors.New("allowed location perimeter not configured")

	// ErrOutsidePerimeter indicates a mutation was attempted outside the perimeter.
	ErrOutsidePerimeter = errors.New("not in perimeter")

	// ErrNoActiveShift indicates a clock-out found no open shift to close.
	ErrNoActiveShift = errors.New("no active shift")

	// ErrWriteConflict indicates a concurrent mutation would break the
	// one-open-shift-per-worker invariant.
	ErrWriteConflict = errors.New("write conflict")

	// ErrAggregationFailed indicates a dashboard read failed; no partial result is returned.
	ErrAggregationFailed = errors.New("aggregation failed")

	ErrWorkerNotFound = errors.New("worker not found")
	ErrInvalidInput   = errors.New("invalid input")
)
