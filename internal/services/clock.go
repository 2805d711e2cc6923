package services

import (
	"context"
	"fmt"
	"time"

	"github.com/HIMANADH789/careworkers/internal/geo"
	"github.com/HIMANADH789/careworkers/internal/identity"
	"github.com/HIMANADH789/careworkers/internal/models"
	"github.com/HIMANADH789/careworkers/internal/perimeter"
	"go.uber.org/zap"
)

type Status string

const (
	StatusCanClockIn     Status = "CAN_CLOCK_IN"
	StatusCanClockOut    Status = "CAN_CLOCK_OUT"
	StatusNotInPerimeter Status = "NOT_IN_PERIMETER"
)

const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

// ClockStatus is the resolved state for one worker at one location.
type ClockStatus struct {
	Status      Status            `json:"status"`
	LastShiftID *uint             `json:"lastShiftId,omitempty"`
	ClockInAt   *models.Timestamp `json:"clockInAt,omitempty"`
	ClockOutAt  *models.Timestamp `json:"clockOutAt,omitempty"`
}

type ShiftLedger interface {
	OpenShift(ctx context.Context, workerID uint, at time.Time, p geo.Point, note *string) (*models.ClockEvent, error)
	CloseShift(ctx context.Context, eventID uint, at time.Time, p geo.Point, note *string) (*models.ClockEvent, error)
	LatestShift(ctx context.Context, workerID uint) (*models.ClockEvent, error)
	LatestOpenShift(ctx context.Context, workerID uint) (*models.ClockEvent, error)
	History(ctx context.Context, workerID uint, limit int) ([]models.ClockEvent, error)
}

type PerimeterSource interface {
	Current() (perimeter.Perimeter, bool)
}

type ClockService struct {
	ledger    ShiftLedger
	perimeter PerimeterSource
	lg        *zap.Logger

	Now func() time.Time
}

func NewClockService(ledger ShiftLedger, perim PerimeterSource, lg *zap.Logger) *ClockService {
	return &ClockService{ledger: ledger, perimeter: perim, lg: lg, Now: time.Now}
}

// gate checks location presence and perimeter configuration, then reports
// whether loc lies inside. The perimeter is read from the cache on every call.
func (s *ClockService) gate(loc *geo.Point) (geo.Point, bool, error) {
	if loc == nil {
		return geo.Point{}, false, models.ErrLocationMissing
	}
	p, ok := s.perimeter.Current()
	if !ok {
		return geo.Point{}, false, models.ErrPerimeterUnconfigured
	}
	return *loc, p.Contains(*loc), nil
}

// Status resolves what the worker may do next. Being outside the perimeter
// overrides shift history entirely.
func (s *ClockService) Status(ctx context.Context, actor identity.Identity, loc *geo.Point) (ClockStatus, error) {
	if err := requireActor(actor); err != nil {
		return ClockStatus{}, err
	}
	_, inside, err := s.gate(loc)
	if err != nil {
		return ClockStatus{}, err
	}
	if !inside {
		return ClockStatus{Status: StatusNotInPerimeter}, nil
	}

	last, err := s.ledger.LatestShift(ctx, actor.WorkerID)
	if err != nil {
		return ClockStatus{}, fmt.Errorf("load latest shift: %w", err)
	}
	if last == nil {
		return ClockStatus{Status: StatusCanClockIn}, nil
	}

	id := last.ID
	st := ClockStatus{
		LastShiftID: &id,
		ClockInAt:   models.TimestampPtr(&last.ClockInAt),
		ClockOutAt:  models.TimestampPtr(last.ClockOutAt),
	}
	if last.Open() {
		st.Status = StatusCanClockOut
	} else {
		st.Status = StatusCanClockIn
	}
	return st, nil
}

// ClockIn re-runs the location gate and opens a shift. The ledger performs
// the open-shift check and the insert atomically; a worker who already has an
// open shift gets ErrWriteConflict.
func (s *ClockService) ClockIn(ctx context.Context, actor identity.Identity, loc *geo.Point, note *string) (*models.ClockEvent, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	p, inside, err := s.gate(loc)
	if err != nil {
		return nil, err
	}
	if !inside {
		return nil, models.ErrOutsidePerimeter
	}
	note, err = normalizeNote(note)
	if err != nil {
		return nil, err
	}

	ev, err := s.ledger.OpenShift(ctx, actor.WorkerID, s.Now(), p, note)
	if err != nil {
		return nil, err
	}
	s.lg.Info("clocked in", zap.Uint("worker_id", actor.WorkerID), zap.Uint("event_id", ev.ID))
	return ev, nil
}

// ClockOut re-runs the location gate and closes the worker's open shift.
// Clocking in inside the perimeter grants nothing for the clock-out.
func (s *ClockService) ClockOut(ctx context.Context, actor identity.Identity, loc *geo.Point, note *string) (*models.ClockEvent, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	p, inside, err := s.gate(loc)
	if err != nil {
		return nil, err
	}
	if !inside {
		return nil, models.ErrOutsidePerimeter
	}
	note, err = normalizeNote(note)
	if err != nil {
		return nil, err
	}

	open, err := s.ledger.LatestOpenShift(ctx, actor.WorkerID)
	if err != nil {
		return nil, fmt.Errorf("load open shift: %w", err)
	}
	if open == nil {
		return nil, models.ErrNoActiveShift
	}

	ev, err := s.ledger.CloseShift(ctx, open.ID, s.Now(), p, note)
	if err != nil {
		return nil, err
	}
	s.lg.Info("clocked out",
		zap.Uint("worker_id", actor.WorkerID),
		zap.Uint("event_id", ev.ID),
		zap.Duration("duration", ev.Duration()),
	)
	return ev, nil
}

// History returns the caller's own recent shifts, newest first.
func (s *ClockService) History(ctx context.Context, actor identity.Identity, limit int) ([]models.ClockEvent, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}
	rows, err := s.ledger.History(ctx, actor.WorkerID, limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return rows, nil
}
