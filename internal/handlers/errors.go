package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/HIMANADH789/careworkers/internal/logging"
	"github.com/HIMANADH789/careworkers/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorMapping struct {
	target error
	status int
	code   string
}

var errorTable = []errorMapping{
	{models.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{models.ErrForbidden, http.StatusForbidden, "forbidden"},
	{models.ErrOutsidePerimeter, http.StatusForbidden, "not_in_perimeter"},
	{models.ErrLocationMissing, http.StatusBadRequest, "location_missing"},
	{models.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{models.ErrPerimeterUnconfigured, http.StatusConflict, "precondition"},
	{models.ErrNoActiveShift, http.StatusConflict, "no_active_shift"},
	{models.ErrWriteConflict, http.StatusConflict, "write_conflict"},
	{models.ErrWorkerNotFound, http.StatusNotFound, "not_found"},
	{models.ErrAggregationFailed, http.StatusInternalServerError, "aggregation_failed"},
}

// respondError writes the error body for err. Known failures carry their
// sentinel message; anything else is logged and reported as "internal error".
func respondError(c *gin.Context, lg *zap.Logger, err error) {
	for _, m := range errorTable {
		if !errors.Is(err, m.target) {
			continue
		}
		detail := m.target.Error()
		if m.target == models.ErrInvalidInput {
			detail = err.Error()
		}
		c.JSON(m.status, gin.H{"error": m.code, "detail": detail})
		return
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		lg.Warn("request timed out", zap.Error(err), zap.String(logging.RequestIDKey, c.GetString(logging.RequestIDKey)))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "timeout", "detail": "request timed out, retry"})
		return
	}

	lg.Error("unexpected error",
		zap.Error(err),
		zap.String("path", c.FullPath()),
		zap.String(logging.RequestIDKey, c.GetString(logging.RequestIDKey)),
	)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "detail": "internal error"})
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "data": data})
}
