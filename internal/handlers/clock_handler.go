package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/HIMANADH789/careworkers/internal/geo"
	"github.com/HIMANADH789/careworkers/internal/middleware"
	"github.com/HIMANADH789/careworkers/internal/models"
	"github.com/HIMANADH789/careworkers/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ClockHandler struct {
	svc *services.ClockService
	lg  *zap.Logger
}

func NewClockHandler(svc *services.ClockService, lg *zap.Logger) *ClockHandler {
	return &ClockHandler{svc: svc, lg: lg}
}

type ClockRequest struct {
	Lat  *float64 `json:"lat"`
	Lng  *float64 `json:"lng"`
	Note *string  `json:"note"`
}

// point returns nil unless both coordinates are present; 0 is a valid value.
func point(lat, lng *float64) *geo.Point {
	if lat == nil || lng == nil {
		return nil
	}
	return &geo.Point{Lat: *lat, Lon: *lng}
}

func queryFloat(c *gin.Context, keys ...string) (*float64, error) {
	for _, k := range keys {
		raw := strings.TrimSpace(c.Query(k))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s is not a number", models.ErrInvalidInput, k)
		}
		return &v, nil
	}
	return nil, nil
}

func (h *ClockHandler) Status(c *gin.Context) {
	lat, err := queryFloat(c, "lat")
	if err != nil {
		respondError(c, h.lg, err)
		return
	}
	lng, err := queryFloat(c, "lng", "lon")
	if err != nil {
		respondError(c, h.lg, err)
		return
	}

	st, err := h.svc.Status(c.Request.Context(), middleware.Identity(c), point(lat, lng))
	if err != nil {
		respondError(c, h.lg, err)
		return
	}
	ok(c, st)
}

func (h *ClockHandler) ClockIn(c *gin.Context) {
	var req ClockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "detail": err.Error()})
		return
	}

	ev, err := h.svc.ClockIn(c.Request.Context(), middleware.Identity(c), point(req.Lat, req.Lng), req.Note)
	if err != nil {
		respondError(c, h.lg, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "ok", "data": ev})
}

func (h *ClockHandler) ClockOut(c *gin.Context) {
	var req ClockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "detail": err.Error()})
		return
	}

	ev, err := h.svc.ClockOut(c.Request.Context(), middleware.Identity(c), point(req.Lat, req.Lng), req.Note)
	if err != nil {
		respondError(c, h.lg, err)
		return
	}
	ok(c, ev)
}

func (h *ClockHandler) History(c *gin.Context) {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(c, h.lg, fmt.Errorf("%w: limit must be a non-negative integer", models.ErrInvalidInput))
			return
		}
		limit = n
	}

	rows, err := h.svc.History(c.Request.Context(), middleware.Identity(c), limit)
	if err != nil {
		respondError(c, h.lg, err)
		return
	}
	if rows == nil {
		rows = []models.ClockEvent{}
	}
	ok(c, rows)
}
