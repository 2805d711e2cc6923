package handlers

import (
	"net/http"

	"github.com/HIMANADH789/careworkers/internal/middleware"
	"github.com/HIMANADH789/careworkers/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PerimeterHandler struct {
	svc *services.PerimeterService
	lg  *zap.Logger
}

func NewPerimeterHandler(svc *services.PerimeterService, lg *zap.Logger) *PerimeterHandler {
	return &PerimeterHandler{svc: svc, lg: lg}
}

type SetPerimeterReq struct {
	Name      string   `json:"name" binding:"required"`
	CenterLat *float64 `json:"centerLat" binding:"required"`
	CenterLng *float64 `json:"centerLng" binding:"required"`
	RadiusKm  *float64 `json:"radiusKm" binding:"required"`
}

// Get returns the stored perimeter; data is null when none was configured.
func (h *PerimeterHandler) Get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), middleware.Identity(c))
	if err != nil {
		respondError(c, h.lg, err)
		return
	}
	ok(c, p)
}

func (h *PerimeterHandler) Set(c *gin.Context) {
	var req SetPerimeterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "detail": err.Error()})
		return
	}

	saved, err := h.svc.Set(c.Request.Context(), middleware.Identity(c), services.PerimeterInput{
		Name:      req.Name,
		CenterLat: *req.CenterLat,
		CenterLng: *req.CenterLng,
		RadiusKm:  *req.RadiusKm,
	})
	if err != nil {
		respondError(c, h.lg, err)
		return
	}
	ok(c, saved)
}
