package handlers

import (
	"github.com/HIMANADH789/careworkers/internal/middleware"
	"github.com/HIMANADH789/careworkers/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	svc *services.DashboardService
	lg  *zap.Logger
}

func NewDashboardHandler(svc *services.DashboardService, lg *zap.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, lg: lg}
}

func (h *DashboardHandler) Get(c *gin.Context) {
	snap, err := h.svc.Dashboard(c.Request.Context(), middleware.Identity(c))
	if err != nil {
		respondError(c, h.lg, err)
		return
	}
	ok(c, snap)
}
