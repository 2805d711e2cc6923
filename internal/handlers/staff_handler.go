package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/HIMANADH789/careworkers/internal/middleware"
	"github.com/HIMANADH789/careworkers/internal/models"
	"github.com/HIMANADH789/careworkers/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StaffHandler serves the caller's profile and the manager roster views.
type StaffHandler struct {
	svc *services.StaffService
	lg  *zap.Logger
}

func NewStaffHandler(svc *services.StaffService, lg *zap.Logger) *StaffHandler {
	return &StaffHandler{svc: svc, lg: lg}
}

type UpdateMeReq struct {
	Name string `json:"name" binding:"required"`
}

func (h *StaffHandler) Me(c *gin.Context) {
	w, err := h.svc.Me(c.Request.Context(), middleware.Identity(c))
	if err != nil {
		respondError(c, h.lg, err)
		return
	}
	ok(c, w)
}

func (h *StaffHandler) UpdateMe(c *gin.Context) {
	var req UpdateMeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "detail": err.Error()})
		return
	}

	w, err := h.svc.UpdateName(c.Request.Context(), middleware.Identity(c), req.Name)
	if err != nil {
		respondError(c, h.lg, err)
		return
	}
	ok(c, w)
}

func (h *StaffHandler) List(c *gin.Context) {
	rows, err := h.svc.WithLastClock(c.Request.Context(), middleware.Identity(c))
	if err != nil {
		respondError(c, h.lg, err)
		return
	}
	ok(c, rows)
}

func (h *StaffHandler) ClockedIn(c *gin.Context) {
	rows, err := h.svc.CurrentlyClockedIn(c.Request.Context(), middleware.Identity(c))
	if err != nil {
		respondError(c, h.lg, err)
		return
	}
	ok(c, rows)
}

func (h *StaffHandler) History(c *gin.Context) {
	idStr := strings.TrimSpace(c.Param("id"))
	id64, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id64 == 0 {
		respondError(c, h.lg, fmt.Errorf("%w: invalid worker id %q", models.ErrInvalidInput, idStr))
		return
	}

	hist, err := h.svc.HistoryByWorker(c.Request.Context(), middleware.Identity(c), uint(id64))
	if err != nil {
		respondError(c, h.lg, err)
		return
	}
	ok(c, hist)
}
