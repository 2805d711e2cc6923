package handlers

import (
	"net/http"
	"time"

	"github.com/HIMANADH789/careworkers/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const healthTimeout = 3 * time.Second

type HealthHandler struct {
	db *gorm.DB
	lg *zap.Logger
}

func NewHealthHandler(db *gorm.DB, lg *zap.Logger) *HealthHandler {
	return &HealthHandler{db: db, lg: lg}
}

func (h *HealthHandler) Health(c *gin.Context) {
	if err := storage.HealthCheck(c.Request.Context(), h.db, healthTimeout); err != nil {
		h.lg.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "degraded",
			"database": "unreachable",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "ok",
		"message":  "careworkers backend is running",
	})
}
