package routes

import (
	"time"

	"github.com/HIMANADH789/careworkers/internal/handlers"
	"github.com/HIMANADH789/careworkers/internal/identity"
	"github.com/HIMANADH789/careworkers/internal/logging"
	"github.com/HIMANADH789/careworkers/internal/middleware"
	"github.com/HIMANADH789/careworkers/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Deps struct {
	DB       *gorm.DB
	Resolver identity.Resolver
	Logger   *zap.Logger

	Clock     *services.ClockService
	Staff     *services.StaffService
	Dashboard *services.DashboardService
	Perimeter *services.PerimeterService

	RequestTimeout time.Duration
}

func NewRouter(d Deps) *gin.Engine {
	lg := d.Logger
	r := gin.New()
	r.Use(middleware.RequestID(), logging.GinLogger(lg.Named("http")), logging.GinRecovery(lg))

	healthH := handlers.NewHealthHandler(d.DB, lg)
	clockH := handlers.NewClockHandler(d.Clock, lg.Named("clock"))
	staffH := handlers.NewStaffHandler(d.Staff, lg.Named("staff"))
	dashH := handlers.NewDashboardHandler(d.Dashboard, lg.Named("dashboard"))
	perimH := handlers.NewPerimeterHandler(d.Perimeter, lg.Named("perimeter"))

	r.GET("/health", healthH.Health)

	api := r.Group("/api/v1")
	api.Use(middleware.Timeout(d.RequestTimeout), middleware.AuthRequired(d.Resolver, lg))
	{
		api.GET("/me", staffH.Me)
		api.PATCH("/me", staffH.UpdateMe)
		api.GET("/me/history", clockH.History)

		api.GET("/clock/status", clockH.Status)
		api.POST("/clock/in", clockH.ClockIn)
		api.POST("/clock/out", clockH.ClockOut)

		api.GET("/perimeter", perimH.Get)
	}

	manager := api.Group("")
	manager.Use(middleware.RequireManager())
	{
		manager.PUT("/perimeter", perimH.Set)
		manager.GET("/dashboard", dashH.Get)
		manager.GET("/staff", staffH.List)
		manager.GET("/staff/clocked-in", staffH.ClockedIn)
		manager.GET("/staff/:id/history", staffH.History)
	}

	return r
}
