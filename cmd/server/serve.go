package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/HIMANADH789/careworkers/internal/identity"
	"github.com/HIMANADH789/careworkers/internal/perimeter"
	"github.com/HIMANADH789/careworkers/internal/repos"
	"github.com/HIMANADH789/careworkers/internal/routes"
	"github.com/HIMANADH789/careworkers/internal/services"
	"github.com/HIMANADH789/careworkers/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.cfg.ValidateAuth(); err != nil {
		return err
	}
	if a.cfg.Database.AutoMigrate {
		if err := storage.Migrate(a.db, a.lg.Named("migrate")); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lg := a.lg
	workers := repos.NewWorkersRepo(a.db, lg.Named("workers"))
	events := repos.NewClockEventsRepo(a.db, lg.Named("ledger"))
	perims := repos.NewPerimeterRepo(a.db, lg.Named("perimeter"))

	cache := perimeter.NewStore(perims, a.cfg.PerimeterRefresh, lg.Named("perimeter"))
	stopRefresh := cache.Start(ctx)
	defer stopRefresh()

	resolver, err := identity.NewJWTResolver(a.cfg.Auth, workers, lg.Named("identity"))
	if err != nil {
		return err
	}

	gin.SetMode(a.cfg.GinMode)
	router := routes.NewRouter(routes.Deps{
		DB:             a.db,
		Resolver:       resolver,
		Logger:         lg,
		Clock:          services.NewClockService(events, cache, lg.Named("clock")),
		Staff:          services.NewStaffService(workers, events, lg.Named("staff")),
		Dashboard:      services.NewDashboardService(workers, events, a.cfg.Location(), lg.Named("dashboard")),
		Perimeter:      services.NewPerimeterService(perims, cache, lg.Named("perimeter")),
		RequestTimeout: a.cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("server running", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
