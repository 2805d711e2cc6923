package services

import (
	"context"
	"fmt"
	"time"

	"github.com/HIMANADH789/careworkers/internal/analytics"
	"github.com/HIMANADH789/careworkers/internal/identity"
	"github.com/HIMANADH789/careworkers/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Roster interface {
	ListByRole(ctx context.Context, role models.Role) ([]models.Worker, error)
	CountByRole(ctx context.Context, role models.Role) (int64, error)
}

type EventWindow interface {
	WindowedEvents(ctx context.Context, role models.Role, since time.Time) ([]models.WindowedEvent, error)
	CountByRole(ctx context.Context, role models.Role) (int64, error)
}

type DashboardService struct {
	workers Roster
	events  EventWindow
	loc     *time.Location
	lg      *zap.Logger

	Now func() time.Time
}

func NewDashboardService(workers Roster, events EventWindow, loc *time.Location, lg *zap.Logger) *DashboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &DashboardService{workers: workers, events: events, loc: loc, lg: lg, Now: time.Now}
}

// Dashboard loads the roster and the trailing month of careworker events and
// hands them to the aggregation engine. Managers only. Any failed read fails
// the whole snapshot with ErrAggregationFailed.
func (s *DashboardService) Dashboard(ctx context.Context, actor identity.Identity) (*analytics.Snapshot, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}

	now := s.Now()
	since := now.AddDate(0, 0, -analytics.MonthWindowDays)

	var (
		roster   []models.Worker
		managers int64
		shifts   int64
		events   []models.WindowedEvent
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		roster, err = s.workers.ListByRole(gctx, models.RoleCareworker)
		if err != nil {
			return fmt.Errorf("list careworkers: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		managers, err = s.workers.CountByRole(gctx, models.RoleManager)
		if err != nil {
			return fmt.Errorf("count managers: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		shifts, err = s.events.CountByRole(gctx, models.RoleCareworker)
		if err != nil {
			return fmt.Errorf("count shifts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		events, err = s.events.WindowedEvents(gctx, models.RoleCareworker, since)
		if err != nil {
			return fmt.Errorf("load windowed events: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.lg.Error("dashboard aggregation failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", models.ErrAggregationFailed, err)
	}

	snap := analytics.Compute(analytics.Input{
		Now:          now,
		Location:     s.loc,
		Careworkers:  roster,
		ManagerCount: int(managers),
		TotalShifts:  int(shifts),
		Events:       events,
	})
	return &snap, nil
}
