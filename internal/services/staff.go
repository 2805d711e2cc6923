package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/HIMANADH789/careworkers/internal/identity"
	"github.com/HIMANADH789/careworkers/internal/models"
	"go.uber.org/zap"
)

const maxNameLength = 120

type WorkerDirectory interface {
	Get(ctx context.Context, id uint) (*models.Worker, error)
	UpdateName(ctx context.Context, id uint, name string) (*models.Worker, error)
	ListByRole(ctx context.Context, role models.Role) ([]models.Worker, error)
}

type ShiftLookup interface {
	LatestPerWorker(ctx context.Context, role models.Role) (map[uint]models.ClockEvent, error)
	History(ctx context.Context, workerID uint, limit int) ([]models.ClockEvent, error)
}

type ClockedInWorker struct {
	WorkerID  uint             `json:"workerId"`
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	EventID   uint             `json:"eventId"`
	ClockInAt models.Timestamp `json:"clockInAt"`
}

type WorkerLastClock struct {
	models.Worker
	LastClock *models.ClockEvent `json:"lastClock"`
}

type WorkerHistory struct {
	ID      uint                `json:"id"`
	Name    string              `json:"name"`
	Email   string              `json:"email"`
	Records []models.ClockEvent `json:"records"`
}

// StaffService covers the worker directory: the caller's own profile and the
// manager views over the careworker roster.
type StaffService struct {
	workers WorkerDirectory
	shifts  ShiftLookup
	lg      *zap.Logger
}

func NewStaffService(workers WorkerDirectory, shifts ShiftLookup, lg *zap.Logger) *StaffService {
	return &StaffService{workers: workers, shifts: shifts, lg: lg}
}

func (s *StaffService) Me(ctx context.Context, actor identity.Identity) (*models.Worker, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.workers.Get(ctx, actor.WorkerID)
}

func (s *StaffService) UpdateName(ctx context.Context, actor identity.Identity, name string) (*models.Worker, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLength {
		return nil, fmt.Errorf("%w: name must be 1-%d characters", models.ErrInvalidInput, maxNameLength)
	}
	w, err := s.workers.UpdateName(ctx, actor.WorkerID, name)
	if err != nil {
		return nil, err
	}
	s.lg.Info("worker renamed", zap.Uint("worker_id", w.ID))
	return w, nil
}

// CurrentlyClockedIn lists careworkers whose most recent shift is open.
func (s *StaffService) CurrentlyClockedIn(ctx context.Context, actor identity.Identity) ([]ClockedInWorker, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	roster, latest, err := s.rosterWithLatest(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]ClockedInWorker, 0)
	for _, w := range roster {
		ev, ok := latest[w.ID]
		if !ok || !ev.Open() {
			continue
		}
		out = append(out, ClockedInWorker{
			WorkerID:  w.ID,
			Name:      w.Name,
			Email:     w.Email,
			EventID:   ev.ID,
			ClockInAt: models.NewTimestamp(ev.ClockInAt),
		})
	}
	return out, nil
}

// WithLastClock lists every careworker with their most recent shift, or nil.
func (s *StaffService) WithLastClock(ctx context.Context, actor identity.Identity) ([]WorkerLastClock, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	roster, latest, err := s.rosterWithLatest(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]WorkerLastClock, 0, len(roster))
	for _, w := range roster {
		row := WorkerLastClock{Worker: w}
		if ev, ok := latest[w.ID]; ok {
			row.LastClock = &ev
		}
		out = append(out, row)
	}
	return out, nil
}

// HistoryByWorker returns one worker's full history, newest first.
func (s *StaffService) HistoryByWorker(ctx context.Context, actor identity.Identity, workerID uint) (*WorkerHistory, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	w, err := s.workers.Get(ctx, workerID)
	if err != nil {
		return nil, err
	}
	records, err := s.shifts.History(ctx, workerID, 0)
	if err != nil {
		return nil, fmt.Errorf("load history for worker %d: %w", workerID, err)
	}
	if records == nil {
		records = []models.ClockEvent{}
	}
	return &WorkerHistory{ID: w.ID, Name: w.Name, Email: w.Email, Records: records}, nil
}

func (s *StaffService) rosterWithLatest(ctx context.Context) ([]models.Worker, map[uint]models.ClockEvent, error) {
	roster, err := s.workers.ListByRole(ctx, models.RoleCareworker)
	if err != nil {
		return nil, nil, fmt.Errorf("list careworkers: %w", err)
	}
	latest, err := s.shifts.LatestPerWorker(ctx, models.RoleCareworker)
	if err != nil {
		return nil, nil, fmt.Errorf("load latest shifts: %w", err)
	}
	return roster, latest, nil
}
