package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HIMANADH789/careworkers/internal/geo"
	"github.com/HIMANADH789/careworkers/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClockEventsRepo is the clock event ledger.
type ClockEventsRepo struct {
	db *gorm.DB
	lg *zap.Logger
}

func NewClockEventsRepo(db *gorm.DB, lg *zap.Logger) *ClockEventsRepo {
	return &ClockEventsRepo{db: db, lg: lg}
}

// OpenShift inserts an open event for the worker. The worker row is locked
// and the open-shift check runs in the same transaction, so of two racing
// clock-ins exactly one succeeds; the other gets ErrWriteConflict. The
// partial unique index backs this up on dialects without row locks.
func (r *ClockEventsRepo) OpenShift(ctx context.Context, workerID uint, at time.Time, p geo.Point, note *string) (*models.ClockEvent, error) {
	ev := models.ClockEvent{
		WorkerID:    workerID,
		ClockInAt:   models.TruncateMillis(at),
		ClockInLat:  p.Lat,
		ClockInLng:  p.Lon,
		ClockInNote: note,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var w models.Worker
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&w, workerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrWorkerNotFound
			}
			return fmt.Errorf("lock worker %d: %w", workerID, err)
		}

		var open int64
		if err := tx.Model(&models.ClockEvent{}).
			Where("worker_id = ? AND clock_out_at IS NULL", workerID).
			Count(&open).Error; err != nil {
			return fmt.Errorf("count open shifts: %w", err)
		}
		if open > 0 {
			return fmt.Errorf("%w: worker %d already has an open shift", models.ErrWriteConflict, workerID)
		}

		if err := tx.Omit(clause.Associations).Create(&ev).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: worker %d already has an open shift", models.ErrWriteConflict, workerID)
			}
			return fmt.Errorf("insert clock event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.lg.Debug("shift opened", zap.Uint("worker_id", workerID), zap.Uint("event_id", ev.ID))
	return &ev, nil
}

// CloseShift stamps the clock-out on an open event. The update is guarded by
// clock_out_at IS NULL so only one of several racing calls can win; the rest
// get ErrNoActiveShift, as does an unknown or already-closed id.
func (r *ClockEventsRepo) CloseShift(ctx context.Context, eventID uint, at time.Time, p geo.Point, note *string) (*models.ClockEvent, error) {
	var ev models.ClockEvent

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ClockEvent{}).
			Where("id = ? AND clock_out_at IS NULL", eventID).
			Updates(map[string]any{
				"clock_out_at":   models.TruncateMillis(at),
				"clock_out_lat":  p.Lat,
				"clock_out_lng":  p.Lon,
				"clock_out_note": note,
			})
		if res.Error != nil {
			return fmt.Errorf("close clock event %d: %w", eventID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: event %d is not open", models.ErrNoActiveShift, eventID)
		}
		return tx.First(&ev, eventID).Error
	})
	if err != nil {
		return nil, err
	}

	r.lg.Debug("shift closed", zap.Uint("worker_id", ev.WorkerID), zap.Uint("event_id", ev.ID))
	return &ev, nil
}

// LatestShift returns the worker's most recent event, open or closed, or nil.
func (r *ClockEventsRepo) LatestShift(ctx context.Context, workerID uint) (*models.ClockEvent, error) {
	return r.latest(ctx, "worker_id = ?", workerID)
}

// LatestOpenShift returns the worker's open event, or nil.
func (r *ClockEventsRepo) LatestOpenShift(ctx context.Context, workerID uint) (*models.ClockEvent, error) {
	return r.latest(ctx, "worker_id = ? AND clock_out_at IS NULL", workerID)
}

func (r *ClockEventsRepo) latest(ctx context.Context, query string, args ...any) (*models.ClockEvent, error) {
	var ev models.ClockEvent
	err := r.db.WithContext(ctx).
		Where(query, args...).
		Order("clock_in_at DESC").Order("id DESC").
		Take(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// History lists a worker's events, most recent first. limit <= 0 means all.
func (r *ClockEventsRepo) History(ctx context.Context, workerID uint, limit int) ([]models.ClockEvent, error) {
	q := r.db.WithContext(ctx).
		Where("worker_id = ?", workerID).
		Order("clock_in_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []models.ClockEvent
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

type windowedRow struct {
	ID           uint
	WorkerID     uint
	ClockInAt    time.Time
	ClockInLat   float64
	ClockInLng   float64
	ClockInNote  *string
	ClockOutAt   *time.Time
	ClockOutLat  *float64
	ClockOutLng  *float64
	ClockOutNote *string
	WorkerName   string
	WorkerRole   string
}

// WindowedEvents returns every event with clock-in at or after since whose
// owner has the given role, oldest first, joined with the owner's name and role.
func (r *ClockEventsRepo) WindowedEvents(ctx context.Context, role models.Role, since time.Time) ([]models.WindowedEvent, error) {
	var rows []windowedRow
	err := r.db.WithContext(ctx).
		Table("clock_events").
		Select("clock_events.*, workers.name AS worker_name, workers.role AS worker_role").
		Joins("JOIN workers ON workers.id = clock_events.worker_id").
		Where("workers.role = ? AND clock_events.clock_in_at >= ?", role, since.UTC()).
		Order("clock_events.clock_in_at ASC").Order("clock_events.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.WindowedEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.WindowedEvent{
			ClockEvent: models.ClockEvent{
				ID:           row.ID,
				WorkerID:     row.WorkerID,
				ClockInAt:    row.ClockInAt,
				ClockInLat:   row.ClockInLat,
				ClockInLng:   row.ClockInLng,
				ClockInNote:  row.ClockInNote,
				ClockOutAt:   row.ClockOutAt,
				ClockOutLat:  row.ClockOutLat,
				ClockOutLng:  row.ClockOutLng,
				ClockOutNote: row.ClockOutNote,
			},
			WorkerName: row.WorkerName,
			WorkerRole: models.Role(row.WorkerRole),
		})
	}
	return out, nil
}

// CountByRole counts all events, open or closed, owned by workers of a role.
func (r *ClockEventsRepo) CountByRole(ctx context.Context, role models.Role) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.ClockEvent{}).
		Joins("JOIN workers ON workers.id = clock_events.worker_id").
		Where("workers.role = ?", role).
		Count(&n).Error
	return n, err
}

// LatestPerWorker returns each worker's most recent event keyed by worker id,
// limited to workers of the given role. Workers without events are absent.
func (r *ClockEventsRepo) LatestPerWorker(ctx context.Context, role models.Role) (map[uint]models.ClockEvent, error) {
	latestIDs := r.db.
		Table("clock_events AS ce").
		Select("MAX(ce.id)").
		Joins("JOIN workers ON workers.id = ce.worker_id").
		Where("workers.role = ?", role).
		Where("ce.clock_in_at = (?)",
			r.db.Table("clock_events AS inner_ce").
				Select("MAX(inner_ce.clock_in_at)").
				Where("inner_ce.worker_id = ce.worker_id"),
		).
		Group("ce.worker_id")

	var rows []models.ClockEvent
	if err := r.db.WithContext(ctx).
		Where("id IN (?)", latestIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[uint]models.ClockEvent, len(rows))
	for _, ev := range rows {
		out[ev.WorkerID] = ev
	}
	return out, nil
}
