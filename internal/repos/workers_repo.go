package repos

import (
	"context"
	"errors"
	"fmt"

	"github.com/HIMANADH789/careworkers/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WorkersRepo struct {
	db *gorm.DB
	lg *zap.Logger
}

func NewWorkersRepo(db *gorm.DB, lg *zap.Logger) *WorkersRepo {
	return &WorkersRepo{db: db, lg: lg}
}

// FirstOrCreateBySubject returns the worker bound to w.AuthSubject, inserting
// w if none exists yet. Concurrent first logins for the same subject converge
// on one row. created reports whether this call inserted it.
func (r *WorkersRepo) FirstOrCreateBySubject(ctx context.Context, w models.Worker) (*models.Worker, bool, error) {
	if w.AuthSubject == "" {
		return nil, false, fmt.Errorf("%w: empty auth subject", models.ErrInvalidInput)
	}

	existing, err := r.FindBySubject(ctx, w.AuthSubject)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "auth_subject"}},
			DoNothing: true,
		}).
		Omit(clause.Associations).
		Create(&w)
	if res.Error != nil {
		return nil, false, fmt.Errorf("create worker: %w", res.Error)
	}

	got, err := r.FindBySubject(ctx, w.AuthSubject)
	if err != nil {
		return nil, false, err
	}
	if got == nil {
		return nil, false, fmt.Errorf("worker %q vanished after insert", w.AuthSubject)
	}
	return got, res.RowsAffected > 0, nil
}

func (r *WorkersRepo) FindBySubject(ctx context.Context, subject string) (*models.Worker, error) {
	var w models.Worker
	err := r.db.WithContext(ctx).Where("auth_subject = ?", subject).Take(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WorkersRepo) Get(ctx context.Context, id uint) (*models.Worker, error) {
	var w models.Worker
	err := r.db.WithContext(ctx).Take(&w, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: id %d", models.ErrWorkerNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WorkersRepo) UpdateName(ctx context.Context, id uint, name string) (*models.Worker, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Worker{}).
		Where("id = ?", id).
		Update("name", name)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: id %d", models.ErrWorkerNotFound, id)
	}
	return r.Get(ctx, id)
}

// ListByRole returns every worker with the role ordered by name.
func (r *WorkersRepo) ListByRole(ctx context.Context, role models.Role) ([]models.Worker, error) {
	var rows []models.Worker
	if err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Order("name ASC").Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *WorkersRepo) CountByRole(ctx context.Context, role models.Role) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Worker{}).Where("role = ?", role).Count(&n).Error
	return n, err
}
