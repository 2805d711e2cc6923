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

type PerimeterRepo struct {
	db *gorm.DB
	lg *zap.Logger
}

func NewPerimeterRepo(db *gorm.DB, lg *zap.Logger) *PerimeterRepo {
	return &PerimeterRepo{db: db, lg: lg}
}

// Get returns the singleton perimeter, or nil if none was ever configured.
func (r *PerimeterRepo) Get(ctx context.Context) (*models.PerimeterConfig, error) {
	var p models.PerimeterConfig
	err := r.db.WithContext(ctx).Where("singleton = ?", true).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert creates the singleton on first use and overwrites it afterwards.
func (r *PerimeterRepo) Upsert(ctx context.Context, p models.PerimeterConfig) (*models.PerimeterConfig, error) {
	p.Singleton = true

	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "singleton"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name",
			"center_lat",
			"center_lng",
			"radius_km",
			"created_by_id",
			"updated_at",
		}),
	}).Create(&p)
	if res.Error != nil {
		return nil, fmt.Errorf("upsert perimeter: %w", res.Error)
	}

	saved, err := r.Get(ctx)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, fmt.Errorf("perimeter missing after upsert")
	}

	r.lg.Info("perimeter saved",
		zap.String("name", saved.Name),
		zap.Float64("center_lat", saved.CenterLat),
		zap.Float64("center_lng", saved.CenterLng),
		zap.Float64("radius_km", saved.RadiusKm),
		zap.Uint("by", saved.CreatedByID),
	)
	return saved, nil
}
