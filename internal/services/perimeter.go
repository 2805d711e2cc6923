package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/HIMANADH789/careworkers/internal/identity"
	"github.com/HIMANADH789/careworkers/internal/models"
	"github.com/HIMANADH789/careworkers/internal/perimeter"
	"go.uber.org/zap"
)

type PerimeterRepository interface {
	Get(ctx context.Context) (*models.PerimeterConfig, error)
	Upsert(ctx context.Context, p models.PerimeterConfig) (*models.PerimeterConfig, error)
}

type PerimeterInput struct {
	Name      string  `json:"name"`
	CenterLat float64 `json:"centerLat"`
	CenterLng float64 `json:"centerLng"`
	RadiusKm  float64 `json:"radiusKm"`
}

func (in PerimeterInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: name is required", models.ErrInvalidInput)
	case math.IsNaN(in.CenterLat) || in.CenterLat < -90 || in.CenterLat > 90:
		return fmt.Errorf("%w: centerLat must be within [-90, 90]", models.ErrInvalidInput)
	case math.IsNaN(in.CenterLng) || in.CenterLng < -180 || in.CenterLng > 180:
		return fmt.Errorf("%w: centerLng must be within [-180, 180]", models.ErrInvalidInput)
	case math.IsNaN(in.RadiusKm) || math.IsInf(in.RadiusKm, 0) || in.RadiusKm <= 0:
		return fmt.Errorf("%w: radiusKm must be positive", models.ErrInvalidInput)
	}
	return nil
}

type PerimeterService struct {
	repo  PerimeterRepository
	cache *perimeter.Store
	lg    *zap.Logger
}

func NewPerimeterService(repo PerimeterRepository, cache *perimeter.Store, lg *zap.Logger) *PerimeterService {
	return &PerimeterService{repo: repo, cache: cache, lg: lg}
}

// Get returns the stored perimeter, or nil when none was ever configured.
func (s *PerimeterService) Get(ctx context.Context, actor identity.Identity) (*models.PerimeterConfig, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	p, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load perimeter: %w", err)
	}
	return p, nil
}

// Set upserts the singleton and writes it through to the cache so this
// process sees the new value before the next refresh. Any authenticated actor
// may call it; role policy belongs to the caller.
func (s *PerimeterService) Set(ctx context.Context, actor identity.Identity, in PerimeterInput) (*models.PerimeterConfig, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	saved, err := s.repo.Upsert(ctx, models.PerimeterConfig{
		Name:        strings.TrimSpace(in.Name),
		CenterLat:   in.CenterLat,
		CenterLng:   in.CenterLng,
		RadiusKm:    in.RadiusKm,
		CreatedByID: actor.WorkerID,
	})
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(perimeter.FromConfig(*saved))
	}
	return saved, nil
}
