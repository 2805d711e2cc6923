// Package perimeter keeps the allowed work perimeter in process memory.
//
// The singleton row is loaded at startup and re-read on a fixed interval;
// each refresh swaps the cached value atomically so readers never see a
// half-updated perimeter. Request paths only ever read the cache.
package perimeter

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/HIMANADH789/careworkers/internal/geo"
	"github.com/HIMANADH789/careworkers/internal/models"
	"go.uber.org/zap"
)

const DefaultRefreshInterval = 60 * time.Second

// Perimeter is the evaluated form of the stored config.
type Perimeter struct {
	Name         string
	Center       geo.Point
	RadiusMeters float64
}

func FromConfig(c models.PerimeterConfig) Perimeter {
	return Perimeter{
		Name:         c.Name,
		Center:       geo.Point{Lat: c.CenterLat, Lon: c.CenterLng},
		RadiusMeters: c.RadiusMeters(),
	}
}

// Contains reports whether p lies within the radius. NaN distances are
// outside.
func (pm Perimeter) Contains(p geo.Point) bool {
	d := geo.Distance(p, pm.Center)
	return d <= pm.RadiusMeters
}

// Loader reads the persisted singleton; nil means never configured.
type Loader interface {
	Get(ctx context.Context) (*models.PerimeterConfig, error)
}

type Store struct {
	loader   Loader
	interval time.Duration
	timeout  time.Duration
	lg       *zap.Logger

	current atomic.Pointer[Perimeter]
}

func NewStore(loader Loader, interval time.Duration, lg *zap.Logger) *Store {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	timeout := interval / 2
	if timeout > 10*time.Second {
		timeout = 10 * time.Second
	}
	return &Store{loader: loader, interval: interval, timeout: timeout, lg: lg}
}

// NewFixed returns a store that always reports p and never touches storage.
func NewFixed(p Perimeter) *Store {
	s := &Store{lg: zap.NewNop()}
	s.Set(p)
	return s
}

// Current returns the cached perimeter; ok is false when none has ever
// been loaded, and callers must then refuse geofenced operations.
func (s *Store) Current() (Perimeter, bool) {
	p := s.current.Load()
	if p == nil {
		return Perimeter{}, false
	}
	return *p, true
}

// Set replaces the cached perimeter, used for write-through after an upsert.
func (s *Store) Set(p Perimeter) {
	s.current.Store(&p)
}

// Refresh re-reads storage once. On error, or when storage has no row, the
// previous value is kept. The error is logged and returned for callers that
// care (startup); the background loop ignores it.
func (s *Store) Refresh(ctx context.Context) error {
	if s.loader == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cfg, err := s.loader.Get(ctx)
	if err != nil {
		s.lg.Error("perimeter refresh failed, keeping previous value", zap.Error(err))
		return err
	}
	if cfg == nil {
		if _, ok := s.Current(); !ok {
			s.lg.Warn("no location perimeter configured")
		}
		return nil
	}

	next := FromConfig(*cfg)
	if prev, ok := s.Current(); !ok || prev != next {
		s.lg.Info("perimeter loaded",
			zap.String("name", next.Name),
			zap.Float64("center_lat", next.Center.Lat),
			zap.Float64("center_lon", next.Center.Lon),
			zap.Float64("radius_m", next.RadiusMeters),
		)
	}
	s.Set(next)
	return nil
}

// Run refreshes on every tick until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.Refresh(ctx)
		}
	}
}

// Start does an initial load and launches Run in a goroutine. The returned
// function stops the loop and waits for it to exit.
func (s *Store) Start(ctx context.Context) (stop func()) {
	_ = s.Refresh(ctx)

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	return func() {
		cancel()
		<-done
	}
}
