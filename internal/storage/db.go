package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/HIMANADH789/careworkers/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open connects with the named driver. TranslateError is on so unique
// violations surface as gorm.ErrDuplicatedKey on every dialect.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc:        func() time.Time { return models.TruncateMillis(time.Now()) },
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if driver == DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// sqlite allows one writer; a single connection serialises
		// transactions instead of failing them with SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

func Close(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func HealthCheck(ctx context.Context, db *gorm.DB, timeout time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// oneOpenShiftIndex allows at most one row per worker with a NULL clock-out.
// Partial indexes are understood by both postgres and sqlite.
const oneOpenShiftIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_clock_events_one_open_shift
ON clock_events (worker_id) WHERE clock_out_at IS NULL`

func Migrate(db *gorm.DB, lg *zap.Logger) error {
	if err := db.AutoMigrate(
		&models.Worker{},
		&models.ClockEvent{},
		&models.PerimeterConfig{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	if err := db.Exec(oneOpenShiftIndex).Error; err != nil {
		return fmt.Errorf("create one-open-shift index: %w", err)
	}

	lg.Info("database migrated")
	return nil
}
