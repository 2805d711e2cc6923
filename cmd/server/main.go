package main

import (
	"fmt"
	"os"

	"github.com/HIMANADH789/careworkers/internal/config"
	"github.com/HIMANADH789/careworkers/internal/logging"
	"github.com/HIMANADH789/careworkers/internal/storage"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:           "careworkers",
	Short:         "Careworker shift tracking backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, perimeterCmd)
}

// app holds what every subcommand needs.
type app struct {
	cfg *config.Config
	lg  *zap.Logger
	db  *gorm.DB
}

func bootstrap() (*app, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	lg, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	db, err := storage.Open(cfg.Database.Driver, cfg.DSN())
	if err != nil {
		_ = lg.Sync()
		return nil, err
	}
	lg.Info("database connected", zap.String("driver", cfg.Database.Driver))

	return &app{cfg: cfg, lg: lg, db: db}, nil
}

func (a *app) close() {
	storage.Close(a.db)
	_ = a.lg.Sync()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
