package api

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/orcafacil/backend/internal/database"
	"github.com/orcafacil/backend/internal/domain/budget"
	importservice "github.com/orcafacil/backend/internal/domain/importer/service"
	"github.com/orcafacil/backend/pkg/config"
	"github.com/orcafacil/backend/pkg/cron"
	"github.com/orcafacil/backend/pkg/metrics"
	"github.com/orcafacil/backend/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config  *config.Config
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *metrics.ImportMetrics

	BudgetRepo  budget.Repository
	FileStorage storage.Storage

	ImportService *importservice.Service
	Intake        *importservice.Intake
	Scheduler     *cron.Scheduler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(prometheus.DefaultRegisterer),
	}

	if err := deps.initDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase connects the pool and runs migrations
func (d *Dependencies) initDatabase(ctx context.Context) error {
	dsn := d.Config.Database.DSN()

	if err := database.Migrate(dsn); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	pool, err := database.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	d.Pool = pool

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initServices initializes the repository, service and scheduler layers
func (d *Dependencies) initServices() error {
	d.BudgetRepo = budget.NewPostgresRepository(d.Pool)

	// Archived originals live next to the inbox; the intake sweep skips
	// anything that is not an owner directory.
	fileStorage, err := storage.NewLocalStorage(filepath.Join(d.Config.Import.InboxDir, "archive"))
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}
	d.FileStorage = fileStorage

	d.ImportService = importservice.New(importservice.Options{
		BatchSize:    d.Config.Import.BatchSize,
		ValidityDays: d.Config.Import.ValidityDays,
		CentsMode:    d.Config.Import.CentsMode,
		DateFormat:   d.Config.Import.DateFormat,
		Location:     d.Config.Import.Location(),
	}, d.Logger, d.Metrics)

	d.Intake = importservice.NewIntake(
		d.ImportService,
		d.BudgetRepo,
		d.FileStorage,
		d.Config.Import.InboxDir,
		30*time.Second,
		d.Logger,
	)

	d.Scheduler = cron.NewScheduler(d.BudgetRepo, d.Config.Cron.ExpirySchedule, d.Logger, d.Metrics)

	d.Logger.Info("services initialized")
	return nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.Scheduler != nil {
		<-d.Scheduler.Stop().Done()
	}
	if d.Pool != nil {
		d.Pool.Close()
	}
	d.Logger.Info("cleanup completed")
}
