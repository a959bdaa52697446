// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/orcafacil/backend/internal/domain/budget"
	"github.com/orcafacil/backend/pkg/metrics"
)

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron     *cron.Cron
	repo     budget.Repository
	schedule string
	logger   *slog.Logger
	metrics  *metrics.ImportMetrics
}

// NewScheduler creates a new job scheduler.
func NewScheduler(repo budget.Repository, schedule string, logger *slog.Logger, m *metrics.ImportMetrics) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	// Create cron with seconds disabled (standard 5-field format)
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:     c,
		repo:     repo,
		schedule: schedule,
		logger:   logger,
		metrics:  m,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.expireStaleQuotes)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
		slog.String("expiry_schedule", s.schedule),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers the validity sweep (for testing/admin).
func (s *Scheduler) RunNow() {
	go s.expireStaleQuotes()
}

// expireStaleQuotes flips pending quotes whose validity date has passed.
func (s *Scheduler) expireStaleQuotes() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	s.logger.Info("starting quote validity sweep")

	expired, err := s.repo.MarkExpired(ctx, time.Now())
	if err != nil {
		s.logger.Error("quote validity sweep failed", slog.Any("error", err))
		return
	}

	if s.metrics != nil {
		s.metrics.BudgetsExpired.Add(float64(expired))
	}
	s.logger.Info("quote validity sweep completed",
		slog.Int64("quotes_expired", expired),
	)
}
