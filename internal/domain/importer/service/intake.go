package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/orcafacil/backend/internal/domain/budget"
	"github.com/orcafacil/backend/pkg/storage"
)

const defaultSweepInterval = 30 * time.Second

// Intake watches a drop directory for quote files and runs them through the
// import pipeline. The directory is laid out as <dir>/<owner-uuid>/<file>;
// anything that is not an owner directory is ignored. Successfully imported
// files are archived through the storage layer and removed from the inbox;
// files that fail at the file level are renamed with a ".failed" suffix so
// they stop being retried but stay available for inspection.
type Intake struct {
	svc      *Service
	repo     budget.Repository
	archive  storage.Storage
	dir      string
	interval time.Duration
	logger   *slog.Logger
}

func NewIntake(svc *Service, repo budget.Repository, archive storage.Storage, dir string, interval time.Duration, logger *slog.Logger) *Intake {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Intake{
		svc:      svc,
		repo:     repo,
		archive:  archive,
		dir:      dir,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps the inbox on a fixed interval until ctx is canceled.
func (i *Intake) Run(ctx context.Context) error {
	if err := os.MkdirAll(i.dir, 0o755); err != nil {
		return fmt.Errorf("create inbox dir: %w", err)
	}

	ticker := time.NewTicker(i.interval)
	defer ticker.Stop()

	i.logger.Info("inbox intake started", "dir", i.dir, "interval", i.interval)
	for {
		if err := i.Sweep(ctx); err != nil {
			i.logger.Error("inbox sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			i.logger.Info("inbox intake stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Sweep processes every pending file currently in the inbox.
func (i *Intake) Sweep(ctx context.Context) error {
	owners, err := os.ReadDir(i.dir)
	if err != nil {
		return fmt.Errorf("read inbox dir: %w", err)
	}

	for _, entry := range owners {
		if !entry.IsDir() {
			continue
		}
		ownerID, err := uuid.Parse(entry.Name())
		if err != nil {
			continue
		}
		if err := i.sweepOwner(ctx, ownerID, filepath.Join(i.dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (i *Intake) sweepOwner(ctx context.Context, ownerID uuid.UUID, dir string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read owner dir: %w", err)
	}

	for _, entry := range files {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), ".failed") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(dir, entry.Name())
		if err := i.processFile(ctx, ownerID, path); err != nil {
			i.logger.Error("import rejected, parking file",
				"owner_id", ownerID, "file", entry.Name(), "error", err)
			if renameErr := os.Rename(path, path+".failed"); renameErr != nil {
				return fmt.Errorf("park failed file: %w", renameErr)
			}
		}
	}
	return nil
}

func (i *Intake) processFile(ctx context.Context, ownerID uuid.UUID, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	name := filepath.Base(path)

	res, err := i.svc.ImportFile(ctx, ownerID, name, data)
	if err != nil {
		return err
	}

	inserted := 0
	if len(res.Records) > 0 {
		inserted, err = i.repo.BulkInsert(ctx, res.Records)
		if err != nil {
			return fmt.Errorf("persist records: %w", err)
		}
	}

	info, err := i.archive.Save(ctx, ownerID, name, contentTypeFor(name), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("archive file: %w", err)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove inbox file: %w", err)
	}

	i.logger.Info("inbox file imported",
		"owner_id", ownerID,
		"file", name,
		"file_id", info.ID,
		"job_id", res.JobID,
		"total_rows", res.TotalRows,
		"valid_rows", res.ValidRows,
		"invalid_rows", res.InvalidRows,
		"inserted", inserted,
		"deduped", len(res.Records)-inserted,
	)
	return nil
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return "text/csv"
	case ".tsv":
		return "text/tab-separated-values"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".json":
		return "application/json"
	case ".xml":
		return "application/xml"
	default:
		return "application/octet-stream"
	}
}
