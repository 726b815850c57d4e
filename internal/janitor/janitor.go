// AngelaMos | 2026
// janitor.go

package janitor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/carterperez-dev/thesis-archive/internal/config"
	"github.com/carterperez-dev/thesis-archive/internal/core"
	"github.com/carterperez-dev/thesis-archive/internal/storage"
	"github.com/carterperez-dev/thesis-archive/internal/thesis"
)

const (
	sweepRejected = "rejected"
	sweepTrash    = "trash"

	resultOK      = "ok"
	resultSkipped = "skipped"
	resultError   = "error"
)

// Store is the slice of thesis.Repository the sweeps need.
type Store interface {
	ExpiredRejected(ctx context.Context, cutoff time.Time) ([]thesis.Thesis, error)
	TrashRejected(ctx context.Context, id string) error
	ExpiredTrash(ctx context.Context, cutoff time.Time) ([]thesis.Thesis, error)
	Delete(ctx context.Context, id string) error
}

type Config struct {
	Store   Store
	Storage storage.Provider
	Janitor config.JanitorConfig
	Logger  *slog.Logger
}

// Janitor moves long-rejected theses to the trash and purges trash past
// its retention window.
type Janitor struct {
	store     Store
	storage   storage.Provider
	interval  time.Duration
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func New(cfg Config) *Janitor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{
		store:     cfg.Store,
		storage:   cfg.Storage,
		interval:  cfg.Janitor.Interval,
		retention: cfg.Janitor.Retention,
		logger:    logger.With("component", "janitor"),
		now:       time.Now,
	}
}

// Report is the outcome of one run.
type Report struct {
	Trashed     int
	TrashFailed int
	Purged      int
	PurgeFailed int
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	j.logger.Info("janitor started",
		"interval", j.interval,
		"retention", j.retention,
	)

	j.RunOnce(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("janitor stopped")
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

// RunOnce runs both sweeps in order. A failing item is logged and skipped.
func (j *Janitor) RunOnce(ctx context.Context) Report {
	cutoff := j.now().Add(-j.retention)

	var report Report
	report.Trashed, report.TrashFailed = j.sweepRejected(ctx, cutoff)
	report.Purged, report.PurgeFailed = j.sweepTrash(ctx, cutoff)

	core.JanitorLastRun.Set(float64(j.now().Unix()))
	j.logger.Info("janitor run complete",
		"trashed", report.Trashed,
		"trash_failed", report.TrashFailed,
		"purged", report.Purged,
		"purge_failed", report.PurgeFailed,
	)

	return report
}

func (j *Janitor) sweepRejected(ctx context.Context, cutoff time.Time) (done, failed int) {
	expired, err := j.store.ExpiredRejected(ctx, cutoff)
	if err != nil {
		j.logger.Error("list expired rejected theses", "error", err)
		core.JanitorSwept.WithLabelValues(sweepRejected, resultError).Inc()
		return 0, 1
	}

	for _, t := range expired {
		if ctx.Err() != nil {
			return done, failed
		}

		err := j.store.TrashRejected(ctx, t.ID)
		switch {
		case errors.Is(err, core.ErrNotFound):
			// decided again or trashed by hand since the listing
			core.JanitorSwept.WithLabelValues(sweepRejected, resultSkipped).Inc()
		case err != nil:
			failed++
			core.JanitorSwept.WithLabelValues(sweepRejected, resultError).Inc()
			j.logger.Warn("trash rejected thesis", "thesis_id", t.ID, "error", err)
		default:
			done++
			core.JanitorSwept.WithLabelValues(sweepRejected, resultOK).Inc()
		}
	}

	return done, failed
}

func (j *Janitor) sweepTrash(ctx context.Context, cutoff time.Time) (done, failed int) {
	expired, err := j.store.ExpiredTrash(ctx, cutoff)
	if err != nil {
		j.logger.Error("list expired trash", "error", err)
		core.JanitorSwept.WithLabelValues(sweepTrash, resultError).Inc()
		return 0, 1
	}

	for _, t := range expired {
		if ctx.Err() != nil {
			return done, failed
		}

		if t.FileID != "" {
			err := j.storage.Delete(ctx, t.FileID)
			if err != nil && !errors.Is(err, core.ErrNotFound) {
				j.logger.Warn("delete stored file",
					"thesis_id", t.ID,
					"file_id", t.FileID,
					"error", err,
				)
			}
		}

		err := j.store.Delete(ctx, t.ID)
		switch {
		case errors.Is(err, core.ErrNotFound):
			core.JanitorSwept.WithLabelValues(sweepTrash, resultSkipped).Inc()
		case err != nil:
			failed++
			core.JanitorSwept.WithLabelValues(sweepTrash, resultError).Inc()
			j.logger.Warn("purge trashed thesis", "thesis_id", t.ID, "error", err)
		default:
			done++
			core.JanitorSwept.WithLabelValues(sweepTrash, resultOK).Inc()
		}
	}

	return done, failed
}
