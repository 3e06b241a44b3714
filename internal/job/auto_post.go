// Package job holds the scheduled background work of the engine.
package job

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/internal/metrics"
	"github.com/segyhp/amortization-engine/pkg/calendar"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"go.uber.org/zap"
)

// EntryPoster is the part of the entry service the auto-post job drives.
type EntryPoster interface {
	FindPendingAutoPostEntriesDueByDate(ctx context.Context, asOf time.Time) ([]*domain.AmortizationEntry, error)
	PostEntry(ctx context.Context, id uuid.UUID) (*domain.AmortizationEntry, error)
}

// RunSummary is the outcome of one auto-post run.
type RunSummary struct {
	AsOf    time.Time
	Due     int
	Posted  int
	Skipped int // already handled by a concurrent caller
	Failed  int
}

// AutoPostJob posts every due entry of ACTIVE auto-post schedules.
type AutoPostJob struct {
	entries  EntryPoster
	logger   *zap.Logger
	location *time.Location
	timeout  time.Duration
	now      func() time.Time

	running atomic.Bool
}

// NewAutoPostJob builds the job. Due dates are evaluated in location; a run
// is abandoned after timeout.
func NewAutoPostJob(entries EntryPoster, location *time.Location, timeout time.Duration, logger *zap.Logger) *AutoPostJob {
	if location == nil {
		location = time.UTC
	}
	return &AutoPostJob{
		entries:  entries,
		logger:   logger,
		location: location,
		timeout:  timeout,
		now:      time.Now,
	}
}

// Register adds the job to c under spec.
func (j *AutoPostJob) Register(c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		ctx := context.Background()
		if j.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, j.timeout)
			defer cancel()
		}
		if _, err := j.Run(ctx); err != nil {
			j.logger.Error("auto-post run failed", zap.Error(err))
		}
	})
}

// Run posts entries due today. Overlapping runs are skipped.
func (j *AutoPostJob) Run(ctx context.Context) (RunSummary, error) {
	if !j.running.CompareAndSwap(false, true) {
		metrics.AutoPostRuns.WithLabelValues("overlap").Inc()
		j.logger.Warn("auto-post run still in progress, skipping")
		return RunSummary{}, nil
	}
	defer j.running.Store(false)

	local := j.now().In(j.location)
	summary := RunSummary{AsOf: calendar.Date(local.Year(), local.Month(), local.Day())}

	due, err := j.entries.FindPendingAutoPostEntriesDueByDate(ctx, summary.AsOf)
	if err != nil {
		metrics.AutoPostRuns.WithLabelValues("failed").Inc()
		return summary, err
	}
	summary.Due = len(due)

	for _, entry := range due {
		if err := ctx.Err(); err != nil {
			metrics.AutoPostRuns.WithLabelValues("failed").Inc()
			return summary, err
		}

		_, err := j.entries.PostEntry(ctx, entry.ID)
		switch {
		case err == nil:
			summary.Posted++
		case customError.IsInvalidState(err):
			summary.Skipped++
		default:
			summary.Failed++
			j.logger.Warn("auto-post entry failed",
				zap.String("entry_id", entry.ID.String()),
				zap.String("schedule_code", entry.ScheduleCode),
				zap.Int("period", entry.PeriodNumber),
				zap.Error(err),
			)
		}
	}

	status := "success"
	if summary.Failed > 0 {
		status = "partial"
	}
	metrics.AutoPostRuns.WithLabelValues(status).Inc()

	j.logger.Info("auto-post run finished",
		zap.Time("as_of", summary.AsOf),
		zap.Int("due", summary.Due),
		zap.Int("posted", summary.Posted),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)

	return summary, nil
}
