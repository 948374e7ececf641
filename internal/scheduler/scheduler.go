// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/LieutenantJoseph/flashfungi/internal/logger"
)

// Pruner removes dedup rows of earned achievements applied before a cutoff.
type Pruner interface {
	PruneEventLog(ctx context.Context, before time.Time) (int64, error)
}

// Scheduler manages scheduled maintenance tasks.
type Scheduler struct {
	scheduler *gocron.Scheduler
	pruner    Pruner
	retention time.Duration
	interval  time.Duration
	log       *logger.Logger
	now       func() time.Time
}

// New creates a scheduler that prunes dedup rows older than retention
// every interval.
func New(pruner Pruner, retention, interval time.Duration, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		pruner:    pruner,
		retention: retention,
		interval:  interval,
		log:       log,
		now:       time.Now,
	}
}

// Start schedules the jobs and runs them in the background. The first
// run happens immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.scheduler.Every(s.interval).Do(func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.log.Error("prune event log failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule prune job: %w", err)
	}
	s.scheduler.StartAsync()
	return nil
}

// Run starts the jobs and blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

// Stop terminates all scheduled tasks.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// RunOnce prunes immediately and returns how many rows were removed.
func (s *Scheduler) RunOnce(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention)
	n, err := s.pruner.PruneEventLog(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	s.log.Info("pruned event log", "removed", n, "before", cutoff.Format(time.RFC3339))
	return n, nil
}
