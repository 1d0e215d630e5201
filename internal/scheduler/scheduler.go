// Package scheduler runs the periodic maintenance jobs: idle session
// eviction and finished report task collection.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper removes expired entries and reports how many were dropped.
type Sweeper interface {
	Sweep(ctx context.Context) int
}

// TaskSweeper is the task store's retention-bound variant.
type TaskSweeper interface {
	Sweep(ctx context.Context, retention time.Duration) int
}

// Scheduler owns the cron runner for both sweeps.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// New wires the session and task sweeps at the given cadences.
func New(sessions Sweeper, tasks TaskSweeper, sweepEvery, taskRetention time.Duration, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{cron: cron.New(), logger: logger}

	spec := fmt.Sprintf("@every %s", sweepEvery)
	if _, err := s.cron.AddFunc(spec, func() {
		if n := sessions.Sweep(context.Background()); n > 0 {
			logger.Info("idle sessions evicted", "count", n)
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule session sweep: %w", err)
	}

	if _, err := s.cron.AddFunc(spec, func() {
		if n := tasks.Sweep(context.Background(), taskRetention); n > 0 {
			logger.Info("finished tasks collected", "count", n)
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule task sweep: %w", err)
	}
	return s, nil
}

// Start begins running the sweeps.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for in-flight jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
