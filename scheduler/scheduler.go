// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package scheduler runs the periodic batch jobs: rank recompute, fraud
// scan and vote count reconciliation. They stay off the vote path.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/star-vote/metrics"
)

// Job is a named task run every Interval. An Interval of zero or less
// disables the job.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error

	// RunAtStart runs the job once before the first tick
	RunAtStart bool
}

type Scheduler struct {
	jobs    []Job
	metrics *metrics.Manager
}

func New(m *metrics.Manager, jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs, metrics: m}
}

// Run blocks until ctx is cancelled. Each job gets its own goroutine, so
// a slow job only delays its own next tick. A failed run is logged and
// tried again on the next tick.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, job := range s.jobs {
		if job.Interval <= 0 || job.Run == nil {
			slog.Info("job disabled", "job", job.Name)
			continue
		}

		g.Go(func() error {
			s.loop(ctx, job)
			return nil
		})
	}

	return g.Wait()
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	slog.Info("job scheduled", "job", job.Name, "interval", job.Interval)

	if job.RunAtStart {
		s.RunOnce(ctx, job)
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx, job)
		}
	}
}

// RunOnce runs job a single time and records the outcome.
func (s *Scheduler) RunOnce(ctx context.Context, job Job) error {
	start := time.Now()
	err := job.Run(ctx)
	s.metrics.RecordJob(job.Name, err)

	if err != nil {
		if ctx.Err() != nil {
			slog.Debug("job interrupted", "job", job.Name, "error", err)
			return err
		}
		slog.Error("job failed", "job", job.Name, "error", err, "duration", time.Since(start))
		return err
	}

	slog.Debug("job finished", "job", job.Name, "duration", time.Since(start))
	return nil
}
