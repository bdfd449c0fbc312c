package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a named unit of scheduled work.
type Job struct {
	Name string
	Spec string // cron expression or descriptor such as @hourly
	Run  func(ctx context.Context) error
}

// Scheduler fires jobs on their cron schedules. A job still running when its
// next tick arrives is skipped for that tick.
type Scheduler struct {
	Jobs     []Job
	Location *time.Location
}

func (s *Scheduler) Start(ctx context.Context) error {
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	for _, j := range s.Jobs {
		j := j
		if j.Spec == "" {
			continue
		}
		if _, err := c.AddFunc(j.Spec, func() { runJob(ctx, j) }); err != nil {
			return fmt.Errorf("schedule %s (%q): %w", j.Name, j.Spec, err)
		}
		slog.Info("scheduler: job registered", "job", j.Name, "spec", j.Spec)
	}
	c.Start()
	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	slog.Info("scheduler: stopped")
	return nil
}

func runJob(ctx context.Context, j Job) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	slog.Info("scheduler: job start", "job", j.Name)
	if err := j.Run(ctx); err != nil {
		slog.Error("scheduler: job failed", "job", j.Name, "duration", time.Since(start).Round(time.Millisecond), "error", err)
		return
	}
	slog.Info("scheduler: job done", "job", j.Name, "duration", time.Since(start).Round(time.Millisecond))
}
