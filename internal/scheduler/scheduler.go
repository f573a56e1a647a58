// Package scheduler runs the maintenance jobs on cron schedules for hosts
// without an external scheduler.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one named maintenance task.
type Job struct {
	Name string
	Spec string // cron expression or descriptor such as "@daily"; empty disables the job
	Run  func(ctx context.Context) error
}

// Scheduler wraps robfig/cron. Jobs never overlap: a tick that fires while
// any job is still running waits for it to finish.
type Scheduler struct {
	jobs       []Job
	runOnStart bool
	location   *time.Location
	logger     *slog.Logger

	mu sync.Mutex
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithRunOnStart runs every enabled job once, in order, before waiting for
// the first tick.
func WithRunOnStart(on bool) Option {
	return func(s *Scheduler) { s.runOnStart = on }
}

// WithLocation interprets schedules in loc instead of the local time zone.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) { s.location = loc }
}

// NewScheduler creates a scheduler for jobs.
func NewScheduler(jobs []Job, logger *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		jobs:     jobs,
		location: time.Local,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run registers the jobs and blocks until ctx is cancelled. It returns nil on
// graceful shutdown after the running job, if any, has finished.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(
		cron.WithLocation(s.location),
		cron.WithLogger(cronLogger{s.logger}),
	)

	enabled := 0
	for _, job := range s.jobs {
		if job.Spec == "" {
			s.logger.Info("job disabled", "job", job.Name)
			continue
		}
		job := job
		if _, err := c.AddFunc(job.Spec, func() { s.run(ctx, job) }); err != nil {
			return fmt.Errorf("schedule %s %q: %w", job.Name, job.Spec, err)
		}
		s.logger.Info("job scheduled", "job", job.Name, "spec", job.Spec)
		enabled++
	}
	if enabled == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	c.Start()
	s.logger.Info("starting scheduler", "jobs", enabled)

	if s.runOnStart {
		for _, job := range s.jobs {
			if ctx.Err() != nil {
				break
			}
			if job.Spec != "" {
				s.run(ctx, job)
			}
		}
	}

	<-ctx.Done()
	s.logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	return nil
}

// run executes one job under the scheduler-wide mutex.
func (s *Scheduler) run(ctx context.Context, job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	s.logger.Info("job started", "job", job.Name)
	if err := job.Run(ctx); err != nil {
		s.logger.Error("job failed", "job", job.Name, "error", err, "duration", time.Since(start).Round(time.Millisecond).String())
		return
	}
	s.logger.Info("job finished", "job", job.Name, "duration", time.Since(start).Round(time.Millisecond).String())
}

// cronLogger routes cron's own messages into slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
