// Package scheduler runs the open-job resume procedure on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/target/adverity-fetchbot/internal/service"
)

// DefaultSchedule matches POLL_SCHEDULE's default.
const DefaultSchedule = "@every 5m"

// OpenChecker is the slice of the resume service the runner needs.
type OpenChecker interface {
	CheckOpen(ctx context.Context) (service.ResumeSummary, error)
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Resume   OpenChecker // Required
	Schedule string      // robfig/cron spec; descriptors such as "@every 5m" are accepted
	Logger   *slog.Logger
	// RunOnStart performs one scan immediately after Run starts.
	RunOnStart bool
}

// Runner invokes CheckOpen on every cron tick until its context ends.
type Runner struct {
	resume     OpenChecker
	schedule   string
	runOnStart bool
	logger     *slog.Logger
}

// NewRunner validates the schedule and builds a Runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Resume == nil {
		return nil, errors.New("resume service is required")
	}
	schedule := opts.Schedule
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("parse poll schedule %q: %w", schedule, err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		resume:     opts.Resume,
		schedule:   schedule,
		runOnStart: opts.RunOnStart,
		logger:     logger.With("component", "resume_scheduler"),
	}, nil
}

// Run blocks until ctx is cancelled. Overlapping ticks are skipped.
func (r *Runner) Run(ctx context.Context) error {
	clog := cronLogger{logger: r.logger}
	c := cron.New(cron.WithLogger(clog), cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)))

	if _, err := c.AddFunc(r.schedule, func() { r.tick(ctx) }); err != nil {
		return fmt.Errorf("schedule check-open: %w", err)
	}

	r.logger.InfoContext(ctx, "starting resume scheduler", "schedule", r.schedule)
	if r.runOnStart {
		r.tick(ctx)
	}
	c.Start()

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	r.logger.Info("resume scheduler stopped")
	return nil
}

func (r *Runner) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	sum, err := r.resume.CheckOpen(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "check-open failed", "error", err)
		return
	}
	if sum.Skipped {
		r.logger.DebugContext(ctx, "check-open skipped, previous scan still running")
		return
	}
	r.logger.InfoContext(ctx, "check-open finished",
		"scanned", sum.Scanned,
		"checked", sum.Checked,
		"updated", sum.Updated,
		"notified", sum.Notified,
		"errors", sum.Errors,
	)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
