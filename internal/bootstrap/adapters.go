package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"github.com/target/adverity-fetchbot/internal/adapters/scheduler"
	"github.com/target/adverity-fetchbot/internal/service"
)

// ResumeSchedulerConfig contains configuration for the poller service mode.
type ResumeSchedulerConfig struct {
	Resume   *service.ResumeService
	Schedule string
	Logger   *slog.Logger
}

// RunResumeScheduler runs check-open on the configured cron schedule until ctx ends.
func RunResumeScheduler(ctx context.Context, cfg ResumeSchedulerConfig) error {
	if cfg.Resume == nil {
		return errors.New("poller service requires ADVERITY_INSTANCE, ADVERITY_TOKEN and ADVERITY_STREAMS")
	}
	runner, err := scheduler.NewRunner(scheduler.RunnerOptions{
		Resume:     cfg.Resume,
		Schedule:   cfg.Schedule,
		Logger:     cfg.Logger,
		RunOnStart: true,
	})
	if err != nil {
		return err
	}
	return runner.Run(ctx)
}
