package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/target/adverity-fetchbot/internal/core"
	"github.com/target/adverity-fetchbot/internal/domain/model"
	"github.com/target/adverity-fetchbot/internal/observability/metrics"
	"github.com/target/adverity-fetchbot/internal/observability/statsd"
)

const (
	defaultPollInterval = 45 * time.Second
	defaultPollTimeout  = 28 * time.Minute
)

// PollOutcome is the result of a Watch that was not interrupted.
type PollOutcome struct {
	// Status is terminal unless TimedOut is set.
	Status model.JobStatus
	// Label is the vendor's raw status label of the last observation.
	Label    string
	TimedOut bool
	Polls    int
	Elapsed  time.Duration
}

// PollerConfig controls polling cadence.
type PollerConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

// PollerOptions groups dependencies for Poller.
type PollerOptions struct {
	Fetcher core.JobStatusFetcher // Required
	Config  PollerConfig
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// Poller observes vendor jobs until they reach a terminal state.
type Poller struct {
	fetcher  core.JobStatusFetcher
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	metrics  statsd.Sink
}

// NewPoller constructs a Poller.
func NewPoller(opts PollerOptions) (*Poller, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("JobStatusFetcher is required")
	}
	interval := opts.Config.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	timeout := opts.Config.Timeout
	if timeout <= 0 {
		timeout = defaultPollTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		fetcher:  opts.Fetcher,
		interval: interval,
		timeout:  timeout,
		logger:   logger.With("component", "poller"),
		metrics:  opts.Metrics,
	}, nil
}

// CheckOnce fetches and classifies the job status once. Unknown labels are
// reported as running.
func (p *Poller) CheckOnce(ctx context.Context, jobID string) (model.JobStatus, string, error) {
	res, err := p.fetcher.JobStatus(ctx, jobID)
	if err != nil {
		metrics.EmitFetch(p.metrics, metrics.FetchMetric{Step: metrics.NamePoll, Result: metrics.ResultError, Err: err})
		return "", "", err
	}
	status, known := res.Classify()
	if !known && res.Label != "" {
		p.logger.DebugContext(ctx, "non-terminal vendor label", "job_id", jobID, "label", res.Label)
	}
	metrics.EmitFetch(p.metrics, metrics.FetchMetric{
		Step:   metrics.NamePoll,
		Result: metrics.ResultSuccess,
		Status: string(status),
	})
	return status, res.Label, nil
}

// Watch polls immediately and then every interval until the job is terminal or
// the poll timeout elapses. onObserve, when set, is called once with
// JobStatusRunning on the first non-terminal observation. Transient errors are
// retried on the next tick. If ctx is cancelled Watch returns ctx.Err() and no outcome.
func (p *Poller) Watch(
	ctx context.Context,
	jobID string,
	onObserve func(model.JobStatus),
) (PollOutcome, error) {
	started := time.Now()
	deadline := time.NewTimer(p.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var out PollOutcome
	observed := false
	for {
		out.Polls++
		status, label, err := p.CheckOnce(ctx, jobID)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return PollOutcome{}, ctx.Err()
			}
			p.logger.WarnContext(ctx, "status poll failed, retrying",
				"job_id", jobID,
				"attempt", out.Polls,
				"error", err,
			)
		case status.IsTerminal():
			out.Status = status
			out.Label = label
			out.Elapsed = time.Since(started)
			return out, nil
		default:
			out.Label = label
			if !observed {
				observed = true
				if onObserve != nil {
					onObserve(model.JobStatusRunning)
				}
			}
		}

		select {
		case <-ctx.Done():
			return PollOutcome{}, ctx.Err()
		case <-deadline.C:
			out.TimedOut = true
			out.Elapsed = time.Since(started)
			p.logger.WarnContext(ctx, "poll timeout reached", "job_id", jobID, "polls", out.Polls)
			return out, nil
		case <-ticker.C:
		}
	}
}
