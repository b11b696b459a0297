package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/target/adverity-fetchbot/internal/domain/model"
	"github.com/target/adverity-fetchbot/internal/observability/metrics"
	"github.com/target/adverity-fetchbot/internal/observability/statsd"
)

// ResumeSummary counts what one CheckOpen pass did.
type ResumeSummary struct {
	Scanned  int  `json:"scanned"`
	Checked  int  `json:"checked"`
	Updated  int  `json:"updated"`
	Notified int  `json:"notified"`
	Errors   int  `json:"errors"`
	Skipped  bool `json:"skipped,omitempty"`
}

// ResumePorts are the collaborators of ResumeService.
type ResumePorts struct {
	Audit    *AuditService
	Poller   *Poller
	Notifier *NotificationService
	Alerts   FailureAlerter
	// JobURL builds the Adverity link for notices.
	JobURL func(jobID string) string
}

// ResumeServiceOptions groups dependencies for ResumeService.
type ResumeServiceOptions struct {
	Ports           ResumePorts
	FinalVisibility model.ResponseType
	Logger          *slog.Logger
	Metrics         statsd.Sink
}

// ResumeService finishes jobs whose inline poll was lost, using the audit log
// as its only state. It is safe to call repeatedly.
type ResumeService struct {
	audit   *AuditService
	poller  *Poller
	done    *completion
	logger  *slog.Logger
	metrics statsd.Sink
	now     func() time.Time

	mu sync.Mutex
}

// NewResumeService constructs a ResumeService.
func NewResumeService(opts ResumeServiceOptions) (*ResumeService, error) {
	p := opts.Ports
	if p.Audit == nil {
		return nil, errors.New("AuditService is required")
	}
	if p.Poller == nil {
		return nil, errors.New("Poller is required")
	}
	if p.Notifier == nil {
		return nil, errors.New("NotificationService is required")
	}
	visibility := opts.FinalVisibility
	if visibility == "" {
		visibility = model.ResponseInChannel
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "resume_service")

	s := &ResumeService{
		audit:   p.Audit,
		poller:  p.Poller,
		logger:  logger,
		metrics: opts.Metrics,
		now:     time.Now,
	}
	s.done = &completion{
		audit:      p.Audit,
		notifier:   p.Notifier,
		alerts:     p.Alerts,
		jobURL:     p.JobURL,
		visibility: visibility,
		logger:     logger,
		now:        func() time.Time { return s.now() },
	}
	return s, nil
}

// CheckOpen scans the audit log once. Terminal rows that were never notified are
// notified again; open rows are polled once and finished when terminal. Only a
// failure to list rows is returned. An overlapping call returns Skipped.
func (s *ResumeService) CheckOpen(ctx context.Context) (ResumeSummary, error) {
	if !s.mu.TryLock() {
		s.logger.InfoContext(ctx, "check-open already running, skipping")
		return ResumeSummary{Skipped: true}, nil
	}
	defer s.mu.Unlock()

	started := s.now()
	var sum ResumeSummary
	rows, err := s.audit.Rows(ctx)
	if err != nil {
		s.emit(started, err)
		return sum, err
	}

	open := 0
	for _, row := range rows {
		if ctx.Err() != nil {
			s.logger.WarnContext(ctx, "check-open interrupted", "scanned", sum.Scanned, "error", ctx.Err())
			break
		}
		sum.Scanned++
		switch {
		case row.NeedsNotification():
			s.renotify(ctx, row, &sum)
		case row.Open():
			open++
			s.check(ctx, row, &sum)
		}
	}

	if s.metrics != nil {
		s.metrics.Gauge(metrics.NameResumeOpen, float64(open), nil)
	}
	s.emit(started, nil)
	s.logger.InfoContext(ctx, "check-open finished",
		"scanned", sum.Scanned,
		"checked", sum.Checked,
		"updated", sum.Updated,
		"notified", sum.Notified,
		"errors", sum.Errors,
	)
	return sum, nil
}

func (s *ResumeService) renotify(ctx context.Context, row model.AuditRow, sum *ResumeSummary) {
	res := s.done.complete(ctx, SubjectFromRow(row), row.Record(), row.Status, "")
	s.tally(res, sum)
}

func (s *ResumeService) check(ctx context.Context, row model.AuditRow, sum *ResumeSummary) {
	sum.Checked++
	status, label, err := s.poller.CheckOnce(ctx, row.JobID)
	if err != nil {
		sum.Errors++
		s.logger.WarnContext(ctx, "status check failed", "job_id", row.JobID, "error", err)
		return
	}

	rec := row.Record()
	if !status.IsTerminal() {
		if row.Status != model.JobStatusStarted {
			return
		}
		if changed, _ := rec.Transition(model.JobStatusRunning, ""); !changed {
			return
		}
		if effect := s.audit.RecordTransition(ctx, row.JobID, rec); effect.Failed() {
			sum.Errors++
			return
		}
		sum.Updated++
		return
	}

	res := s.done.complete(ctx, SubjectFromRow(row), rec, status, label)
	s.tally(res, sum)
}

func (s *ResumeService) tally(res completionResult, sum *ResumeSummary) {
	if res.Written {
		sum.Updated++
	}
	if res.Delivery.Delivered() {
		sum.Notified++
	}
	for _, e := range res.SideEffects {
		if e.Failed() {
			sum.Errors++
		}
	}
}

func (s *ResumeService) emit(started time.Time, err error) {
	metrics.EmitFetch(s.metrics, metrics.FetchMetric{
		Step:     metrics.NameResumeRun,
		Result:   metrics.ResultFor(err),
		Duration: s.now().Sub(started),
		Err:      err,
	})
}
