// Package failurenotifier fans operator failure alerts out to the configured sinks.
package failurenotifier

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/target/adverity-fetchbot/internal/observability/notify"
)

// SinkRegistration pairs a sink implementation with a human-readable name for logging.
type SinkRegistration struct {
	Name string
	Sink notify.Sink
}

// Options configures the failure notifier service.
type Options struct {
	Logger *slog.Logger
	Sinks  []SinkRegistration
	// MutedKinds lists failure kinds that are logged but never sent.
	MutedKinds []string
	Now        func() time.Time
}

// Service dispatches failure events to all registered sinks.
type Service struct {
	logger *slog.Logger
	sinks  []SinkRegistration
	muted  map[string]bool
	now    func() time.Time
}

var defaultSeverity = map[string]string{
	notify.KindJobStartFailed:     notify.SeverityCritical,
	notify.KindNotificationFailed: notify.SeverityCritical,
	notify.KindJobFailed:          notify.SeverityWarning,
	notify.KindPollTimeout:        notify.SeverityWarning,
	notify.KindAuditLogFailure:    notify.SeverityWarning,
}

// NewService constructs a failure notifier.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var sinks []SinkRegistration
	for _, entry := range opts.Sinks {
		if entry.Sink == nil {
			continue
		}
		name := entry.Name
		if name == "" {
			name = "sink"
		}
		sinks = append(sinks, SinkRegistration{
			Name: name,
			Sink: entry.Sink,
		})
	}

	muted := make(map[string]bool, len(opts.MutedKinds))
	for _, k := range opts.MutedKinds {
		if k = strings.TrimSpace(k); k != "" {
			muted[k] = true
		}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		logger: logger.With("component", "failure_notifier"),
		sinks:  sinks,
		muted:  muted,
		now:    now,
	}
}

// NotifyFailure fans the payload out to all sinks and waits for them.
// Sink errors are logged, never returned.
func (s *Service) NotifyFailure(ctx context.Context, payload notify.FailurePayload) {
	if s == nil || len(s.sinks) == 0 {
		return
	}

	if s.muted[payload.Kind] {
		s.logger.DebugContext(ctx, "skipping muted failure alert",
			"kind", payload.Kind,
			"job_id", payload.JobID,
		)
		return
	}

	if payload.Severity == "" {
		payload.Severity = defaultSeverity[payload.Kind]
		if payload.Severity == "" {
			payload.Severity = notify.SeverityCritical
		}
	}
	if payload.OccurredAt.IsZero() {
		payload.OccurredAt = s.now()
	}

	var wg sync.WaitGroup
	for _, entry := range s.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := entry.Sink.SendFailure(ctx, payload); err != nil {
				s.logger.ErrorContext(ctx, "failure notifier delivery error",
					"sink", entry.Name,
					"kind", payload.Kind,
					"job_id", payload.JobID,
					"error", err,
				)
			}
		}()
	}
	wg.Wait()
}

// Enabled reports whether the notifier has any active sinks.
func (s *Service) Enabled() bool {
	return s != nil && len(s.sinks) > 0
}
