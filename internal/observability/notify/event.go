package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// Failure kinds reported to operators.
const (
	KindJobStartFailed     = "job_start_failed"
	KindJobFailed          = "job_failed"
	KindPollTimeout        = "poll_timeout"
	KindNotificationFailed = "notification_failed"
	KindAuditLogFailure    = "audit_log_failure"
)

// FailurePayload captures what operators need to follow up on a failed fetch.
type FailurePayload struct {
	Kind       string
	JobID      string
	Stream     string
	DateRange  string
	Requester  string
	Error      string
	ErrorClass string
	Severity   string
	OccurredAt time.Time
	Link       string
	Metadata   map[string]string
}

// Sink describes a destination capable of consuming operator failure alerts.
type Sink interface {
	SendFailure(ctx context.Context, payload FailurePayload) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, payload FailurePayload) error

// SendFailure implements the Sink interface.
func (f SinkFunc) SendFailure(ctx context.Context, payload FailurePayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}
