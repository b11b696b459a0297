package failurenotifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/target/adverity-fetchbot/internal/observability/notify"
)

func TestServiceNotifyFailure(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)

	var received []notify.FailurePayload
	svc := NewService(Options{
		Sinks: []SinkRegistration{
			{
				Name: "capture",
				Sink: notify.SinkFunc(func(_ context.Context, payload notify.FailurePayload) error {
					received = append(received, payload)
					return nil
				}),
			},
		},
		Now: func() time.Time { return fixed },
	})

	svc.NotifyFailure(ctx, notify.FailurePayload{
		Kind:  notify.KindJobStartFailed,
		JobID: "123",
	})
	svc.NotifyFailure(ctx, notify.FailurePayload{
		Kind:  notify.KindPollTimeout,
		JobID: "124",
	})

	if len(received) != 2 {
		t.Fatalf("expected 2 payloads, got %d", len(received))
	}
	if received[0].Severity != notify.SeverityCritical {
		t.Fatalf("expected start failures to be critical, got %s", received[0].Severity)
	}
	if received[1].Severity != notify.SeverityWarning {
		t.Fatalf("expected timeouts to be warnings, got %s", received[1].Severity)
	}
	if !received[0].OccurredAt.Equal(fixed) {
		t.Fatalf("expected OccurredAt to default to now, got %s", received[0].OccurredAt)
	}
}

func TestServiceDisabled(t *testing.T) {
	svc := NewService(Options{})
	if svc.Enabled() {
		t.Fatal("expected Enabled() to be false when no sinks registered")
	}
	var nilSvc *Service
	nilSvc.NotifyFailure(context.Background(), notify.FailurePayload{})
}

func TestServiceLogsErrors(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	svc := NewService(Options{
		Sinks: []SinkRegistration{
			{Name: "fail", Sink: notify.SinkFunc(func(context.Context, notify.FailurePayload) error {
				return errors.New("boom")
			})},
			{Name: "ok", Sink: notify.SinkFunc(func(context.Context, notify.FailurePayload) error {
				mu.Lock()
				calls++
				mu.Unlock()
				return nil
			})},
		},
	})

	svc.NotifyFailure(context.Background(), notify.FailurePayload{JobID: "123"})
	if calls != 1 {
		t.Fatalf("expected healthy sink to be called once, got %d", calls)
	}
}

func TestServiceSkipsMutedKinds(t *testing.T) {
	var called bool
	svc := NewService(Options{
		Sinks: []SinkRegistration{
			{
				Name: "capture",
				Sink: notify.SinkFunc(func(context.Context, notify.FailurePayload) error {
					called = true
					return nil
				}),
			},
		},
		MutedKinds: []string{" " + notify.KindAuditLogFailure + " "},
	})

	svc.NotifyFailure(context.Background(), notify.FailurePayload{Kind: notify.KindAuditLogFailure})

	if called {
		t.Fatal("expected sink not to be invoked for a muted kind")
	}
}
