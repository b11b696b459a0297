package service

import (
	"context"
	"log/slog"

	"github.com/target/adverity-fetchbot/internal/core"
	"github.com/target/adverity-fetchbot/internal/domain/model"
	apperrors "github.com/target/adverity-fetchbot/internal/errors"
	obserrors "github.com/target/adverity-fetchbot/internal/observability/errors"
	"github.com/target/adverity-fetchbot/internal/observability/metrics"
	"github.com/target/adverity-fetchbot/internal/observability/notify"
	"github.com/target/adverity-fetchbot/internal/observability/statsd"
)

// Side effect names.
const (
	EffectAuditInsert = "audit.insert"
	EffectAuditUpdate = "audit.update"
	EffectNotify      = "notify"
)

// SideEffect records the result of a secondary action that must not fail the primary flow.
type SideEffect struct {
	Name string
	Err  error
}

// Failed reports whether the side effect failed.
func (e SideEffect) Failed() bool {
	return e.Err != nil
}

// FailureAlerter receives operator alerts. *failurenotifier.Service implements it.
type FailureAlerter interface {
	NotifyFailure(ctx context.Context, payload notify.FailurePayload)
}

// AuditServiceOptions groups dependencies for AuditService.
type AuditServiceOptions struct {
	Log      core.AuditLog // Optional: nil disables the audit log
	Instance string        // Adverity host written to every row
	Logger   *slog.Logger
	Metrics  statsd.Sink
	Alerts   FailureAlerter
}

// AuditService writes the spreadsheet log. Write failures are reported as
// side effects, never as errors.
type AuditService struct {
	log      core.AuditLog
	instance string
	logger   *slog.Logger
	metrics  statsd.Sink
	alerts   FailureAlerter
}

// NewAuditService constructs an AuditService.
func NewAuditService(opts AuditServiceOptions) *AuditService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditService{
		log:      opts.Log,
		instance: opts.Instance,
		logger:   logger.With("component", "audit_service"),
		metrics:  opts.Metrics,
		alerts:   opts.Alerts,
	}
}

// Enabled reports whether a backend is configured.
func (s *AuditService) Enabled() bool {
	return s != nil && s.log != nil
}

// LogRequest inserts the row for req at the top of the log.
func (s *AuditService) LogRequest(ctx context.Context, req model.FetchRequest, rec model.JobRecord) SideEffect {
	effect := SideEffect{Name: EffectAuditInsert}
	if !s.Enabled() {
		s.logger.DebugContext(ctx, "audit log disabled, skipping insert", "request_id", req.ID)
		return effect
	}

	row := model.NewAuditRow(req, s.instance, rec)
	if err := s.log.InsertRow(ctx, row); err != nil {
		effect.Err = apperrors.AuditLogFailure("insert", err)
		s.report(ctx, effect, rec.JobID, req.StreamName)
		return effect
	}
	s.logger.InfoContext(ctx, "audit row inserted",
		"request_id", req.ID,
		"job_id", rec.JobID,
		"status", rec.Status,
	)
	return effect
}

// RecordTransition locates the row for jobID and rewrites its status,
// error detail and notified-at fields.
func (s *AuditService) RecordTransition(ctx context.Context, jobID string, rec model.JobRecord) SideEffect {
	effect := SideEffect{Name: EffectAuditUpdate}
	if !s.Enabled() {
		return effect
	}

	row, err := s.log.FindByJobID(ctx, jobID)
	if err != nil {
		effect.Err = apperrors.AuditLogFailure("lookup", err)
		s.report(ctx, effect, jobID, "")
		return effect
	}
	row.Apply(rec)
	if err := s.log.UpdateRow(ctx, row); err != nil {
		effect.Err = apperrors.AuditLogFailure("update", err)
		s.report(ctx, effect, jobID, row.Stream)
		return effect
	}
	s.logger.InfoContext(ctx, "audit row updated",
		"job_id", jobID,
		"row", row.Position,
		"status", rec.Status,
		"notified", rec.Notified(),
	)
	return effect
}

// Notified returns the row for jobID when it is terminal and already carries a
// NotifiedAt stamp. Lookup failures report false so delivery still happens.
func (s *AuditService) Notified(ctx context.Context, jobID string) (model.AuditRow, bool) {
	if !s.Enabled() || jobID == "" {
		return model.AuditRow{}, false
	}
	row, err := s.log.FindByJobID(ctx, jobID)
	if err != nil {
		s.logger.DebugContext(ctx, "notified check skipped", "job_id", jobID, "error", err)
		return model.AuditRow{}, false
	}
	if !row.Status.IsTerminal() || row.NotifiedAt == "" {
		return model.AuditRow{}, false
	}
	return row, true
}

// Rows returns every data row. Unlike the write paths, failures are returned.
func (s *AuditService) Rows(ctx context.Context) ([]model.AuditRow, error) {
	if !s.Enabled() {
		return nil, apperrors.ConfigurationMissing("GOOGLE_SHEET_ID")
	}
	rows, err := s.log.ListRows(ctx)
	if err != nil {
		return nil, apperrors.AuditLogFailure("list", err)
	}
	return rows, nil
}

func (s *AuditService) report(ctx context.Context, effect SideEffect, jobID, stream string) {
	s.logger.WarnContext(ctx, "audit log write failed",
		"operation", effect.Name,
		"job_id", jobID,
		"error", effect.Err,
	)
	if s.metrics != nil {
		s.metrics.Count(metrics.NameAuditFailure, 1, map[string]string{
			"operation":   effect.Name,
			"error_class": obserrors.Classify(effect.Err),
		})
	}
	if s.alerts != nil {
		s.alerts.NotifyFailure(ctx, notify.FailurePayload{
			Kind:       notify.KindAuditLogFailure,
			JobID:      jobID,
			Stream:     stream,
			Error:      effect.Err.Error(),
			ErrorClass: obserrors.Classify(effect.Err),
			Metadata:   map[string]string{"operation": effect.Name},
		})
	}
}
