package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/adverity-fetchbot/internal/domain/model"
	obserrors "github.com/target/adverity-fetchbot/internal/observability/errors"
	"github.com/target/adverity-fetchbot/internal/observability/notify"
)

// completion is the terminal-state step shared by FetchService and ResumeService:
// notify, stamp NotifiedAt on delivery, then write the row.
type completion struct {
	audit      *AuditService
	notifier   *NotificationService
	alerts     FailureAlerter
	jobURL     func(jobID string) string
	visibility model.ResponseType
	logger     *slog.Logger
	now        func() time.Time
}

type completionResult struct {
	Record      model.JobRecord
	Delivery    FinalDelivery
	Written     bool
	SideEffects []SideEffect
}

func (c *completion) link(jobID string) string {
	if c.jobURL == nil || jobID == "" {
		return ""
	}
	return c.jobURL(jobID)
}

// complete moves rec to status (if it is not already terminal), delivers the
// final notice and records the result.
func (c *completion) complete(
	ctx context.Context,
	subj Subject,
	rec model.JobRecord,
	status model.JobStatus,
	label string,
) completionResult {
	var res completionResult

	// NotifiedAt on the row is the durable guard; another path may have finished the job.
	if row, ok := c.audit.Notified(ctx, subj.JobID); ok {
		c.logger.InfoContext(ctx, "final notice already sent, skipping",
			"job_id", subj.JobID,
			"status", row.Status,
			"notified_at", row.NotifiedAt,
		)
		res.Record = row.Record()
		res.Delivery = FinalDelivery{Skipped: true}
		return res
	}

	detail := ""
	if !status.IsSuccess() && label != "" {
		detail = "vendor status: " + label
	}
	changed, err := rec.Transition(status, detail)
	if err != nil && !errors.Is(err, model.ErrTerminalState) {
		c.logger.ErrorContext(ctx, "invalid job transition", "job_id", subj.JobID, "status", status, "error", err)
	}
	if errors.Is(err, model.ErrTerminalState) {
		status = rec.Status
	}

	if changed && !status.IsSuccess() {
		c.alert(ctx, subj, notify.KindJobFailed, fmt.Errorf("job ended with status %s", status), label)
	}

	notice := Notice{
		Text:       FinalText(subj, status, label, c.link(subj.JobID)),
		Visibility: c.visibility,
	}
	delivery, err := c.notifier.DeliverFinal(ctx, subj.JobID, subj.Target, notice)
	res.Delivery = delivery
	if err != nil {
		res.SideEffects = append(res.SideEffects, SideEffect{Name: EffectNotify, Err: err})
		c.logger.WarnContext(ctx, "final notification not delivered", "job_id", subj.JobID, "error", err)
		c.alert(ctx, subj, notify.KindNotificationFailed, err, label)
	}
	if delivery.Delivered() {
		rec.MarkNotified(c.now())
		changed = true
	}

	if changed {
		effect := c.audit.RecordTransition(ctx, subj.JobID, rec)
		res.SideEffects = append(res.SideEffects, effect)
		res.Written = !effect.Failed()
	}
	res.Record = rec
	return res
}

func (c *completion) alert(ctx context.Context, subj Subject, kind string, err error, label string) {
	if c.alerts == nil {
		return
	}
	payload := notify.FailurePayload{
		Kind:       kind,
		JobID:      subj.JobID,
		Stream:     subj.Stream,
		DateRange:  subj.DateRange(),
		Requester:  subj.Requester,
		Error:      err.Error(),
		ErrorClass: obserrors.Classify(err),
		Link:       c.link(subj.JobID),
	}
	if label != "" {
		payload.Metadata = map[string]string{"vendor_label": label}
	}
	c.alerts.NotifyFailure(ctx, payload)
}
