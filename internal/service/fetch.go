package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/target/adverity-fetchbot/config"
	"github.com/target/adverity-fetchbot/internal/core"
	"github.com/target/adverity-fetchbot/internal/domain/command"
	"github.com/target/adverity-fetchbot/internal/domain/model"
	apperrors "github.com/target/adverity-fetchbot/internal/errors"
	obserrors "github.com/target/adverity-fetchbot/internal/observability/errors"
	"github.com/target/adverity-fetchbot/internal/observability/metrics"
	"github.com/target/adverity-fetchbot/internal/observability/notify"
	"github.com/target/adverity-fetchbot/internal/observability/statsd"
)

// Outcome summarises how a fetch request ended.
type Outcome string

const (
	// OutcomeStartFailed means the vendor never produced a job id.
	OutcomeStartFailed Outcome = "start_failed"
	// OutcomeDeferred means the job started and polling was left to ResumeService.
	OutcomeDeferred Outcome = "deferred"
	// OutcomeCompleted means the job reached a terminal state while polled inline.
	OutcomeCompleted Outcome = "completed"
	// OutcomeTimedOut means inline polling gave up; the row stays open.
	OutcomeTimedOut Outcome = "timed_out"
	// OutcomeInterrupted means polling was cancelled by shutdown; the row stays open.
	OutcomeInterrupted Outcome = "interrupted"
)

// Report separates the primary outcome of a request from its side effects.
type Report struct {
	Request     model.FetchRequest
	Record      model.JobRecord
	Outcome     Outcome
	Poll        *PollOutcome
	SoftTimeout bool
	Delivery    FinalDelivery
	SideEffects []SideEffect
}

// FailedSideEffects returns the side effects that failed.
func (r Report) FailedSideEffects() []SideEffect {
	var out []SideEffect
	for _, e := range r.SideEffects {
		if e.Failed() {
			out = append(out, e)
		}
	}
	return out
}

func (r *Report) add(effects ...SideEffect) {
	r.SideEffects = append(r.SideEffects, effects...)
}

// FetchPorts are the collaborators of FetchService.
type FetchPorts struct {
	Trigger  core.JobTrigger // Optional: nil means Adverity is not configured
	Poller   *Poller
	Audit    *AuditService
	Notifier *NotificationService
	Tasks    *TaskRunner
	Alerts   FailureAlerter
}

// FetchConfig controls FetchService behaviour.
type FetchConfig struct {
	Mode            config.PollMode
	FinalVisibility model.ResponseType
	// CallbackURL is passed to the vendor when set.
	CallbackURL string
	// MissingKeys lists unset Adverity settings, reported when Trigger is nil.
	MissingKeys []string
}

// FetchServiceOptions groups dependencies for FetchService.
type FetchServiceOptions struct {
	Ports   FetchPorts
	Config  FetchConfig
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// FetchService runs a fetch request end to end: trigger, log, poll, notify.
type FetchService struct {
	trigger  core.JobTrigger
	poller   *Poller
	audit    *AuditService
	notifier *NotificationService
	tasks    *TaskRunner
	alerts   FailureAlerter
	cfg      FetchConfig
	done     *completion
	logger   *slog.Logger
	metrics  statsd.Sink
	now      func() time.Time
}

// NewFetchService constructs a FetchService.
func NewFetchService(opts FetchServiceOptions) (*FetchService, error) {
	p := opts.Ports
	if p.Notifier == nil {
		return nil, errors.New("NotificationService is required")
	}
	if p.Tasks == nil {
		return nil, errors.New("TaskRunner is required")
	}
	if p.Trigger != nil && p.Poller == nil && opts.Config.Mode != config.PollModeDeferred {
		return nil, errors.New("Poller is required for inline polling")
	}
	if p.Audit == nil {
		p.Audit = NewAuditService(AuditServiceOptions{Logger: opts.Logger})
	}
	cfg := opts.Config
	if !cfg.Mode.Valid() {
		cfg.Mode = config.PollModeInline
	}
	if cfg.FinalVisibility == "" {
		cfg.FinalVisibility = model.ResponseInChannel
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "fetch_service")

	s := &FetchService{
		trigger:  p.Trigger,
		poller:   p.Poller,
		audit:    p.Audit,
		notifier: p.Notifier,
		tasks:    p.Tasks,
		alerts:   p.Alerts,
		cfg:      cfg,
		logger:   logger,
		metrics:  opts.Metrics,
		now:      time.Now,
	}
	s.done = &completion{
		audit:      p.Audit,
		notifier:   p.Notifier,
		alerts:     p.Alerts,
		jobURL:     s.jobURL,
		visibility: cfg.FinalVisibility,
		logger:     logger,
		now:        func() time.Time { return s.now() },
	}
	return s, nil
}

// Ready returns ConfigurationMissing when no job can be triggered.
func (s *FetchService) Ready() error {
	if s.trigger != nil {
		return nil
	}
	keys := s.cfg.MissingKeys
	if len(keys) == 0 {
		keys = []string{"ADVERITY_INSTANCE", "ADVERITY_TOKEN"}
	}
	return apperrors.ConfigurationMissing(keys...)
}

// NewRequest builds an immutable FetchRequest from a parsed slash command.
func (s *FetchService) NewRequest(cmd model.SlashCommand, parsed command.Parsed) model.FetchRequest {
	return model.FetchRequest{
		ID:            uuid.NewString(),
		StreamName:    parsed.StreamName,
		StreamID:      parsed.StreamID,
		Start:         parsed.Start,
		End:           parsed.End,
		RangeText:     parsed.RangeText,
		RawText:       cmd.Text,
		RequesterID:   cmd.UserID,
		RequesterName: cmd.UserName,
		ChannelID:     cmd.ChannelID,
		ResponseURL:   cmd.ResponseURL,
		RequestedAt:   s.now().UTC(),
	}
}

// Submit schedules Run in the background, detached from the caller's context.
func (s *FetchService) Submit(req model.FetchRequest) error {
	if err := s.Ready(); err != nil {
		return err
	}
	return s.tasks.Go("fetch:"+req.ID, func(ctx context.Context) {
		rep := s.Run(ctx, req)
		s.logger.InfoContext(ctx, "fetch request finished",
			"request_id", req.ID,
			"job_id", rep.Record.JobID,
			"outcome", rep.Outcome,
			"status", rep.Record.Status,
			"failed_side_effects", len(rep.FailedSideEffects()),
		)
	})
}

// Run triggers the job and follows it according to the poll mode.
// The trigger and the first audit write complete even if ctx is cancelled;
// polling stops on cancellation and leaves the row open.
func (s *FetchService) Run(ctx context.Context, req model.FetchRequest) Report {
	rep := Report{Request: req}
	if err := s.Ready(); err != nil {
		return s.startFailed(ctx, req, err, rep)
	}
	started := s.now()
	firm := context.WithoutCancel(ctx)

	res, err := s.trigger.TriggerFetch(firm, model.TriggerRequest{
		StreamID:    req.StreamID,
		Start:       req.Start,
		End:         req.End,
		CallbackURL: s.cfg.CallbackURL,
	})
	metrics.EmitFetch(s.metrics, metrics.FetchMetric{
		Step:     metrics.NameTrigger,
		Stream:   req.StreamName,
		Result:   metrics.ResultFor(err),
		Duration: s.now().Sub(started),
		Err:      err,
	})
	if err != nil {
		return s.startFailed(firm, req, err, rep)
	}

	rep.SoftTimeout = res.SoftTimeout
	rep.Record = model.JobRecord{JobID: res.JobID, Status: model.JobStatusStarted}
	s.logger.InfoContext(ctx, "fetch job started",
		"request_id", req.ID,
		"job_id", res.JobID,
		"stream", req.StreamName,
		"start", req.Start,
		"end", req.End,
		"soft_timeout", res.SoftTimeout,
	)
	rep.add(s.audit.LogRequest(firm, req, rep.Record))

	if s.cfg.Mode == config.PollModeDeferred {
		rep.Outcome = OutcomeDeferred
		return rep
	}

	subj := SubjectFromRequest(req, res.JobID)
	outcome, err := s.poller.Watch(ctx, res.JobID, func(status model.JobStatus) {
		if changed, _ := rep.Record.Transition(status, ""); changed {
			rep.add(s.audit.RecordTransition(firm, res.JobID, rep.Record))
		}
	})
	if err != nil {
		s.logger.InfoContext(ctx, "polling interrupted, row left open for resume",
			"job_id", res.JobID,
			"error", err,
		)
		rep.Outcome = OutcomeInterrupted
		return rep
	}
	rep.Poll = &outcome

	if outcome.TimedOut {
		return s.timedOut(firm, subj, rep)
	}

	metrics.EmitFetch(s.metrics, metrics.FetchMetric{
		Step:     metrics.NameDuration,
		Stream:   req.StreamName,
		Result:   metrics.ResultSuccess,
		Status:   string(outcome.Status),
		Duration: s.now().Sub(started),
	})
	done := s.done.complete(firm, subj, rep.Record, outcome.Status, outcome.Label)
	rep.Record = done.Record
	rep.Delivery = done.Delivery
	rep.add(done.SideEffects...)
	rep.Outcome = OutcomeCompleted
	return rep
}

func (s *FetchService) startFailed(ctx context.Context, req model.FetchRequest, err error, rep Report) Report {
	s.logger.WarnContext(ctx, "fetch job start failed",
		"request_id", req.ID,
		"stream", req.StreamName,
		"error", err,
	)
	subj := SubjectFromRequest(req, "")
	rep.Outcome = OutcomeStartFailed
	rep.Record = model.JobRecord{Status: model.JobStatusStartFailed, ErrorDetail: apperrors.GetMessage(err)}

	if s.alerts != nil {
		s.alerts.NotifyFailure(ctx, notify.FailurePayload{
			Kind:       notify.KindJobStartFailed,
			Stream:     req.StreamName,
			DateRange:  subj.DateRange(),
			Requester:  req.RequesterName,
			Error:      err.Error(),
			ErrorClass: obserrors.Classify(err),
		})
	}

	notice := Notice{Text: StartFailedText(subj, err), Visibility: model.ResponseEphemeral}
	method, derr := s.notifier.Deliver(ctx, subj.Target, notice)
	if derr != nil {
		rep.add(SideEffect{Name: EffectNotify, Err: derr})
	} else {
		rep.Delivery = FinalDelivery{Method: method}
		rep.Record.MarkNotified(s.now())
	}
	rep.add(s.audit.LogRequest(ctx, req, rep.Record))
	return rep
}

func (s *FetchService) timedOut(ctx context.Context, subj Subject, rep Report) Report {
	rep.Outcome = OutcomeTimedOut
	if s.alerts != nil {
		s.alerts.NotifyFailure(ctx, notify.FailurePayload{
			Kind:      notify.KindPollTimeout,
			JobID:     subj.JobID,
			Stream:    subj.Stream,
			DateRange: subj.DateRange(),
			Requester: subj.Requester,
			Error:     "poll timeout reached before the job finished",
			Link:      s.jobURL(subj.JobID),
		})
	}
	notice := Notice{Text: TimeoutText(subj, s.jobURL(subj.JobID)), Visibility: s.cfg.FinalVisibility}
	if _, err := s.notifier.Deliver(ctx, subj.Target, notice); err != nil {
		rep.add(SideEffect{Name: EffectNotify, Err: err})
	}
	return rep
}

func (s *FetchService) jobURL(jobID string) string {
	if s.trigger == nil {
		return ""
	}
	return s.trigger.JobURL(jobID)
}
