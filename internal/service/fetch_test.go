package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/adverity-fetchbot/config"
	"github.com/target/adverity-fetchbot/internal/core"
	"github.com/target/adverity-fetchbot/internal/domain/command"
	"github.com/target/adverity-fetchbot/internal/domain/model"
	apperrors "github.com/target/adverity-fetchbot/internal/errors"
	"github.com/target/adverity-fetchbot/internal/mocks"
	"github.com/target/adverity-fetchbot/internal/observability/metrics"
	"github.com/target/adverity-fetchbot/internal/observability/notify"
	"github.com/target/adverity-fetchbot/internal/observability/statsd"
)

type fetchHarness struct {
	svc     *FetchService
	trigger *mocks.MockJobTrigger
	log     *memAuditLog
	status  *scriptedStatus
	poster  *fakePoster
	alerts  *recordingAlerts
	metrics *statsd.Recorder
	tasks   *TaskRunner
}

type harnessOpts struct {
	mode        config.PollMode
	script      map[string][]statusStep
	pollTimeout time.Duration
	failMethods map[string]bool
	noTrigger   bool
	wrapStatus  func(core.JobStatusFetcher) core.JobStatusFetcher
}

func newFetchHarness(t *testing.T, o harnessOpts) *fetchHarness {
	t.Helper()
	ctrl := gomock.NewController(t)
	h := &fetchHarness{
		trigger: mocks.NewMockJobTrigger(ctrl),
		log:     &memAuditLog{},
		status:  newScriptedStatus(o.script),
		poster:  &fakePoster{canPost: true, failMethods: o.failMethods},
		alerts:  &recordingAlerts{},
		metrics: &statsd.Recorder{},
		tasks:   NewTaskRunner(TaskRunnerOptions{Logger: quietLogger()}),
	}
	h.trigger.EXPECT().JobURL(gomock.Any()).DoAndReturn(func(id string) string {
		return "https://acme.datatap.adverity.com/jobs/" + id
	}).AnyTimes()

	if o.pollTimeout == 0 {
		o.pollTimeout = time.Second
	}
	var fetcher core.JobStatusFetcher = h.status
	if o.wrapStatus != nil {
		fetcher = o.wrapStatus(fetcher)
	}
	ports := FetchPorts{
		Poller: newTestPoller(t, fetcher, time.Millisecond, o.pollTimeout),
		Audit: NewAuditService(AuditServiceOptions{
			Log:      h.log,
			Instance: "acme.datatap.adverity.com",
			Logger:   quietLogger(),
		}),
		Notifier: newTestNotifier(t, h.poster, nil),
		Tasks:    h.tasks,
		Alerts:   h.alerts,
	}
	if !o.noTrigger {
		ports.Trigger = h.trigger
	}
	svc, err := NewFetchService(FetchServiceOptions{
		Ports:   ports,
		Config:  FetchConfig{Mode: o.mode, FinalVisibility: model.ResponseInChannel},
		Logger:  quietLogger(),
		Metrics: h.metrics,
	})
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2025, 6, 3, 8, 5, 0, 0, time.UTC) }
	h.svc = svc
	return h
}

var metaTrigger = model.TriggerRequest{StreamID: "674", Start: "2025-06-01", End: "2025-06-02"}

func TestFetchService_RunInlineSuccess(t *testing.T) {
	h := newFetchHarness(t, harnessOpts{
		script: map[string][]statusStep{"J123": {{label: "running"}, {label: "SUCCESS"}}},
	})
	h.trigger.EXPECT().TriggerFetch(gomock.Any(), metaTrigger).
		Return(model.TriggerResult{JobID: "J123", HTTPStatus: 200}, nil)

	rep := h.svc.Run(context.Background(), testRequest())

	assert.Equal(t, OutcomeCompleted, rep.Outcome)
	assert.Equal(t, model.JobStatusDoneSuccess, rep.Record.Status)
	assert.True(t, rep.Record.Notified())
	assert.Empty(t, rep.FailedSideEffects())
	assert.Equal(t, MethodResponseURL, rep.Delivery.Method)

	row := h.log.row("J123")
	assert.Equal(t, model.JobStatusDoneSuccess, row.Status)
	assert.Equal(t, "2025-06-03T08:05:00Z", row.NotifiedAt)
	assert.Equal(t, "674", row.DatastreamID)

	sent := h.poster.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, model.ResponseInChannel, sent[0].visibility)
	assert.Contains(t, sent[0].text, "✅")
	assert.Contains(t, sent[0].text, "meta")
	assert.Contains(t, sent[0].text, "2025-06-01 to 2025-06-02")
	assert.Contains(t, sent[0].text, "J123")
	assert.Contains(t, sent[0].text, "https://acme.datatap.adverity.com/jobs/J123")
	assert.Empty(t, h.alerts.kinds())
	assert.Len(t, h.metrics.Find(metrics.NameTrigger), 1)
}

// beforePoll runs hook ahead of every status call with the 1-based call number.
type beforePoll struct {
	next  core.JobStatusFetcher
	hook  func(call int)
	calls int
}

func (b *beforePoll) JobStatus(ctx context.Context, jobID string) (model.StatusResult, error) {
	b.calls++
	b.hook(b.calls)
	return b.next.JobStatus(ctx, jobID)
}

func TestFetchService_RunSkipsNoticeAlreadySentByCheckOpen(t *testing.T) {
	var resume *ResumeService
	h := newFetchHarness(t, harnessOpts{
		script:     map[string][]statusStep{"J123": {{label: "running"}, {label: "SUCCESS"}}},
		wrapStatus: func(next core.JobStatusFetcher) core.JobStatusFetcher {
			return &beforePoll{next: next, hook: func(call int) {
				if call != 2 {
					return
				}
				sum, err := resume.CheckOpen(context.Background())
				assert.NoError(t, err)
				assert.Equal(t, 1, sum.Notified)
			}}
		},
	})
	vendor := newScriptedStatus(map[string][]statusStep{"J123": {{label: "SUCCESS"}}})
	resume, _, _ = newTestResume(t, h.log, vendor, h.poster, nil)
	h.trigger.EXPECT().TriggerFetch(gomock.Any(), metaTrigger).
		Return(model.TriggerResult{JobID: "J123", HTTPStatus: 200}, nil)

	rep := h.svc.Run(context.Background(), testRequest())

	assert.Equal(t, OutcomeCompleted, rep.Outcome)
	assert.Equal(t, model.JobStatusDoneSuccess, rep.Record.Status)
	assert.True(t, rep.Record.Notified())
	assert.True(t, rep.Delivery.Skipped)
	assert.False(t, rep.Delivery.Delivered())
	assert.Empty(t, rep.FailedSideEffects())

	sent := h.poster.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, MethodChannel, sent[0].method)
	assert.Equal(t, "C7", sent[0].target)
	assert.Equal(t, "2025-06-03T10:00:00Z", h.log.row("J123").NotifiedAt)
	assert.Equal(t, 1, vendor.count("J123"))
	assert.Empty(t, h.alerts.kinds())
}

func TestFetchService_RunVendorFailure(t *testing.T) {
	h := newFetchHarness(t, harnessOpts{
		script: map[string][]statusStep{"J9": {{label: "error"}}},
	})
	h.trigger.EXPECT().TriggerFetch(gomock.Any(), gomock.Any()).Return(model.TriggerResult{JobID: "J9"}, nil)

	rep := h.svc.Run(context.Background(), testRequest())

	assert.Equal(t, model.JobStatusDoneFailed, rep.Record.Status)
	assert.Equal(t, "vendor status: error", h.log.row("J9").ErrorDetail)
	sent := h.poster.messages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].text, "❌")
	assert.Contains(t, sent[0].text, "`error`")
	assert.Equal(t, []string{notify.KindJobFailed}, h.alerts.kinds())
}

func TestFetchService_RunStartFailure(t *testing.T) {
	h := newFetchHarness(t, harnessOpts{})
	h.trigger.EXPECT().TriggerFetch(gomock.Any(), gomock.Any()).
		Return(model.TriggerResult{HTTPStatus: 400}, apperrors.JobStartFailed("vendor answered HTTP 400 without a job id", nil))

	rep := h.svc.Run(context.Background(), testRequest())

	assert.Equal(t, OutcomeStartFailed, rep.Outcome)
	rows := h.log.snapshot()
	require.Len(t, rows, 1)
	assert.Equal(t, model.JobStatusStartFailed, rows[0].Status)
	assert.Equal(t, "vendor answered HTTP 400 without a job id", rows[0].ErrorDetail)
	assert.Empty(t, rows[0].JobID)
	assert.NotEmpty(t, rows[0].NotifiedAt)

	sent := h.poster.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, model.ResponseEphemeral, sent[0].visibility)
	assert.Contains(t, sent[0].text, "Could not start")
	assert.Equal(t, []string{notify.KindJobStartFailed}, h.alerts.kinds())
}

func TestFetchService_RunDeferred(t *testing.T) {
	h := newFetchHarness(t, harnessOpts{
		mode:   config.PollModeDeferred,
		script: map[string][]statusStep{"J1": {{label: "success"}}},
	})
	h.trigger.EXPECT().TriggerFetch(gomock.Any(), gomock.Any()).
		Return(model.TriggerResult{JobID: "J1", SoftTimeout: true}, nil)

	rep := h.svc.Run(context.Background(), testRequest())

	assert.Equal(t, OutcomeDeferred, rep.Outcome)
	assert.True(t, rep.SoftTimeout)
	assert.Equal(t, model.JobStatusStarted, h.log.row("J1").Status)
	assert.Zero(t, h.status.count("J1"))
	assert.Empty(t, h.poster.messages())
}

func TestFetchService_RunTimeoutLeavesRowOpen(t *testing.T) {
	h := newFetchHarness(t, harnessOpts{
		script:      map[string][]statusStep{"J1": {{label: "running"}}},
		pollTimeout: 20 * time.Millisecond,
	})
	h.trigger.EXPECT().TriggerFetch(gomock.Any(), gomock.Any()).Return(model.TriggerResult{JobID: "J1"}, nil)

	rep := h.svc.Run(context.Background(), testRequest())

	assert.Equal(t, OutcomeTimedOut, rep.Outcome)
	row := h.log.row("J1")
	assert.Equal(t, model.JobStatusRunning, row.Status)
	assert.Empty(t, row.NotifiedAt)
	assert.True(t, row.Open())

	sent := h.poster.messages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].text, "⌛️")
	assert.Contains(t, sent[0].text, "check manually")
	assert.Equal(t, []string{notify.KindPollTimeout}, h.alerts.kinds())
}

func TestFetchService_RunNotificationFailureKeepsRowUnnotified(t *testing.T) {
	h := newFetchHarness(t, harnessOpts{
		script: map[string][]statusStep{"J1": {{label: "completed"}}},
		failMethods: map[string]bool{
			MethodResponseURL: true,
			MethodChannel:     true,
			MethodDirect:      true,
		},
	})
	h.trigger.EXPECT().TriggerFetch(gomock.Any(), gomock.Any()).Return(model.TriggerResult{JobID: "J1"}, nil)

	rep := h.svc.Run(context.Background(), testRequest())

	require.Len(t, rep.FailedSideEffects(), 1)
	assert.Equal(t, EffectNotify, rep.FailedSideEffects()[0].Name)
	row := h.log.row("J1")
	assert.Equal(t, model.JobStatusDoneSuccess, row.Status)
	assert.Empty(t, row.NotifiedAt)
	assert.True(t, row.NeedsNotification())
	assert.Equal(t, []string{notify.KindNotificationFailed}, h.alerts.kinds())
}

func TestFetchService_RunInterruptedByShutdown(t *testing.T) {
	h := newFetchHarness(t, harnessOpts{
		script:      map[string][]statusStep{"J1": {{label: "running"}}},
		pollTimeout: time.Minute,
	})
	h.trigger.EXPECT().TriggerFetch(gomock.Any(), gomock.Any()).Return(model.TriggerResult{JobID: "J1"}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	rep := h.svc.Run(ctx, testRequest())

	assert.Equal(t, OutcomeInterrupted, rep.Outcome)
	assert.True(t, h.log.row("J1").Open())
	assert.Empty(t, h.poster.messages())
}

func TestFetchService_ReadyAndSubmit(t *testing.T) {
	h := newFetchHarness(t, harnessOpts{noTrigger: true})
	h.svc.cfg.MissingKeys = []string{"ADVERITY_TOKEN"}

	err := h.svc.Ready()
	require.Error(t, err)
	assert.True(t, apperrors.IsConfigurationMissing(err))
	assert.Contains(t, err.Error(), "ADVERITY_TOKEN")
	assert.True(t, apperrors.IsConfigurationMissing(h.svc.Submit(testRequest())))
}

func TestFetchService_SubmitRunsInBackground(t *testing.T) {
	h := newFetchHarness(t, harnessOpts{
		script: map[string][]statusStep{"J1": {{label: "done"}}},
	})
	h.trigger.EXPECT().TriggerFetch(gomock.Any(), gomock.Any()).Return(model.TriggerResult{JobID: "J1"}, nil)

	require.NoError(t, h.svc.Submit(testRequest()))
	require.NoError(t, h.tasks.Shutdown(context.Background()))

	assert.Equal(t, model.JobStatusDoneSuccess, h.log.row("J1").Status)
	assert.ErrorIs(t, h.svc.Submit(testRequest()), ErrShuttingDown)
}

func TestFetchService_NewRequest(t *testing.T) {
	h := newFetchHarness(t, harnessOpts{})
	req := h.svc.NewRequest(
		model.SlashCommand{Text: "meta 01.06.-02.06.25", UserName: "alex", UserID: "U1", ChannelID: "C1", ResponseURL: "https://r"},
		command.Parsed{StreamName: "meta", StreamID: "674", Start: "2025-06-01", End: "2025-06-02", RangeText: "01.06.-02.06.25"},
	)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, "alex: meta 01.06.-02.06.25", req.RawPrompt())
	assert.Equal(t, "674", req.StreamID)
	assert.Equal(t, time.Date(2025, 6, 3, 8, 5, 0, 0, time.UTC), req.RequestedAt)
}
