package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/target/adverity-fetchbot/internal/core"
	"github.com/target/adverity-fetchbot/internal/domain/model"
	apperrors "github.com/target/adverity-fetchbot/internal/errors"
	"github.com/target/adverity-fetchbot/internal/observability/notify"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memAuditLog keeps rows in sheet order; index 0 is sheet row 2.
type memAuditLog struct {
	mu       sync.Mutex
	rows     []model.AuditRow
	failList error
	failWrite error
}

var _ core.AuditLog = (*memAuditLog)(nil)

func (m *memAuditLog) InsertRow(_ context.Context, row model.AuditRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return m.failWrite
	}
	m.rows = append([]model.AuditRow{row}, m.rows...)
	return nil
}

func (m *memAuditLog) ListRows(context.Context) ([]model.AuditRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failList != nil {
		return nil, m.failList
	}
	out := make([]model.AuditRow, len(m.rows))
	for i, r := range m.rows {
		r.Position = i + 2
		out[i] = r
	}
	return out, nil
}

func (m *memAuditLog) FindByJobID(ctx context.Context, jobID string) (model.AuditRow, error) {
	rows, err := m.ListRows(ctx)
	if err != nil {
		return model.AuditRow{}, err
	}
	for _, r := range rows {
		if r.JobID == jobID {
			return r, nil
		}
	}
	return model.AuditRow{}, apperrors.NotFoundf("no row for job %s", jobID)
}

func (m *memAuditLog) UpdateRow(_ context.Context, row model.AuditRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return m.failWrite
	}
	i := row.Position - 2
	if i < 0 || i >= len(m.rows) {
		return errors.New("row out of range")
	}
	row.Position = 0
	m.rows[i] = row
	return nil
}

func (m *memAuditLog) row(jobID string) model.AuditRow {
	r, _ := m.FindByJobID(context.Background(), jobID)
	return r
}

func (m *memAuditLog) snapshot() []model.AuditRow {
	rows, _ := m.ListRows(context.Background())
	return rows
}

type statusStep struct {
	label string
	err   error
}

// scriptedStatus replays a per-job sequence of status answers; the last one repeats.
type scriptedStatus struct {
	mu     sync.Mutex
	script map[string][]statusStep
	calls  map[string]int
}

func newScriptedStatus(script map[string][]statusStep) *scriptedStatus {
	return &scriptedStatus{script: script, calls: map[string]int{}}
}

func (s *scriptedStatus) JobStatus(_ context.Context, jobID string) (model.StatusResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	steps := s.script[jobID]
	if len(steps) == 0 {
		return model.StatusResult{}, apperrors.PollTransient(nil, "no script for %s", jobID)
	}
	i := s.calls[jobID]
	s.calls[jobID]++
	if i >= len(steps) {
		i = len(steps) - 1
	}
	step := steps[i]
	if step.err != nil {
		return model.StatusResult{}, step.err
	}
	return model.StatusResult{JobID: jobID, Label: step.label}, nil
}

func (s *scriptedStatus) count(jobID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[jobID]
}

type sentMessage struct {
	method     string
	target     string
	text       string
	visibility model.ResponseType
}

// fakePoster records deliveries. failMethods lists Method* names that fail.
type fakePoster struct {
	mu          sync.Mutex
	canPost     bool
	failMethods map[string]bool
	sent        []sentMessage
}

var _ core.ChatPoster = (*fakePoster)(nil)

func (p *fakePoster) record(method, target, text string, vis model.ResponseType) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failMethods[method] {
		return errors.New(method + " unavailable")
	}
	p.sent = append(p.sent, sentMessage{method: method, target: target, text: text, visibility: vis})
	return nil
}

func (p *fakePoster) PostResponseURL(_ context.Context, url string, msg model.ChatMessage) error {
	return p.record(MethodResponseURL, url, msg.Text, msg.ResponseType)
}

func (p *fakePoster) PostEphemeral(_ context.Context, channel, user, text string) error {
	return p.record(MethodEphemeral, channel+"/"+user, text, model.ResponseEphemeral)
}

func (p *fakePoster) PostMessage(_ context.Context, channel, text string) error {
	method := MethodChannel
	if strings.HasPrefix(channel, "U") {
		method = MethodDirect
	}
	return p.record(method, channel, text, model.ResponseInChannel)
}

func (p *fakePoster) CanPost() bool {
	return p.canPost
}

func (p *fakePoster) messages() []sentMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]sentMessage(nil), p.sent...)
}

type recordingAlerts struct {
	mu       sync.Mutex
	payloads []notify.FailurePayload
}

func (r *recordingAlerts) NotifyFailure(_ context.Context, p notify.FailurePayload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, p)
}

func (r *recordingAlerts) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.payloads))
	for _, p := range r.payloads {
		out = append(out, p.Kind)
	}
	return out
}

type fakeClaims struct {
	mu       sync.Mutex
	held     map[string]bool
	err      error
	released []string
}

func (c *fakeClaims) Claim(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return false, c.err
	}
	if c.held == nil {
		c.held = map[string]bool{}
	}
	if c.held[key] {
		return false, nil
	}
	c.held[key] = true
	return true, nil
}

func (c *fakeClaims) Release(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.held, key)
	c.released = append(c.released, key)
	return nil
}

func newTestPoller(t *testing.T, fetcher core.JobStatusFetcher, interval, timeout time.Duration) *Poller {
	t.Helper()
	p, err := NewPoller(PollerOptions{
		Fetcher: fetcher,
		Config:  PollerConfig{Interval: interval, Timeout: timeout},
		Logger:  quietLogger(),
	})
	if err != nil {
		t.Fatalf("NewPoller: %v", err)
	}
	return p
}

func newTestNotifier(t *testing.T, poster core.ChatPoster, claims core.NotificationClaims) *NotificationService {
	t.Helper()
	n, err := NewNotificationService(NotificationServiceOptions{
		Poster: poster,
		Claims: claims,
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("NewNotificationService: %v", err)
	}
	return n
}

func testRequest() model.FetchRequest {
	return model.FetchRequest{
		ID:            "req-1",
		StreamName:    "meta",
		StreamID:      "674",
		Start:         "2025-06-01",
		End:           "2025-06-02",
		RangeText:     "01.06.-02.06.25",
		RawText:       "meta 01.06.-02.06.25",
		RequesterID:   "U42",
		RequesterName: "alex",
		ChannelID:     "C7",
		ResponseURL:   "https://hooks.slack.test/resp/1",
		RequestedAt:   time.Date(2025, 6, 3, 8, 0, 0, 0, time.UTC),
	}
}
