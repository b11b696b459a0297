package slack

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/target/adverity-fetchbot/internal/observability/notify"
)

// WebhookConfig configures the operator alert webhook.
type WebhookConfig struct {
	WebhookURL string
	Channel    string
	Username   string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
	Backoff    time.Duration
}

// WebhookSink delivers operator failure alerts to an incoming webhook.
type WebhookSink struct {
	webhookURL string
	channel    string
	username   string
	poster     *poster
}

var _ notify.Sink = (*WebhookSink)(nil)

// NewWebhookSink builds a webhook sink. Callers should pass a validated config.
func NewWebhookSink(cfg WebhookConfig) (*WebhookSink, error) {
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL == "" {
		return nil, errors.New("slack webhook url is required")
	}
	return &WebhookSink{
		webhookURL: webhookURL,
		channel:    strings.TrimSpace(cfg.Channel),
		username:   fallbackString(strings.TrimSpace(cfg.Username), "fetchbot"),
		poster:     newPoster(cfg.Client, cfg.Timeout, cfg.RetryLimit, cfg.Backoff),
	}, nil
}

// SendFailure posts a formatted alert.
func (s *WebhookSink) SendFailure(ctx context.Context, payload notify.FailurePayload) error {
	return s.poster.send(ctx, outbound{
		method:   "webhook",
		endpoint: s.webhookURL,
		payload:  s.formatMessage(payload),
	})
}

func (s *WebhookSink) formatMessage(payload notify.FailurePayload) map[string]any {
	timestamp := payload.OccurredAt
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	text := strings.Builder{}
	writeHeader(&text, payload)
	appendDetails(&text, payload)
	appendMetadata(&text, payload.Metadata)
	text.WriteString("• Timestamp: ")
	text.WriteString(timestamp.UTC().Format(time.RFC3339))

	msg := map[string]any{
		"text":     text.String(),
		"username": s.username,
	}
	if s.channel != "" {
		msg["channel"] = s.channel
	}
	return msg
}

func writeHeader(text *strings.Builder, payload notify.FailurePayload) {
	text.WriteString("*Fetch alert*")
	if payload.Kind != "" {
		text.WriteString(" (")
		text.WriteString(payload.Kind)
		text.WriteByte(')')
	}
	if payload.JobID != "" {
		text.WriteString(" `")
		text.WriteString(payload.JobID)
		text.WriteByte('`')
	}
	text.WriteByte('\n')
}

func appendDetails(text *strings.Builder, payload notify.FailurePayload) {
	link := ""
	if payload.Link != "" {
		link = "<" + payload.Link + "|open in Adverity>"
	}
	fields := []struct {
		label string
		value string
	}{
		{"Severity", fallbackString(payload.Severity, notify.SeverityCritical)},
		{"Stream", escapeText(payload.Stream)},
		{"Date range", escapeText(payload.DateRange)},
		{"Requester", escapeText(payload.Requester)},
		{"Error class", payload.ErrorClass},
		{"Error", escapeText(payload.Error)},
		{"Job", link},
	}
	for _, field := range fields {
		if strings.TrimSpace(field.value) == "" {
			continue
		}
		text.WriteString("• ")
		text.WriteString(field.label)
		text.WriteString(": ")
		text.WriteString(field.value)
		text.WriteByte('\n')
	}
}

func appendMetadata(text *strings.Builder, metadata map[string]string) {
	if len(metadata) == 0 {
		return
	}
	text.WriteString("• Metadata:\n")
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		text.WriteString("    • ")
		text.WriteString(k)
		text.WriteString(": ")
		text.WriteString(metadata[k])
		text.WriteByte('\n')
	}
}
