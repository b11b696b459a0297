package config

import (
	"reflect"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    map[ServiceMode]bool
		expectError bool
	}{
		{
			name:     "single service - http",
			input:    "http",
			expected: map[ServiceMode]bool{ServiceModeHTTP: true},
		},
		{
			name:     "single service - poller",
			input:    "poller",
			expected: map[ServiceMode]bool{ServiceModePoller: true},
		},
		{
			name:  "services with spaces",
			input: " http , poller ",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:   true,
				ServiceModePoller: true,
			},
		},
		{
			name:     "duplicate services",
			input:    "http,http",
			expected: map[ServiceMode]bool{ServiceModeHTTP: true},
		},
		{
			name:        "empty string",
			input:       "",
			expectError: true,
		},
		{
			name:        "only commas",
			input:       ",,",
			expectError: true,
		},
		{
			name:        "invalid service",
			input:       "http,reaper",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseServices(tt.input)
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(result, tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestConfig_ServiceEnabledMethods(t *testing.T) {
	cfg := &AppConfig{Services: "http,poller"}
	if !cfg.IsHTTPServerEnabled() {
		t.Fatal("expected http to be enabled")
	}
	if !cfg.IsPollerEnabled() {
		t.Fatal("expected poller to be enabled")
	}

	cfg = &AppConfig{Services: "bogus"}
	if cfg.IsHTTPServerEnabled() || cfg.IsPollerEnabled() {
		t.Fatal("expected invalid services to disable every mode")
	}
}

func TestValidServiceModes(t *testing.T) {
	modes := ValidServiceModes()
	if len(modes) != 2 {
		t.Fatalf("expected 2 service modes, got %d", len(modes))
	}
	for _, mode := range modes {
		if _, err := ParseServices(string(mode)); err != nil {
			t.Fatalf("mode %q is listed but not parseable: %v", mode, err)
		}
	}
}

func TestAppConfig_ParseEnv(t *testing.T) {
	t.Setenv("ADVERITY_INSTANCE", " https://acme.datatap.adverity.com/ ")
	t.Setenv("ADVERITY_TOKEN", "secret")
	t.Setenv("ADVERITY_STREAMS", "Meta:674,google:701")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-1")
	t.Setenv("SLACK_FINAL_VISIBILITY", "ephemeral")
	t.Setenv("POLL_MODE", "deferred")
	t.Setenv("POLL_INTERVAL", "1m")
	t.Setenv("GOOGLE_SHEET_ID", "sheet-1")
	t.Setenv("GOOGLE_CREDENTIALS_JSON", `{"client_email":"bot@example.iam.gserviceaccount.com"}`)
	t.Setenv("REDIS_ENABLED", "true")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.Adverity.Instance != "acme.datatap.adverity.com" {
		t.Fatalf("unexpected instance %q", cfg.Adverity.Instance)
	}
	wantStreams := map[string]string{"meta": "674", "google": "701"}
	if !reflect.DeepEqual(cfg.Adverity.Streams, wantStreams) {
		t.Fatalf("unexpected streams %v", cfg.Adverity.Streams)
	}
	if cfg.Adverity.TriggerTimeout != 30*time.Second {
		t.Fatalf("unexpected trigger timeout %v", cfg.Adverity.TriggerTimeout)
	}
	if cfg.Slack.FinalVisibility != VisibilityEphemeral {
		t.Fatalf("unexpected visibility %q", cfg.Slack.FinalVisibility)
	}
	if cfg.Poller.Mode != PollModeDeferred || cfg.Poller.Interval != time.Minute {
		t.Fatalf("unexpected poller config %+v", cfg.Poller)
	}
	if cfg.Poller.Timeout != 28*time.Minute {
		t.Fatalf("unexpected poll timeout %v", cfg.Poller.Timeout)
	}
	if !cfg.Sheets.IsEnabled() {
		t.Fatal("expected sheets to be enabled")
	}
	if !cfg.Redis.Enabled || cfg.Redis.ClaimTTL != 24*time.Hour {
		t.Fatalf("unexpected redis config %+v", cfg.Redis)
	}
}

func TestAppConfig_DefaultStreamCatalog(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if got := cfg.Adverity.Streams["meta"]; got != "674" {
		t.Fatalf("expected meta to map to 674, got %q", got)
	}
	if got := cfg.Adverity.MissingKeys(); !reflect.DeepEqual(got, []string{"ADVERITY_INSTANCE", "ADVERITY_TOKEN"}) {
		t.Fatalf("unexpected missing keys %v", got)
	}
}

func TestVisibilityUnmarshalText(t *testing.T) {
	var v Visibility
	if err := v.UnmarshalText([]byte(" In_Channel ")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != VisibilityInChannel {
		t.Fatalf("got %q", v)
	}
	if err := v.UnmarshalText([]byte("loud")); err == nil {
		t.Fatal("expected error for invalid visibility")
	}
}

func TestPollerConfig_Sanitize(t *testing.T) {
	cfg := PollerConfig{Interval: 10 * time.Millisecond, Schedule: "  "}
	cfg.Sanitize()

	if cfg.Mode != PollModeInline {
		t.Fatalf("expected inline default, got %q", cfg.Mode)
	}
	if cfg.Interval != time.Second {
		t.Fatalf("expected interval clamped to 1s, got %v", cfg.Interval)
	}
	if cfg.Timeout != 28*time.Minute {
		t.Fatalf("expected default timeout, got %v", cfg.Timeout)
	}
	if cfg.Schedule != "@every 5m" {
		t.Fatalf("expected default schedule, got %q", cfg.Schedule)
	}
}

func TestAdverityConfig_StreamNames(t *testing.T) {
	cfg := AdverityConfig{Streams: map[string]string{" LinkedIn ": "9", "meta": "674", "empty": " "}}
	cfg.Sanitize()

	want := []string{"linkedin", "meta"}
	if got := cfg.StreamNames(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " ",
	}

	cfg.Sanitize()

	if cfg.Enabled {
		t.Fatalf("expected enabled to be false when address is empty")
	}

	cfg = ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " statsd:1234 ",
	}

	cfg.Sanitize()

	if !cfg.IsEnabled() {
		t.Fatalf("expected metrics to remain enabled")
	}
	if cfg.StatsdAddress != "statsd:1234" {
		t.Fatalf("expected address to be trimmed, got %q", cfg.StatsdAddress)
	}
	if cfg.Prefix != "fetchbot" {
		t.Fatalf("expected default prefix, got %q", cfg.Prefix)
	}
}

func TestLoggingConfig_Sanitize(t *testing.T) {
	cfg := LoggingConfig{Level: " DEBUG "}
	cfg.Sanitize()
	if cfg.Level != "debug" {
		t.Fatalf("expected debug, got %q", cfg.Level)
	}

	cfg = LoggingConfig{Level: "verbose"}
	cfg.Sanitize()
	if cfg.Level != "info" {
		t.Fatalf("expected fallback to info, got %q", cfg.Level)
	}
}

func TestObservabilityNotificationsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityNotificationsConfig{
		Enabled:    true,
		RetryLimit: -1,
		Slack:      SlackNotificationConfig{Enabled: true, WebhookURL: " "},
		PagerDuty:  PagerDutyNotificationConfig{Enabled: true, RoutingKey: " rk "},
	}
	cfg.Sanitize()

	if cfg.Slack.Enabled {
		t.Fatal("expected slack alerts disabled without a webhook url")
	}
	if !cfg.PagerDuty.Enabled || cfg.PagerDuty.RoutingKey != "rk" {
		t.Fatalf("expected pagerduty enabled with trimmed key, got %+v", cfg.PagerDuty)
	}
	if cfg.RetryLimit != 0 || cfg.Timeout != 5*time.Second {
		t.Fatalf("unexpected guardrails: retry=%d timeout=%s", cfg.RetryLimit, cfg.Timeout)
	}
	if cfg.Slack.Username != "fetchbot" {
		t.Fatalf("expected default username, got %q", cfg.Slack.Username)
	}

	cfg = ObservabilityNotificationsConfig{
		Slack: SlackNotificationConfig{Enabled: true, WebhookURL: "https://hooks"},
	}
	cfg.Sanitize()
	if cfg.Slack.Enabled {
		t.Fatal("expected sinks disabled when notifications are off")
	}
}
