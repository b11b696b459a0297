package config

import (
	"fmt"
	"strings"
	"time"
)

// PollMode selects who owns job polling after a successful trigger.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type PollMode string

const (
	// PollModeInline polls in a background goroutine until terminal state or timeout.
	PollModeInline PollMode = "inline"
	// PollModeDeferred leaves polling to the check-open procedure (external cron or poller service).
	PollModeDeferred PollMode = "deferred"
)

// UnmarshalText implements encoding.TextUnmarshaler for PollMode to allow env parsing.
func (m *PollMode) UnmarshalText(text []byte) error {
	v := PollMode(strings.ToLower(strings.TrimSpace(string(text))))
	if v.Valid() {
		*m = v
		return nil
	}
	return fmt.Errorf("invalid PollMode: %q", v)
}

// Valid returns true if the PollMode is known.
func (m PollMode) Valid() bool {
	return m == PollModeInline || m == PollModeDeferred
}

const (
	defaultPollInterval = 45 * time.Second
	defaultPollTimeout  = 28 * time.Minute
	minPollInterval     = time.Second
)

// PollerConfig contains job status polling configuration.
type PollerConfig struct {
	// Mode selects inline or deferred polling.
	Mode PollMode `env:"POLL_MODE" envDefault:"inline"`

	// Interval is the delay between status polls.
	Interval time.Duration `env:"POLL_INTERVAL" envDefault:"45s"`

	// Timeout bounds the total inline polling time. Keep it below Slack's
	// 30 minute response_url window.
	Timeout time.Duration `env:"POLL_TIMEOUT" envDefault:"28m"`

	// Schedule is the robfig/cron spec used by the poller service.
	Schedule string `env:"POLL_SCHEDULE" envDefault:"@every 5m"`

	// Token protects the check-open endpoint. Empty disables the check.
	Token string `env:"POLL_TOKEN"`
}

// Sanitize applies guardrails to poller configuration values.
func (c *PollerConfig) Sanitize() {
	if !c.Mode.Valid() {
		c.Mode = PollModeInline
	}
	if c.Interval <= 0 {
		c.Interval = defaultPollInterval
	}
	if c.Interval < minPollInterval {
		c.Interval = minPollInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultPollTimeout
	}
	c.Schedule = strings.TrimSpace(c.Schedule)
	if c.Schedule == "" {
		c.Schedule = "@every 5m"
	}
	c.Token = strings.TrimSpace(c.Token)
}
