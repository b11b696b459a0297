package config

import (
	"fmt"
	"strings"
	"time"
)

// Visibility selects how final job notifications are shown in Slack.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type Visibility string

const (
	// VisibilityInChannel broadcasts the final notice to the originating channel.
	VisibilityInChannel Visibility = "in_channel"
	// VisibilityEphemeral shows the final notice only to the requester.
	VisibilityEphemeral Visibility = "ephemeral"
)

// UnmarshalText implements encoding.TextUnmarshaler for Visibility to allow env parsing.
func (v *Visibility) UnmarshalText(text []byte) error {
	val := Visibility(strings.ToLower(strings.TrimSpace(string(text))))
	if val.Valid() {
		*v = val
		return nil
	}
	return fmt.Errorf("invalid Visibility: %q", val)
}

// Valid returns true if the Visibility is known.
func (v Visibility) Valid() bool {
	return v == VisibilityInChannel || v == VisibilityEphemeral
}

// SlackConfig contains Slack Web API configuration.
type SlackConfig struct {
	// BotToken authorises chat.postEphemeral and chat.postMessage calls.
	BotToken string `env:"SLACK_BOT_TOKEN"`

	// VerificationToken is the static shared token Slack sends with each slash command.
	// Leave empty to skip the check (development only).
	VerificationToken string `env:"SLACK_VERIFICATION_TOKEN"`

	// APIURL is the Slack Web API base URL.
	APIURL string `env:"SLACK_API_URL" envDefault:"https://slack.com/api"`

	// Timeout bounds each Slack HTTP call.
	Timeout time.Duration `env:"SLACK_TIMEOUT" envDefault:"5s"`

	// RetryLimit is the number of retries per delivery method.
	RetryLimit int `env:"SLACK_RETRY_LIMIT" envDefault:"2"`

	// FinalVisibility controls whether terminal notices go in_channel or ephemeral.
	FinalVisibility Visibility `env:"SLACK_FINAL_VISIBILITY" envDefault:"in_channel"`

	// CommandName is shown in usage hints.
	CommandName string `env:"SLACK_COMMAND_NAME" envDefault:"/fetch"`
}

// Sanitize applies guardrails to Slack configuration values.
func (c *SlackConfig) Sanitize() {
	c.BotToken = strings.TrimSpace(c.BotToken)
	c.VerificationToken = strings.TrimSpace(c.VerificationToken)
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	if c.APIURL == "" {
		c.APIURL = "https://slack.com/api"
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.RetryLimit < 0 {
		c.RetryLimit = 0
	}
	if !c.FinalVisibility.Valid() {
		c.FinalVisibility = VisibilityInChannel
	}
	c.CommandName = strings.TrimSpace(c.CommandName)
	if c.CommandName == "" {
		c.CommandName = "/fetch"
	}
}
