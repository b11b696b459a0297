// Package slack delivers messages through Slack's Web API, slash command
// response URLs and incoming webhooks.
package slack

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	slackapi "github.com/slack-go/slack"

	"github.com/target/adverity-fetchbot/internal/core"
	"github.com/target/adverity-fetchbot/internal/domain/model"
)

const defaultAPIURL = "https://slack.com/api"

// Config captures the Slack Web API behaviour we need.
type Config struct {
	BotToken   string
	APIURL     string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
	// Backoff is the linear retry step; defaults to 200ms.
	Backoff time.Duration
}

// Client posts chat messages on behalf of the bot.
type Client struct {
	token  string
	api    *slackapi.Client
	poster *poster
}

var _ core.ChatPoster = (*Client)(nil)

// NewClient builds a Slack Web API client. A missing bot token only disables
// the Web API methods; response URL posts still work.
func NewClient(cfg Config) *Client {
	p := newPoster(cfg.Client, cfg.Timeout, cfg.RetryLimit, cfg.Backoff)
	apiURL := fallbackString(strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/"), defaultAPIURL)
	token := strings.TrimSpace(cfg.BotToken)
	api := slackapi.New(token,
		slackapi.OptionAPIURL(apiURL+"/"),
		slackapi.OptionHTTPClient(p.client),
	)
	return &Client{token: token, api: api, poster: p}
}

func newPoster(hc *http.Client, timeout time.Duration, retries int, backoff time.Duration) *poster {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if retries < 0 {
		retries = 0
	}
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &poster{client: hc, retryLimit: retries, backoff: backoff}
}

// CanPost reports whether a bot token is configured.
func (c *Client) CanPost() bool {
	return c.token != ""
}

// PostResponseURL posts msg to a slash command response URL.
func (c *Client) PostResponseURL(ctx context.Context, responseURL string, msg model.ChatMessage) error {
	responseURL = strings.TrimSpace(responseURL)
	if responseURL == "" {
		return errors.New("slack response url is required")
	}
	if msg.ResponseType == "" {
		msg.ResponseType = model.ResponseEphemeral
	}
	hook := &slackapi.WebhookMessage{
		Text:            msg.Text,
		ResponseType:    string(msg.ResponseType),
		ReplaceOriginal: msg.ReplaceOriginal,
	}
	return c.poster.retry(ctx, func(ctx context.Context) error {
		err := slackapi.PostWebhookCustomHTTPContext(ctx, responseURL, c.poster.client, hook)
		return classify("response_url", err)
	})
}

// PostEphemeral posts text visible only to user in channel.
func (c *Client) PostEphemeral(ctx context.Context, channel, user, text string) error {
	if !c.CanPost() {
		return errors.New("slack bot token is not configured")
	}
	return c.poster.retry(ctx, func(ctx context.Context) error {
		_, err := c.api.PostEphemeralContext(ctx, channel, user, slackapi.MsgOptionText(text, false))
		return classify("chat.postEphemeral", err)
	})
}

// PostMessage posts text to channel. Passing a user id as channel sends a DM.
func (c *Client) PostMessage(ctx context.Context, channel, text string) error {
	if !c.CanPost() {
		return errors.New("slack bot token is not configured")
	}
	return c.poster.retry(ctx, func(ctx context.Context) error {
		_, _, err := c.api.PostMessageContext(ctx, channel, slackapi.MsgOptionText(text, false))
		return classify("chat.postMessage", err)
	})
}

// classify maps slack-go errors onto the retry policy: ok:false answers and
// 4xx statuses are permanent; rate limits, 5xx and network errors are retried.
func classify(method string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr slackapi.SlackErrorResponse
	if errors.As(err, &apiErr) {
		return &permanentError{&APIError{Method: method, Code: fallbackString(apiErr.Err, "unknown_error")}}
	}
	var statusErr slackapi.StatusCodeError
	if errors.As(err, &statusErr) {
		wrapped := fmt.Errorf("slack %s: %w", method, statusErr)
		if statusErr.Retryable() {
			return wrapped
		}
		return &permanentError{wrapped}
	}
	return fmt.Errorf("slack %s: %w", method, err)
}

func fallbackString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
