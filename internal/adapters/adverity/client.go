// Package adverity implements the vendor job trigger and status calls.
package adverity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/target/adverity-fetchbot/config"
	"github.com/target/adverity-fetchbot/internal/core"
	"github.com/target/adverity-fetchbot/internal/domain/model"
	apperrors "github.com/target/adverity-fetchbot/internal/errors"
)

const (
	maxBodyBytes    = 1 << 20
	maxPayloadChars = 500
)

// Options configures a Client.
type Options struct {
	Config config.AdverityConfig
	// HTTPClient overrides the default client; per-call timeouts still apply.
	HTTPClient *http.Client
	// Evaluator overrides the JMESPath evaluator used for extraction.
	Evaluator Evaluator
	Logger    *slog.Logger
}

// Client calls the Adverity datastream and job APIs.
type Client struct {
	baseURL        string
	host           string
	token          string
	triggerTimeout time.Duration
	statusTimeout  time.Duration
	hc             *http.Client
	ev             Evaluator
	logger         *slog.Logger
}

var (
	_ core.JobTrigger       = (*Client)(nil)
	_ core.JobStatusFetcher = (*Client)(nil)
)

// NewClient builds a Client. It fails with ConfigurationMissing when the instance or token is absent.
func NewClient(opts Options) (*Client, error) {
	cfg := opts.Config
	var missing []string
	if cfg.Instance == "" {
		missing = append(missing, "ADVERITY_INSTANCE")
	}
	if cfg.Token == "" {
		missing = append(missing, "ADVERITY_TOKEN")
	}
	if len(missing) > 0 {
		return nil, apperrors.ConfigurationMissing(missing...)
	}

	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "https"
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	ev := opts.Evaluator
	if ev == nil {
		ev = jmespathEvaluator{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:        scheme + "://" + cfg.Instance,
		host:           cfg.Instance,
		token:          cfg.Token,
		triggerTimeout: durationOr(cfg.TriggerTimeout, 30*time.Second),
		statusTimeout:  durationOr(cfg.StatusTimeout, 15*time.Second),
		hc:             hc,
		ev:             ev,
		logger:         logger.With("component", "adverity"),
	}, nil
}

// TriggerFetch starts a fetch_fixed job. A job id in the response is the only success
// signal; the HTTP status is recorded but not trusted on its own.
func (c *Client) TriggerFetch(ctx context.Context, req model.TriggerRequest) (model.TriggerResult, error) {
	if strings.TrimSpace(req.StreamID) == "" {
		return model.TriggerResult{}, apperrors.Validation("stream id is required")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return model.TriggerResult{}, fmt.Errorf("encode trigger body: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.triggerTimeout)
	defer cancel()

	endpoint := c.baseURL + "/api/datastreams/" + url.PathEscape(req.StreamID) + "/fetch_fixed/"
	status, raw, err := c.do(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return model.TriggerResult{HTTPStatus: status},
			apperrors.JobStartFailed(fmt.Sprintf("trigger request failed: %v", err), err)
	}

	result := model.TriggerResult{HTTPStatus: status, Payload: truncate(string(raw), maxPayloadChars)}

	doc, err := DecodeDocument(raw)
	if err != nil {
		return result, apperrors.JobStartFailed(
			fmt.Sprintf("vendor answered HTTP %d with a non-JSON body: %s", status, result.Payload), err)
	}

	result.JobID = extractJobID(c.ev, doc)
	if result.JobID == "" {
		return result, apperrors.JobStartFailed(
			fmt.Sprintf("vendor answered HTTP %d without a job id: %s", status, result.Payload), nil)
	}
	result.SoftTimeout = hasOperationTimeout(doc, raw)

	c.logger.InfoContext(ctx, "fetch triggered",
		"stream_id", req.StreamID,
		"job_id", result.JobID,
		"http_status", status,
		"soft_timeout", result.SoftTimeout)
	return result, nil
}

// JobStatus reads the vendor state of jobID. Every failure is a PollTransient error.
func (c *Client) JobStatus(ctx context.Context, jobID string) (model.StatusResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.statusTimeout)
	defer cancel()

	endpoint := c.baseURL + "/api/jobs/" + url.PathEscape(jobID) + "/"
	status, raw, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.StatusResult{}, apperrors.PollTransient(err, "status request for job %s failed", jobID)
	}
	if status < 200 || status >= 300 {
		return model.StatusResult{}, apperrors.PollTransient(nil,
			"status request for job %s returned HTTP %d: %s", jobID, status, truncate(string(raw), maxPayloadChars))
	}

	doc, err := DecodeDocument(raw)
	if err != nil {
		return model.StatusResult{}, apperrors.PollTransient(err, "status response for job %s is not JSON", jobID)
	}
	label := extractStatusLabel(c.ev, doc)
	if label == "" {
		return model.StatusResult{}, apperrors.PollTransient(nil, "status response for job %s has no status label", jobID)
	}
	return model.StatusResult{JobID: jobID, Label: label}, nil
}

// JobURL returns the vendor UI link for jobID.
func (c *Client) JobURL(jobID string) string {
	return JobURL(c.host, jobID)
}

// JobURL builds the vendor UI link for jobID on instance.
func JobURL(instance, jobID string) string {
	return "https://" + instance + "/jobs/" + url.PathEscape(jobID)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create adverity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("adverity request failed: %w", err)
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	closeErr := resp.Body.Close()
	if readErr != nil {
		return resp.StatusCode, nil, errors.Join(
			fmt.Errorf("read adverity response: %w", readErr),
			closeErr,
		)
	}
	if closeErr != nil {
		c.logger.DebugContext(ctx, "close adverity response body failed", "error", closeErr)
	}
	return resp.StatusCode, raw, nil
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
