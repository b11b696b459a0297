package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxResponseBytes = 64 << 10

// permanentError marks failures that retrying cannot fix.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// APIError is an `ok:false` answer from Slack.
type APIError struct {
	Method string
	Code   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack %s: %s", e.Method, e.Code)
}

type poster struct {
	client     *http.Client
	retryLimit int
	backoff    time.Duration
}

// send posts the payload as JSON through retry.
func (p *poster) send(ctx context.Context, req outbound) error {
	body, err := json.Marshal(req.payload)
	if err != nil {
		return fmt.Errorf("encode slack payload: %w", err)
	}
	return p.retry(ctx, func(ctx context.Context) error {
		return p.post(ctx, req, body)
	})
}

// retry runs attempt until it succeeds, retrying transient failures with linear
// backoff. Permanent failures return after the first attempt.
func (p *poster) retry(ctx context.Context, attempt func(context.Context) error) error {
	attempts := p.retryLimit + 1
	var lastErr error
	for i := range attempts {
		err := attempt(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if i < attempts-1 {
			delay := time.Duration(i+1) * p.backoff
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				if !timer.Stop() {
					<-timer.C
				}
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return lastErr
}

type outbound struct {
	method   string
	endpoint string
	payload  any
}

func (p *poster) post(ctx context.Context, out outbound, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, out.endpoint, bytes.NewReader(body))
	if err != nil {
		return &permanentError{fmt.Errorf("create slack request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack request failed: %w", err)
	}
	respBody, err := readAndClose(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := fmt.Errorf("slack %s %s: %s", out.method, resp.Status, strings.TrimSpace(string(respBody)))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return statusErr
		}
		return &permanentError{statusErr}
	}
	return checkOK(out.method, respBody)
}

// checkOK rejects JSON answers carrying ok:false. Non-JSON 2xx bodies ("ok") are accepted.
func checkOK(method string, body []byte) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var ans struct {
		OK    *bool  `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &ans); err != nil {
		return nil
	}
	if ans.OK != nil && !*ans.OK {
		code := ans.Error
		if code == "" {
			code = "unknown_error"
		}
		return &permanentError{&APIError{Method: method, Code: code}}
	}
	return nil
}

func readAndClose(resp *http.Response) ([]byte, error) {
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	closeErr := resp.Body.Close()
	switch {
	case readErr != nil && closeErr != nil:
		return nil, errors.Join(
			fmt.Errorf("read slack response body: %w", readErr),
			fmt.Errorf("close response body: %w", closeErr),
		)
	case readErr != nil:
		return nil, fmt.Errorf("read slack response body: %w", readErr)
	case closeErr != nil:
		return nil, fmt.Errorf("close response body: %w", closeErr)
	}
	return body, nil
}

func escapeText(value string) string {
	if value == "" {
		return ""
	}
	return strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	).Replace(value)
}
