package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	apperrors "github.com/target/adverity-fetchbot/internal/errors"
)

const maxCallbackBytes = 64 << 10

// PollHandlers serves the check-open endpoint and the vendor callback.
type PollHandlers struct {
	Resume OpenChecker
	Tasks  BackgroundRunner
	Logger *slog.Logger
}

var errResumeUnavailable = apperrors.ConfigurationMissing("ADVERITY_INSTANCE", "ADVERITY_TOKEN")

// CheckOpen runs one resume pass synchronously and returns its summary.
func (h *PollHandlers) CheckOpen(w http.ResponseWriter, r *http.Request) {
	if h.Resume == nil {
		WriteAppError(w, errResumeUnavailable)
		return
	}
	sum, err := h.Resume.CheckOpen(r.Context())
	if err != nil {
		h.Logger.ErrorContext(r.Context(), "check-open failed", "error", err)
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, sum)
}

// Callback treats a vendor callback as a nudge: it schedules a resume pass and
// answers 202 without reading job state from the payload.
func (h *PollHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	n, _ := io.Copy(io.Discard, io.LimitReader(r.Body, maxCallbackBytes))
	if h.Resume == nil || h.Tasks == nil {
		WriteAppError(w, errResumeUnavailable)
		return
	}

	err := h.Tasks.Go("check-open:callback", func(ctx context.Context) {
		if _, err := h.Resume.CheckOpen(ctx); err != nil {
			h.Logger.WarnContext(ctx, "callback check-open failed", "error", err)
		}
	})
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusServiceUnavailable, ErrCode: "shutting_down", Err: err})
		return
	}
	h.Logger.InfoContext(r.Context(), "adverity callback received", "bytes", n)
	WriteJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
