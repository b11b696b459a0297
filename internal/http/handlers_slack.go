package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/target/adverity-fetchbot/internal/domain/command"
	"github.com/target/adverity-fetchbot/internal/domain/model"
	apperrors "github.com/target/adverity-fetchbot/internal/errors"
	"github.com/target/adverity-fetchbot/internal/service"
)

const maxFormBytes = 64 << 10

// SlackHandlers serves the slash command endpoint.
type SlackHandlers struct {
	Fetch  FetchSubmitter
	Parser CommandParser
	Token  string
	Logger *slog.Logger
}

// Command acknowledges a slash command within Slack's response window and
// hands valid requests to the fetch service.
func (h *SlackHandlers) Command(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_form", Err: err})
		return
	}

	cmd := model.SlashCommand{
		Token:       r.PostForm.Get("token"),
		Text:        strings.TrimSpace(r.PostForm.Get("text")),
		UserName:    r.PostForm.Get("user_name"),
		UserID:      r.PostForm.Get("user_id"),
		ChannelID:   r.PostForm.Get("channel_id"),
		ResponseURL: r.PostForm.Get("response_url"),
	}
	if h.Token != "" && !tokenMatches(cmd.Token, h.Token) {
		h.Logger.WarnContext(r.Context(), "slash command token mismatch", "user_id", cmd.UserID)
		WriteAppError(w, apperrors.Unauthorized("invalid verification token"))
		return
	}

	if command.IsHelp(cmd.Text) {
		WriteSlack(w, model.ResponseEphemeral, h.Parser.Usage())
		return
	}

	parsed, err := h.Parser.Parse(cmd.Text)
	if err != nil {
		h.Logger.InfoContext(r.Context(), "slash command rejected",
			"user_id", cmd.UserID,
			"text", cmd.Text,
			"error", err,
		)
		WriteSlack(w, model.ResponseEphemeral, service.RejectionText(err, h.Parser.Usage()))
		return
	}

	if err := h.Fetch.Ready(); err != nil {
		h.Logger.ErrorContext(r.Context(), "fetch rejected, adverity not configured", "error", err)
		WriteSlack(w, model.ResponseEphemeral, service.RejectionText(err, ""))
		return
	}

	req := h.Fetch.NewRequest(cmd, parsed)
	if err := h.Fetch.Submit(req); err != nil {
		text := service.RejectionText(err, "")
		if errors.Is(err, service.ErrShuttingDown) {
			text = service.BusyText
		}
		WriteSlack(w, model.ResponseEphemeral, text)
		return
	}

	h.Logger.InfoContext(r.Context(), "fetch request accepted",
		"request_id", req.ID,
		"stream", req.StreamName,
		"start", req.Start,
		"end", req.End,
		"user_id", req.RequesterID,
	)
	WriteSlack(w, model.ResponseEphemeral, service.AckText(req))
}
