// Package httpx exposes the slash command, check-open and callback endpoints.
package httpx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/target/adverity-fetchbot/internal/domain/command"
	"github.com/target/adverity-fetchbot/internal/domain/model"
	"github.com/target/adverity-fetchbot/internal/service"
)

// FetchSubmitter accepts parsed fetch requests. *service.FetchService implements it.
type FetchSubmitter interface {
	Ready() error
	NewRequest(cmd model.SlashCommand, parsed command.Parsed) model.FetchRequest
	Submit(req model.FetchRequest) error
}

// CommandParser parses slash command text. *command.Parser implements it.
type CommandParser interface {
	Parse(text string) (command.Parsed, error)
	Usage() string
}

// OpenChecker runs one resume pass. *service.ResumeService implements it.
type OpenChecker interface {
	CheckOpen(ctx context.Context) (service.ResumeSummary, error)
}

// BackgroundRunner runs work detached from the request. *service.TaskRunner implements it.
type BackgroundRunner interface {
	Go(name string, fn func(ctx context.Context)) error
}

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Fetch  FetchSubmitter
	Parser CommandParser
	// Resume is nil when Adverity is not configured.
	Resume OpenChecker
	Tasks  BackgroundRunner
	// SlackToken is the slash command verification token; empty skips the check.
	SlackToken string
	// PollToken protects check-open and the callback; empty skips the check.
	PollToken    string
	AuditEnabled bool
	Logger       *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	slack := &SlackHandlers{
		Fetch:  services.Fetch,
		Parser: services.Parser,
		Token:  services.SlackToken,
		Logger: logger,
	}
	poll := &PollHandlers{Resume: services.Resume, Tasks: services.Tasks, Logger: logger}
	guard := RequireToken(services.PollToken)

	mux.Handle("POST /slack/commands", http.HandlerFunc(slack.Command))
	mux.Handle("GET /jobs/check-open", guard(http.HandlerFunc(poll.CheckOpen)))
	mux.Handle("POST /jobs/check-open", guard(http.HandlerFunc(poll.CheckOpen)))
	mux.Handle("POST /adverity/callback", guard(http.HandlerFunc(poll.Callback)))
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /readyz", readyHandler(services.Fetch, services.AuditEnabled))

	return mux
}
