package core

import (
	"context"

	"github.com/target/adverity-fetchbot/internal/domain/model"
)

// This file contains the ports the service layer depends on.
// Adapters under internal/adapters and internal/observability implement them.

// JobTrigger starts vendor fetch jobs.
type JobTrigger interface {
	TriggerFetch(ctx context.Context, req model.TriggerRequest) (model.TriggerResult, error)
	// JobURL returns the human-facing link for a job.
	JobURL(jobID string) string
}

// JobStatusFetcher reads the current vendor state of a job.
type JobStatusFetcher interface {
	JobStatus(ctx context.Context, jobID string) (model.StatusResult, error)
}

// AuditLog is the spreadsheet-backed record of every request.
// It is also the only durable state the resume procedure reads.
type AuditLog interface {
	// InsertRow writes row directly below the header.
	InsertRow(ctx context.Context, row model.AuditRow) error
	// ListRows returns all data rows with their positions populated.
	ListRows(ctx context.Context) ([]model.AuditRow, error)
	// FindByJobID returns the row for jobID or a NotFound error.
	FindByJobID(ctx context.Context, jobID string) (model.AuditRow, error)
	// UpdateRow rewrites the row at row.Position.
	UpdateRow(ctx context.Context, row model.AuditRow) error
}

// ChatPoster delivers messages through the chat platform.
type ChatPoster interface {
	// PostResponseURL posts to a slash command's delayed response locator.
	PostResponseURL(ctx context.Context, responseURL string, msg model.ChatMessage) error
	// PostEphemeral posts a message visible only to user in channel.
	PostEphemeral(ctx context.Context, channel, user, text string) error
	// PostMessage posts to a channel, or to a DM when channel is a user id.
	PostMessage(ctx context.Context, channel, text string) error
	// CanPost reports whether the Web API methods are configured.
	CanPost() bool
}

// NotificationClaims deduplicates terminal notifications across workers.
type NotificationClaims interface {
	// Claim reserves key; false means another worker already holds it.
	Claim(ctx context.Context, key string) (bool, error)
	// Release drops a claim so a later run can retry delivery.
	Release(ctx context.Context, key string) error
}
