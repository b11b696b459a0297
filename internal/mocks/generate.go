// Package mocks provides gomock implementations of the ports in internal/core.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	trigger := mocks.NewMockJobTrigger(ctrl)
//	trigger.EXPECT().TriggerFetch(gomock.Any(), gomock.Any()).Return(result, nil)
package mocks

// JobTrigger: JobURL, TriggerFetch
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_trigger_mock.go github.com/target/adverity-fetchbot/internal/core JobTrigger

// JobStatusFetcher: JobStatus
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_status_fetcher_mock.go github.com/target/adverity-fetchbot/internal/core JobStatusFetcher

// AuditLog: FindByJobID, InsertRow, ListRows, UpdateRow
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=audit_log_mock.go github.com/target/adverity-fetchbot/internal/core AuditLog

// ChatPoster: CanPost, PostEphemeral, PostMessage, PostResponseURL
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=chat_poster_mock.go github.com/target/adverity-fetchbot/internal/core ChatPoster

// NotificationClaims: Claim, Release
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=notification_claims_mock.go github.com/target/adverity-fetchbot/internal/core NotificationClaims
