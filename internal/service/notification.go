package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/target/adverity-fetchbot/internal/core"
	"github.com/target/adverity-fetchbot/internal/domain/model"
	apperrors "github.com/target/adverity-fetchbot/internal/errors"
	"github.com/target/adverity-fetchbot/internal/observability/metrics"
	"github.com/target/adverity-fetchbot/internal/observability/statsd"
)

// Delivery method names reported in logs and metrics.
const (
	MethodResponseURL = "response_url"
	MethodEphemeral   = "chat.postEphemeral"
	MethodChannel     = "chat.postMessage"
	MethodDirect      = "direct_message"
)

var errNoDeliveryMethod = errors.New("no delivery method available")

// Target is where a notice can be delivered. Empty fields disable the methods that need them.
type Target struct {
	ResponseURL string
	ChannelID   string
	UserID      string
}

// TargetForRequest returns the delivery target of a slash command.
func TargetForRequest(req model.FetchRequest) Target {
	return Target{ResponseURL: req.ResponseURL, ChannelID: req.ChannelID, UserID: req.RequesterID}
}

// Notice is a message plus its visibility.
type Notice struct {
	Text       string
	Visibility model.ResponseType
}

// FinalDelivery reports how a terminal notice was handled.
type FinalDelivery struct {
	// Method is the delivery method that succeeded, empty when nothing was delivered.
	Method string
	// Skipped is true when another worker holds the notification claim.
	Skipped bool
}

// Delivered reports whether the notice reached the requester.
func (d FinalDelivery) Delivered() bool {
	return d.Method != ""
}

// NotificationServiceOptions groups dependencies for NotificationService.
type NotificationServiceOptions struct {
	Poster  core.ChatPoster         // Required: chat delivery
	Claims  core.NotificationClaims // Optional: cross-worker dedupe of terminal notices
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// NotificationService delivers notices through an ordered fallback chain.
type NotificationService struct {
	poster  core.ChatPoster
	claims  core.NotificationClaims
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(opts NotificationServiceOptions) (*NotificationService, error) {
	if opts.Poster == nil {
		return nil, errors.New("ChatPoster is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{
		poster:  opts.Poster,
		claims:  opts.Claims,
		logger:  logger.With("component", "notification_service"),
		metrics: opts.Metrics,
	}, nil
}

type deliveryStep struct {
	method string
	send   func(ctx context.Context) error
}

// chain lists the usable methods for target in fallback order.
func (s *NotificationService) chain(target Target, notice Notice) []deliveryStep {
	visibility := notice.Visibility
	if visibility == "" {
		visibility = model.ResponseEphemeral
	}
	canPost := s.poster.CanPost()

	var steps []deliveryStep
	if target.ResponseURL != "" {
		msg := model.ChatMessage{ResponseType: visibility, Text: notice.Text}
		steps = append(steps, deliveryStep{MethodResponseURL, func(ctx context.Context) error {
			return s.poster.PostResponseURL(ctx, target.ResponseURL, msg)
		}})
	}
	if canPost && target.ChannelID != "" {
		if visibility == model.ResponseInChannel {
			steps = append(steps, deliveryStep{MethodChannel, func(ctx context.Context) error {
				return s.poster.PostMessage(ctx, target.ChannelID, notice.Text)
			}})
		} else if target.UserID != "" {
			steps = append(steps, deliveryStep{MethodEphemeral, func(ctx context.Context) error {
				return s.poster.PostEphemeral(ctx, target.ChannelID, target.UserID, notice.Text)
			}})
		}
	}
	if canPost && target.UserID != "" {
		steps = append(steps, deliveryStep{MethodDirect, func(ctx context.Context) error {
			return s.poster.PostMessage(ctx, target.UserID, notice.Text)
		}})
	}
	return steps
}

// Deliver tries each available method in order and returns the one that succeeded.
// When every method fails the last error is wrapped in NotificationDeliveryFailed.
func (s *NotificationService) Deliver(ctx context.Context, target Target, notice Notice) (string, error) {
	steps := s.chain(target, notice)
	if len(steps) == 0 {
		err := apperrors.NotificationDeliveryFailed(errNoDeliveryMethod)
		metrics.EmitDelivery(s.metrics, "none", err)
		return "", err
	}

	var lastErr error
	for _, step := range steps {
		err := step.send(ctx)
		if err == nil {
			metrics.EmitDelivery(s.metrics, step.method, nil)
			return step.method, nil
		}
		lastErr = err
		s.logger.WarnContext(ctx, "notification method failed, trying fallback",
			"method", step.method,
			"channel_id", target.ChannelID,
			"user_id", target.UserID,
			"error", err,
		)
		if ctx.Err() != nil {
			break
		}
	}

	err := apperrors.NotificationDeliveryFailed(lastErr)
	metrics.EmitDelivery(s.metrics, "none", err)
	return "", err
}

// DeliverFinal delivers a terminal notice for jobID at most once across workers
// when a claim store is configured. Claim store errors fail open.
func (s *NotificationService) DeliverFinal(
	ctx context.Context,
	jobID string,
	target Target,
	notice Notice,
) (FinalDelivery, error) {
	claimed := false
	if s.claims != nil && jobID != "" {
		ok, err := s.claims.Claim(ctx, jobID)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "notification claim failed, delivering anyway",
				"job_id", jobID,
				"error", err,
			)
		case !ok:
			s.logger.InfoContext(ctx, "notification already claimed by another worker", "job_id", jobID)
			return FinalDelivery{Skipped: true}, nil
		default:
			claimed = true
		}
	}

	method, err := s.Deliver(ctx, target, notice)
	if err != nil {
		if claimed {
			if relErr := s.claims.Release(context.WithoutCancel(ctx), jobID); relErr != nil {
				s.logger.WarnContext(ctx, "notification claim release failed",
					"job_id", jobID,
					"error", relErr,
				)
			}
		}
		return FinalDelivery{}, err
	}
	return FinalDelivery{Method: method}, nil
}
