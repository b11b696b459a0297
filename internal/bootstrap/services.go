package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/target/adverity-fetchbot/config"
	"github.com/target/adverity-fetchbot/internal/adapters/adverity"
	redisadapter "github.com/target/adverity-fetchbot/internal/adapters/redis"
	"github.com/target/adverity-fetchbot/internal/adapters/sheets"
	"github.com/target/adverity-fetchbot/internal/core"
	"github.com/target/adverity-fetchbot/internal/domain/command"
	"github.com/target/adverity-fetchbot/internal/domain/model"
	"github.com/target/adverity-fetchbot/internal/observability/notify/pagerduty"
	"github.com/target/adverity-fetchbot/internal/observability/notify/slack"
	"github.com/target/adverity-fetchbot/internal/observability/statsd"
	"github.com/target/adverity-fetchbot/internal/service"
	"github.com/target/adverity-fetchbot/internal/service/failurenotifier"
)

// callbackPath is where Adverity posts job completion nudges.
const callbackPath = "/adverity/callback"

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Fetch    *service.FetchService
	Resume   *service.ResumeService // nil when Adverity is not configured
	Audit    *service.AuditService
	Notifier *service.NotificationService
	Tasks    *service.TaskRunner
	Parser   *command.Parser

	Adverity *adverity.Client // nil when Adverity is not configured
	Sheets   *sheets.Client   // nil when the audit log is disabled
	Poller   *service.Poller  // nil when Adverity is not configured

	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink     *statsd.Client
	MetricsConfig   config.ObservabilityMetricsConfig
	FailureNotifier *failurenotifier.Service
	NotifierConfig  config.ObservabilityNotificationsConfig
}

// Close releases resources held by the container.
func (c *ServiceContainer) Close() error {
	return c.Observability.MetricsSink.Close()
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	RedisClient redis.UniversalClient // Optional: enables notification claims
	Logger      *slog.Logger
	// HTTPClient is used for Adverity and Slack calls; nil uses per-adapter defaults.
	HTTPClient *http.Client
	// SheetsHTTPClient overrides the service-account client; used by tests.
	SheetsHTTPClient *http.Client
}

// buildObservability configures metrics and notification adapters.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  cfg.Metrics.Prefix,
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:     metricsSink,
		MetricsConfig:   cfg.Metrics,
		FailureNotifier: buildFailureNotifier(obsLogger, cfg.Notifications),
		NotifierConfig:  cfg.Notifications,
	}
}

func buildFailureNotifier(logger *slog.Logger, cfg config.ObservabilityNotificationsConfig) *failurenotifier.Service {
	if !cfg.Enabled {
		return failurenotifier.NewService(failurenotifier.Options{Logger: logger})
	}

	sinks := make([]failurenotifier.SinkRegistration, 0, 2)

	if cfg.Slack.Enabled {
		sink, err := slack.NewWebhookSink(slack.WebhookConfig{
			WebhookURL: cfg.Slack.WebhookURL,
			Channel:    cfg.Slack.Channel,
			Username:   cfg.Slack.Username,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			logger.Error("failed to initialise slack notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{
				Name: "slack",
				Sink: sink,
			})
		}
	}

	if cfg.PagerDuty.Enabled {
		client, err := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: cfg.PagerDuty.RoutingKey,
			Source:     cfg.PagerDuty.Source,
			Component:  cfg.PagerDuty.Component,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			logger.Error("failed to initialise pagerduty notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{
				Name: "pagerduty",
				Sink: client,
			})
		}
	}

	return failurenotifier.NewService(failurenotifier.Options{
		Logger:     logger,
		Sinks:      sinks,
		MutedKinds: cfg.MutedKinds,
	})
}

// buildAdverity returns nil without error when the instance config is incomplete.
func buildAdverity(deps *ServiceDeps, logger *slog.Logger) (*adverity.Client, error) {
	cfg := deps.Config.Adverity
	if missing := cfg.MissingKeys(); len(missing) > 0 {
		logger.Warn("adverity not configured; /fetch will reply with a configuration error", "missing", missing)
		return nil, nil
	}
	client, err := adverity.NewClient(adverity.Options{
		Config:     cfg,
		HTTPClient: deps.HTTPClient,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build adverity client: %w", err)
	}
	return client, nil
}

// buildSheets returns nil without error when the audit log is disabled.
func buildSheets(ctx context.Context, deps *ServiceDeps, logger *slog.Logger) (*sheets.Client, error) {
	cfg := deps.Config.Sheets
	if !cfg.IsEnabled() {
		logger.Warn("audit log disabled; set GOOGLE_SHEET_ID and credentials to enable it")
		return nil, nil
	}
	hc := deps.SheetsHTTPClient
	if hc == nil {
		authorized, err := sheets.NewAuthorizedClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("authorise sheets client: %w", err)
		}
		hc = authorized
	}
	client, err := sheets.NewClient(ctx, sheets.Options{
		Config:     cfg,
		HTTPClient: hc,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build sheets client: %w", err)
	}
	return client, nil
}

func buildClaims(deps *ServiceDeps) (core.NotificationClaims, error) {
	if deps.RedisClient == nil {
		return nil, nil
	}
	store, err := redisadapter.NewClaimStore(redisadapter.ClaimStoreOptions{
		Client: deps.RedisClient,
		Prefix: deps.Config.Redis.Prefix,
		TTL:    deps.Config.Redis.ClaimTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("build claim store: %w", err)
	}
	return store, nil
}

// CallbackURL returns the URL Adverity should call on completion, or "" when callbacks are off.
func CallbackURL(cfg *config.AppConfig) string {
	if cfg == nil || !cfg.Adverity.CallbackEnabled || cfg.HTTP.BaseURL == "" {
		return ""
	}
	u := cfg.HTTP.BaseURL + callbackPath
	if cfg.Poller.Token != "" {
		u += "?token=" + url.QueryEscape(cfg.Poller.Token)
	}
	return u
}

// NewServices wires adapters and services. Missing Adverity or Sheets
// configuration degrades the container instead of failing.
func NewServices(ctx context.Context, deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service config is required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	obs := buildObservability(logger, cfg.Observability)
	metricsSink := metricsOrNil(obs.MetricsSink)
	alerts := obs.FailureNotifier

	advClient, err := buildAdverity(deps, logger)
	if err != nil {
		return ServiceContainer{}, err
	}
	sheetClient, err := buildSheets(ctx, deps, logger)
	if err != nil {
		return ServiceContainer{}, err
	}
	claims, err := buildClaims(deps)
	if err != nil {
		return ServiceContainer{}, err
	}

	notifier, err := service.NewNotificationService(service.NotificationServiceOptions{
		Poster: slack.NewClient(slack.Config{
			BotToken:   cfg.Slack.BotToken,
			APIURL:     cfg.Slack.APIURL,
			Timeout:    cfg.Slack.Timeout,
			RetryLimit: cfg.Slack.RetryLimit,
			Client:     deps.HTTPClient,
		}),
		Claims:  claims,
		Logger:  logger,
		Metrics: metricsSink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build notification service: %w", err)
	}

	var auditLog core.AuditLog
	if sheetClient != nil {
		auditLog = sheetClient
	}
	audit := service.NewAuditService(service.AuditServiceOptions{
		Log:      auditLog,
		Instance: cfg.Adverity.Instance,
		Logger:   logger,
		Metrics:  metricsSink,
		Alerts:   alerts,
	})

	var (
		trigger core.JobTrigger
		poller  *service.Poller
	)
	if advClient != nil {
		trigger = advClient
		poller, err = service.NewPoller(service.PollerOptions{
			Fetcher: advClient,
			Config: service.PollerConfig{
				Interval: cfg.Poller.Interval,
				Timeout:  cfg.Poller.Timeout,
			},
			Logger:  logger,
			Metrics: metricsSink,
		})
		if err != nil {
			return ServiceContainer{}, fmt.Errorf("build poller: %w", err)
		}
	}

	tasks := service.NewTaskRunner(service.TaskRunnerOptions{Logger: logger})
	visibility := model.ResponseType(cfg.Slack.FinalVisibility)

	fetch, err := service.NewFetchService(service.FetchServiceOptions{
		Ports: service.FetchPorts{
			Trigger:  trigger,
			Poller:   poller,
			Audit:    audit,
			Notifier: notifier,
			Tasks:    tasks,
			Alerts:   alerts,
		},
		Config: service.FetchConfig{
			Mode:            cfg.Poller.Mode,
			FinalVisibility: visibility,
			CallbackURL:     CallbackURL(cfg),
			MissingKeys:     cfg.Adverity.MissingKeys(),
		},
		Logger:  logger,
		Metrics: metricsSink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build fetch service: %w", err)
	}

	var resume *service.ResumeService
	if poller != nil {
		resume, err = service.NewResumeService(service.ResumeServiceOptions{
			Ports: service.ResumePorts{
				Audit:    audit,
				Poller:   poller,
				Notifier: notifier,
				Alerts:   alerts,
				JobURL:   advClient.JobURL,
			},
			FinalVisibility: visibility,
			Logger:          logger,
			Metrics:         metricsSink,
		})
		if err != nil {
			return ServiceContainer{}, fmt.Errorf("build resume service: %w", err)
		}
	}

	return ServiceContainer{
		Fetch:    fetch,
		Resume:   resume,
		Audit:    audit,
		Notifier: notifier,
		Tasks:    tasks,
		Parser: command.NewParser(command.ParserOptions{
			Streams:     cfg.Adverity.Streams,
			CommandName: cfg.Slack.CommandName,
		}),
		Adverity:      advClient,
		Sheets:        sheetClient,
		Poller:        poller,
		Observability: obs,
	}, nil
}

// metricsOrNil keeps a nil client out of the statsd.Sink interface.
//
//nolint:ireturn // callers only need the Sink behaviour.
func metricsOrNil(client *statsd.Client) statsd.Sink {
	if client == nil {
		return nil
	}
	return client
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// shutdownWaitTimeout bounds how long in-flight fetch tasks may run after a signal.
const shutdownWaitTimeout = 15 * time.Second

// backgroundService describes a startable component bound to a service mode.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

func buildBackgroundServices(cfg *ServiceOrchestrationConfig, logger *slog.Logger) []backgroundService {
	return []backgroundService{
		{
			mode: config.ServiceModeHTTP,
			name: "http server",
			start: func(ctx context.Context) error {
				server := NewHTTPServer(&HTTPServerConfig{
					Config:   cfg.Config,
					Services: cfg.Services,
					Logger:   logger,
				})
				return ServeHTTP(ctx, server, logger)
			},
		},
		{
			mode: config.ServiceModePoller,
			name: "resume scheduler",
			start: func(ctx context.Context) error {
				return RunResumeScheduler(ctx, ResumeSchedulerConfig{
					Resume:   cfg.Services.Resume,
					Schedule: cfg.Config.Poller.Schedule,
					Logger:   logger,
				})
			},
		},
	}
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// It blocks until SIGINT/SIGTERM, ctx cancellation, or a service failure.
func RunServicesWithShutdown(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, gctx := errgroup.WithContext(sigCtx)
	for _, svc := range buildBackgroundServices(cfg, logger) {
		if !enabled[svc.mode] {
			continue
		}
		logger.InfoContext(gctx, "background service started", "service", svc.name, "mode", svc.mode)
		group.Go(func() error {
			if err := svc.start(gctx); err != nil {
				return fmt.Errorf("%s failed: %w", svc.name, err)
			}
			return nil
		})
	}

	runErr := group.Wait()
	if runErr != nil {
		logger.Error("service error", "error", runErr)
	} else {
		logger.Info("shutting down services...")
	}

	return errors.Join(runErr, drainTasks(cfg.Services.Tasks, logger))
}

// drainTasks waits for in-flight fetch tasks. Their polls stop and the
// resume procedure finishes them later.
func drainTasks(tasks *service.TaskRunner, logger *slog.Logger) error {
	if tasks == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownWaitTimeout)
	defer cancel()
	if err := tasks.Shutdown(ctx); err != nil {
		logger.Warn("background tasks did not stop in time", "error", err)
		return err
	}
	return nil
}
