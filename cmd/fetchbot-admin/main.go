package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/target/adverity-fetchbot/config"
	"github.com/target/adverity-fetchbot/internal/bootstrap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	a := &app{
		out:        os.Stdout,
		errOut:     os.Stderr,
		loadConfig: bootstrap.LoadConfig,
	}
	err := newRootCmd(a).ExecuteContext(ctx)
	// PersistentPostRunE is skipped when a command fails.
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}
	stop()
	if err != nil {
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

// app carries what every subcommand needs. Tests replace the config loader and HTTP clients.
type app struct {
	out        io.Writer
	errOut     io.Writer
	loadConfig func() (config.AppConfig, error)
	// httpClient and sheetsClient override adapter transports.
	httpClient   *http.Client
	sheetsClient *http.Client

	cfg     config.AppConfig
	logger  *slog.Logger
	verbose bool
	redis   redis.UniversalClient
	closers []func() error
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "fetchbot-admin",
		Short: "Operator tools for the Adverity fetch bot",
		Long: `fetchbot-admin inspects and repairs fetch bot state.

It reads the same environment (and .env file) as the fetchbot server, so it
talks to the same Adverity instance and audit spreadsheet.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newParseCmd(a),
		newStatusCmd(a),
		newCheckOpenCmd(a),
		newListOpenCmd(a),
		newSheetInitCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	if cmd.Name() == "help" {
		return nil
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	a.cfg = cfg

	logger, closeLog := bootstrap.InitLogger(bootstrap.LoggerOptions{
		Config: cfg.Logging,
		Text:   true,
		Stdout: a.errOut,
	})
	a.logger = logger
	a.closers = append(a.closers, closeLog)
	return nil
}

func (a *app) close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}

// services builds the same container the server uses.
func (a *app) services(ctx context.Context) (bootstrap.ServiceContainer, error) {
	if a.redis == nil && a.cfg.Redis.Enabled {
		client, err := bootstrap.ConnectRedis(bootstrap.RedisConnectConfig{
			RedisConfig: a.cfg.Redis,
			Logger:      a.logger,
		})
		if err != nil {
			return bootstrap.ServiceContainer{}, fmt.Errorf("connect redis: %w", err)
		}
		a.redis = client
		a.closers = append(a.closers, client.Close)
	}

	svc, err := bootstrap.NewServices(ctx, &bootstrap.ServiceDeps{
		Config:           &a.cfg,
		RedisClient:      a.redis,
		Logger:           a.logger,
		HTTPClient:       a.httpClient,
		SheetsHTTPClient: a.sheetsClient,
	})
	if err != nil {
		return svc, err
	}
	a.closers = append(a.closers, svc.Close)
	return svc, nil
}
