package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	slogmulti "github.com/samber/slog-multi"

	"github.com/target/adverity-fetchbot/config"
)

// LoggerOptions controls InitLogger.
type LoggerOptions struct {
	Config config.LoggingConfig
	// Text switches stdout to the text handler (development).
	Text bool
	// Stdout overrides os.Stdout; used by tests.
	Stdout io.Writer
}

// InitLogger initializes the structured logger and sets it as the default.
// When a log file is configured, JSON records are mirrored to it. The returned
// cleanup closes the file.
func InitLogger(opts LoggerOptions) (*slog.Logger, func() error) {
	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}
	handlerOpts := &slog.HandlerOptions{Level: parseLevel(opts.Config.Level)}

	var stdout slog.Handler = slog.NewJSONHandler(out, handlerOpts)
	if opts.Text {
		stdout = slog.NewTextHandler(out, handlerOpts)
	}

	cleanup := func() error { return nil }
	logger := slog.New(stdout)
	if opts.Config.File != "" {
		file, err := os.OpenFile(opts.Config.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logger.Error("failed to open log file, using stdout only", "file", opts.Config.File, "error", err)
		} else {
			logger = slog.New(slogmulti.Fanout(stdout, slog.NewJSONHandler(file, handlerOpts)))
			cleanup = file.Close
		}
	}

	slog.SetDefault(logger)
	return logger, cleanup
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	return cfg, nil
}

// ValidateServiceConfig validates that at least one service is enabled.
func ValidateServiceConfig(cfg *config.AppConfig) error {
	if cfg == nil {
		return errors.New("service config is required")
	}
	services, err := cfg.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("invalid service configuration: %w", err)
	}

	if len(services) == 0 {
		return errors.New("no services enabled")
	}

	return nil
}

// GetEnabledServices returns the sorted names of enabled services.
func GetEnabledServices(cfg *config.AppConfig) []string {
	if cfg == nil {
		return []string{}
	}
	services, err := cfg.GetEnabledServices()
	if err != nil {
		// Return empty list on error - validation will catch this
		return []string{}
	}

	enabledServices := make([]string, 0, len(services))
	for svc := range services {
		enabledServices = append(enabledServices, string(svc))
	}
	sort.Strings(enabledServices)

	return enabledServices
}
