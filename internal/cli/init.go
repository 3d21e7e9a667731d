// Package cli provides the startup steps shared by cmd/journal and
// cmd/journal-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"journal/internal/config"
	applog "journal/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// A missing file is not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger at the given level and installs it
// as the slog default. Unknown levels fall back to info.
func SetupLogger(level string) *applog.Logger {
	lvl, err := config.ParseLevel(level)
	cfg := applog.DefaultConfig()
	if err == nil {
		cfg.Level = lvl
	}
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadConfig loads configuration and runs validate on it.
func LoadConfig(validate ...func(*config.Config) error) (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, v := range validate {
		if err := v(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Fatal logs a startup failure and exits the process.
func Fatal(logger *applog.Logger, msg string, err error) {
	logger.Error(msg, applog.FieldError, err, applog.FieldOperation, applog.OpStartup)
	os.Exit(1)
}

// FatalConfig reports an invalid configuration and exits. No configured
// logger exists yet, so it logs at info level.
func FatalConfig(err error) {
	SetupLogger("info").Error("Configuration validation failed",
		applog.FieldError, err,
		applog.FieldErrorType, applog.ErrorTypeConfiguration,
		applog.FieldOperation, applog.OpStartup)
	os.Exit(1)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// Describe renders the non-secret settings for the startup log line.
func Describe(cfg *config.Config) []any {
	return []any{
		"port", cfg.Port,
		applog.FieldBackend, cfg.DataBackend,
		"amqp_enabled", cfg.AMQPURL != "",
		"currency", cfg.Currency,
		"log_level", cfg.LogLevel,
	}
}
