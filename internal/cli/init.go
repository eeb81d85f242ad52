// Package cli provides common CLI initialization utilities shared by
// cmd/zent, cmd/zent-worker and cmd/zentctl.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"zent/internal/backend"
	"zent/internal/config"
	"zent/internal/currency"
	applog "zent/internal/log"
	"zent/internal/services"
)

// SetupLogger initializes structured logging from the LOG_LEVEL and
// LOG_FORMAT settings and installs it as the default logger.
func SetupLogger(cfg *config.Config, component string) *applog.Logger {
	return SetupLoggerTo(cfg, component, os.Stdout)
}

// SetupLoggerTo is SetupLogger writing to out.
func SetupLoggerTo(cfg *config.Config, component string, out io.Writer) *applog.Logger {
	lc := applog.DefaultConfig()
	lc.Component = component
	lc.Output = out
	if cfg != nil {
		lc.Level = applog.ParseLevel(cfg.LogLevel)
		if cfg.LogFormat != "" {
			lc.Format = cfg.LogFormat
		}
	}
	logger := applog.New(lc)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitBackend opens the configured store.
// Returns the backend or exits the process on failure.
func InitBackend(ctx context.Context, logger *applog.Logger, cfg *config.Config) *backend.BackendResult {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bc)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return res
}

// InitMirror opens the spreadsheet mirror, kept in memory when no
// spreadsheet is configured. Exits the process on failure.
func InitMirror(ctx context.Context, logger *applog.Logger, cfg *config.Config) *backend.MirrorResult {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.Logger).CreateMirror(ctx, bc)
	if err != nil {
		logger.Error("Failed to initialize mirror", "error", err, "spreadsheet_id", cfg.GoogleSpreadsheetID)
		os.Exit(1)
	}
	return res
}

// SyncConfig maps the worker settings onto the outbox processor.
func SyncConfig(cfg *config.Config) services.SyncProcessorConfig {
	sc := services.DefaultSyncProcessorConfig()
	sc.PollInterval = cfg.SyncInterval
	sc.BatchSize = cfg.SyncBatchSize
	sc.MaxRetries = cfg.SyncMaxRetries
	return sc
}

// NewRateProvider builds the cached exchange-rate provider from cfg.
func NewRateProvider(cfg *config.Config) *currency.Provider {
	source := currency.NewHTTPSource(cfg.RateAPIURL, cfg.RateTimeout)
	source.Path = cfg.RateJSONPath
	return currency.NewProvider(source, cfg.RateCacheTTL)
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
