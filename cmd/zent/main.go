package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"zent/internal/amqp"
	"zent/internal/cache"
	"zent/internal/cli"
	apphttp "zent/internal/http"
	"zent/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(nil, "app")
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg, "app")

	ctx := context.Background()
	store := cli.InitBackend(ctx, logger, cfg)
	rates := cli.NewRateProvider(cfg)

	opts := []services.Option{services.WithRateTimeout(cfg.RateTimeout)}
	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// the outbox still carries every change to the mirror
			logger.Warn("AMQP unavailable, changes will not be announced", "error", err)
		} else {
			opts = append(opts, services.WithPublisher(amqpClient, cfg.UserID))
		}
	}
	svc := services.NewLedgerService(store.Store, rates, opts...)

	// Without a worker listening on AMQP the server drains the outbox itself.
	var processor *services.SyncProcessor
	if cfg.SheetsEnabled() && amqpClient == nil {
		mirror := cli.InitMirror(ctx, logger, cfg)
		processor = services.NewSyncProcessor(store.Store,
			services.NewMirrorer(store.Store, mirror.Mirror), cli.SyncConfig(cfg))
	}

	srvConfig := apphttp.DefaultConfig()
	srvConfig.Addr = ":" + cfg.Port
	srv := apphttp.NewServer(srvConfig, svc, logger)
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	caches := cache.NewManager()
	caches.Register(srv.ViewsCache())
	if c := rates.Cache(); c != nil {
		caches.Register(c)
	}
	caches.StartCleanup(5 * time.Minute)

	runCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if processor != nil {
			if err := processor.Stop(shutdownCtx); err != nil {
				logger.Error("Sync processor shutdown error", "error", err)
			}
		}
		caches.Stop()
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		if err := store.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	if processor != nil {
		if err := processor.Start(runCtx); err != nil {
			logger.Error("Failed to start sync processor", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("Starting zent server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"user_id", cfg.UserID,
		"amqp", amqpClient != nil,
		"sheets", cfg.SheetsEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(runCtx, done)
	logger.Info("Server stopped gracefully")
}
