package main

import (
	"context"
	"errors"
	"os"
	"time"

	"zent/internal/amqp"
	"zent/internal/cli"
	"zent/internal/services"
	"zent/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(nil, "worker")
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg, "worker")

	logger.Info("Starting zent-worker", "backend", cfg.DataBackend, "user_id", cfg.UserID)
	if cfg.DataBackend != "sqlite" {
		logger.Warn("The worker only sees changes made through a shared sqlite database", "backend", cfg.DataBackend)
	}

	store := cli.InitBackend(context.Background(), logger, cfg)
	mirror := cli.InitMirror(context.Background(), logger, cfg)
	if mirror.InMemory {
		logger.Warn("No spreadsheet configured, mirrored rows are not persisted")
	}
	mirrorer := services.NewMirrorer(store.Store, mirror.Mirror)
	syncWorker := worker.NewSyncWorker(mirrorer, mirrorer, cfg.UserID)
	processor := services.NewSyncProcessor(store.Store, mirrorer, cli.SyncConfig(cfg))

	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("AMQP not configured, relying on the outbox only")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		logger.Info("Shutting down worker...")
		if err := processor.Stop(shutdownCtx); err != nil {
			logger.Error("Sync processor shutdown error", "error", err)
		}
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		if err := store.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	// recover from messages lost while the worker was down
	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", "error", err)
	}

	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start sync processor", "error", err)
		os.Exit(1)
	}

	if amqpClient != nil {
		go func() {
			if err := amqpClient.Consume(ctx, syncWorker.HandleChange); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
			}
		}()
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
