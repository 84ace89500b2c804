package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"finanzas/internal/amqp"
	"finanzas/internal/backend"
	"finanzas/internal/cli"
	"finanzas/internal/log"
	"finanzas/internal/worker"
)

func main() {
	resyncOwner := flag.String("resync-owner", "", "rewrite every row of this owner before consuming events")
	flag.Parse()

	cli.LoadEnvFile()
	cfg, logger := cli.LoadConfig(log.ComponentWorker, nil)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required by the sheet sync worker")
		os.Exit(1)
	}
	if !cfg.SheetsEnabled() {
		logger.Warn("Google Sheets not configured, rows are mirrored in memory only")
	}
	if cfg.DataBackend == "memory" {
		logger.Warn("Memory backend is process-local, the worker cannot see the API's transactions")
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	factory := backend.NewFactory(logger)

	store, closeStore, err := factory.CreateStore(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize store", log.FieldError, err)
		os.Exit(1)
	}
	defer closeStore()

	sheet, err := factory.CreateSheet(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize sheet", log.FieldError, err)
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	syncWorker := worker.NewSyncWorker(store, sheet, logger)

	if *resyncOwner != "" {
		n, err := syncWorker.Resync(ctx, *resyncOwner)
		if err != nil {
			logger.Error("Resync failed", log.FieldOwnerID, *resyncOwner, log.FieldError, err)
		} else {
			logger.Info("Resync complete", log.FieldOwnerID, *resyncOwner, log.FieldCount, n)
		}
	}

	logger.Info("Consuming transaction events",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	if err := client.Consume(ctx, syncWorker.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully", log.FieldOperation, log.OpShutdown)
}
