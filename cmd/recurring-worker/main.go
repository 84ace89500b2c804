package main

import (
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"finanzas/internal/backend"
	"finanzas/internal/cli"
	"finanzas/internal/log"
	"finanzas/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadConfig(log.ComponentRecurring, nil)

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

	// Materialised occurrences are announced like any other create, so the
	// sheet worker mirrors them.
	publisher, closePublisher := factory.CreatePublisher(backendCfg)
	defer closePublisher()

	processor := services.NewRecurringProcessor(store, services.NewTransactionService(store, publisher, logger), logger)

	run := func(now time.Time) {
		count, err := processor.ProcessDue(ctx, now)
		if err != nil {
			logger.Error("Recurring processing failed", log.FieldError, err)
			return
		}
		logger.Info("Recurring processing complete", log.FieldCount, count)
	}

	logger.Info("Running initial recurring processing", "schedule", cfg.RecurringSchedule)
	run(time.Now())

	c := cron.New()
	if _, err := c.AddFunc(cfg.RecurringSchedule, func() { run(time.Now()) }); err != nil {
		logger.Error("Invalid RECURRING_SCHEDULE", "schedule", cfg.RecurringSchedule, log.FieldError, err)
		os.Exit(1)
	}
	c.Start()

	<-ctx.Done()
	// Stop waits for a running job before returning.
	stopped := c.Stop()
	select {
	case <-stopped.Done():
	case <-time.After(cfg.ShutdownTimeout):
		logger.Warn("Recurring job still running at shutdown")
	}
	logger.Info("Recurring worker stopped", log.FieldOperation, log.OpShutdown)
}
