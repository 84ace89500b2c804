package main

import (
	"net"
	"os"
	"time"

	"finanzas/internal/auth"
	"finanzas/internal/backend"
	"finanzas/internal/cache"
	"finanzas/internal/cli"
	"finanzas/internal/config"
	apphttp "finanzas/internal/http"
	"finanzas/internal/log"
	"finanzas/internal/middleware/ratelimit"
	"finanzas/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadConfig(log.ComponentApp, (*config.Config).ValidateAPI)

	logger.Info("Starting finanzas server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		log.FieldOperation, log.OpStartup)

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

	publisher, closePublisher := factory.CreatePublisher(backendCfg)
	defer closePublisher()

	verifier, err := auth.NewVerifier(cfg.AuthJWTSecret, cfg.AuthAudience)
	if err != nil {
		logger.Error("Failed to initialize token verifier", log.FieldError, err)
		os.Exit(1)
	}

	limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitRPM})
	limiter.Start(ctx, time.Minute)

	summaries := cache.NewLRUCache[apphttp.SummaryResponse](cfg.SummaryCacheSize, cfg.SummaryCacheTTL)
	caches := cache.NewManager(logger)
	caches.Register(summaries)
	caches.Start(ctx, cfg.SummaryCacheTTL)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Transactions: services.NewTransactionService(store, publisher, logger),
		Simulations:  services.NewSimulationService(store, logger),
		Store:        store,
		Verifier:     verifier,
		Limiter:      limiter,
		SummaryCache: summaries,
		Logger:       logger,
	})
	srv.MaxHeaderBytes = 1 << 16

	listener, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		logger.Error("Failed to listen", log.FieldError, err, "port", cfg.Port)
		cancel()
		caches.Wait()
		os.Exit(1)
	}

	logger.Info("HTTP server listening", "addr", listener.Addr().String())
	if err := srv.Run(ctx, listener, cfg.ShutdownTimeout); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		cancel()
		caches.Wait()
		os.Exit(1)
	}

	caches.Wait()
	logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
}
