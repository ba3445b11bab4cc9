package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carepay-gateway/internal/config"
	payAdapters "carepay-gateway/internal/infra/adapters/payment"
	httpapi "carepay-gateway/internal/infra/http"
	"carepay-gateway/internal/infra/logging"
	"carepay-gateway/internal/infra/metrics"
	"carepay-gateway/internal/infra/sched"
)

// set with -ldflags "-X main.version=... -X main.commit=..."
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, unredacted PII)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	// ---- Metrics ----
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Gateways ----
	mock := cfg.Payment.Mock
	registry := payAdapters.NewRegistry(payAdapters.MockConstructor(payAdapters.MockOptions{
		Outcome:      payAdapters.RandomOutcome(*mock.SuccessRate, mock.Seed),
		InitDelay:    mock.InitDelay,
		ConfirmDelay: mock.ConfirmDelay,
		Logger:       logger,
		Dev:          cfg.Runtime.Dev,
	}), logger)
	for _, p := range cfg.Payment.Providers {
		if !p.Active {
			logger.Info().Str("provider_id", p.ID).Msg("provider inactive; skipped")
			continue
		}
		if _, err := registry.CreateGateway(ctx, p); err != nil {
			logger.Fatal().Err(err).Str("provider_id", p.ID).Msg("gateway init failed")
		}
	}

	// ---- HTTP server ----
	server := httpapi.NewServer(cfg.HTTP, registry, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			cancel()
		}
	}()

	// ---- Period worker ----
	worker := sched.NewPeriodWorker(cfg.Scheduler.PeriodCheckInterval, registry, logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
	case <-ctx.Done():
	}
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
