package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/services"
	"fintrack/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)

	logger.Info("Starting fintrack-worker")
	if err := run(logger); err != nil {
		logger.Error("Worker error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(logger *log.Logger) error {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.AMQPURL == "" {
		return errors.New("fintrack-worker requires AMQP_URL")
	}
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	if res.Publisher == nil {
		_ = res.Close()
		return errors.New("AMQP broker unreachable")
	}

	recorder := metrics.New()
	analyticsService := services.NewAnalyticsService(res.Store, analytics.NewAnalyzer(cfg.Thresholds()), recorder)
	digests := worker.NewDigestWorker(analyticsService, res.Store, res.Publisher, cfg.DigestConcurrency, recorder)

	// Catch up on changes missed while the worker was down.
	if _, err := digests.RunBatch(ctx); err != nil {
		logger.Error("Startup digest batch failed", log.FieldError, err)
	}

	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- res.Publisher.ConsumeTransactionsChanged(ctx, digests.HandleChange)
	}()
	go digests.Run(ctx, cfg.DigestInterval)

	var runErr error
	select {
	case err := <-consumeErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			runErr = err
		}
		cancel()
	case <-ctx.Done():
		logger.Info("Shutting down worker...")
	}

	shutdownErr := cli.RunShutdown(logger, shutdownTimeout, func(context.Context) error {
		return res.Close()
	})
	return errors.Join(runErr, shutdownErr)
}
