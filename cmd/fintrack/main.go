package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)

	if err := run(logger); err != nil {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(logger *log.Logger) error {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
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

	recorder := metrics.New()
	var publisher services.ChangePublisher
	if res.Publisher != nil {
		publisher = res.Publisher
	}

	srv := apphttp.NewServer(
		apphttp.Config{Addr: ":" + cfg.Port, RateLimitRPM: cfg.RateLimitRPM},
		apphttp.Dependencies{
			Transactions: services.NewTransactionService(res.Store, publisher, recorder),
			Analytics:    services.NewAnalyticsService(res.Store, analytics.NewAnalyzer(cfg.Thresholds()), recorder),
			Metrics:      recorder,
			Logger:       logger,
		},
	)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting fintrack server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"read_only", res.ReadOnly,
			"amqp_enabled", res.Publisher != nil)
		serveErr <- srv.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	case <-ctx.Done():
	}

	shutdownErr := cli.RunShutdown(logger, shutdownTimeout, func(ctx context.Context) error {
		return errors.Join(srv.Shutdown(ctx), res.Close())
	})
	return errors.Join(runErr, shutdownErr)
}
