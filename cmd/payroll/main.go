package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"payroll/internal/cli"
	"payroll/internal/config"
	apphttp "payroll/internal/http"
	applog "payroll/internal/log"
)

func main() {
	logger := cli.SetupLogger(slog.LevelInfo, applog.ComponentApp, nil)
	if err := cli.LoadEnvFile(); err != nil {
		logger.Warn("Ignoring .env file", applog.FieldError, err)
	}

	cfg, err := cli.LoadAndValidateConfig((*config.Config).Validate)
	if err != nil {
		cli.Fatal(logger, "Configuration validation failed", err)
	}
	logger = cli.SetupLogger(cfg.SlogLevel(), applog.ComponentApp, nil)

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	res, err := cli.OpenBackend(ctx, logger, cfg, cfg.AMQPEnabled())
	if err != nil {
		cli.Fatal(logger, "Failed to open data backend", err)
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	srv := apphttp.NewServer(":"+cfg.Port, res.Store, apphttp.Options{
		Logger:             logger,
		Bridge:             cli.NewAssistant(ctx, logger.WithComponent(applog.ComponentAssistant), cfg),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	srv.ReadTimeout = 10 * time.Second
	// Assistant calls may take up to AssistantTimeout.
	srv.WriteTimeout = cfg.AssistantTimeout + 10*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting payroll server", "port", cfg.Port, "backend", cfg.DataBackend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			cli.Fatal(logger, "Server error", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", applog.FieldError, err)
	}
	logger.Info("Server stopped gracefully")
}
