package main

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"payroll/internal/amqp"
	"payroll/internal/cli"
	"payroll/internal/config"
	applog "payroll/internal/log"
	"payroll/internal/sheets"
	gsheet "payroll/internal/sheets/google"
	memsheet "payroll/internal/sheets/memory"
	"payroll/internal/worker"
)

func main() {
	logger := cli.SetupLogger(slog.LevelInfo, applog.ComponentWorker, nil)
	if err := cli.LoadEnvFile(); err != nil {
		logger.Warn("Ignoring .env file", applog.FieldError, err)
	}

	cfg, err := cli.LoadAndValidateConfig((*config.Config).ValidateWorker)
	if err != nil {
		cli.Fatal(logger, "Configuration validation failed", err)
	}
	logger = cli.SetupLogger(cfg.SlogLevel(), applog.ComponentWorker, nil)
	logger.Info("Starting payroll-worker")

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	// The worker only reads; publishing its own events would loop.
	res, err := cli.OpenBackend(ctx, logger, cfg, false)
	if err != nil {
		cli.Fatal(logger, "Failed to open data backend", err)
	}
	defer res.Close()

	var writer sheets.ReportWriter
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
			OAuthTokenFile:  cfg.GoogleOAuthTokenFile,
			OAuthClientJSON: cfg.GoogleOAuthClientJSON,
			OAuthClientFile: cfg.GoogleOAuthClientFile,
		})
		if err != nil {
			cli.Fatal(logger, "Failed to initialize Google Sheets client", err)
		}
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
		writer = client
	} else {
		logger.Info("Google Sheets disabled - reports are kept in memory only")
		writer = memsheet.New()
	}

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}
	defer consumer.Close()

	syncer := worker.NewReportSyncWorker(res.Store, writer)
	if err := syncer.SyncCurrent(ctx); err != nil {
		logger.Error("Startup sync failed", applog.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.ConsumeEvents(gctx, syncer.HandleEvent)
	})
	g.Go(func() error {
		return syncer.Run(gctx, cfg.SyncInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		cli.Fatal(logger, "Worker stopped", err)
	}
	logger.Info("Worker shutdown complete")
}
