// Package cli provides the process bootstrap shared by cmd/payroll,
// cmd/payroll-worker and cmd/payrollctl.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"payroll/internal/assistant"
	"payroll/internal/backend"
	"payroll/internal/config"
	applog "payroll/internal/log"
)

// SetupLogger builds the application logger, installs it as the slog
// default and returns it.
func SetupLogger(level slog.Level, component string, out io.Writer) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Level = level
	cfg.Component = component
	if out != nil {
		cfg.Output = out
	}
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads a .env file for local development. A missing file is
// not an error.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// LoadAndValidateConfig loads the environment configuration and runs
// validate on it (Config.Validate or Config.ValidateWorker).
func LoadAndValidateConfig(validate func(*config.Config) error) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if validate != nil {
		if err := validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// OpenBackend opens the configured storage and loads the ledger. The AMQP
// publisher is only attached when publish is true.
func OpenBackend(ctx context.Context, logger *applog.Logger, cfg *config.Config, publish bool) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	if !publish {
		bcfg.AMQPURL = ""
	}
	factory := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger)
	res, err := factory.CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}
	return res, nil
}

// NewAssistant builds the assistant bridge. Without an API key the bridge
// answers every question with the "unavailable" message.
func NewAssistant(ctx context.Context, logger *applog.Logger, cfg *config.Config) *assistant.Bridge {
	opts := []assistant.Option{assistant.WithTimeout(cfg.AssistantTimeout)}
	if cfg.GeminiAPIKey == "" {
		logger.Warn("No Gemini API key configured, assistant disabled")
		return assistant.NewBridge(nil, opts...)
	}
	gen, err := assistant.NewGemini(ctx, assistant.GeminiConfig{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel})
	if err != nil {
		logger.Error("Failed to initialize Gemini client, assistant disabled", applog.FieldError, err)
		return assistant.NewBridge(nil, opts...)
	}
	logger.Info("Assistant enabled", "model", cfg.GeminiModel)
	return assistant.NewBridge(gen, opts...)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context, logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Fatal logs err and exits with status 1.
func Fatal(logger *applog.Logger, msg string, err error) {
	logger.Error(msg, applog.FieldError, err)
	os.Exit(1)
}
