package backend

import (
	"context"
	"fmt"
	"log/slog"

	"payroll/internal/amqp"
	"payroll/internal/ledger"
	"payroll/internal/storage"
	"payroll/internal/storage/file"
	"payroll/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	// dialAMQP is swapped in tests.
	dialAMQP func(url, exchange, queue string) (*amqp.Client, error)
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger, dialAMQP: amqp.NewClient}
}

// CreateBackend opens the configured KV store, connects the optional event
// publisher and loads the ledger.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	kv, closeKV, err := f.createKV(config)
	if err != nil {
		return nil, err
	}

	var cleanups []CleanupFunc
	if closeKV != nil {
		cleanups = append(cleanups, closeKV)
	}

	var publisher ledger.Publisher
	var opts []ledger.Option
	if config.AMQPURL != "" {
		client, err := f.dialAMQP(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			publisher = client
			opts = append(opts, ledger.WithPublisher(client))
			cleanups = append(cleanups, client.Close)
		}
	}

	cleanup := func() error {
		var first error
		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := cleanups[i](); err != nil && first == nil {
				first = err
			}
		}
		return first
	}

	store, err := ledger.Load(ctx, kv, opts...)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	snap := store.Snapshot()
	f.logger.Info("Ledger loaded",
		"backend", config.Type.String(),
		"employees", len(snap.Employees),
		"withdrawals", len(snap.Withdrawals),
		"events_enabled", publisher != nil)

	return &BackendResult{
		Store:     store,
		KV:        kv,
		Publisher: publisher,
		Cleanup:   cleanup,
	}, nil
}

func (f *DefaultFactory) createKV(config Config) (storage.KV, CleanupFunc, error) {
	switch config.Type {
	case SQLiteBackend:
		kv, err := storage.NewSQLiteKV(config.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return kv, kv.Close, nil
	case FileBackend:
		kv, err := file.New(config.DataDirectory)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize file store: %w", err)
		}
		f.logger.Info("Initialized file backend", "data_directory", config.DataDirectory)
		return kv, nil, nil
	case MemoryBackend:
		f.logger.Info("Initialized memory backend")
		return memory.New(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
