package backend

import (
	"context"

	"payroll/internal/ledger"
	"payroll/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds the loaded ledger together with the resources behind it.
type BackendResult struct {
	Store *ledger.Store
	KV    storage.KV
	// Publisher is nil when event publishing is disabled or unavailable.
	Publisher ledger.Publisher
	Cleanup   CleanupFunc
}

// Close runs Cleanup if set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}
