package storage

import "context"

// Keys under which the ledger collections are persisted.
const (
	KeyEmployees   = "employees"
	KeyWithdrawals = "withdrawals"
)

// Entry is a single key/value pair written by SetMany.
type Entry struct {
	Key   string
	Value []byte
}

// KV is the persistent key-value port the ledger reads on startup and
// writes on every mutation. Values are opaque serialized documents.
type KV interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	// SetMany writes all entries as one unit where the backend supports it.
	SetMany(ctx context.Context, entries ...Entry) error
}
