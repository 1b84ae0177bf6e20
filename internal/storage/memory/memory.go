package memory

import (
	"context"
	"sync"

	"payroll/internal/storage"
)

// Store keeps documents in process memory; contents are lost on exit.
type Store struct {
	mu   sync.Mutex
	data map[string][]byte
}

var _ storage.KV = (*Store)(nil)

func New() *Store {
	return &Store{data: map[string][]byte{}}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetMany(ctx, storage.Entry{Key: key, Value: value})
}

func (s *Store) SetMany(_ context.Context, entries ...storage.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.data[e.Key] = append([]byte(nil), e.Value...)
	}
	return nil
}
