// Package file persists each key as a JSON document under a data directory,
// mirroring how the dashboard kept its collections in local storage.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"payroll/internal/storage"
)

var validKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type Store struct {
	mu     sync.Mutex
	dir    string
	rename func(oldpath, newpath string) error
}

var _ storage.KV = (*Store)(nil)

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{dir: dir, rename: os.Rename}, nil
}

func (s *Store) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", p, err)
	}
	return b, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetMany(ctx, storage.Entry{Key: key, Value: value})
}

// SetMany writes every entry to a temp file first and only renames them into
// place once all writes succeeded. If a rename fails, files already renamed
// are put back to their previous contents.
func (s *Store) SetMany(_ context.Context, entries ...storage.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	type pending struct {
		tmp, final string
		prev       []byte
		existed    bool
	}
	staged := make([]pending, 0, len(entries))
	cleanup := func() {
		for _, p := range staged {
			os.Remove(p.tmp)
		}
	}

	for _, e := range entries {
		final, err := s.path(e.Key)
		if err != nil {
			cleanup()
			return err
		}
		prev, err := os.ReadFile(final)
		existed := err == nil
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			cleanup()
			return fmt.Errorf("read %s: %w", final, err)
		}
		tmp := final + ".tmp"
		if err := os.WriteFile(tmp, e.Value, 0644); err != nil {
			cleanup()
			return fmt.Errorf("write %s: %w", tmp, err)
		}
		staged = append(staged, pending{tmp: tmp, final: final, prev: prev, existed: existed})
	}

	for i, p := range staged {
		if err := s.rename(p.tmp, p.final); err != nil {
			cleanup()
			for _, done := range staged[:i] {
				restore(done.final, done.prev, done.existed)
			}
			return fmt.Errorf("rename %s: %w", p.tmp, err)
		}
	}
	return nil
}

func restore(path string, prev []byte, existed bool) {
	if !existed {
		os.Remove(path)
		return
	}
	tmp := path + ".restore"
	if err := os.WriteFile(tmp, prev, 0644); err != nil {
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
	}
}
