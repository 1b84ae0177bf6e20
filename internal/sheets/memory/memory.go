package memory

import (
	"context"
	"sync"

	"payroll/internal/core"
	"payroll/internal/sheets"
)

// Store keeps the last written report per period. Used when no spreadsheet
// is configured and in tests.
type Store struct {
	mu      sync.Mutex
	reports map[core.Period]core.Report
	writes  int
}

var _ sheets.ReportWriter = (*Store)(nil)

func New() *Store {
	return &Store{reports: map[core.Period]core.Report{}}
}

func (s *Store) WriteReport(_ context.Context, r core.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[r.Period] = r
	s.writes++
	return nil
}

// Report returns the last report written for p.
func (s *Store) Report(p core.Period) (core.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[p]
	return r, ok
}

// Writes counts WriteReport calls.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
