// Package ledger owns the employee and withdrawal collections. Every mutation
// goes through Store, which persists the affected collections before the new
// state becomes visible.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"payroll/internal/core"
	applog "payroll/internal/log"
	"payroll/internal/storage"
)

// ErrUnknownEmployee is returned when a withdrawal references an employee id
// that is not in the store.
var ErrUnknownEmployee = errors.New("unknown employee")

type Store struct {
	mu          sync.Mutex
	kv          storage.KV
	employees   []core.Employee
	withdrawals []core.Withdrawal
	revision    uint64

	publisher Publisher
	newID     func() string
	now       func() time.Time
}

type Option func(*Store)

// WithPublisher sets the sink for committed mutation events.
func WithPublisher(p Publisher) Option {
	return func(s *Store) { s.publisher = p }
}

// WithIDGenerator replaces the UUID generator, mainly for tests.
func WithIDGenerator(f func() string) Option {
	return func(s *Store) { s.newID = f }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Load reads both collections from kv. Missing keys start empty.
func Load(ctx context.Context, kv storage.KV, opts ...Option) (*Store, error) {
	s := &Store{
		kv:    kv,
		newID: func() string { return uuid.NewString() },
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the in-memory collections with what kv currently holds.
// Used by processes that share a backend with another writer.
func (s *Store) Reload(ctx context.Context) error {
	var employees []core.Employee
	if err := readJSON(ctx, s.kv, storage.KeyEmployees, &employees); err != nil {
		return err
	}
	var withdrawals []core.Withdrawal
	if err := readJSON(ctx, s.kv, storage.KeyWithdrawals, &withdrawals); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees = employees
	s.withdrawals = withdrawals
	s.revision++
	return nil
}

func readJSON(ctx context.Context, kv storage.KV, key string, dst any) error {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if !ok || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func encode[T any](key string, items []T) (storage.Entry, error) {
	if items == nil {
		items = []T{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return storage.Entry{}, fmt.Errorf("encode %s: %w", key, err)
	}
	return storage.Entry{Key: key, Value: b}, nil
}

// commit persists the given collections and, on success, swaps them in.
// Callers hold s.mu. A nil slice argument means that collection is unchanged.
func (s *Store) commit(ctx context.Context, employees []core.Employee, withdrawals []core.Withdrawal) error {
	var entries []storage.Entry
	if employees != nil {
		e, err := encode(storage.KeyEmployees, employees)
		if err != nil {
			return err
		}
		entries = append(entries, e)
	}
	if withdrawals != nil {
		e, err := encode(storage.KeyWithdrawals, withdrawals)
		if err != nil {
			return err
		}
		entries = append(entries, e)
	}

	if err := s.kv.SetMany(ctx, entries...); err != nil {
		return fmt.Errorf("persist: %w", err)
	}

	if employees != nil {
		s.employees = employees
	}
	if withdrawals != nil {
		s.withdrawals = withdrawals
	}
	s.revision++
	return nil
}

func (s *Store) publish(ctx context.Context, e Event) {
	if s.publisher == nil {
		return
	}
	e.OccurredAt = s.now().UTC()
	if err := s.publisher.Publish(ctx, e); err != nil {
		applog.FromContext(ctx).WithComponent(applog.ComponentLedger).WarnContext(ctx, "Failed to publish ledger event",
			applog.FieldEventKind, e.Kind, applog.FieldRevision, e.Revision, applog.FieldError, err)
	}
}

func audit(ctx context.Context) *applog.StructuredLogger {
	return applog.NewStructuredLogger(applog.FromContext(ctx))
}

func (s *Store) uniqueID(taken func(string) bool) string {
	for {
		id := s.newID()
		if id != "" && !taken(id) {
			return id
		}
	}
}

func (s *Store) employeeIndex(id string) int {
	for i, e := range s.employees {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) withdrawalIndex(id string) int {
	for i, w := range s.withdrawals {
		if w.ID == id {
			return i
		}
	}
	return -1
}

// mutate runs f under the store lock. The event f returns is published after
// the lock is released, so a slow broker never stalls readers.
func (s *Store) mutate(ctx context.Context, f func() (*Event, error)) error {
	s.mu.Lock()
	ev, err := f()
	s.mu.Unlock()
	if err != nil || ev == nil {
		return err
	}
	s.publish(ctx, *ev)
	return nil
}

// AddEmployee appends a new employee with a fresh id.
func (s *Store) AddEmployee(ctx context.Context, name string, baseSalary core.Money) (core.Employee, error) {
	var e core.Employee
	err := s.mutate(ctx, func() (*Event, error) {
		e = core.Employee{
			ID:         s.uniqueID(func(id string) bool { return s.employeeIndex(id) >= 0 }),
			Name:       name,
			BaseSalary: baseSalary,
		}
		next := append(cloneSlice(s.employees), e)
		if err := s.commit(ctx, next, nil); err != nil {
			return nil, err
		}
		audit(ctx).LogEmployeeChanged(ctx, applog.OpCreate, e, s.revision)
		return &Event{Kind: EmployeeAdded, EmployeeID: e.ID, Revision: s.revision}, nil
	})
	if err != nil {
		return core.Employee{}, err
	}
	return e, nil
}

// UpdateEmployee replaces the employee with the same id. Unknown ids are ignored.
func (s *Store) UpdateEmployee(ctx context.Context, e core.Employee) error {
	return s.mutate(ctx, func() (*Event, error) {
		i := s.employeeIndex(e.ID)
		if i < 0 {
			return nil, nil
		}
		next := cloneSlice(s.employees)
		next[i] = e
		if err := s.commit(ctx, next, nil); err != nil {
			return nil, err
		}
		audit(ctx).LogEmployeeChanged(ctx, applog.OpUpdate, e, s.revision)
		return &Event{Kind: EmployeeUpdated, EmployeeID: e.ID, Revision: s.revision}, nil
	})
}

// DeleteEmployee removes the employee and every withdrawal recorded against it.
func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	return s.mutate(ctx, func() (*Event, error) {
		i := s.employeeIndex(id)
		if i < 0 {
			return nil, nil
		}
		employees := make([]core.Employee, 0, len(s.employees)-1)
		employees = append(employees, s.employees[:i]...)
		employees = append(employees, s.employees[i+1:]...)

		withdrawals := make([]core.Withdrawal, 0, len(s.withdrawals))
		removed := 0
		for _, w := range s.withdrawals {
			if w.EmployeeID == id {
				removed++
				continue
			}
			withdrawals = append(withdrawals, w)
		}

		if err := s.commit(ctx, employees, withdrawals); err != nil {
			return nil, err
		}

		audit(ctx).LogEmployeeChanged(ctx, applog.OpDelete, core.Employee{ID: id}, s.revision)
		if removed > 0 {
			applog.FromContext(ctx).WithComponent(applog.ComponentLedger).DebugContext(ctx, "Cascaded withdrawals removed",
				applog.FieldEmployeeID, id, applog.FieldCount, removed)
		}
		return &Event{Kind: EmployeeDeleted, EmployeeID: id, Revision: s.revision}, nil
	})
}

// AddWithdrawal records a withdrawal against an existing employee.
func (s *Store) AddWithdrawal(ctx context.Context, employeeID string, amount core.Money, date core.Date, notes string) (core.Withdrawal, error) {
	var w core.Withdrawal
	err := s.mutate(ctx, func() (*Event, error) {
		if s.employeeIndex(employeeID) < 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEmployee, employeeID)
		}
		w = core.Withdrawal{
			ID:         s.uniqueID(func(id string) bool { return s.withdrawalIndex(id) >= 0 }),
			EmployeeID: employeeID,
			Amount:     amount,
			Date:       date,
			Notes:      notes,
		}
		next := append(cloneSlice(s.withdrawals), w)
		if err := s.commit(ctx, nil, next); err != nil {
			return nil, err
		}
		audit(ctx).LogWithdrawalChanged(ctx, applog.OpCreate, w, s.revision)
		return &Event{
			Kind:         WithdrawalAdded,
			EmployeeID:   employeeID,
			WithdrawalID: w.ID,
			Periods:      periodsOf(w.Date),
			Revision:     s.revision,
		}, nil
	})
	if err != nil {
		return core.Withdrawal{}, err
	}
	return w, nil
}

// UpdateWithdrawal replaces the withdrawal with the same id. Unknown ids are
// ignored; a known id moved to an unknown employee is rejected.
func (s *Store) UpdateWithdrawal(ctx context.Context, w core.Withdrawal) error {
	return s.mutate(ctx, func() (*Event, error) {
		i := s.withdrawalIndex(w.ID)
		if i < 0 {
			return nil, nil
		}
		if s.employeeIndex(w.EmployeeID) < 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEmployee, w.EmployeeID)
		}

		prev := s.withdrawals[i]
		next := cloneSlice(s.withdrawals)
		next[i] = w
		if err := s.commit(ctx, nil, next); err != nil {
			return nil, err
		}
		audit(ctx).LogWithdrawalChanged(ctx, applog.OpUpdate, w, s.revision)
		return &Event{
			Kind:         WithdrawalUpdated,
			EmployeeID:   w.EmployeeID,
			WithdrawalID: w.ID,
			Periods:      periodsOf(prev.Date, w.Date),
			Revision:     s.revision,
		}, nil
	})
}

// DeleteWithdrawal removes the withdrawal by id. Unknown ids are ignored.
func (s *Store) DeleteWithdrawal(ctx context.Context, id string) error {
	return s.mutate(ctx, func() (*Event, error) {
		i := s.withdrawalIndex(id)
		if i < 0 {
			return nil, nil
		}
		prev := s.withdrawals[i]
		next := make([]core.Withdrawal, 0, len(s.withdrawals)-1)
		next = append(next, s.withdrawals[:i]...)
		next = append(next, s.withdrawals[i+1:]...)
		if err := s.commit(ctx, nil, next); err != nil {
			return nil, err
		}
		audit(ctx).LogWithdrawalChanged(ctx, applog.OpDelete, prev, s.revision)
		return &Event{
			Kind:         WithdrawalDeleted,
			EmployeeID:   prev.EmployeeID,
			WithdrawalID: id,
			Periods:      periodsOf(prev.Date),
			Revision:     s.revision,
		}, nil
	})
}

// Snapshot is a consistent copy of both collections in insertion order.
type Snapshot struct {
	Employees   []core.Employee
	Withdrawals []core.Withdrawal
	Revision    uint64
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Employees:   cloneSlice(s.employees),
		Withdrawals: cloneSlice(s.withdrawals),
		Revision:    s.revision,
	}
}

// Revision increases with every committed mutation or reload.
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

func (s *Store) Employee(id string) (core.Employee, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.employeeIndex(id)
	if i < 0 {
		return core.Employee{}, false
	}
	return s.employees[i], true
}

func (s *Store) Employees() []core.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSlice(s.employees)
}

// WithdrawalFilter narrows Withdrawals; zero value matches everything.
type WithdrawalFilter struct {
	EmployeeID string
}

// Withdrawals returns matching withdrawals, newest date first. Withdrawals
// on the same day keep their insertion order.
func (s *Store) Withdrawals(f WithdrawalFilter) []core.Withdrawal {
	s.mu.Lock()
	out := make([]core.Withdrawal, 0, len(s.withdrawals))
	for _, w := range s.withdrawals {
		if f.EmployeeID != "" && w.EmployeeID != f.EmployeeID {
			continue
		}
		out = append(out, w)
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	return out
}

// ReportYears lists the years a report can be requested for: every year with
// a withdrawal plus the year of now, newest first.
func (s *Store) ReportYears(now time.Time) []int {
	s.mu.Lock()
	seen := map[int]bool{now.Year(): true}
	for _, w := range s.withdrawals {
		if !w.Date.IsZero() {
			seen[w.Date.Year()] = true
		}
	}
	s.mu.Unlock()

	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

func cloneSlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
