package ledger

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"payroll/internal/core"
	"payroll/internal/storage"
	"payroll/internal/storage/memory"
)

type failingKV struct {
	storage.KV
	fail bool
}

func (f *failingKV) SetMany(ctx context.Context, entries ...storage.Entry) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.KV.SetMany(ctx, entries...)
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func newStore(t *testing.T, opts ...Option) (*Store, storage.KV) {
	t.Helper()
	kv := memory.New()
	s, err := Load(context.Background(), kv, opts...)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s, kv
}

func TestStore_AhmedScenario(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	today := core.DateOf(time.Now())
	period := core.PeriodOf(today.Time)

	ahmed, err := s.AddEmployee(ctx, "Ahmed", core.FromUnits(2000))
	if err != nil {
		t.Fatalf("AddEmployee: %v", err)
	}
	if ahmed.ID == "" {
		t.Fatal("expected generated id")
	}
	if _, err := s.AddWithdrawal(ctx, ahmed.ID, core.FromUnits(300), today, ""); err != nil {
		t.Fatalf("AddWithdrawal: %v", err)
	}

	snap := s.Snapshot()
	got := core.Remaining(ahmed.BaseSalary, core.MonthTotal(ahmed.ID, snap.Withdrawals, period))
	if got != core.FromUnits(1700) {
		t.Fatalf("remaining = %v, want 1700", got)
	}

	if err := s.DeleteEmployee(ctx, ahmed.ID); err != nil {
		t.Fatalf("DeleteEmployee: %v", err)
	}
	for _, w := range s.Snapshot().Withdrawals {
		if w.EmployeeID == ahmed.ID {
			t.Fatalf("withdrawal %s still references deleted employee", w.ID)
		}
	}
}

func TestStore_DeleteEmployeeRemovesOnlyItsWithdrawals(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	a, _ := s.AddEmployee(ctx, "A", core.FromUnits(100))
	b, _ := s.AddEmployee(ctx, "B", core.FromUnits(100))
	d := core.NewDate(2025, 5, 1)
	s.AddWithdrawal(ctx, a.ID, core.FromUnits(1), d, "")
	wb, _ := s.AddWithdrawal(ctx, b.ID, core.FromUnits(2), d, "")
	s.AddWithdrawal(ctx, a.ID, core.FromUnits(3), d, "")

	if err := s.DeleteEmployee(ctx, a.ID); err != nil {
		t.Fatalf("DeleteEmployee: %v", err)
	}
	snap := s.Snapshot()
	if len(snap.Employees) != 1 || snap.Employees[0].ID != b.ID {
		t.Fatalf("unexpected employees: %+v", snap.Employees)
	}
	if len(snap.Withdrawals) != 1 || snap.Withdrawals[0].ID != wb.ID {
		t.Fatalf("unexpected withdrawals: %+v", snap.Withdrawals)
	}
}

func TestStore_IDsUniqueUnderRapidCalls(t *testing.T) {
	ctx := context.Background()
	// A generator that repeats itself forces the collision re-draw.
	n := 0
	gen := func() string {
		n++
		return fmt.Sprintf("id-%d", n/2)
	}
	s, _ := newStore(t, WithIDGenerator(gen))

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		e, err := s.AddEmployee(ctx, "E", core.FromUnits(1))
		if err != nil {
			t.Fatalf("AddEmployee: %v", err)
		}
		if seen[e.ID] {
			t.Fatalf("duplicate id %s", e.ID)
		}
		seen[e.ID] = true
	}
}

func TestStore_ConcurrentAddsKeepUniqueIDs(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	e, _ := s.AddEmployee(ctx, "E", core.FromUnits(1))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddWithdrawal(ctx, e.ID, core.FromUnits(1), core.NewDate(2025, 1, 1), "")
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	if len(snap.Withdrawals) != 50 {
		t.Fatalf("expected 50 withdrawals, got %d", len(snap.Withdrawals))
	}
	seen := map[string]bool{}
	for _, w := range snap.Withdrawals {
		if seen[w.ID] {
			t.Fatalf("duplicate id %s", w.ID)
		}
		seen[w.ID] = true
	}
}

func TestStore_UpdateAndDeleteUnknownAreNoOps(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	s, _ := newStore(t, WithPublisher(rec))
	rev := s.Revision()

	if err := s.UpdateEmployee(ctx, core.Employee{ID: "missing", Name: "X", BaseSalary: core.FromUnits(1)}); err != nil {
		t.Errorf("UpdateEmployee: %v", err)
	}
	if err := s.DeleteEmployee(ctx, "missing"); err != nil {
		t.Errorf("DeleteEmployee: %v", err)
	}
	if err := s.UpdateWithdrawal(ctx, core.Withdrawal{ID: "missing"}); err != nil {
		t.Errorf("UpdateWithdrawal: %v", err)
	}
	if err := s.DeleteWithdrawal(ctx, "missing"); err != nil {
		t.Errorf("DeleteWithdrawal: %v", err)
	}
	if s.Revision() != rev {
		t.Errorf("revision moved from %d to %d", rev, s.Revision())
	}
	if len(rec.events) != 0 {
		t.Errorf("expected no events, got %d", len(rec.events))
	}
}

func TestStore_UpdateReplacesInPlace(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	a, _ := s.AddEmployee(ctx, "A", core.FromUnits(100))
	b, _ := s.AddEmployee(ctx, "B", core.FromUnits(200))

	a.Name = "A2"
	a.BaseSalary = core.FromUnits(150)
	if err := s.UpdateEmployee(ctx, a); err != nil {
		t.Fatalf("UpdateEmployee: %v", err)
	}
	got := s.Employees()
	want := []core.Employee{a, b}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Employees = %+v, want %+v", got, want)
	}

	w, _ := s.AddWithdrawal(ctx, a.ID, core.FromUnits(10), core.NewDate(2025, 1, 1), "")
	w.EmployeeID = b.ID
	w.Notes = "moved"
	if err := s.UpdateWithdrawal(ctx, w); err != nil {
		t.Fatalf("UpdateWithdrawal: %v", err)
	}
	if ws := s.Withdrawals(WithdrawalFilter{EmployeeID: b.ID}); len(ws) != 1 || ws[0] != w {
		t.Fatalf("withdrawals for b = %+v", ws)
	}
}

func TestStore_RejectsUnknownEmployee(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	_, err := s.AddWithdrawal(ctx, "ghost", core.FromUnits(1), core.NewDate(2025, 1, 1), "")
	if !errors.Is(err, ErrUnknownEmployee) {
		t.Fatalf("AddWithdrawal err = %v, want ErrUnknownEmployee", err)
	}

	e, _ := s.AddEmployee(ctx, "E", core.FromUnits(1))
	w, _ := s.AddWithdrawal(ctx, e.ID, core.FromUnits(1), core.NewDate(2025, 1, 1), "")
	w.EmployeeID = "ghost"
	if err := s.UpdateWithdrawal(ctx, w); !errors.Is(err, ErrUnknownEmployee) {
		t.Fatalf("UpdateWithdrawal err = %v, want ErrUnknownEmployee", err)
	}
}

func TestStore_PersistFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{KV: memory.New()}
	s, err := Load(ctx, kv)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	e, _ := s.AddEmployee(ctx, "E", core.FromUnits(100))
	s.AddWithdrawal(ctx, e.ID, core.FromUnits(5), core.NewDate(2025, 1, 1), "")
	before := s.Snapshot()

	kv.fail = true
	if _, err := s.AddEmployee(ctx, "F", core.FromUnits(1)); err == nil {
		t.Fatal("expected AddEmployee to fail")
	}
	if err := s.DeleteEmployee(ctx, e.ID); err == nil {
		t.Fatal("expected DeleteEmployee to fail")
	}
	if err := s.UpdateEmployee(ctx, core.Employee{ID: e.ID, Name: "Z", BaseSalary: core.FromUnits(9)}); err == nil {
		t.Fatal("expected UpdateEmployee to fail")
	}

	after := s.Snapshot()
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("state changed after failed persistence:\nbefore %+v\nafter  %+v", before, after)
	}
	reloaded, err := Load(ctx, kv.KV)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reflect.DeepEqual(reloaded.Snapshot().Employees, before.Employees) {
		t.Fatalf("persisted employees changed")
	}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, kv := newStore(t)
	a, _ := s.AddEmployee(ctx, "أحمد", core.FromUnits(2000))
	b, _ := s.AddEmployee(ctx, "Sara", core.Money{Cents: 123456})
	s.AddWithdrawal(ctx, a.ID, core.Money{Cents: 30050}, core.NewDate(2025, 2, 28), "سلفة")
	s.AddWithdrawal(ctx, b.ID, core.FromUnits(10), core.NewDate(2024, 12, 31), "")

	reloaded, err := Load(ctx, kv)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want, got := s.Snapshot(), reloaded.Snapshot()
	if !reflect.DeepEqual(want.Employees, got.Employees) {
		t.Errorf("employees differ:\nwant %+v\ngot  %+v", want.Employees, got.Employees)
	}
	if !reflect.DeepEqual(want.Withdrawals, got.Withdrawals) {
		t.Errorf("withdrawals differ:\nwant %+v\ngot  %+v", want.Withdrawals, got.Withdrawals)
	}
}

func TestLoad_PersistedLayout(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	kv.Set(ctx, storage.KeyEmployees, []byte(`[{"id":"e1","name":"Ali","baseSalary":3000}]`))
	kv.Set(ctx, storage.KeyWithdrawals, []byte(`[{"id":"w1","employeeId":"e1","amount":250.5,"date":"2025-03-04","notes":"x"},{"id":"w2","employeeId":"gone","amount":1,"date":"2025-03-05"}]`))

	s, err := Load(ctx, kv)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	snap := s.Snapshot()
	if len(snap.Employees) != 1 || snap.Employees[0].BaseSalary != core.FromUnits(3000) {
		t.Fatalf("employees = %+v", snap.Employees)
	}
	// Orphans from older data are kept.
	if len(snap.Withdrawals) != 2 || snap.Withdrawals[0].Amount.Cents != 25050 {
		t.Fatalf("withdrawals = %+v", snap.Withdrawals)
	}
}

func TestLoad_CorruptDocument(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	kv.Set(ctx, storage.KeyEmployees, []byte(`{not json`))
	if _, err := Load(ctx, kv); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestLoad_SubCentAmountFails(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	kv.Set(ctx, storage.KeyEmployees, []byte(`[{"id":"e1","name":"A","baseSalary":1000}]`))
	kv.Set(ctx, storage.KeyWithdrawals, []byte(`[{"id":"w1","employeeId":"e1","amount":0.004,"date":"2026-10-01"}]`))
	if _, err := Load(ctx, kv); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("Load error = %v, want ErrInvalidAmount", err)
	}
}

func TestStore_WithdrawalsSortedByDateDesc(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	e, _ := s.AddEmployee(ctx, "E", core.FromUnits(1))
	f, _ := s.AddEmployee(ctx, "F", core.FromUnits(1))
	w1, _ := s.AddWithdrawal(ctx, e.ID, core.FromUnits(1), core.NewDate(2025, 1, 10), "")
	w2, _ := s.AddWithdrawal(ctx, f.ID, core.FromUnits(1), core.NewDate(2025, 3, 1), "")
	w3, _ := s.AddWithdrawal(ctx, e.ID, core.FromUnits(1), core.NewDate(2025, 1, 10), "")
	w4, _ := s.AddWithdrawal(ctx, e.ID, core.FromUnits(1), core.NewDate(2024, 7, 7), "")

	ids := func(ws []core.Withdrawal) []string {
		var out []string
		for _, w := range ws {
			out = append(out, w.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter WithdrawalFilter
		want   []string
	}{
		{"all", WithdrawalFilter{}, []string{w2.ID, w1.ID, w3.ID, w4.ID}},
		{"by employee", WithdrawalFilter{EmployeeID: e.ID}, []string{w1.ID, w3.ID, w4.ID}},
		{"unknown employee", WithdrawalFilter{EmployeeID: "nobody"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(s.Withdrawals(tt.filter))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStore_ReportYears(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	if got := s.ReportYears(now); !reflect.DeepEqual(got, []int{2026}) {
		t.Fatalf("empty store years = %v", got)
	}

	e, _ := s.AddEmployee(ctx, "E", core.FromUnits(1))
	s.AddWithdrawal(ctx, e.ID, core.FromUnits(1), core.NewDate(2023, 1, 1), "")
	s.AddWithdrawal(ctx, e.ID, core.FromUnits(1), core.NewDate(2025, 6, 1), "")
	s.AddWithdrawal(ctx, e.ID, core.FromUnits(1), core.NewDate(2025, 7, 1), "")

	if got := s.ReportYears(now); !reflect.DeepEqual(got, []int{2026, 2025, 2023}) {
		t.Fatalf("years = %v", got)
	}
}

func TestStore_PublishesEvents(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	s, _ := newStore(t, WithPublisher(rec))

	e, _ := s.AddEmployee(ctx, "E", core.FromUnits(1))
	w, _ := s.AddWithdrawal(ctx, e.ID, core.FromUnits(1), core.NewDate(2025, 1, 31), "")
	w.Date = core.NewDate(2025, 2, 1)
	s.UpdateWithdrawal(ctx, w)
	s.DeleteWithdrawal(ctx, w.ID)

	kinds := []EventKind{EmployeeAdded, WithdrawalAdded, WithdrawalUpdated, WithdrawalDeleted}
	if len(rec.events) != len(kinds) {
		t.Fatalf("got %d events, want %d", len(rec.events), len(kinds))
	}
	for i, k := range kinds {
		if rec.events[i].Kind != k {
			t.Errorf("event %d kind = %s, want %s", i, rec.events[i].Kind, k)
		}
	}

	upd := rec.events[2]
	wantPeriods := []core.Period{{Year: 2025, Month: time.January}, {Year: 2025, Month: time.February}}
	if !reflect.DeepEqual(upd.Periods, wantPeriods) {
		t.Errorf("update periods = %v, want %v", upd.Periods, wantPeriods)
	}
	if rec.events[3].Revision <= rec.events[0].Revision {
		t.Errorf("revisions not increasing: %d then %d", rec.events[0].Revision, rec.events[3].Revision)
	}
}

func TestStore_PublishFailureDoesNotFailMutation(t *testing.T) {
	ctx := context.Background()
	pub := PublisherFunc(func(context.Context, Event) error { return errors.New("broker down") })
	s, _ := newStore(t, WithPublisher(pub))
	if _, err := s.AddEmployee(ctx, "E", core.FromUnits(1)); err != nil {
		t.Fatalf("AddEmployee: %v", err)
	}
	if len(s.Employees()) != 1 {
		t.Fatal("employee not stored")
	}
}

func TestStore_ReadsDoNotWaitForPublish(t *testing.T) {
	ctx := context.Background()
	entered := make(chan struct{})
	release := make(chan struct{})
	pub := PublisherFunc(func(context.Context, Event) error {
		close(entered)
		<-release
		return nil
	})
	s, _ := newStore(t, WithPublisher(pub))

	done := make(chan error, 1)
	go func() {
		_, err := s.AddEmployee(ctx, "E", core.FromUnits(1))
		done <- err
	}()
	<-entered

	read := make(chan Snapshot, 1)
	go func() { read <- s.Snapshot() }()
	select {
	case snap := <-read:
		if len(snap.Employees) != 1 || snap.Revision != 1 {
			t.Errorf("snapshot during publish = %+v", snap)
		}
	case <-time.After(time.Second):
		t.Fatal("Snapshot blocked while an event was being published")
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("AddEmployee: %v", err)
	}
}
