package ledger

import (
	"context"
	"time"

	"payroll/internal/core"
)

type EventKind string

const (
	EmployeeAdded     EventKind = "employee.added"
	EmployeeUpdated   EventKind = "employee.updated"
	EmployeeDeleted   EventKind = "employee.deleted"
	WithdrawalAdded   EventKind = "withdrawal.added"
	WithdrawalUpdated EventKind = "withdrawal.updated"
	WithdrawalDeleted EventKind = "withdrawal.deleted"
)

// Event describes a committed mutation. Periods lists the months whose
// reports changed; it is empty when every period is affected (employee
// changes move salary totals everywhere).
type Event struct {
	Kind         EventKind
	EmployeeID   string
	WithdrawalID string
	Periods      []core.Period
	Revision     uint64
	OccurredAt   time.Time
}

// Publisher receives events after a mutation has been persisted.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, e Event) error

func (f PublisherFunc) Publish(ctx context.Context, e Event) error {
	return f(ctx, e)
}

func periodsOf(dates ...core.Date) []core.Period {
	var out []core.Period
	seen := map[core.Period]bool{}
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		p := core.PeriodOf(d.Time)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
