package core

import (
	"fmt"
	"time"
)

// Period is a (month, year) pair used to scope aggregation.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// NewPeriod builds a period from a 1-12 month index.
func NewPeriod(year, month int) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, fmt.Errorf("invalid month: %d", month)
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

// Previous returns the calendar month before p, wrapping across years.
func (p Period) Previous() Period {
	if p.Month == time.January {
		return Period{Year: p.Year - 1, Month: time.December}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

func (p Period) Contains(d Date) bool {
	return !d.IsZero() && d.Year() == p.Year && d.Month() == p.Month
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// ChangeKind classifies a month-over-month comparison.
type ChangeKind string

const (
	NoChange    ChangeKind = "no_change"
	NoPriorData ChangeKind = "no_prior_data"
	Changed     ChangeKind = "changed"
)

// MonthChange is the month-over-month comparison of withdrawal totals.
// Percent is only meaningful when Kind is Changed; a positive value is an increase.
type MonthChange struct {
	Kind    ChangeKind `json:"kind"`
	Percent float64    `json:"percent"`
}

func (c MonthChange) Increase() bool {
	return c.Kind == Changed && c.Percent > 0
}

func (c MonthChange) Decrease() bool {
	return c.Kind == Changed && c.Percent < 0
}

// EmployeeLine is one employee's position for a period.
type EmployeeLine struct {
	Employee    Employee `json:"employee"`
	Withdrawn   Money    `json:"withdrawn"`
	Remaining   Money    `json:"remaining"`
	PercentUsed float64  `json:"percentUsed"`
}

// Dashboard is the fleet summary for a reference period.
type Dashboard struct {
	Period        Period         `json:"-"`
	SalaryTotal   Money          `json:"salaryTotal"`
	CurrentTotal  Money          `json:"currentTotal"`
	PreviousTotal Money          `json:"previousTotal"`
	Remaining     Money          `json:"remaining"`
	Change        MonthChange    `json:"change"`
	Employees     []EmployeeLine `json:"employees"`
}

// MonthTotal sums the withdrawals of one employee dated inside p.
func MonthTotal(employeeID string, withdrawals []Withdrawal, p Period) Money {
	var total Money
	for _, w := range withdrawals {
		if w.EmployeeID == employeeID && p.Contains(w.Date) {
			total = total.Add(w.Amount)
		}
	}
	return total
}

// PeriodTotal sums the withdrawals dated inside p that belong to one of employees.
// Withdrawals referencing an unknown employee are left out so fleet figures
// always agree with the per-employee lines.
func PeriodTotal(employees []Employee, withdrawals []Withdrawal, p Period) Money {
	known := make(map[string]struct{}, len(employees))
	for _, e := range employees {
		known[e.ID] = struct{}{}
	}
	var total Money
	for _, w := range withdrawals {
		if _, ok := known[w.EmployeeID]; ok && p.Contains(w.Date) {
			total = total.Add(w.Amount)
		}
	}
	return total
}

// Remaining is baseSalary minus what was withdrawn; it is not clamped at zero.
func Remaining(baseSalary, withdrawn Money) Money {
	return baseSalary.Sub(withdrawn)
}

// PercentUsed is withdrawn/baseSalary*100, or 0 when the salary is not positive.
// The result is not clamped and may exceed 100.
func PercentUsed(baseSalary, withdrawn Money) float64 {
	if baseSalary.Cents <= 0 {
		return 0
	}
	return float64(withdrawn.Cents) / float64(baseSalary.Cents) * 100
}

// SalaryTotal sums the base salaries of all employees.
func SalaryTotal(employees []Employee) Money {
	var total Money
	for _, e := range employees {
		total = total.Add(e.BaseSalary)
	}
	return total
}

// CompareMonths reports how current moved relative to previous.
// A zero previous total never yields a division: it is either NoChange
// (both zero) or NoPriorData.
func CompareMonths(previous, current Money) MonthChange {
	if previous.IsZero() {
		if current.IsZero() {
			return MonthChange{Kind: NoChange}
		}
		return MonthChange{Kind: NoPriorData}
	}
	pct := float64(current.Cents-previous.Cents) / float64(previous.Cents) * 100
	return MonthChange{Kind: Changed, Percent: pct}
}

// Lines computes each employee's withdrawn, remaining and percentage for p,
// keeping the order of employees.
func Lines(employees []Employee, withdrawals []Withdrawal, p Period) []EmployeeLine {
	lines := make([]EmployeeLine, 0, len(employees))
	for _, e := range employees {
		withdrawn := MonthTotal(e.ID, withdrawals, p)
		lines = append(lines, EmployeeLine{
			Employee:    e,
			Withdrawn:   withdrawn,
			Remaining:   Remaining(e.BaseSalary, withdrawn),
			PercentUsed: PercentUsed(e.BaseSalary, withdrawn),
		})
	}
	return lines
}

// Summarize builds the dashboard for the reference period ref.
func Summarize(employees []Employee, withdrawals []Withdrawal, ref Period) Dashboard {
	salaries := SalaryTotal(employees)
	current := PeriodTotal(employees, withdrawals, ref)
	previous := PeriodTotal(employees, withdrawals, ref.Previous())
	return Dashboard{
		Period:        ref,
		SalaryTotal:   salaries,
		CurrentTotal:  current,
		PreviousTotal: previous,
		Remaining:     salaries.Sub(current),
		Change:        CompareMonths(previous, current),
		Employees:     Lines(employees, withdrawals, ref),
	}
}
