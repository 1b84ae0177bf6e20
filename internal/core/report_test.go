package core

import (
	"testing"
	"time"
)

func TestBuildReport(t *testing.T) {
	p := Period{2025, time.March}
	employees := []Employee{
		{ID: "a", Name: "Ahmed", BaseSalary: FromUnits(3000)},
		{ID: "b", Name: "Sara", BaseSalary: FromUnits(1000)},
	}
	withdrawals := []Withdrawal{
		{EmployeeID: "a", Amount: FromUnits(500), Date: NewDate(2025, 3, 1)},
		{EmployeeID: "a", Amount: FromUnits(700), Date: NewDate(2025, 3, 28)},
		{EmployeeID: "b", Amount: FromUnits(1100), Date: NewDate(2025, 3, 10)},
		{EmployeeID: "b", Amount: FromUnits(50), Date: NewDate(2025, 4, 1)},
	}

	r := BuildReport(employees, withdrawals, p)
	if len(r.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(r.Rows))
	}
	a, b := r.Rows[0], r.Rows[1]
	if a.Withdrawn != FromUnits(1200) || a.Remaining != FromUnits(1800) {
		t.Fatalf("unexpected row a: %+v", a)
	}
	if b.Withdrawn != FromUnits(1100) || b.Remaining != FromUnits(-100) {
		t.Fatalf("unexpected row b: %+v", b)
	}
	if r.Totals.BaseSalary != FromUnits(4000) || r.Totals.Withdrawn != FromUnits(2300) || r.Totals.Remaining != FromUnits(1700) {
		t.Fatalf("unexpected totals: %+v", r.Totals)
	}
}

func TestReportRemainingMatchesFormulaEveryPeriod(t *testing.T) {
	employees := []Employee{{ID: "a", Name: "A", BaseSalary: FromUnits(100)}}
	withdrawals := []Withdrawal{
		{EmployeeID: "a", Amount: FromUnits(30), Date: NewDate(2025, 1, 1)},
		{EmployeeID: "a", Amount: FromUnits(130), Date: NewDate(2025, 2, 1)},
	}
	for m := time.January; m <= time.December; m++ {
		p := Period{2025, m}
		r := BuildReport(employees, withdrawals, p)
		want := Remaining(employees[0].BaseSalary, MonthTotal("a", withdrawals, p))
		if r.Rows[0].Remaining != want {
			t.Fatalf("%v: remaining %v, want %v", p, r.Rows[0].Remaining, want)
		}
	}
}
