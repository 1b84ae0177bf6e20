package core

// ReportRow is one employee's line in a monthly report.
type ReportRow struct {
	EmployeeID string `json:"employeeId"`
	Name       string `json:"name"`
	BaseSalary Money  `json:"baseSalary"`
	Withdrawn  Money  `json:"withdrawn"`
	Remaining  Money  `json:"remaining"`
}

// ReportTotals are the column sums of a report.
type ReportTotals struct {
	BaseSalary Money `json:"baseSalary"`
	Withdrawn  Money `json:"withdrawn"`
	Remaining  Money `json:"remaining"`
}

// Report is the per-employee breakdown for an arbitrary period.
type Report struct {
	Period Period       `json:"-"`
	Rows   []ReportRow  `json:"rows"`
	Totals ReportTotals `json:"totals"`
}

// BuildReport computes one row per employee (in employee order) for p
// along with the column totals.
func BuildReport(employees []Employee, withdrawals []Withdrawal, p Period) Report {
	r := Report{Period: p, Rows: make([]ReportRow, 0, len(employees))}
	for _, e := range employees {
		withdrawn := MonthTotal(e.ID, withdrawals, p)
		row := ReportRow{
			EmployeeID: e.ID,
			Name:       e.Name,
			BaseSalary: e.BaseSalary,
			Withdrawn:  withdrawn,
			Remaining:  Remaining(e.BaseSalary, withdrawn),
		}
		r.Rows = append(r.Rows, row)
		r.Totals.BaseSalary = r.Totals.BaseSalary.Add(row.BaseSalary)
		r.Totals.Withdrawn = r.Totals.Withdrawn.Add(row.Withdrawn)
		r.Totals.Remaining = r.Totals.Remaining.Add(row.Remaining)
	}
	return r
}
