package sheets

import (
	"context"

	"payroll/internal/core"
)

// Ports for outbound adapters.
type (
	// ReportWriter replaces the stored copy of a monthly report.
	ReportWriter interface {
		WriteReport(ctx context.Context, r core.Report) error
	}
)

// Header is the first row of every mirrored report.
var Header = []string{"الموظف", "الراتب الأساسي", "المسحوب", "المتبقي"}

// TotalsLabel labels the closing totals row.
const TotalsLabel = "الإجمالي"

// Rows lays out r as the cells written to a sheet: header, one row per
// employee and a totals row. Amounts are plain numbers in currency units.
func Rows(r core.Report) [][]any {
	out := make([][]any, 0, len(r.Rows)+2)
	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	out = append(out, header)
	for _, row := range r.Rows {
		out = append(out, []any{row.Name, row.BaseSalary.Float64(), row.Withdrawn.Float64(), row.Remaining.Float64()})
	}
	out = append(out, []any{TotalsLabel, r.Totals.BaseSalary.Float64(), r.Totals.Withdrawn.Float64(), r.Totals.Remaining.Float64()})
	return out
}
