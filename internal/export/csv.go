// Package export renders monthly reports for spreadsheet tools.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"payroll/internal/core"
)

// bom lets spreadsheet applications detect UTF-8 so Arabic text opens correctly.
const bom = "\uFEFF"

var header = []string{"الموظف", "الراتب الأساسي", "المسحوب", "المتبقي"}

// WriteCSV writes one row per report row. Numbers are plain decimals with no
// currency symbol or grouping.
func WriteCSV(w io.Writer, r core.Report) error {
	if _, err := io.WriteString(w, bom); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range r.Rows {
		if err := writer.Write([]string{
			row.Name,
			row.BaseSalary.String(),
			row.Withdrawn.String(),
			row.Remaining.String(),
		}); err != nil {
			return fmt.Errorf("write row %s: %w", row.EmployeeID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// FileName is the download name for the report of p.
func FileName(p core.Period) string {
	return fmt.Sprintf("payroll-report-%s.csv", p)
}
