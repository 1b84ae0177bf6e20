package http

import (
	"net/http"
	"strings"

	"payroll/internal/core"
	"payroll/internal/i18n"
)

// sanitizeInput removes control characters except tab and newlines, then trims.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func pathID(r *http.Request) string {
	return strings.TrimSpace(r.PathValue("id"))
}

// moneyDisplay carries Arabic display strings next to raw amounts.
type moneyDisplay struct {
	SalaryTotal   string `json:"salaryTotal"`
	CurrentTotal  string `json:"currentTotal"`
	PreviousTotal string `json:"previousTotal"`
	Remaining     string `json:"remaining"`
	Change        string `json:"change,omitempty"`
}

func displayOf(d core.Dashboard) moneyDisplay {
	out := moneyDisplay{
		SalaryTotal:   i18n.Currency(d.SalaryTotal),
		CurrentTotal:  i18n.Currency(d.CurrentTotal),
		PreviousTotal: i18n.Currency(d.PreviousTotal),
		Remaining:     i18n.Currency(d.Remaining),
	}
	if d.Change.Kind == core.Changed {
		out.Change = i18n.Percent(d.Change.Percent)
	}
	return out
}
