// Package i18n formats amounts, months and dates for Arabic display.
package i18n

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"payroll/internal/core"
)

var (
	// Locale drives currency formatting.
	Locale = language.MustParse("ar-SA")
	// DateLocale is used for long dates shown to users and the assistant.
	DateLocale = language.MustParse("ar-EG")

	printer = message.NewPrinter(Locale)
)

var months = [...]string{
	"يناير", "فبراير", "مارس", "أبريل", "مايو", "يونيو",
	"يوليو", "أغسطس", "سبتمبر", "أكتوبر", "نوفمبر", "ديسمبر",
}

// MonthName returns the Arabic name of m, or "" for an out-of-range month.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return months[m-1]
}

// PeriodLabel renders p as "<month> <year>".
func PeriodLabel(p core.Period) string {
	return MonthName(p.Month) + " " + Digits(strconv.Itoa(p.Year))
}

// LongDate renders t like "١٥ أكتوبر ٢٠٢٦".
func LongDate(t time.Time) string {
	return Digits(strconv.Itoa(t.Day())) + " " + MonthName(t.Month()) + " " + Digits(strconv.Itoa(t.Year()))
}

// Currency formats m as Saudi riyals for display.
func Currency(m core.Money) string {
	return printer.Sprint(currency.Symbol(currency.SAR.Amount(m.Float64())))
}

// Percent renders a percentage with one decimal.
func Percent(v float64) string {
	return printer.Sprintf("%.1f%%", v)
}

// Digits replaces ASCII digits with Arabic-Indic ones.
func Digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return '٠' + (r - '0')
		}
		return r
	}, s)
}
