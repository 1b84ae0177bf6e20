package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const dateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Employee struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		BaseSalary Money  `json:"baseSalary"`
	}

	Withdrawal struct {
		ID         string `json:"id"`
		EmployeeID string `json:"employeeId"`
		Amount     Money  `json:"amount"`
		Date       Date   `json:"date"`
		Notes      string `json:"notes,omitempty"`
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyName       = errors.New("empty name")
	ErrMissingEmployee = errors.New("missing employee")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the clock part of t, keeping its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Employee) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(e.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if err := e.BaseSalary.Validate(); err != nil {
		return err
	}
	return nil
}

func (w Withdrawal) Validate() error {
	if strings.TrimSpace(w.EmployeeID) == "" {
		return ErrMissingEmployee
	}
	if err := w.Amount.Validate(); err != nil {
		return err
	}
	if err := w.Date.Validate(); err != nil {
		return err
	}
	if utf8.RuneCountInString(w.Notes) > 500 {
		return errors.New("notes too long (max 500 characters)")
	}
	return nil
}
