package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"payroll/internal/core"
)

const maxBodyBytes = 1 << 20

var errMalformedBody = errors.New("malformed request body")

// ParsePeriod extracts year and month from query parameters, defaulting
// missing values to the period containing now.
func ParsePeriod(query url.Values, now time.Time) (core.Period, error) {
	year, month := now.Year(), int(now.Month())

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return core.Period{}, fmt.Errorf("invalid year %q", v)
		}
		year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return core.Period{}, fmt.Errorf("invalid month %q", v)
		}
		month = m
	}
	return core.NewPeriod(year, month)
}

// decodeJSON reads a single JSON object from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("%w: trailing data", errMalformedBody)
	}
	return nil
}

// amountField accepts an amount as a JSON number or a string in any of the
// digit forms core.ParseAmount understands.
type amountField json.RawMessage

func (a *amountField) UnmarshalJSON(data []byte) error {
	*a = append((*a)[:0], data...)
	return nil
}

func (a amountField) Money() (core.Money, error) {
	raw := strings.TrimSpace(string(a))
	if raw == "" || raw == "null" {
		return core.Money{}, core.ErrInvalidAmount
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return core.Money{}, core.ErrInvalidAmount
		}
		raw = s
	}
	return core.ParseAmount(raw)
}

type employeeRequest struct {
	Name       string      `json:"name"`
	BaseSalary amountField `json:"baseSalary"`
}

func (req employeeRequest) employee(id string) (core.Employee, error) {
	salary, err := req.BaseSalary.Money()
	if err != nil {
		return core.Employee{}, err
	}
	e := core.Employee{ID: id, Name: sanitizeInput(req.Name), BaseSalary: salary}
	return e, e.Validate()
}

type withdrawalRequest struct {
	EmployeeID string      `json:"employeeId"`
	Amount     amountField `json:"amount"`
	Date       string      `json:"date"`
	Notes      string      `json:"notes"`
}

func (req withdrawalRequest) withdrawal(id string) (core.Withdrawal, error) {
	amount, err := req.Amount.Money()
	if err != nil {
		return core.Withdrawal{}, err
	}
	date, err := core.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		return core.Withdrawal{}, core.ErrInvalidDate
	}
	w := core.Withdrawal{
		ID:         id,
		EmployeeID: strings.TrimSpace(req.EmployeeID),
		Amount:     amount,
		Date:       date,
		Notes:      sanitizeInput(req.Notes),
	}
	return w, w.Validate()
}

type assistantRequest struct {
	Question string `json:"question"`
}
