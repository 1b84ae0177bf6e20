// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts typed by users
// (Latin or Arabic digits) and converting between minor units and decimal text.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// normalizeDigits maps Arabic-Indic (٠-٩) and Extended Arabic-Indic (۰-۹)
// digits to ASCII and the Arabic decimal separator (٫) to a dot.
// Arabic thousands separators (٬) are dropped.
func normalizeDigits(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '٠' && r <= '٩':
			return '0' + (r - '٠')
		case r >= '۰' && r <= '۹':
			return '0' + (r - '۰')
		case r == '٫':
			return '.'
		case r == '٬':
			return -1
		}
		return r
	}, s)
}

// ParseAmount converts a decimal string to cents with proper rounding.
//
// It accepts dot (12.34), comma (12,34) and Arabic (١٢٫٣٤) decimal separators
// as well as Arabic-Indic digits, and performs half-up rounding on the third
// decimal place. Returns ErrInvalidAmount for invalid formats, negative values,
// or zero amounts.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234, nil
//	ParseAmount("١٢٫٣٤") -> 1234, nil
//	ParseAmount("12.345") -> 1235, nil (rounds up)
//	ParseAmount("12.344") -> 1234, nil (rounds down)
func ParseAmount(s string) (Money, error) {
	s = normalizeDigits(strings.TrimSpace(s))
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Money{}, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv >= maxSafeInt64 {
		return Money{}, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents}, nil
}

// FromUnits builds a Money from a whole number of currency units.
func FromUnits(units int64) Money {
	return Money{Cents: units * 100}
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

func (m Money) IsZero() bool {
	return m.Cents == 0
}

// Decimal returns the exact decimal value in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float64 returns the value in currency units for display or percentage math.
// Use Cents for arithmetic.
func (m Money) Float64() float64 {
	return float64(m.Cents) / 100.0
}

// String renders the raw decimal number without currency symbol, grouping
// or trailing zeros ("3000", "12.5", "-40.25").
func (m Money) String() string {
	return m.Decimal().String()
}

// MarshalJSON encodes the amount as a plain JSON number in currency units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string in currency units.
// Values finer than a cent are rejected rather than rounded.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*m = Money{}
		return nil
	}
	d, err := decimal.NewFromString(normalizeDigits(s))
	if err != nil {
		return ErrInvalidAmount
	}
	cents := d.Shift(2)
	if !cents.IsInteger() {
		return fmt.Errorf("%w: %s has more than two decimal places", ErrInvalidAmount, s)
	}
	*m = Money{Cents: cents.IntPart()}
	return nil
}
