// Package core holds the household ledger domain: outcomes, incomes, lookup
// entities, report summaries and the parsing helpers shared by every adapter.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount converts a user supplied amount to the minor currency unit.
//
// Amounts are whole numbers. Thousands separators (comma, dot, space,
// underscore) are ignored so "1,280" and "1 280" both yield 1280. Negative
// values and anything with non-digit content are rejected with
// ErrInvalidAmount.
func ParseAmount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ',' || r == '.' || r == ' ' || r == '_':
		default:
			return 0, ErrInvalidAmount
		}
	}
	if b.Len() == 0 {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseInt(b.String(), 10, 32)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return int(v), nil
}

// FormatAmount renders v with comma thousands separators for display.
func FormatAmount(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	digits := strconv.FormatInt(v, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// ParseID parses a positive integer identifier from a form or query value.
func ParseID(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v <= 0 {
		return 0, ErrMalformedInteger
	}
	return v, nil
}
