package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO local date format used in URLs, forms and JSON.
const DateLayout = "2006-01-02"

// DateOf truncates t to a calendar date in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses an ISO local date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// FirstOfMonth returns the first day of d's month.
func (d Date) FirstOfMonth() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

// LastOfMonth returns the last day of d's month.
func (d Date) LastOfMonth() Date {
	return Date{Time: d.FirstOfMonth().AddDate(0, 1, -1)}
}

func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
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

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	From Date
	To   Date
}

// MonthOf returns the range covering the whole month of d.
func MonthOf(d Date) DateRange {
	return DateRange{From: d.FirstOfMonth(), To: d.LastOfMonth()}
}

// RangeFrom builds a range starting at from. A zero to defaults to the last
// day of from's month.
func RangeFrom(from, to Date) DateRange {
	if to.IsZero() {
		to = from.LastOfMonth()
	}
	return DateRange{From: from, To: to}
}
