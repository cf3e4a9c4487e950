// Package model contains domain models passed between layers.
package model

import "time"

// DateFormat is the canonical calendar-day encoding used across the
// service, in storage keys and on the wire.
const DateFormat = "2006-01-02"

// Date is a timezone-normalized calendar day with no time component.
// The zero value is "no date".
type Date struct {
	t time.Time
}

// NewDate builds a Date from year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to the calendar day it falls on in its
// own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool { return d.t.After(other.t) }

// Equal reports whether d and other are the same calendar day.
func (d Date) Equal(other Date) bool { return d.t.Equal(other.t) }

// DaysUntil returns the number of calendar days from d to other.
// Negative when other is earlier.
func (d Date) DaysUntil(other Date) int {
	return int(other.t.Sub(d.t).Hours() / 24)
}

// IsZero reports whether d is the zero date.
func (d Date) IsZero() bool { return d.t.IsZero() }

// String renders the date as YYYY-MM-DD.
func (d Date) String() string { return d.t.Format(DateFormat) }

// MarshalJSON encodes the date as a YYYY-MM-DD JSON string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a YYYY-MM-DD JSON string.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// User is a read-only reference owned by the identity collaborator.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Observation is a single recorded coin balance for a user on a
// calendar day. At most one per (user, date); the store enforces it.
type Observation struct {
	UserID string
	Date   Date
	Value  int
}

// ResolvedPoint is the carried-forward balance as of a date. Derived,
// never stored. Before a user's first observation the value is 0.
type ResolvedPoint struct {
	Date  Date
	Value int
}

// DeltaPoint is the signed day-over-day change of the resolved balance.
type DeltaPoint struct {
	Date  Date
	Delta int
}
