package temporal

import "time"

// Value is a resolved point in time. It is either date-granular
// (DateOnly set, clock fields meaningless) or a full timestamp.
// The zero Value means "no value" and propagates through resolution.
type Value struct {
	Time     time.Time
	DateOnly bool
}

// NewDate returns a date-granular Value. Dates are calendar dates with
// no attached zone; they are stored at midnight UTC internally.
func NewDate(year int, month time.Month, day int) Value {
	return Value{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), DateOnly: true}
}

// NewTimestamp returns a full-timestamp Value.
func NewTimestamp(t time.Time) Value {
	return Value{Time: t}
}

// IsZero reports whether v carries no value.
func (v Value) IsZero() bool {
	return v.Time.IsZero()
}

// Date truncates v to date granularity, keeping the wall-clock calendar
// date of its own location.
func (v Value) Date() Value {
	y, m, d := v.Time.Date()
	return NewDate(y, m, d)
}

// AddDays returns v shifted by n calendar days.
func (v Value) AddDays(n int) Value {
	return Value{Time: v.Time.AddDate(0, 0, n), DateOnly: v.DateOnly}
}

// ordinal returns a sortable yyyymmdd key for date-level comparison.
func (v Value) ordinal() int {
	y, m, d := v.Time.Date()
	return y*10000 + int(m)*100 + d
}

// Compare orders two values. When either operand is date-only the other
// is coerced down to its calendar date first, so the relation is
// "same-day-or-later" rather than a precise instant ordering.
func (v Value) Compare(o Value) int {
	if v.DateOnly || o.DateOnly {
		a, b := v.ordinal(), o.ordinal()
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	}
	return v.Time.Compare(o.Time)
}

// Before reports whether v is strictly earlier than o under Compare coercion.
func (v Value) Before(o Value) bool { return v.Compare(o) < 0 }

// After reports whether v is strictly later than o under Compare coercion.
func (v Value) After(o Value) bool { return v.Compare(o) > 0 }

// String renders a date as 2006-01-02 and a timestamp as RFC 3339.
func (v Value) String() string {
	if v.IsZero() {
		return ""
	}
	if v.DateOnly {
		return v.Time.Format("2006-01-02")
	}
	return v.Time.Format(time.RFC3339)
}
