// Package temporal resolves flexible human-readable date expressions
// ("5 days", "next thursday", "2024-03-01 9 am", "never") against a
// reference time, producing concrete dates or timestamps.
package temporal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/starford/dagaz/internal/apperr"
)

// DefaultTimezone is used when no NOTES_TIMEZONE override is configured.
const DefaultTimezone = "America/Los_Angeles"

// Never is the far-future sentinel returned for the "never" expression.
var Never = NewDate(2100, time.January, 1)

var (
	clockRe    = regexp.MustCompile(`^(\d{2}):(\d{2})$`)
	isoDateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	meridiemRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2}) (\d{1,2}) (am|pm)$`)
	deltaRe    = regexp.MustCompile(`^(\d+) (hour|day|week|month|year|business day)s?$`)
)

// mondayIndex maps time.Weekday (Sunday = 0) onto a Monday-start week
// (Monday = 0 .. Sunday = 6).
func mondayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// Resolver turns expressions into concrete values in a fixed timezone.
// Resolution is pure: the result depends only on the expression, the
// reference value, and the configured location.
type Resolver struct {
	loc *time.Location
}

// NewResolver creates a Resolver for the given location.
func NewResolver(loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{loc: loc}
}

// Location returns the resolver's configured timezone.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Resolve matches expr against the expression grammar and returns the
// concrete value relative to ref. Matching is case-insensitive and
// full-string; rules are tried in a fixed precedence order. An empty
// expression resolves to the zero Value. An expression matching no rule
// fails with apperr.ErrUnrecognizedExpression.
//
// Granularity policy: clock-time and hour-offset results are full
// timestamps; every other rule produces a date (time-of-day discarded).
func (r *Resolver) Resolve(expr string, ref Value) (Value, error) {
	s := strings.ToLower(strings.TrimSpace(expr))
	if s == "" {
		return Value{}, nil
	}

	if s == "never" {
		return Never, nil
	}

	if m := clockRe.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			return Value{}, unrecognized(expr)
		}
		y, mo, d := ref.Time.Date()
		return NewTimestamp(time.Date(y, mo, d, hour, minute, 0, 0, r.loc)), nil
	}

	if isoDateRe.MatchString(s) {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return Value{}, unrecognized(expr)
		}
		return NewDate(t.Date()), nil
	}

	if m := meridiemRe.FindStringSubmatch(s); m != nil {
		return r.resolveMeridiem(expr, m)
	}

	if m := deltaRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return r.addDelta(ref, n, m[2]), nil
	}

	if wd, ok := weekdays[s]; ok {
		// Floating-week semantics: the matching weekday of the reference
		// week (Monday-start). This can land before the reference date
		// when the named day has already passed that week.
		refDate := ref.Date()
		offset := mondayIndex(wd) - mondayIndex(ref.Time.Weekday())
		return refDate.AddDays(offset), nil
	}

	if rest, ok := strings.CutPrefix(s, "next "); ok {
		if wd, ok := weekdays[rest]; ok {
			refDate := ref.Date()
			toNextMonday := 7 - mondayIndex(ref.Time.Weekday())
			return refDate.AddDays(toNextMonday + mondayIndex(wd)), nil
		}
	}

	switch s {
	case "today":
		return ref.Date(), nil
	case "tomorrow":
		return ref.Date().AddDays(1), nil
	case "yesterday":
		return ref.Date().AddDays(-1), nil
	}

	return Value{}, unrecognized(expr)
}

func unrecognized(expr string) error {
	return fmt.Errorf("temporal: %w: %q", apperr.ErrUnrecognizedExpression, expr)
}

func (r *Resolver) resolveMeridiem(expr string, m []string) (Value, error) {
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	if hour < 1 || hour > 12 {
		return Value{}, unrecognized(expr)
	}
	// 12 am is midnight, 12 pm is noon.
	hour %= 12
	if m[5] == "pm" {
		hour += 12
	}
	return NewTimestamp(time.Date(year, time.Month(month), day, hour, 0, 0, 0, r.loc)), nil
}

// addDelta applies "<n> <unit>" arithmetic. Month and year offsets are
// calendar-aware (AddDate), not fixed-length multiples. Business days
// skip Saturdays and Sundays; there is no holiday calendar.
func (r *Resolver) addDelta(ref Value, n int, unit string) Value {
	t := ref.Time
	if ref.DateOnly {
		// Hour arithmetic on a bare date counts from midnight in the
		// configured zone.
		y, m, d := t.Date()
		t = time.Date(y, m, d, 0, 0, 0, 0, r.loc)
	}

	switch unit {
	case "hour":
		return NewTimestamp(t.Add(time.Duration(n) * time.Hour))
	case "day":
		t = t.AddDate(0, 0, n)
	case "week":
		t = t.AddDate(0, 0, 7*n)
	case "month":
		t = t.AddDate(0, n, 0)
	case "year":
		t = t.AddDate(n, 0, 0)
	case "business day":
		t = addBusinessDays(t, n)
	}
	return NewTimestamp(t).Date()
}

func addBusinessDays(t time.Time, n int) time.Time {
	for i := 0; i < n; i++ {
		t = t.AddDate(0, 0, 1)
		for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
			t = t.AddDate(0, 0, 1)
		}
	}
	return t
}
