// Package dates provides calendar-date classification relative to a
// reference instant. All comparisons operate on whole calendar days so a
// review due "today" stays due today regardless of the hour the derivation
// pass runs.
package dates

import (
	"fmt"
	"time"
)

// Class classifies a target date relative to "now".
type Class int

const (
	ClassOverdue Class = iota
	ClassToday
	ClassTomorrow
	ClassWithin // within the configured window, exclusive of today/tomorrow
	ClassFuture
)

// String returns the class name
func (c Class) String() string {
	switch c {
	case ClassOverdue:
		return "overdue"
	case ClassToday:
		return "today"
	case ClassTomorrow:
		return "tomorrow"
	case ClassWithin:
		return "within"
	case ClassFuture:
		return "future"
	}
	return "unknown"
}

// MalformedDateError reports an ISO date/time field that failed to parse.
// It is surfaced to the caller through the diagnostics channel and never
// coerced to "now".
type MalformedDateError struct {
	Field string
	Value string
	Err   error
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("malformed date in %s: %q: %v", e.Field, e.Value, e.Err)
}

func (e *MalformedDateError) Unwrap() error {
	return e.Err
}

// Parse parses an ISO-8601 date or date-time string. The field name is
// carried into the error for once-per-field diagnostics.
func Parse(field, value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, &MalformedDateError{Field: field, Value: value, Err: err}
	}
	return t, nil
}

// day truncates an instant to its calendar date at UTC midnight.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysUntil returns the signed whole-day distance from now to target.
// Negative values mean the target is in the past.
func DaysUntil(now, target time.Time) int {
	return int(day(target).Sub(day(now)).Hours() / 24)
}

// DaysOverdue returns how many whole days the target lies in the past,
// never negative.
func DaysOverdue(now, target time.Time) int {
	if d := -DaysUntil(now, target); d > 0 {
		return d
	}
	return 0
}

// DaysSince returns how many whole days have elapsed since target.
// Same as DaysOverdue but reads better for "days since injury".
func DaysSince(now, target time.Time) int {
	return DaysOverdue(now, target)
}

// Classify places target into exactly one class relative to now.
// withinDays bounds the ClassWithin window (a target N days out is Within
// when 1 < N <= withinDays).
func Classify(now, target time.Time, withinDays int) Class {
	switch d := DaysUntil(now, target); {
	case d < 0:
		return ClassOverdue
	case d == 0:
		return ClassToday
	case d == 1:
		return ClassTomorrow
	case d <= withinDays:
		return ClassWithin
	default:
		return ClassFuture
	}
}
