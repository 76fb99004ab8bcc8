// Package calendar implements the whole-day date and ISO-8601 week arithmetic
// used by the meal roster. All dates are civil days held as time.Time values at
// midnight UTC; callers convert wall-clock instants with Day or Today first.
package calendar

import (
	"fmt"
	"time"
)

// DateLayout is the key format used for dates in meal records.
const DateLayout = "2006-01-02"

const day = 24 * time.Hour

// Date returns the civil day year-month-day.
func Date(year int, month time.Month, dayOfMonth int) time.Time {
	return time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

// Day drops the clock and zone of t, keeping the calendar day as seen in t's
// own location.
func Day(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// Today returns the current calendar day in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Day(now.In(loc))
}

// AddDays returns d shifted by n whole days.
func AddDays(d time.Time, n int) time.Time {
	return Day(d).AddDate(0, 0, n)
}

// DaysBetween returns the number of whole days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)) / day)
}

// FormatDate formats d as YYYY-MM-DD.
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD date key.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidFormat, s)
	}
	return t, nil
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	// day zero of the next month is the last day of this one
	return Date(year, month+1, 0).Day()
}

// DatesOfMonth returns every day of the month in order.
func DatesOfMonth(year int, month time.Month) []time.Time {
	n := DaysInMonth(year, month)
	dates := make([]time.Time, n)
	first := Date(year, month, 1)
	for i := range dates {
		dates[i] = first.AddDate(0, 0, i)
	}
	return dates
}

// mondayIndex returns the weekday of d counted from Monday=0 to Sunday=6.
func mondayIndex(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}
