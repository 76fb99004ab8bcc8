package calendar

import "time"

// The Sunday-anchored mode backs the "this week / next week" toggle. Its weeks
// run Sunday to Saturday and carry no ISO number; use WeekOf for the ISO view.

// SundayOfCurrentWeek returns the Sunday on or before today.
func SundayOfCurrentWeek(today time.Time) time.Time {
	d := Day(today)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// SundayOfNextWeek returns the Sunday after SundayOfCurrentWeek.
func SundayOfNextWeek(today time.Time) time.Time {
	return SundayOfCurrentWeek(today).AddDate(0, 0, 7)
}

// MondayOfCurrentWeek returns the Monday on or before today.
func MondayOfCurrentWeek(today time.Time) time.Time {
	d := Day(today)
	return d.AddDate(0, 0, -mondayIndex(d))
}

// Mode selects which week anchoring a caller works with.
type Mode string

const (
	ModeISO    Mode = "iso"
	ModeSunday Mode = "sunday"
)

// WeekStart returns the first day of the week holding today in the given
// mode, moved forward by offset weeks.
func WeekStart(mode Mode, today time.Time, offset int) time.Time {
	var start time.Time
	switch mode {
	case ModeSunday:
		start = SundayOfCurrentWeek(today)
	default:
		start = MondayOfCurrentWeek(today)
	}
	return start.AddDate(0, 0, 7*offset)
}
