package calendar

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidFormat is returned for malformed week tokens, out of range week
// numbers and malformed date keys.
var ErrInvalidFormat = errors.New("invalid format")

var weekTokenRe = regexp.MustCompile(`^(\d{4})-W(\d{1,2})$`)

// WeekID identifies an ISO-8601 week. Week 1 is the week containing the first
// Thursday of Year, and weeks run Monday to Sunday.
type WeekID struct {
	Year int `json:"year"`
	Week int `json:"week"`
}

// WeekOf returns the ISO week that d belongs to.
func WeekOf(d time.Time) WeekID {
	year, week := ISOWeek(d)
	return WeekID{Year: year, Week: week}
}

// ParseWeekID parses a "YYYY-Www" token.
func ParseWeekID(token string) (WeekID, error) {
	year, week, err := ParseWeekToken(token)
	if err != nil {
		return WeekID{}, err
	}
	return WeekID{Year: year, Week: week}, nil
}

// String returns the week token, e.g. "2025-W03".
func (w WeekID) String() string {
	return FormatWeekToken(w.Year, w.Week)
}

// Monday returns the first day of the week.
func (w WeekID) Monday() time.Time {
	return MondayOfISOWeek(w.Year, w.Week)
}

// Dates returns the seven days of the week, Monday first.
func (w WeekID) Dates() [7]time.Time {
	return DatesOfWeek(w.Monday())
}

// Next returns the following week.
func (w WeekID) Next() WeekID {
	return WeekOf(AddDays(w.Monday(), 7))
}

// Prev returns the preceding week.
func (w WeekID) Prev() WeekID {
	return WeekOf(AddDays(w.Monday(), -7))
}

// Before reports whether w is earlier than other.
func (w WeekID) Before(other WeekID) bool {
	if w.Year != other.Year {
		return w.Year < other.Year
	}
	return w.Week < other.Week
}

// MarshalText encodes w as its week token.
func (w WeekID) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// UnmarshalText decodes a week token.
func (w *WeekID) UnmarshalText(b []byte) error {
	id, err := ParseWeekID(string(b))
	if err != nil {
		return err
	}
	*w = id
	return nil
}

// ISOWeek returns the ISO year and week number of d. The ISO year differs from
// the Gregorian year for up to three days around January 1st.
func ISOWeek(d time.Time) (year, week int) {
	thursday := thursdayOfWeek(Day(d))
	week1 := thursdayOfWeek(Date(thursday.Year(), time.January, 4))
	return thursday.Year(), 1 + DaysBetween(week1, thursday)/7
}

// ISOWeekNumber returns the ISO week number of d, in [1,53].
func ISOWeekNumber(d time.Time) int {
	_, week := ISOWeek(d)
	return week
}

// thursdayOfWeek returns the Thursday of the Monday-start week holding d.
func thursdayOfWeek(d time.Time) time.Time {
	return d.AddDate(0, 0, 3-mondayIndex(d))
}

// MondayOfISOWeek returns the Monday that starts the given ISO week. January
// 4th always falls in week 1, so counting forward from its Monday is exact.
func MondayOfISOWeek(isoYear, isoWeek int) time.Time {
	jan4 := Date(isoYear, time.January, 4)
	return jan4.AddDate(0, 0, -mondayIndex(jan4)+(isoWeek-1)*7)
}

// WeeksInYear returns 52 or 53, the number of ISO weeks in isoYear.
func WeeksInYear(isoYear int) int {
	// December 28th is always in the last week of its ISO year
	return ISOWeekNumber(Date(isoYear, time.December, 28))
}

// DatesOfWeek returns start and the six days that follow it.
func DatesOfWeek(start time.Time) [7]time.Time {
	var dates [7]time.Time
	first := Day(start)
	for i := range dates {
		dates[i] = first.AddDate(0, 0, i)
	}
	return dates
}

// FormatWeekToken returns "YYYY-Www" with a zero padded week.
func FormatWeekToken(isoYear, isoWeek int) string {
	return fmt.Sprintf("%04d-W%02d", isoYear, isoWeek)
}

// ParseWeekToken parses "YYYY-Www". The week must lie in [1,53] and exist in
// the given ISO year, so every accepted token round-trips through
// MondayOfISOWeek.
func ParseWeekToken(token string) (isoYear, isoWeek int, err error) {
	m := weekTokenRe.FindStringSubmatch(token)
	if m == nil {
		return 0, 0, fmt.Errorf("%w: week token %q, expected YYYY-Www", ErrInvalidFormat, token)
	}
	isoYear, _ = strconv.Atoi(m[1])
	isoWeek, _ = strconv.Atoi(m[2])
	if isoWeek < 1 || isoWeek > 53 {
		return 0, 0, fmt.Errorf("%w: week %d out of range in %q", ErrInvalidFormat, isoWeek, token)
	}
	if isoWeek > WeeksInYear(isoYear) {
		return 0, 0, fmt.Errorf("%w: %d has no week %d", ErrInvalidFormat, isoYear, isoWeek)
	}
	return isoYear, isoWeek, nil
}
