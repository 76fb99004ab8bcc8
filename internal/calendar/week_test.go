package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestISOWeek(t *testing.T) {
	tests := []struct {
		name     string
		date     time.Time
		wantYear int
		wantWeek int
	}{
		{"monday jan 1", Date(2024, 1, 1), 2024, 1},
		{"sunday jan 1 belongs to previous year", Date(2023, 1, 1), 2022, 52},
		{"thursday dec 31 in week 53", Date(2020, 12, 31), 2020, 53},
		{"friday jan 1 in week 53 of previous year", Date(2021, 1, 1), 2020, 53},
		{"sunday jan 3 still previous year", Date(2021, 1, 3), 2020, 53},
		{"monday jan 4 starts week 1", Date(2021, 1, 4), 2021, 1},
		{"monday dec 30 belongs to next year", Date(2024, 12, 30), 2025, 1},
		{"tuesday dec 31 belongs to next year", Date(2024, 12, 31), 2025, 1},
		{"thursday jan 1", Date(2026, 1, 1), 2026, 1},
		{"friday jan 1 after 53 week year", Date(2027, 1, 1), 2026, 53},
		{"mid year", Date(2025, 4, 9), 2025, 15},
		{"leap day", Date(2024, 2, 29), 2024, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			year, week := ISOWeek(tt.date)
			assert.Equal(t, tt.wantYear, year)
			assert.Equal(t, tt.wantWeek, week)
			assert.Equal(t, tt.wantWeek, ISOWeekNumber(tt.date))
		})
	}
}

func TestISOWeekIgnoresClockAndZone(t *testing.T) {
	// late evening in a zone east of UTC must not slip into the previous day
	cet := time.FixedZone("CET", 3600)
	late := time.Date(2023, 1, 2, 0, 30, 0, 0, cet)
	assert.Equal(t, 1, ISOWeekNumber(late))

	lateSunday := time.Date(2023, 1, 1, 23, 59, 0, 0, time.FixedZone("UTC-11", -11*3600))
	year, week := ISOWeek(lateSunday)
	assert.Equal(t, 2022, year)
	assert.Equal(t, 52, week)
}

func TestISOWeekMatchesStandardLibrary(t *testing.T) {
	for d := Date(1970, 1, 1); d.Year() <= 2100; d = d.AddDate(0, 0, 1) {
		wantYear, wantWeek := d.ISOWeek()
		year, week := ISOWeek(d)
		if year != wantYear || week != wantWeek {
			t.Fatalf("ISOWeek(%s) = %d-W%02d, want %d-W%02d", FormatDate(d), year, week, wantYear, wantWeek)
		}
	}
}

func TestMondayOfISOWeek(t *testing.T) {
	tests := []struct {
		year, week int
		want       time.Time
	}{
		{2024, 1, Date(2024, 1, 1)},
		{2025, 1, Date(2024, 12, 30)},
		{2025, 15, Date(2025, 4, 7)},
		{2020, 53, Date(2020, 12, 28)},
		{2026, 1, Date(2025, 12, 29)},
		{2026, 53, Date(2026, 12, 28)},
		{2023, 1, Date(2023, 1, 2)},
	}

	for _, tt := range tests {
		t.Run(FormatWeekToken(tt.year, tt.week), func(t *testing.T) {
			got := MondayOfISOWeek(tt.year, tt.week)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, time.Monday, got.Weekday())
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for year := 1970; year <= 2100; year++ {
		weeks := WeeksInYear(year)
		require.Contains(t, []int{52, 53}, weeks, "year %d", year)
		for week := 1; week <= weeks; week++ {
			monday := MondayOfISOWeek(year, week)
			gotYear, gotWeek := ISOWeek(monday)
			if gotYear != year || gotWeek != week {
				t.Fatalf("ISOWeek(MondayOfISOWeek(%d, %d)) = %d-W%02d", year, week, gotYear, gotWeek)
			}
			// every day of the week resolves to the same id
			for _, d := range DatesOfWeek(monday) {
				if WeekOf(d) != (WeekID{Year: year, Week: week}) {
					t.Fatalf("%s not in %s", FormatDate(d), FormatWeekToken(year, week))
				}
			}
		}
	}
}

func TestWeeksInYear(t *testing.T) {
	assert.Equal(t, 53, WeeksInYear(2015))
	assert.Equal(t, 53, WeeksInYear(2020))
	assert.Equal(t, 52, WeeksInYear(2021))
	assert.Equal(t, 52, WeeksInYear(2024))
	assert.Equal(t, 53, WeeksInYear(2026))
}

func TestDatesOfWeek(t *testing.T) {
	monday := MondayOfISOWeek(2024, 52)
	dates := DatesOfWeek(monday)

	require.Len(t, dates, 7)
	assert.Equal(t, Date(2024, 12, 23), dates[0])
	assert.Equal(t, Date(2024, 12, 29), dates[6])
	for i, d := range dates {
		assert.Equal(t, time.Weekday((i+1)%7), d.Weekday())
		if i > 0 {
			assert.Equal(t, 1, DaysBetween(dates[i-1], d))
		}
	}

	// the input is left untouched
	assert.Equal(t, Date(2024, 12, 23), monday)
}

func TestDatesOfWeekCrossesYear(t *testing.T) {
	dates := WeekID{Year: 2025, Week: 1}.Dates()
	assert.Equal(t, "2024-12-30", FormatDate(dates[0]))
	assert.Equal(t, "2025-01-05", FormatDate(dates[6]))
}

func TestFormatWeekToken(t *testing.T) {
	assert.Equal(t, "2025-W15", FormatWeekToken(2025, 15))
	assert.Equal(t, "2025-W03", FormatWeekToken(2025, 3))
	assert.Equal(t, "2020-W53", WeekID{Year: 2020, Week: 53}.String())
}

func TestParseWeekToken(t *testing.T) {
	tests := []struct {
		token    string
		wantYear int
		wantWeek int
		wantErr  bool
	}{
		{token: "2025-W15", wantYear: 2025, wantWeek: 15},
		{token: "2025-W3", wantYear: 2025, wantWeek: 3},
		{token: "2025-W03", wantYear: 2025, wantWeek: 3},
		{token: "2020-W53", wantYear: 2020, wantWeek: 53},
		{token: "2021-W53", wantErr: true},
		{token: "2025-W00", wantErr: true},
		{token: "2025-W0", wantErr: true},
		{token: "2025-W54", wantErr: true},
		{token: "2025-W99", wantErr: true},
		{token: "2025-W100", wantErr: true},
		{token: "2025W15", wantErr: true},
		{token: "25-W15", wantErr: true},
		{token: "2025-w15", wantErr: true},
		{token: " 2025-W15", wantErr: true},
		{token: "2025-W-1", wantErr: true},
		{token: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			year, week, err := ParseWeekToken(tt.token)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantYear, year)
			assert.Equal(t, tt.wantWeek, week)
		})
	}
}

func TestWeekIDNavigation(t *testing.T) {
	w := WeekID{Year: 2020, Week: 53}
	assert.Equal(t, WeekID{Year: 2021, Week: 1}, w.Next())
	assert.Equal(t, WeekID{Year: 2020, Week: 52}, w.Prev())
	assert.Equal(t, w, w.Next().Prev())
	assert.True(t, w.Before(w.Next()))
	assert.False(t, w.Next().Before(w))
}

func TestWeekIDText(t *testing.T) {
	var w WeekID
	require.NoError(t, w.UnmarshalText([]byte("2025-W15")))
	assert.Equal(t, WeekID{Year: 2025, Week: 15}, w)

	b, err := w.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2025-W15", string(b))

	assert.ErrorIs(t, w.UnmarshalText([]byte("nope")), ErrInvalidFormat)
}

func TestPurity(t *testing.T) {
	d := time.Date(2024, 12, 31, 18, 45, 0, 0, time.UTC)
	orig := d

	y1, w1 := ISOWeek(d)
	y2, w2 := ISOWeek(d)
	assert.Equal(t, y1, y2)
	assert.Equal(t, w1, w2)
	assert.Equal(t, MondayOfISOWeek(2025, 1), MondayOfISOWeek(2025, 1))
	assert.Equal(t, DatesOfWeek(d), DatesOfWeek(d))
	assert.Equal(t, orig, d)
}
