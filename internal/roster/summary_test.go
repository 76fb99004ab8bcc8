package roster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klabast/wb-services/meal-roster/internal/calendar"
)

func week15() []time.Time {
	dates := calendar.WeekID{Year: 2025, Week: 15}.Dates()
	return dates[:]
}

func TestSummarizeWeekTwoResidents(t *testing.T) {
	records := Records{
		"garcia": {"2025-04-07": {Breakfast: true, Lunch: true}},
		"lopez":  {"2025-04-07": {Dinner: true}},
	}

	summary := SummarizeWeek(week15(), records)

	require.Len(t, summary.Days, 7)
	monday := summary.Days[0]
	assert.Equal(t, "2025-04-07", monday.Date)
	assert.Equal(t, "Monday", monday.Weekday)
	assert.Equal(t, Counts{Breakfast: 1, Lunch: 1, Dinner: 1}, monday.Counts)
	assert.Equal(t, []string{"garcia"}, monday.Attendees.Breakfast)
	assert.Equal(t, []string{"garcia"}, monday.Attendees.Lunch)
	assert.Equal(t, []string{"lopez"}, monday.Attendees.Dinner)

	for _, day := range summary.Days[1:] {
		assert.Equal(t, Counts{}, day.Counts)
		assert.NotNil(t, day.Attendees.Breakfast)
		assert.Empty(t, day.Attendees.Breakfast)
	}
	assert.Equal(t, Counts{Breakfast: 1, Lunch: 1, Dinner: 1}, summary.Totals)
}

func TestSummarizeWeekOrdersAttendees(t *testing.T) {
	records := Records{
		"ruiz":   {"2025-04-08": {Lunch: true}},
		"alonso": {"2025-04-08": {Lunch: true}},
		"moreno": {"2025-04-08": {Lunch: true}, "2025-04-09": {Lunch: true}},
	}

	summary := SummarizeWeek(week15(), records)

	assert.Equal(t, []string{"alonso", "moreno", "ruiz"}, summary.Days[1].Attendees.Lunch)
	assert.Equal(t, []string{"moreno"}, summary.Days[2].Attendees.Get(Lunch))
	assert.Equal(t, 4, summary.Totals.Lunch)
	assert.Equal(t, 4, summary.Totals.Total())
}

func TestSummarizeWeekMissingData(t *testing.T) {
	records := Records{
		"empty":   nil,
		"partial": {"2025-04-10": {}},
		"other":   {"2024-01-01": {Breakfast: true}},
	}

	summary := SummarizeWeek(week15(), records)
	assert.Equal(t, Counts{}, summary.Totals)

	summary = SummarizeWeek(week15(), nil)
	assert.Len(t, summary.Days, 7)
	assert.Equal(t, Counts{}, summary.Totals)
}

func TestSummarizeUserWeek(t *testing.T) {
	rw := ResidentWeek{
		"2025-04-07": {Breakfast: true, Lunch: true},
		"2025-04-09": {Lunch: true, Dinner: true},
		"2025-04-13": {Dinner: true},
		"2025-04-14": {Breakfast: true},
	}

	got := SummarizeUserWeek(week15(), rw)
	assert.Equal(t, Counts{Breakfast: 1, Lunch: 2, Dinner: 2}, got)
	assert.Equal(t, Counts{}, SummarizeUserWeek(week15(), nil))
}

func TestSelectionsFor(t *testing.T) {
	rw := ResidentWeek{
		"2025-04-07": {Lunch: true},
		"2025-05-01": {Lunch: true},
	}

	got := SelectionsFor(week15(), rw)
	assert.Len(t, got, 7)
	assert.True(t, got["2025-04-07"].Lunch)
	assert.Equal(t, DailySelection{}, got["2025-04-13"])
	_, ok := got["2025-05-01"]
	assert.False(t, ok)
}

func TestMissingFor(t *testing.T) {
	records := Records{
		"garcia": {"2025-04-08": {Dinner: true}},
		"lopez":  {"2025-04-08": {}},
	}

	got := MissingFor(calendar.Date(2025, 4, 8), []string{"perez", "lopez", "garcia"}, records)
	assert.Equal(t, []string{"lopez", "perez"}, got)
}

func TestSummarizeMonthISOBuckets(t *testing.T) {
	records := Records{
		"garcia": {
			"2025-03-31": {Lunch: true},
			"2025-04-01": {Breakfast: true, Lunch: true},
			"2025-04-06": {Dinner: true},
			"2025-04-07": {Lunch: true},
			"2025-04-30": {Breakfast: true},
			"2025-05-01": {Lunch: true},
		},
		"lopez": {
			"2025-04-01": {Lunch: true},
			"2025-04-15": {Dinner: true},
		},
	}

	summary := SummarizeMonth(2025, time.April, records, ISOWeekBuckets)

	require.Len(t, summary.Buckets, 5)
	labels := make([]string, 0, len(summary.Buckets))
	for _, b := range summary.Buckets {
		labels = append(labels, b.Label)
	}
	assert.Equal(t, []string{"2025-W14", "2025-W15", "2025-W16", "2025-W17", "2025-W18"}, labels)

	first := summary.Buckets[0]
	assert.Equal(t, "2025-04-01", first.From)
	assert.Equal(t, "2025-04-06", first.To)
	assert.Equal(t, 6, first.Days)
	assert.Equal(t, Counts{Breakfast: 1, Lunch: 2, Dinner: 1}, first.Counts)
	require.NotNil(t, first.Week)
	assert.Equal(t, calendar.WeekID{Year: 2025, Week: 14}, *first.Week)

	last := summary.Buckets[4]
	assert.Equal(t, 3, last.Days)
	assert.Equal(t, Counts{Breakfast: 1}, last.Counts)

	assert.Equal(t, Counts{Breakfast: 2, Lunch: 3, Dinner: 2}, summary.Totals)
	assert.Equal(t, Counts{Dinner: 1}, summary.ByLabel()["2025-W16"])
}

func TestSummarizeMonthYearBoundary(t *testing.T) {
	records := Records{"garcia": {"2021-01-01": {Lunch: true}, "2021-01-04": {Lunch: true}}}

	summary := SummarizeMonth(2021, time.January, records, "")

	assert.Equal(t, ISOWeekBuckets, summary.Policy)
	assert.Equal(t, "2020-W53", summary.Buckets[0].Label)
	assert.Equal(t, 3, summary.Buckets[0].Days)
	assert.Equal(t, Counts{Lunch: 1}, summary.Buckets[0].Counts)
	assert.Equal(t, "2021-W01", summary.Buckets[1].Label)
}

func TestSummarizeMonthChunkBuckets(t *testing.T) {
	records := Records{
		"garcia": {
			"2025-04-05": {Lunch: true},
			"2025-04-06": {Lunch: true},
			"2025-04-30": {Dinner: true},
		},
	}

	summary := SummarizeMonth(2025, time.April, records, ChunkBuckets)

	require.Len(t, summary.Buckets, 5)
	assert.Equal(t, "S1", summary.Buckets[0].Label)
	assert.Nil(t, summary.Buckets[0].Week)
	// April 1st 2025 is a Tuesday, so the first row ends on Saturday the 5th
	assert.Equal(t, "2025-04-05", summary.Buckets[0].To)
	assert.Equal(t, Counts{Lunch: 1}, summary.Buckets[0].Counts)
	assert.Equal(t, Counts{Lunch: 1}, summary.Buckets[1].Counts)
	assert.Equal(t, "S5", summary.Buckets[4].Label)
	assert.Equal(t, Counts{Dinner: 1}, summary.Buckets[4].Counts)

	feb := SummarizeMonth(2026, time.February, records, ChunkBuckets)
	assert.Len(t, feb.Buckets, 4)
	iso := SummarizeMonth(2026, time.February, records, ISOWeekBuckets)
	assert.Len(t, iso.Buckets, 5)
	assert.Equal(t, 1, iso.Buckets[0].Days)
}

func TestSummarizeMonthMatchesDailyCounts(t *testing.T) {
	records := Records{}
	names := []string{"alonso", "garcia", "lopez", "moreno"}
	for i, name := range names {
		rw := ResidentWeek{}
		for _, d := range calendar.DatesOfMonth(2024, time.December) {
			n := d.Day() + i
			rw[calendar.FormatDate(d)] = DailySelection{
				Breakfast: n%2 == 0,
				Lunch:     n%3 == 0,
				Dinner:    n%5 == 0,
			}
		}
		records[name] = rw
	}

	for _, policy := range []BucketPolicy{ISOWeekBuckets, ChunkBuckets} {
		t.Run(string(policy), func(t *testing.T) {
			month := SummarizeMonth(2024, time.December, records, policy)
			daily := SummarizeWeek(calendar.DatesOfMonth(2024, time.December), records)

			assert.Equal(t, daily.Totals, month.Totals)

			var sum Counts
			days := 0
			for _, b := range month.Buckets {
				sum = sum.Add(b.Counts)
				days += b.Days
			}
			assert.Equal(t, month.Totals, sum)
			assert.Equal(t, 31, days)
		})
	}
}

func TestParseBucketPolicy(t *testing.T) {
	p, err := ParseBucketPolicy("")
	require.NoError(t, err)
	assert.Equal(t, ISOWeekBuckets, p)

	p, err = ParseBucketPolicy("chunk")
	require.NoError(t, err)
	assert.Equal(t, ChunkBuckets, p)

	_, err = ParseBucketPolicy("weekly")
	assert.Error(t, err)
}

func TestSlots(t *testing.T) {
	slot, err := ParseSlot("lunch")
	require.NoError(t, err)
	assert.Equal(t, Lunch, slot)
	assert.Equal(t, "14:15", slot.Info().Time)

	_, err = ParseSlot("brunch")
	assert.Error(t, err)

	sel := DailySelection{}.With(Dinner, true)
	assert.True(t, sel.Has(Dinner))
	assert.True(t, sel.Any())
	assert.False(t, sel.With(Dinner, false).Any())
}

func TestRecordsClone(t *testing.T) {
	records := Records{"garcia": {"2025-04-07": {Lunch: true}}}
	clone := records.Clone()
	clone["garcia"]["2025-04-07"] = DailySelection{}

	assert.True(t, records["garcia"]["2025-04-07"].Lunch)
}
