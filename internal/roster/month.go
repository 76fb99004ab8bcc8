package roster

import (
	"fmt"
	"sort"
	"time"

	"github.com/klabast/wb-services/meal-roster/internal/calendar"
)

// BucketPolicy decides which bucket a day of the month is counted in.
type BucketPolicy string

const (
	// ISOWeekBuckets groups days by the ISO week they belong to, matching the
	// weekly roster. The first and last bucket may hold fewer than seven days.
	ISOWeekBuckets BucketPolicy = "iso"
	// ChunkBuckets groups days into calendar rows of a Sunday-first month
	// grid: floor((dayOfMonth - 1 + weekdayOfFirst) / 7) + 1. Not ISO aligned.
	ChunkBuckets BucketPolicy = "chunk"
)

// ParseBucketPolicy validates a policy name; empty selects ISOWeekBuckets.
func ParseBucketPolicy(s string) (BucketPolicy, error) {
	switch BucketPolicy(s) {
	case "", ISOWeekBuckets:
		return ISOWeekBuckets, nil
	case ChunkBuckets:
		return ChunkBuckets, nil
	}
	return "", fmt.Errorf("unknown bucket policy %q", s)
}

// MonthBucket holds the counts of the days of a month that share a bucket.
type MonthBucket struct {
	Label string `json:"label"`
	// Week is set for ISOWeekBuckets only.
	Week   *calendar.WeekID `json:"week,omitempty"`
	From   string           `json:"from"`
	To     string           `json:"to"`
	Days   int              `json:"days"`
	Counts Counts           `json:"counts"`
}

// MonthlySummary is the roster of one calendar month.
type MonthlySummary struct {
	Year    int           `json:"year"`
	Month   time.Month    `json:"month"`
	Policy  BucketPolicy  `json:"policy"`
	Buckets []MonthBucket `json:"buckets"`
	Totals  Counts        `json:"totals"`
}

// ByLabel returns the bucket counts keyed by label.
func (m MonthlySummary) ByLabel() map[string]Counts {
	out := make(map[string]Counts, len(m.Buckets))
	for _, b := range m.Buckets {
		out[b.Label] = b.Counts
	}
	return out
}

// SummarizeMonth sums every resident's selections over each day of the month
// into buckets chosen by policy.
func SummarizeMonth(year int, month time.Month, records Records, policy BucketPolicy) MonthlySummary {
	if policy == "" {
		policy = ISOWeekBuckets
	}
	summary := MonthlySummary{Year: year, Month: month, Policy: policy, Buckets: []MonthBucket{}}
	index := make(map[string]int)

	firstWeekday := int(calendar.Date(year, month, 1).Weekday())
	for _, d := range calendar.DatesOfMonth(year, month) {
		var label string
		var week *calendar.WeekID
		switch policy {
		case ChunkBuckets:
			label = fmt.Sprintf("S%d", (d.Day()-1+firstWeekday)/7+1)
		default:
			id := calendar.WeekOf(d)
			week = &id
			label = id.String()
		}

		i, ok := index[label]
		if !ok {
			i = len(summary.Buckets)
			index[label] = i
			summary.Buckets = append(summary.Buckets, MonthBucket{
				Label: label,
				Week:  week,
				From:  calendar.FormatDate(d),
			})
		}

		c := dayCounts(calendar.FormatDate(d), records)
		b := &summary.Buckets[i]
		b.To = calendar.FormatDate(d)
		b.Days++
		b.Counts = b.Counts.Add(c)
		summary.Totals = summary.Totals.Add(c)
	}
	return summary
}

func dayCounts(key string, records Records) Counts {
	var c Counts
	for _, rw := range records {
		c.addSelection(rw[key])
	}
	return c
}

func sortedCopy(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}
