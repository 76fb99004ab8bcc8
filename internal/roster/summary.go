package roster

import (
	"time"

	"github.com/klabast/wb-services/meal-roster/internal/calendar"
)

// Attendees lists, per slot, the residents taking that meal in ascending
// identifier order. Lists are never nil.
type Attendees struct {
	Breakfast []string `json:"breakfast"`
	Lunch     []string `json:"lunch"`
	Dinner    []string `json:"dinner"`
}

// Get returns the list of slot.
func (a Attendees) Get(slot MealSlot) []string {
	switch slot {
	case Breakfast:
		return a.Breakfast
	case Lunch:
		return a.Lunch
	case Dinner:
		return a.Dinner
	}
	return nil
}

// DaySummary is the roster of one date.
type DaySummary struct {
	Date      string    `json:"date"`
	Weekday   string    `json:"weekday"`
	Counts    Counts    `json:"counts"`
	Attendees Attendees `json:"attendees"`
}

// WeeklySummary is the roster of a window of dates, normally one week.
type WeeklySummary struct {
	Days   []DaySummary `json:"days"`
	Totals Counts       `json:"totals"`
}

// SummarizeWeek collects, for every date and slot, the residents who
// selected it. Missing residents, dates or slots count as not registered.
func SummarizeWeek(dates []time.Time, records Records) WeeklySummary {
	residents := records.Residents()
	summary := WeeklySummary{Days: make([]DaySummary, 0, len(dates))}

	for _, d := range dates {
		key := calendar.FormatDate(d)
		day := DaySummary{
			Date:    key,
			Weekday: d.Weekday().String(),
			Attendees: Attendees{
				Breakfast: []string{},
				Lunch:     []string{},
				Dinner:    []string{},
			},
		}
		for _, name := range residents {
			sel := records[name][key]
			if sel.Breakfast {
				day.Attendees.Breakfast = append(day.Attendees.Breakfast, name)
			}
			if sel.Lunch {
				day.Attendees.Lunch = append(day.Attendees.Lunch, name)
			}
			if sel.Dinner {
				day.Attendees.Dinner = append(day.Attendees.Dinner, name)
			}
		}
		day.Counts = Counts{
			Breakfast: len(day.Attendees.Breakfast),
			Lunch:     len(day.Attendees.Lunch),
			Dinner:    len(day.Attendees.Dinner),
		}
		summary.Totals = summary.Totals.Add(day.Counts)
		summary.Days = append(summary.Days, day)
	}
	return summary
}

// SummarizeUserWeek counts the meals one resident selected over dates.
func SummarizeUserWeek(dates []time.Time, rw ResidentWeek) Counts {
	var c Counts
	for _, d := range dates {
		c.addSelection(rw[calendar.FormatDate(d)])
	}
	return c
}

// SelectionsFor returns the resident's selection for each of dates, with
// absent days filled in as empty selections.
func SelectionsFor(dates []time.Time, rw ResidentWeek) ResidentWeek {
	out := make(ResidentWeek, len(dates))
	for _, d := range dates {
		key := calendar.FormatDate(d)
		out[key] = rw[key]
	}
	return out
}

// MissingFor returns, in ascending order, the residents among names that
// have no meal selected on date.
func MissingFor(date time.Time, names []string, records Records) []string {
	key := calendar.FormatDate(date)
	missing := []string{}
	for _, name := range sortedCopy(names) {
		if !records[name][key].Any() {
			missing = append(missing, name)
		}
	}
	return missing
}
