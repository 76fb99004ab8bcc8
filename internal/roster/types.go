// Package roster holds the meal selection records and reduces them into the
// per-day, per-week and per-month counts the kitchen works from.
package roster

import (
	"fmt"
	"sort"
)

// MealSlot is one of the three daily meals.
type MealSlot string

const (
	Breakfast MealSlot = "breakfast"
	Lunch     MealSlot = "lunch"
	Dinner    MealSlot = "dinner"
)

// Slots lists the meal slots in serving order.
var Slots = []MealSlot{Breakfast, Lunch, Dinner}

// SlotInfo describes how a slot is shown to residents.
type SlotInfo struct {
	Slot  MealSlot `json:"slot"`
	Label string   `json:"label"`
	Time  string   `json:"time"`
}

// SlotCatalog holds the display label and serving time of each slot.
var SlotCatalog = []SlotInfo{
	{Slot: Breakfast, Label: "Desayuno", Time: "08:00"},
	{Slot: Lunch, Label: "Comida", Time: "14:15"},
	{Slot: Dinner, Label: "Cena", Time: "21:00"},
}

// ParseSlot validates a slot name.
func ParseSlot(s string) (MealSlot, error) {
	for _, slot := range Slots {
		if string(slot) == s {
			return slot, nil
		}
	}
	return "", fmt.Errorf("unknown meal slot %q", s)
}

// Info returns the catalog entry of s.
func (s MealSlot) Info() SlotInfo {
	for _, info := range SlotCatalog {
		if info.Slot == s {
			return info
		}
	}
	return SlotInfo{Slot: s, Label: string(s)}
}

// DailySelection records which meals a resident takes on one day. Absent
// slots decode as false.
type DailySelection struct {
	Breakfast bool `json:"breakfast"`
	Lunch     bool `json:"lunch"`
	Dinner    bool `json:"dinner"`
}

// Has reports whether slot is selected.
func (d DailySelection) Has(slot MealSlot) bool {
	switch slot {
	case Breakfast:
		return d.Breakfast
	case Lunch:
		return d.Lunch
	case Dinner:
		return d.Dinner
	}
	return false
}

// With returns a copy of d with slot set to selected.
func (d DailySelection) With(slot MealSlot, selected bool) DailySelection {
	switch slot {
	case Breakfast:
		d.Breakfast = selected
	case Lunch:
		d.Lunch = selected
	case Dinner:
		d.Dinner = selected
	}
	return d
}

// Any reports whether at least one slot is selected.
func (d DailySelection) Any() bool {
	return d.Breakfast || d.Lunch || d.Dinner
}

// ResidentWeek maps YYYY-MM-DD date keys to the selections of one resident.
// Despite the name it may span any number of weeks.
type ResidentWeek map[string]DailySelection

// Clone returns an independent copy of rw.
func (rw ResidentWeek) Clone() ResidentWeek {
	out := make(ResidentWeek, len(rw))
	for k, v := range rw {
		out[k] = v
	}
	return out
}

// Records maps resident identifiers to their selections.
type Records map[string]ResidentWeek

// Clone returns a deep copy of r.
func (r Records) Clone() Records {
	out := make(Records, len(r))
	for k, v := range r {
		out[k] = v.Clone()
	}
	return out
}

// Residents returns the resident identifiers in ascending order.
func (r Records) Residents() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Counts holds the number of meals per slot.
type Counts struct {
	Breakfast int `json:"breakfast"`
	Lunch     int `json:"lunch"`
	Dinner    int `json:"dinner"`
}

// Get returns the count of slot.
func (c Counts) Get(slot MealSlot) int {
	switch slot {
	case Breakfast:
		return c.Breakfast
	case Lunch:
		return c.Lunch
	case Dinner:
		return c.Dinner
	}
	return 0
}

// Add returns the slot-wise sum of c and o.
func (c Counts) Add(o Counts) Counts {
	return Counts{
		Breakfast: c.Breakfast + o.Breakfast,
		Lunch:     c.Lunch + o.Lunch,
		Dinner:    c.Dinner + o.Dinner,
	}
}

// Total returns the number of meals across all slots.
func (c Counts) Total() int {
	return c.Breakfast + c.Lunch + c.Dinner
}

func (c *Counts) addSelection(d DailySelection) {
	if d.Breakfast {
		c.Breakfast++
	}
	if d.Lunch {
		c.Lunch++
	}
	if d.Dinner {
		c.Dinner++
	}
}
