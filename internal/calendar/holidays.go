package calendar

import (
	"time"
)

// Holidays returns the national public holidays in Spain for the given year,
// keyed by date.
func Holidays(year int) map[string]string {
	holidays := make(map[string]string)

	// Fixed holidays
	holidays[formatYMD(year, 1, 1)] = "Año Nuevo"
	holidays[formatYMD(year, 1, 6)] = "Epifanía del Señor"
	holidays[formatYMD(year, 5, 1)] = "Fiesta del Trabajo"
	holidays[formatYMD(year, 8, 15)] = "Asunción de la Virgen"
	holidays[formatYMD(year, 10, 12)] = "Fiesta Nacional de España"
	holidays[formatYMD(year, 11, 1)] = "Todos los Santos"
	holidays[formatYMD(year, 12, 6)] = "Día de la Constitución"
	holidays[formatYMD(year, 12, 8)] = "Inmaculada Concepción"
	holidays[formatYMD(year, 12, 25)] = "Navidad"

	// Viernes Santo: Easter - 2 days
	holidays[FormatDate(Easter(year).AddDate(0, 0, -2))] = "Viernes Santo"

	return holidays
}

// HolidaysBetween returns the holidays falling on any of dates.
func HolidaysBetween(dates []time.Time) map[string]string {
	out := make(map[string]string)
	byYear := make(map[int]map[string]string)
	for _, d := range dates {
		hs, ok := byYear[d.Year()]
		if !ok {
			hs = Holidays(d.Year())
			byYear[d.Year()] = hs
		}
		key := FormatDate(d)
		if name, ok := hs[key]; ok {
			out[key] = name
		}
	}
	return out
}

// Easter returns Easter Sunday using the Meeus/Jones/Butcher algorithm.
func Easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	dayOfMonth := ((h + l - 7*m + 114) % 31) + 1

	return Date(year, time.Month(month), dayOfMonth)
}

func formatYMD(year, month, dayOfMonth int) string {
	return FormatDate(Date(year, time.Month(month), dayOfMonth))
}
