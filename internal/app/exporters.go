package app

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/klabast/wb-services/meal-roster/internal/calendar"
	"github.com/klabast/wb-services/meal-roster/internal/roster"
)

const (
	icsTimeLayout   = "20060102T150405Z"
	mealDuration    = time.Hour
	maxAlarmMinutes = 24 * 60
)

// ICSOptions controls WriteResidentICS.
type ICSOptions struct {
	// AlarmMinutes adds a reminder that many minutes before each meal; 0 adds none.
	AlarmMinutes int
	Now          time.Time
	Location     *time.Location
}

func alarmFromQuery(r *http.Request) (ICSOptions, error) {
	minutes, err := queryInt(r, "alarm", 0)
	if err != nil || minutes < 0 || minutes > maxAlarmMinutes {
		return ICSOptions{}, fmt.Errorf("%w: alarm must be between 0 and %d minutes", calendar.ErrInvalidFormat, maxAlarmMinutes)
	}
	return ICSOptions{AlarmMinutes: minutes}, nil
}

// icsWriter writes CRLF-terminated content lines and keeps the first error.
type icsWriter struct {
	w   io.Writer
	err error
}

func (iw *icsWriter) line(format string, args ...interface{}) {
	if iw.err != nil {
		return
	}
	_, iw.err = fmt.Fprintf(iw.w, format+"\r\n", args...)
}

// mealStart is the serving time of slot on date in loc.
func mealStart(date time.Time, slot roster.MealSlot, loc *time.Location) time.Time {
	hour, minute := 0, 0
	if hm := slot.Info().Time; hm != "" {
		fmt.Sscanf(hm, "%d:%d", &hour, &minute)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc)
}

func icsEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\n", `\n`)
	return r.Replace(s)
}

func uidToken(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), "-"))
}

// WriteResidentICS writes the booked meals of one resident as an iCalendar
// feed. Events have stable UIDs so subscribed calendars update in place.
func WriteResidentICS(w io.Writer, resident string, rw roster.ResidentWeek, opts ICSOptions) error {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	keys := make([]string, 0, len(rw))
	for key := range rw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	iw := &icsWriter{w: w}
	iw.line("BEGIN:VCALENDAR")
	iw.line("VERSION:2.0")
	iw.line("PRODID:%s", ICSProductID)
	iw.line("METHOD:PUBLISH")
	iw.line("X-WR-CALNAME:Comedor %s", icsEscape(resident))
	iw.line("X-WR-TIMEZONE:%s", loc.String())
	iw.line("CALSCALE:GREGORIAN")
	iw.line("X-PUBLISHED-TTL:PT1H")

	for _, key := range keys {
		date, err := calendar.ParseDate(key)
		if err != nil {
			continue
		}
		sel := rw[key]
		for _, slot := range roster.Slots {
			if !sel.Has(slot) {
				continue
			}
			info := slot.Info()
			start := mealStart(date, slot, loc)

			iw.line("BEGIN:VEVENT")
			iw.line("UID:%s-%s-%s@%s", key, slot, uidToken(resident), ICSDomain)
			iw.line("DTSTAMP:%s", now.UTC().Format(icsTimeLayout))
			iw.line("DTSTART:%s", start.UTC().Format(icsTimeLayout))
			iw.line("DTEND:%s", start.Add(mealDuration).UTC().Format(icsTimeLayout))
			iw.line("SUMMARY:%s", info.Label)
			iw.line("DESCRIPTION:%s reservado para %s", info.Label, icsEscape(resident))
			if opts.AlarmMinutes > 0 {
				iw.line("BEGIN:VALARM")
				iw.line("ACTION:DISPLAY")
				iw.line("DESCRIPTION:Recordatorio: %s a las %s", info.Label, info.Time)
				iw.line("TRIGGER:-PT%dM", opts.AlarmMinutes)
				iw.line("END:VALARM")
			}
			iw.line("END:VEVENT")
		}
	}

	iw.line("END:VCALENDAR")
	return iw.err
}

// WriteRosterCSV writes one row per day with the counts and attendees of each
// slot, followed by a totals row.
func WriteRosterCSV(w io.Writer, summary roster.WeeklySummary, holidays map[string]string) error {
	cw := csv.NewWriter(w)

	header := []string{"Fecha", "Día", "Festivo"}
	for _, slot := range roster.Slots {
		header = append(header, slot.Info().Label)
	}
	for _, slot := range roster.Slots {
		header = append(header, slot.Info().Label+" (residentes)")
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, day := range summary.Days {
		row := []string{day.Date, day.Weekday, holidays[day.Date]}
		for _, slot := range roster.Slots {
			row = append(row, strconv.Itoa(day.Counts.Get(slot)))
		}
		for _, slot := range roster.Slots {
			row = append(row, strings.Join(day.Attendees.Get(slot), "; "))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	totals := []string{"Total", "", ""}
	for _, slot := range roster.Slots {
		totals = append(totals, strconv.Itoa(summary.Totals.Get(slot)))
	}
	totals = append(totals, "", "", "")
	if err := cw.Write(totals); err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}
