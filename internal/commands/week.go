package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/klabast/wb-services/meal-roster/internal/app"
	"github.com/klabast/wb-services/meal-roster/internal/calendar"
	"github.com/klabast/wb-services/meal-roster/internal/roster"
	"github.com/klabast/wb-services/meal-roster/internal/store"
)

type weekOptions struct {
	token    string
	sunday   bool
	next     bool
	roster   bool
	dataFile string
	timezone string
}

func newWeekCmd() *cobra.Command {
	var opts weekOptions

	cmd := &cobra.Command{
		Use:   "week [YYYY-Www]",
		Short: "Print the dates of a week and optionally its roster",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.token = args[0]
			}
			return runWeek(cmd.Context(), cmd.OutOrStdout(), opts, time.Now())
		},
	}
	cmd.Flags().BoolVar(&opts.sunday, "sunday", false, "Use Sunday-anchored weeks instead of ISO weeks")
	cmd.Flags().BoolVar(&opts.next, "next", false, "Show next week instead of the current one")
	cmd.Flags().BoolVar(&opts.roster, "roster", false, "Print the meal counts read from the data file")
	cmd.Flags().StringVar(&opts.dataFile, "data", app.GetEnvString("DATA_FILE", store.DefaultDataFile), "Data file to read the roster from")
	cmd.Flags().StringVar(&opts.timezone, "tz", app.GetEnvString("APP_TIMEZONE", "Europe/Madrid"), "Time zone that decides today's date")
	return cmd
}

func runWeek(ctx context.Context, out io.Writer, opts weekOptions, now time.Time) error {
	var start time.Time
	var title string

	if opts.token != "" {
		id, err := calendar.ParseWeekID(opts.token)
		if err != nil {
			return err
		}
		start = id.Monday()
		title = id.String()
	} else {
		loc, err := time.LoadLocation(opts.timezone)
		if err != nil {
			return fmt.Errorf("time zone %q: %w", opts.timezone, err)
		}
		mode := calendar.ModeISO
		if opts.sunday {
			mode = calendar.ModeSunday
		}
		offset := 0
		if opts.next {
			offset = 1
		}
		start = calendar.WeekStart(mode, calendar.Today(now, loc), offset)
		if mode == calendar.ModeISO {
			title = calendar.WeekOf(start).String()
		} else {
			title = "Semana del domingo " + calendar.FormatDate(start)
		}
	}

	dates := calendar.DatesOfWeek(start)
	holidays := calendar.HolidaysBetween(dates[:])

	var summary roster.WeeklySummary
	if opts.roster {
		repo := store.NewRepository(store.NewFileBackend(opts.dataFile, 0, nil), nil)
		records, err := repo.GetAll(ctx)
		if err != nil {
			return err
		}
		summary = roster.SummarizeWeek(dates[:], records)
	}

	fmt.Fprintln(out, titleStyle.Render(title))
	fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%s to %s", calendar.FormatDate(dates[0]), calendar.FormatDate(dates[6]))))
	if opts.roster {
		fmt.Fprintf(out, "%-15s %9s %7s %5s\n", "", "Desayuno", "Comida", "Cena")
	}

	for i, d := range dates {
		line := fmt.Sprintf("%s %s", d.Weekday().String()[:3], calendar.FormatDate(d))
		if opts.roster {
			c := summary.Days[i].Counts
			line = fmt.Sprintf("%-15s %9d %7d %5d", line, c.Breakfast, c.Lunch, c.Dinner)
		}
		if name, ok := holidays[calendar.FormatDate(d)]; ok {
			line += "  " + holidayStyle.Render(name)
		}
		fmt.Fprintln(out, line)
	}

	if opts.roster {
		t := summary.Totals
		fmt.Fprintln(out, strings.Repeat("-", 39))
		fmt.Fprintf(out, "%-15s %9d %7d %5d\n", "Total", t.Breakfast, t.Lunch, t.Dinner)
	}
	return nil
}
