package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/klabast/wb-services/meal-roster/internal/calendar"
	"github.com/klabast/wb-services/meal-roster/internal/roster"
	"github.com/klabast/wb-services/meal-roster/internal/store"
)

const ReminderMessage = "¡Hola! Recuerda registrar si vas a desayunar, comer o cenar mañana."

// reminderRate caps notifier calls per second during a run.
const reminderRate = 20

// Reminder asks one resident to fill in the meals of a date.
type Reminder struct {
	ID        string    `json:"id"`
	Resident  string    `json:"resident"`
	Date      string    `json:"date"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier delivers reminders.
type Notifier interface {
	Notify(ctx context.Context, r Reminder) error
}

// LogNotifier writes reminders to the log. It is used when no broker is
// configured.
type LogNotifier struct {
	Log *zap.Logger
}

func (n LogNotifier) Notify(_ context.Context, r Reminder) error {
	n.Log.Info("meal reminder",
		zap.String("id", r.ID),
		zap.String("resident", r.Resident),
		zap.String("date", r.Date),
		zap.String("message", r.Message),
	)
	return nil
}

// ParseReminderRule parses an RFC 5545 recurrence such as
// "FREQ=HOURLY;INTERVAL=6". Occurrences are counted from dtstart.
func ParseReminderRule(rule string, dtstart time.Time) (*rrule.RRule, error) {
	rule = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(rule)), "RRULE:")
	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return nil, fmt.Errorf("invalid reminder rule %q: %w", rule, err)
	}
	opt.Dtstart = dtstart
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("invalid reminder rule %q: %w", rule, err)
	}
	return r, nil
}

// ReminderWorker notifies, on every occurrence of its rule, the residents
// who have nothing selected for the following day.
type ReminderWorker struct {
	repo     *store.Repository
	notifier Notifier
	rule     *rrule.RRule
	loc      *time.Location
	log      *zap.Logger
	now      func() time.Time
	limiter  *rate.Limiter
}

// NewReminderWorker anchors rule at midnight of the current day in loc.
func NewReminderWorker(repo *store.Repository, notifier Notifier, rule string, loc *time.Location, log *zap.Logger) (*ReminderWorker, error) {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	now := time.Now().In(loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	r, err := ParseReminderRule(rule, midnight)
	if err != nil {
		return nil, err
	}
	return &ReminderWorker{
		repo:     repo,
		notifier: notifier,
		rule:     r,
		loc:      loc,
		log:      log,
		now:      time.Now,
		limiter:  rate.NewLimiter(rate.Limit(reminderRate), reminderRate),
	}, nil
}

// Next returns the first occurrence after t, or the zero time once the rule
// is exhausted.
func (w *ReminderWorker) Next(t time.Time) time.Time {
	return w.rule.After(t, false)
}

// RunOnce sends the reminders due now and returns how many were sent.
func (w *ReminderWorker) RunOnce(ctx context.Context) (int, error) {
	now := w.now()
	tomorrow := calendar.AddDays(calendar.Today(now, w.loc), 1)

	names, err := w.repo.ResidentNames(ctx)
	if err != nil {
		return 0, err
	}
	records, err := w.repo.GetAll(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, name := range roster.MissingFor(tomorrow, names, records) {
		if err := w.limiter.Wait(ctx); err != nil {
			return sent, err
		}
		r := Reminder{
			ID:        uuid.NewString(),
			Resident:  name,
			Date:      calendar.FormatDate(tomorrow),
			Message:   ReminderMessage,
			CreatedAt: now.UTC(),
		}
		if err := w.notifier.Notify(ctx, r); err != nil {
			return sent, fmt.Errorf("notify %s: %w", name, err)
		}
		sent++
	}
	return sent, nil
}

// Run sends reminders on every occurrence until ctx is done or the rule is
// exhausted.
func (w *ReminderWorker) Run(ctx context.Context) error {
	for {
		next := w.Next(w.now())
		if next.IsZero() {
			w.log.Info("reminder schedule exhausted")
			return nil
		}
		w.log.Debug("next reminder run", zap.Time("at", next))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		sent, err := w.RunOnce(ctx)
		if err != nil {
			w.log.Error("reminder run failed", zap.Int("sent", sent), zap.Error(err))
			continue
		}
		w.log.Info("reminders sent", zap.Int("sent", sent))
	}
}
