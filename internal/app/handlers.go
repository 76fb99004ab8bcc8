package app

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/klabast/wb-services/meal-roster/internal/calendar"
	"github.com/klabast/wb-services/meal-roster/internal/roster"
	"github.com/klabast/wb-services/meal-roster/internal/store"
)

// WeekView is a window of seven dates as shown to clients.
type WeekView struct {
	Mode  calendar.Mode `json:"mode"`
	Start string        `json:"start"`
	// Week is set when the window is an ISO week.
	Week  *calendar.WeekID `json:"week,omitempty"`
	Dates []string         `json:"dates"`
	Prev  string           `json:"prev"`
	Next  string           `json:"next"`

	days []time.Time
}

func newWeekView(mode calendar.Mode, start time.Time) WeekView {
	days := calendar.DatesOfWeek(start)
	v := WeekView{
		Mode:  mode,
		Start: calendar.FormatDate(start),
		Dates: make([]string, len(days)),
		Prev:  calendar.FormatDate(calendar.AddDays(start, -7)),
		Next:  calendar.FormatDate(calendar.AddDays(start, 7)),
		days:  days[:],
	}
	for i, d := range days {
		v.Dates[i] = calendar.FormatDate(d)
	}
	if start.Weekday() == time.Monday {
		id := calendar.WeekOf(start)
		v.Week = &id
		v.Prev = id.Prev().String()
		v.Next = id.Next().String()
	}
	return v
}

// resolveWeek picks the week of a request: ?week=YYYY-Www, ?start=YYYY-MM-DD,
// or else the configured default week of today.
func (s *Server) resolveWeek(r *http.Request) (WeekView, error) {
	q := r.URL.Query()
	if token := q.Get("week"); token != "" {
		id, err := calendar.ParseWeekID(token)
		if err != nil {
			return WeekView{}, err
		}
		return newWeekView(calendar.ModeISO, id.Monday()), nil
	}
	if start := q.Get("start"); start != "" {
		d, err := calendar.ParseDate(start)
		if err != nil {
			return WeekView{}, err
		}
		return newWeekView(s.cfg.Mode(), d), nil
	}
	which := q.Get("which")
	if which == "" {
		which = s.cfg.DefaultWeek
	}
	return s.weekFor(which)
}

func (s *Server) weekFor(which string) (WeekView, error) {
	offset := 0
	switch which {
	case DefaultWeekCurrent:
	case DefaultWeekNext:
		offset = 1
	default:
		return WeekView{}, fmt.Errorf("%w: which must be %q or %q", calendar.ErrInvalidFormat, DefaultWeekCurrent, DefaultWeekNext)
	}
	mode := s.cfg.Mode()
	return newWeekView(mode, calendar.WeekStart(mode, s.today(), offset)), nil
}

// fail maps an error to a status and writes it. Unexpected errors are logged
// and reported generically.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, calendar.ErrInvalidFormat):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrInvalidResident):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrResidentNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		id, _ := r.Context().Value(requestIDKey).(string)
		s.log.Error("request failed", zap.String("request_id", id), zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, ErrInternalServer)
	}
}

// handleConfig describes the service to clients.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	today := s.today()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"slots":        roster.SlotCatalog,
		"timezone":     s.cfg.Timezone,
		"week_mode":    s.cfg.Mode(),
		"default_week": s.cfg.DefaultWeek,
		"month_bucket": s.cfg.Buckets(),
		"pin_required": s.cfg.PINRequired,
		"today":        calendar.FormatDate(today),
		"current_week": calendar.WeekOf(today),
	})
}

func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	id, err := calendar.ParseWeekID(chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrInvalidWeek)
		return
	}
	writeJSON(w, http.StatusOK, newWeekView(calendar.ModeISO, id.Monday()))
}

func (s *Server) handleCurrentWeek(w http.ResponseWriter, r *http.Request) {
	which := r.URL.Query().Get("which")
	if which == "" {
		which = DefaultWeekCurrent
	}
	view, err := s.weekFor(which)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type loginRequest struct {
	Name string `json:"name" validate:"required,max=64"`
	PIN  string `json:"pin" validate:"omitempty,numeric,min=4,max=8"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Resident  string    `json:"resident"`
	Created   bool      `json:"created"`
}

// handleLogin signs a resident in by name, registering unknown names.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.repo.Resident(r.Context(), req.Name)
	created := false
	switch {
	case errors.Is(err, store.ErrResidentNotFound):
		if s.cfg.PINRequired && req.PIN == "" {
			writeError(w, http.StatusBadRequest, "PIN required")
			return
		}
		pinHash := ""
		if req.PIN != "" {
			if pinHash, err = HashPassphrase(req.PIN); err != nil {
				s.fail(w, r, err)
				return
			}
		}
		res, created, err = s.repo.Register(r.Context(), req.Name, pinHash)
		if err != nil {
			s.fail(w, r, err)
			return
		}
	case err != nil:
		s.fail(w, r, err)
		return
	}

	if !created && res.PINHash != "" {
		ok, err := VerifyPassphrase(req.PIN, res.PINHash)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if !ok {
			s.log.Warn("failed resident login", zap.String("resident", res.Name), zap.String("remote_addr", r.RemoteAddr))
			writeError(w, http.StatusUnauthorized, ErrUnauthorized)
			return
		}
	}

	token, exp, err := s.sessions.Issue(res.Name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: exp, Resident: res.Name, Created: created})
}

type myWeekResponse struct {
	Resident   string              `json:"resident"`
	Week       WeekView            `json:"week"`
	Selections roster.ResidentWeek `json:"selections"`
	Counts     roster.Counts       `json:"counts"`
}

func (s *Server) myWeek(r *http.Request, resident string, view WeekView) (myWeekResponse, error) {
	rw, err := s.repo.Get(r.Context(), resident)
	if err != nil {
		return myWeekResponse{}, err
	}
	return myWeekResponse{
		Resident:   resident,
		Week:       view,
		Selections: roster.SelectionsFor(view.days, rw),
		Counts:     roster.SummarizeUserWeek(view.days, rw),
	}, nil
}

func (s *Server) handleMyMeals(w http.ResponseWriter, r *http.Request) {
	resident, _ := ResidentFrom(r.Context())
	view, err := s.resolveWeek(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp, err := s.myWeek(r, resident, view)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type setMealRequest struct {
	Date     string `json:"date" validate:"required"`
	Slot     string `json:"slot" validate:"required,oneof=breakfast lunch dinner"`
	Selected bool   `json:"selected"`
}

// handleSetMeal toggles one slot of one date and returns the week it falls in.
func (s *Server) handleSetMeal(w http.ResponseWriter, r *http.Request) {
	resident, _ := ResidentFrom(r.Context())

	var req setMealRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := calendar.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrInvalidDateFormat)
		return
	}
	slot, err := roster.ParseSlot(req.Slot)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := s.repo.SetSelection(r.Context(), resident, date, slot, req.Selected); err != nil {
		s.log.Error(ErrFailedToSave, zap.String("resident", resident), zap.Error(err))
		s.fail(w, r, err)
		return
	}

	mode := s.cfg.Mode()
	resp, err := s.myWeek(r, resident, newWeekView(mode, calendar.WeekStart(mode, date, 0)))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMyCalendar(w http.ResponseWriter, r *http.Request) {
	resident, _ := ResidentFrom(r.Context())
	rw, err := s.repo.Get(r.Context(), resident)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	opts, err := alarmFromQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	opts.Now = s.now()
	opts.Location = s.cfg.Location

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	if err := WriteResidentICS(w, resident, rw, opts); err != nil {
		s.log.Error("error writing calendar", zap.Error(err))
	}
}

type rosterWeekResponse struct {
	Week     WeekView          `json:"week"`
	Holidays map[string]string `json:"holidays"`
	roster.WeeklySummary
}

func (s *Server) rosterWeek(r *http.Request) (rosterWeekResponse, error) {
	view, err := s.resolveWeek(r)
	if err != nil {
		return rosterWeekResponse{}, err
	}
	records, err := s.repo.GetAll(r.Context())
	if err != nil {
		return rosterWeekResponse{}, err
	}
	return rosterWeekResponse{
		Week:          view,
		Holidays:      calendar.HolidaysBetween(view.days),
		WeeklySummary: roster.SummarizeWeek(view.days, records),
	}, nil
}

func (s *Server) handleRosterWeek(w http.ResponseWriter, r *http.Request) {
	resp, err := s.rosterWeek(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) monthSummary(r *http.Request) (roster.MonthlySummary, error) {
	year, month, err := monthParams(r, s.today())
	if err != nil {
		return roster.MonthlySummary{}, err
	}
	policy := s.cfg.Buckets()
	if b := r.URL.Query().Get("buckets"); b != "" {
		if policy, err = roster.ParseBucketPolicy(b); err != nil {
			return roster.MonthlySummary{}, fmt.Errorf("%w: %v", calendar.ErrInvalidFormat, err)
		}
	}
	records, err := s.repo.GetAll(r.Context())
	if err != nil {
		return roster.MonthlySummary{}, err
	}
	return roster.SummarizeMonth(year, month, records, policy), nil
}

func (s *Server) handleRosterMonth(w http.ResponseWriter, r *http.Request) {
	summary, err := s.monthSummary(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleRosterMonthPDF(w http.ResponseWriter, r *http.Request) {
	summary, err := s.monthSummary(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	pdf, err := GenerateMonthPDF(summary)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=comedor_%04d-%02d.pdf", summary.Year, int(summary.Month)))
	if _, err := w.Write(pdf); err != nil {
		s.log.Error("error writing pdf", zap.Error(err))
	}
}

type residentResponse struct {
	Name         string    `json:"name"`
	HasPIN       bool      `json:"has_pin"`
	RegisteredAt time.Time `json:"registered_at"`
}

func (s *Server) handleResidents(w http.ResponseWriter, r *http.Request) {
	residents, err := s.repo.Residents(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]residentResponse, len(residents))
	for i, res := range residents {
		out[i] = residentResponse{Name: res.Name, HasPIN: res.PINHash != "", RegisteredAt: res.RegisteredAt}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRosterExport(w http.ResponseWriter, r *http.Request) {
	resp, err := s.rosterWeek(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	name := "comedor_" + resp.Week.Start
	if resp.Week.Week != nil {
		name = "comedor_" + resp.Week.Week.String()
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", name))
		if err := WriteRosterCSV(w, resp.WeeklySummary, resp.Holidays); err != nil {
			s.log.Error("error writing csv export", zap.Error(err))
		}
	case "json":
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.json", name))
		writeJSON(w, http.StatusOK, resp)
	default:
		writeError(w, http.StatusBadRequest, ErrInvalidFormat)
	}
}

func (s *Server) handleHelp(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(s.helpHTML); err != nil {
		s.log.Error("error writing help page", zap.Error(err))
	}
}
