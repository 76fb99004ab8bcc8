package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/klabast/wb-services/meal-roster/internal/calendar"
	"github.com/klabast/wb-services/meal-roster/internal/store"
)

const (
	RequestIDHeader = "X-Request-ID"

	loginRequests = 5
	loginWindow   = time.Minute
)

const requestIDKey contextKey = "request_id"

// Server holds the collaborators shared by the HTTP handlers.
type Server struct {
	cfg      *Config
	repo     *store.Repository
	chef     *ChefAuth
	sessions *Sessions
	log      *zap.Logger
	now      func() time.Time

	helpHTML []byte
}

// NewServer wires the handlers. chef may be nil, which leaves the kitchen
// views open.
func NewServer(cfg *Config, repo *store.Repository, chef *ChefAuth, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if chef == nil {
		chef = &ChefAuth{log: log}
	}
	help, err := RenderHelp()
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:      cfg,
		repo:     repo,
		chef:     chef,
		sessions: NewSessions(cfg.JWTSecret, cfg.TokenTTL),
		log:      log,
		now:      time.Now,
		helpHTML: help,
	}, nil
}

// today is the current date in the reference time zone.
func (s *Server) today() time.Time {
	return calendar.Today(s.now(), s.cfg.Location)
}

// Routes returns the HTTP handler of the service.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(s.cfg.MaxRequests, time.Second))

	r.Get("/help", s.handleHelp)

	r.Route("/api", func(r chi.Router) {
		r.Get("/config", s.handleConfig)
		r.Get("/weeks/current", s.handleCurrentWeek)
		r.Get("/weeks/{token}", s.handleWeek)

		r.With(httprate.LimitByIP(loginRequests, loginWindow)).
			Post("/residents/login", s.handleLogin)

		r.Route("/me", func(r chi.Router) {
			r.Use(s.sessions.RequireResident)
			r.Get("/meals", s.handleMyMeals)
			r.Put("/meals", s.handleSetMeal)
			r.Get("/calendar.ics", s.handleMyCalendar)
		})

		r.Route("/roster", func(r chi.Router) {
			r.Use(s.chef.Middleware)
			r.Get("/week", s.handleRosterWeek)
			r.Get("/month", s.handleRosterMonth)
			r.Get("/month.pdf", s.handleRosterMonthPDF)
			r.Get("/residents", s.handleResidents)
			r.Get("/export", s.handleRosterExport)
		})
	})

	return r
}

// requestID tags every request with an id, reusing the caller's if given.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		id, _ := r.Context().Value(requestIDKey).(string)
		s.log.Info("request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote_addr", r.RemoteAddr),
		)
	})
}
