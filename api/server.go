/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging, routed into the process logger
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the web checklist

ROUTE GROUPS:
  /api/habits/*         Catalog management
  /api/days/*           Day checklist and toggles
  /api/weeks, /months   Calendar views
  /api/streaks          Streak snapshot
  /api/progress         XP and level
  /api/export, /import  Backup documents
  /api/scenarios/*      Demo scenarios
  /api/reset            Database reset

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/keystone/habit-engine/logger"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger())
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Habit routes
		r.Route("/habits", func(r chi.Router) {
			r.Get("/", h.ListHabits)
			r.Post("/", h.CreateHabit)
			r.Post("/reorder", h.ReorderHabits)
			r.Put("/{id}", h.UpdateHabit)
			r.Post("/{id}/disable", h.DisableHabit)
			r.Post("/{id}/enable", h.EnableHabit)
		})

		// Day routes
		r.Route("/days/{date}", func(r chi.Router) {
			r.Get("/", h.GetDay)
			r.Post("/habits/{id}/toggle", h.ToggleHabit)
			r.Post("/habits/{id}/toggle-mvd", h.ToggleHabitMVD)
		})

		r.Get("/weeks/{date}", h.GetWeek)
		r.Get("/months/{date}", h.GetMonth)
		r.Get("/streaks", h.GetStreaks)
		r.Get("/progress", h.GetProgress)

		// Data routes
		r.Get("/export", h.Export)
		r.Post("/import", h.Import)
		r.Post("/reset", h.ResetDatabase)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}

// requestLogger logs requests through the process logger once it is
// initialized, and through chi's default logger otherwise.
func requestLogger() func(next http.Handler) http.Handler {
	l := logger.Get()
	if l == nil {
		return middleware.Logger
	}
	return middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  l.StandardLog(log.StandardLogOptions{ForceLevel: log.InfoLevel}),
		NoColor: true,
	})
}
