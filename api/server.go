/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/ranges/*    Vacation range CRUD, listing, export
  /api/statuses/*  Planned / not-planned categories
  /api/users/*     Per-user summary, report, manager role

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/ranges", func(r chi.Router) {
			r.Get("/", h.ListRanges)
			r.Post("/", h.CreateRange)
			r.Get("/export", h.ExportRanges)
			r.Get("/{id}", h.GetRange)
			r.Put("/{id}", h.UpdateRange)
		})

		r.Route("/statuses", func(r chi.Router) {
			r.Get("/", h.ListStatuses)
			r.Post("/", h.CreateStatus)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/non-managers", h.ListNonManagers)
			r.Get("/{id}/summary", h.GetSummary)
			r.Get("/{id}/report", h.GetReport)
			r.Get("/{id}/manager", h.GetManagerFlag)
		})
	})

	return r
}
