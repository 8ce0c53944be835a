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
  /api/allocations/*    Allocation lifecycle and reports
  /api/availability/*   Availability window lifecycle
  /api/personnel/*      Person identity
  /api/projects/*       Project identity
  /api/health           Liveness probe

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Allocation routes
		r.Route("/allocations", func(r chi.Router) {
			r.Post("/", h.CreateAllocation)
			r.Put("/{id}", h.UpdateAllocation)
			r.Delete("/{id}", h.DeleteAllocation)
			r.Get("/personnel/{id}", h.PersonAllocations)
			r.Get("/personnel/{id}/utilization", h.PersonUtilization)
			r.Get("/project/{id}", h.ProjectRoster)
			r.Get("/team/utilization", h.TeamUtilization)
		})

		// Availability routes
		r.Route("/availability", func(r chi.Router) {
			r.Post("/", h.CreateAvailability)
			r.Put("/{id}", h.UpdateAvailability)
			r.Delete("/{id}", h.DeleteAvailability)
			r.Get("/personnel/{id}", h.PersonAvailability)
		})

		// Personnel routes
		r.Route("/personnel", func(r chi.Router) {
			r.Get("/", h.ListPersonnel)
			r.Post("/", h.CreatePerson)
			r.Get("/{id}", h.GetPerson)
		})

		// Project routes
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.CreateProject)
		})

		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	})

	return r
}
