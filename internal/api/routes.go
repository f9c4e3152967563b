package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes configures all HTTP routes and returns the router.
//
// Route structure:
//
//	GET /health
//	GET /api/v1/cycles                     ?from=YYYY-MM-DD&to=YYYY-MM-DD
//	GET /api/v1/cycles/current
//	GET /api/v1/cycles/current/env         text/plain KEY=VALUE lines
//	GET /api/v1/cycles/date/{date}
//	GET /api/v1/cycles/id/{identifier}
//	GET /api/v1/cycles/recorded            ?limit=N
//	GET /api/v1/cycles/recorded/{identifier}
func SetupRoutes(handlers *Handlers, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middlewareStack(logger)...)

	r.Get("/health", handlers.HealthCheck)

	r.Route("/api/v1/cycles", func(r chi.Router) {
		r.Get("/", handlers.ListCycles)
		r.Get("/current", handlers.GetCurrentCycle)
		r.Get("/current/env", handlers.GetCurrentCycleEnv)
		r.Get("/date/{date}", handlers.GetCycleByDate)
		r.Get("/id/{identifier}", handlers.GetCycleByIdentifier)
		r.Get("/recorded", handlers.ListRecordedCycles)
		r.Get("/recorded/{identifier}", handlers.GetRecordedCycle)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteNotFound(w, "Route not found")
	})

	return r
}

// middlewareStack lists the middleware outermost first. The request ID is
// assigned before anything that logs.
func middlewareStack(logger *slog.Logger) chi.Middlewares {
	return chi.Middlewares{
		RequestIDMiddleware(),
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		CORSMiddleware(),
	}
}
