// Package api exposes the flight logbook over HTTP: flight CRUD, telemetry
// bundles, multi-format exports, report generation and weather lookups, plus
// the static UI.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avelari/skylog/internal/config"
	"github.com/avelari/skylog/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     *config.Config
	logger     *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(handler *Handler, cfg *config.Config, log *logger.Logger) *Router {
	return &Router{
		handler:    handler,
		middleware: NewMiddleware(log),
		config:     cfg,
		logger:     log.Named("api-router"),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.Server.AllowedOrigins))

	router.Route("/api/v1", func(router chi.Router) {
		// Flight routes
		router.Get("/flights", r.handler.GetAllFlights)
		router.Delete("/flights", r.handler.DeleteAllFlights)
		router.Post("/flights/manual", r.handler.CreateManualEntry)
		router.Post("/flights/import", r.handler.ImportFlight)
		router.Get("/flights/{id}", r.handler.GetFlight)
		router.Delete("/flights/{id}", r.handler.DeleteFlight)
		router.Get("/flights/{id}/data", r.handler.GetFlightData)
		router.Get("/flights/{id}/track", r.handler.GetFlightTrack)
		router.Get("/flights/{id}/export/{format}", r.handler.ExportFlight)
		router.Put("/flights/{id}/name", r.handler.UpdateFlightName)
		router.Put("/flights/{id}/notes", r.handler.UpdateFlightNotes)
		router.Put("/flights/{id}/tags", r.handler.UpdateFlightTags)

		// Report generation
		router.Post("/reports", r.handler.BuildReport)

		// Aggregates
		router.Get("/overview", r.handler.GetOverview)

		// Weather Data
		router.Get("/wx", r.handler.GetWeather)

		// Health check
		router.Get("/health", r.handler.GetHealth)
	})

	// Serve the UI from the configured directory
	staticHandler := NewStaticFileHandler(r.config.Server.StaticDir, r.logger)
	router.Handle("/*", staticHandler)

	return router
}
