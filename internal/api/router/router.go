package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clinicvoice/juvonno-mcp/internal/http/handlers"
	httpmiddleware "github.com/clinicvoice/juvonno-mcp/internal/http/middleware"
	"github.com/clinicvoice/juvonno-mcp/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	ToolsHandler       *handlers.ToolsHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// RateLimitRPS/RateLimitBurst guard the tool endpoints per caller IP.
	// Zero RPS disables limiting.
	RateLimitRPS   int
	RateLimitBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/", cfg.ToolsHandler.Health)
	r.Get("/health", cfg.ToolsHandler.Health)

	// Tool discovery and invocation
	r.Get("/tools", cfg.ToolsHandler.ListTools)

	r.Group(func(invoke chi.Router) {
		if cfg.RateLimitRPS > 0 {
			invoke.Use(httpmiddleware.RateLimit(float64(cfg.RateLimitRPS), cfg.RateLimitBurst))
		}

		invoke.Post("/call-tool", cfg.ToolsHandler.CallTool)

		// Direct endpoints for platforms without generic tool-call support
		invoke.Post("/get-locations", cfg.ToolsHandler.GetLocations)
		invoke.Post("/get-providers", cfg.ToolsHandler.GetProviders)
		invoke.Post("/get-slots", cfg.ToolsHandler.GetSlots)
		invoke.Post("/book-appointment", cfg.ToolsHandler.BookAppointment)
		invoke.Post("/get-appointment-types", cfg.ToolsHandler.GetAppointmentTypes)

		invoke.Get("/appointments/{appointmentID}", cfg.ToolsHandler.GetAppointment)
	})

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
