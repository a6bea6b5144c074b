package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"sms-bridge/internal/api/middleware"
	"sms-bridge/internal/handlers"
)

// maxBody bounds broadcast payloads; a multi-part SMS is a handful of PDUs.
const maxBody = 64 * 1024

// NewRouter creates and configures the HTTP router. events may be nil, in
// which case /v1/events is not served.
func NewRouter(logger zerolog.Logger, h *handlers.Handler, events http.Handler) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)
	r.Use(middleware.MaxBodySize(maxBody))

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// CORS - host runtimes may be web views
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", h.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/broadcasts", h.ReceiveBroadcast)

		r.Get("/permission", h.CheckPermission)
		r.Post("/permission/request", h.RequestPermission)

		r.Get("/inbox", h.ListInbox)
		r.Get("/inbox/count", h.CountInbox)
		r.Get("/inbox/range", h.ListInboxRange)

		r.Get("/stored", h.GetStored)
		r.Delete("/stored", h.ClearStored)

		r.Post("/realtime/start", h.StartRealtime)
		r.Post("/realtime/stop", h.StopRealtime)

		if events != nil {
			r.Handle("/events", events)
		}
	})

	return r
}
