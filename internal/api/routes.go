package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers, health *HealthChecker, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if health != nil {
		r.Get("/health", health.HandleHealth)
		r.Get("/health/ready", health.HandleReadiness)
	}
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/imports", func(r chi.Router) {
		r.Post("/", h.HandleUpload)
		r.Post("/file", h.HandleUploadFile)
		r.Post("/validate", h.HandleValidate)
		r.Post("/import", h.HandleImport)
		r.Post("/progress", h.HandleProgress)
		r.Get("/field-mapping", h.HandleFieldMapping)

		r.Get("/{sessionId}", h.HandleGetSession)
		r.Get("/{sessionId}/progress", h.HandleProgress)
		r.Post("/{sessionId}/cancel", h.HandleCancel)
	})

	return r
}
