package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all routes. allowedOrigins lists the browser
// origins permitted by CORS.
func SetupRoutes(h *Handlers, hc *HealthChecker, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", hc.HandleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/drafts", h.CreateDraft)
		r.Route("/drafts/{id}", func(r chi.Router) {
			r.Get("/", h.GetDraft)
			r.Delete("/", h.DeleteDraft)
			r.Put("/subject", h.SetSubject)
			r.Put("/body", h.SetBody)
			r.Put("/recipients", h.SetRecipients)
			r.Post("/file", h.SelectFile)
			r.Delete("/file", h.ClearFile)
			r.Post("/attachment", h.SelectAttachment)
			r.Delete("/attachment", h.ClearAttachment)
			r.Post("/submit", h.Submit)
		})
		r.Get("/submissions", h.ListSubmissions)
		r.Get("/submissions/{id}", h.GetSubmission)
	})

	return r
}
