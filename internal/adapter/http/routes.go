package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)
	if h.Hub != nil {
		r.Get("/ws", h.Hub.HandleWS)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		r.Post("/orchestrate", h.Orchestrate)
		r.Post("/feedback", h.Feedback)

		r.Get("/agents", h.Agents)
		r.Get("/breakers", h.Breakers)
		r.Get("/caches", h.Caches)
		r.Get("/metrics", h.Metrics)
		r.Get("/performance", h.Performance)
		r.Get("/responses/{id}/transparency", h.Transparency)
	})
}
