package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all action routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/actions", func(r chi.Router) {
		r.Get("/", h.HandleGetActions)
		r.Delete("/", h.HandleClearActions)
	})
}
