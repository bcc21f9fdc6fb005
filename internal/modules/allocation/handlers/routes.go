package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all allocation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/allocations", func(r chi.Router) {
		r.Get("/", h.HandleGetAllocations)
		r.Put("/", h.HandleReplaceAllocations)
		r.Put("/{ticker}", h.HandleSetTarget)
		r.Delete("/{ticker}", h.HandleDeleteTarget)
	})
}
