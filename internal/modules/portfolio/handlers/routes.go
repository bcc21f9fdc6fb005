package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all asset routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/assets", func(r chi.Router) {
		r.Get("/", h.HandleGetAssets)
		r.Post("/", h.HandleCreateAsset)
		r.Get("/{ticker}", h.HandleGetAsset)
		r.Put("/{ticker}", h.HandleUpdateAsset)
		r.Delete("/{ticker}", h.HandleDeleteAsset)
	})
}
