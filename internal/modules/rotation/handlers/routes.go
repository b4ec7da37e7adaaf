package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers the rotation routes on a /rotation router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/config", h.HandleGetConfig)
	r.Get("/preview", h.HandleGetPreview)
	r.Post("/sync", h.HandleSync)
	r.Post("/rebalance", h.HandleRebalance)
}
