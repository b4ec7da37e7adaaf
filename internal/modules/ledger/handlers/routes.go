package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the ledger routes on a /rotation router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/latest", h.HandleGetLatest)
	r.Get("/history", h.HandleGetHistory)
	r.Get("/positions", h.HandleGetPositions)

	r.Route("/decisions/{id}", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetDecision(w, r, chi.URLParam(r, "id"))
		})
		r.Get("/snapshot", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetSnapshot(w, r, chi.URLParam(r, "id"))
		})
	})
}
