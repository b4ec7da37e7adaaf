// Package handlers provides HTTP handlers for the decision ledger.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/rotation/internal/modules/ledger"
)

const (
	defaultHistoryLimit = 12
	maxHistoryLimit     = 500
)

// Handler handles ledger HTTP requests
type Handler struct {
	repo *ledger.Repository
	log  zerolog.Logger
}

// NewHandler creates a new ledger handler
func NewHandler(
	repo *ledger.Repository,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "ledger").Logger(),
	}
}

// HandleGetLatest handles GET /api/rotation/latest
func (h *Handler) HandleGetLatest(w http.ResponseWriter, r *http.Request) {
	rec, err := h.repo.Latest(r.Context())
	if errors.Is(err, ledger.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "No decisions recorded yet")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get latest decision")
		h.writeError(w, http.StatusInternalServerError, "Failed to get latest decision")
		return
	}

	h.writeData(w, http.StatusOK, rec)
}

// HandleGetHistory handles GET /api/rotation/history
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsedLimit, err := strconv.Atoi(limitStr)
		if err != nil || parsedLimit <= 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsedLimit, maxHistoryLimit)
	}

	records, err := h.repo.List(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list decisions")
		h.writeError(w, http.StatusInternalServerError, "Failed to list decisions")
		return
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"decisions": records,
		"count":     len(records),
	})
}

// HandleGetDecision handles GET /api/rotation/decisions/{id}
func (h *Handler) HandleGetDecision(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := h.repo.GetByID(r.Context(), id)
	if errors.Is(err, ledger.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "Decision not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to get decision")
		h.writeError(w, http.StatusInternalServerError, "Failed to get decision")
		return
	}

	h.writeData(w, http.StatusOK, rec)
}

// HandleGetSnapshot handles GET /api/rotation/decisions/{id}/snapshot
func (h *Handler) HandleGetSnapshot(w http.ResponseWriter, r *http.Request, id string) {
	panel, err := h.repo.Snapshot(r.Context(), id)
	if errors.Is(err, ledger.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "Decision not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to get snapshot")
		h.writeError(w, http.StatusInternalServerError, "Failed to get snapshot")
		return
	}

	sessions := make(map[string]int, len(panel))
	for symbol := range panel {
		sessions[symbol] = panel.Len(symbol)
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"id":       id,
		"as_of":    panel.AsOf(),
		"sessions": sessions,
		"panel":    panel,
	})
}

// HandleGetPositions handles GET /api/rotation/positions
func (h *Handler) HandleGetPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.repo.GetPositions(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get positions")
		h.writeError(w, http.StatusInternalServerError, "Failed to get positions")
		return
	}

	total := 0.0
	for _, p := range positions {
		total += p.Weight
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"positions":    positions,
		"count":        len(positions),
		"total_weight": total,
	})
}

// writeData writes a successful response in the data/metadata envelope
func (h *Handler) writeData(w http.ResponseWriter, status int, data interface{}) {
	h.writeJSON(w, status, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
