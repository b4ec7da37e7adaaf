// Package handlers provides HTTP handlers for strategy evaluation and rebalancing.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/rotation/internal/modules/rotation"
	"github.com/aristath/rotation/internal/services"
)

// RotationService is the part of services.RebalanceService the handlers use
type RotationService interface {
	Params() rotation.Params
	Preview(ctx context.Context) (*rotation.Decision, error)
	Sync(ctx context.Context) (*services.SyncResult, error)
	Rebalance(ctx context.Context, trigger string) (*services.RebalanceResult, error)
}

// Handler handles rotation HTTP requests
type Handler struct {
	service RotationService
	log     zerolog.Logger
}

// NewHandler creates a new rotation handler
func NewHandler(service RotationService, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "rotation").Logger(),
	}
}

// HandleGetConfig handles GET /api/rotation/config
func (h *Handler) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	params := h.service.Params()
	h.writeData(w, http.StatusOK, map[string]interface{}{
		"params":           params,
		"symbols":          params.Symbols(),
		"required_history": params.RequiredHistory(),
	})
}

// HandleGetPreview handles GET /api/rotation/preview
func (h *Handler) HandleGetPreview(w http.ResponseWriter, r *http.Request) {
	decision, err := h.service.Preview(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to preview decision")
		h.writeError(w, http.StatusInternalServerError, "Failed to evaluate stored prices")
		return
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"decision": decision,
		"eligible": decision.Eligible(),
		"summary":  decision.String(),
	})
}

// HandleSync handles POST /api/rotation/sync
func (h *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Sync(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Manual sync failed")
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	h.writeData(w, http.StatusOK, result)
}

// HandleRebalance handles POST /api/rotation/rebalance
func (h *Handler) HandleRebalance(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Rebalance(r.Context(), services.TriggerManual)
	if errors.Is(err, services.ErrWarmingUp) {
		h.writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Manual rebalance failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeData(w, http.StatusOK, result)
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
