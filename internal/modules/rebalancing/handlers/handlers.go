// Package handlers provides HTTP handlers for rebalancing operations.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/rebalancing"
	"github.com/rs/zerolog"
)

// Runner is the part of rebalancing.Service the handlers use
type Runner interface {
	Run(ctx context.Context) (*rebalancing.RunResult, error)
	Preview(ctx context.Context) (*rebalancing.Result, error)
}

// Handler handles rebalancing HTTP requests
type Handler struct {
	service           Runner
	referenceCurrency string
	log               zerolog.Logger
}

// NewHandler creates a new rebalancing handler
func NewHandler(
	service Runner,
	referenceCurrency string,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		service:           service,
		referenceCurrency: referenceCurrency,
		log:               log.With().Str("handler", "rebalancing").Logger(),
	}
}

// HandleRun handles POST /api/rebalance
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Run(r.Context())
	if err != nil {
		h.writeRunError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"run_id":               result.RunID,
			"actions":              result.Actions,
			"count":                len(result.Actions),
			"total_value":          result.TotalValue,
			"observed_percentages": result.ObservedPercentages,
			"added_tickers":        result.AddedTickers,
		},
		"metadata": map[string]interface{}{
			"timestamp":          result.StartedAt.Format(time.RFC3339),
			"reference_currency": h.referenceCurrency,
		},
	})
}

// HandlePreview handles GET /api/rebalance/preview
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Preview(r.Context())
	if err != nil {
		h.writeRunError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"actions":              result.Actions,
			"count":                len(result.Actions),
			"total_value":          result.TotalValue,
			"observed_percentages": result.ObservedPercentages,
			"allocations":          result.Allocations,
		},
		"metadata": map[string]interface{}{
			"timestamp":          time.Now().Format(time.RFC3339),
			"reference_currency": h.referenceCurrency,
			"note":               "Dry-run calculation - nothing persisted",
		},
	})
}

func (h *Handler) writeRunError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if domain.IsOracleError(err) {
		status = http.StatusBadGateway
	}
	h.log.Error().Err(err).Int("status", status).Msg("Rebalance failed")
	h.writeError(w, status, err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
