// Package handlers provides HTTP handlers for the stored action list.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/aristath/rebalancer/internal/modules/trading"
	"github.com/rs/zerolog"
)

// Handler handles action HTTP requests
type Handler struct {
	actionRepo *trading.ActionRepository
	log        zerolog.Logger
}

// NewHandler creates a new action handler
func NewHandler(actionRepo *trading.ActionRepository, log zerolog.Logger) *Handler {
	return &Handler{
		actionRepo: actionRepo,
		log:        log.With().Str("handler", "actions").Logger(),
	}
}

// HandleGetActions handles GET /api/actions
// Returns the actions of the latest run, sells first.
func (h *Handler) HandleGetActions(w http.ResponseWriter, r *http.Request) {
	actions, err := h.actionRepo.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get actions")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	runID := ""
	if len(actions) > 0 {
		runID = actions[0].RunID
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":  runID,
		"actions": actions,
		"count":   len(actions),
	})
}

// HandleClearActions handles DELETE /api/actions
func (h *Handler) HandleClearActions(w http.ResponseWriter, r *http.Request) {
	if err := h.actionRepo.DeleteAll(); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
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
