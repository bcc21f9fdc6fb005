// Package handlers provides HTTP handlers for target allocation management.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles allocation HTTP requests
type Handler struct {
	allocRepo *allocation.Repository
	log       zerolog.Logger
}

// NewHandler creates a new allocation handler
func NewHandler(allocRepo *allocation.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		allocRepo: allocRepo,
		log:       log.With().Str("handler", "allocation").Logger(),
	}
}

// TargetRequest is a single target weight update
type TargetRequest struct {
	TargetWeight float64 `json:"target_weight"`
}

// ReplaceTargetsRequest replaces the whole allocation set
type ReplaceTargetsRequest struct {
	Allocations []domain.Allocation `json:"allocations"`
}

// HandleGetAllocations handles GET /api/allocations
// Returns raw and normalized targets alongside the last observed share.
func (h *Handler) HandleGetAllocations(w http.ResponseWriter, r *http.Request) {
	allocations, err := h.allocRepo.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get allocations")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	normalized := allocation.NormalizeWeights(allocation.TargetWeights(allocations))

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"allocations": allocations,
		"normalized":  normalized,
		"total":       allocation.SumWeights(allocation.TargetWeights(allocations)),
	})
}

// HandleReplaceAllocations handles PUT /api/allocations
func (h *Handler) HandleReplaceAllocations(w http.ResponseWriter, r *http.Request) {
	var req ReplaceTargetsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.allocRepo.ReplaceAll(req.Allocations); err != nil {
		h.writeRepoError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "replaced",
		"count":  len(req.Allocations),
	})
}

// HandleSetTarget handles PUT /api/allocations/{ticker}
func (h *Handler) HandleSetTarget(w http.ResponseWriter, r *http.Request) {
	var req TargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ticker := chi.URLParam(r, "ticker")
	current := 0.0
	existing, err := h.allocRepo.GetByTicker(ticker)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing != nil {
		current = existing.CurrentWeight
	}

	err = h.allocRepo.Upsert(domain.Allocation{Ticker: ticker, TargetWeight: req.TargetWeight, CurrentWeight: current})
	if err != nil {
		h.writeRepoError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// HandleDeleteTarget handles DELETE /api/allocations/{ticker}
func (h *Handler) HandleDeleteTarget(w http.ResponseWriter, r *http.Request) {
	if err := h.allocRepo.Delete(chi.URLParam(r, "ticker")); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) writeRepoError(w http.ResponseWriter, err error) {
	if errors.Is(err, allocation.ErrInvalidAllocation) {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.log.Error().Err(err).Msg("Allocation store error")
	h.writeError(w, http.StatusInternalServerError, err.Error())
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
