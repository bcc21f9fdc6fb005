// Package handlers provides HTTP handlers for the asset store.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles asset HTTP requests
type Handler struct {
	assetRepo *portfolio.AssetRepository
	log       zerolog.Logger
}

// NewHandler creates a new asset handler
func NewHandler(assetRepo *portfolio.AssetRepository, log zerolog.Logger) *Handler {
	return &Handler{
		assetRepo: assetRepo,
		log:       log.With().Str("handler", "assets").Logger(),
	}
}

// HandleGetAssets handles GET /api/assets
func (h *Handler) HandleGetAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.assetRepo.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get assets")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, assets)
}

// HandleGetAsset handles GET /api/assets/{ticker}
func (h *Handler) HandleGetAsset(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	asset, err := h.assetRepo.GetByTicker(ticker)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if asset == nil {
		h.writeError(w, http.StatusNotFound, "asset not found")
		return
	}

	h.writeJSON(w, http.StatusOK, asset)
}

// HandleCreateAsset handles POST /api/assets
func (h *Handler) HandleCreateAsset(w http.ResponseWriter, r *http.Request) {
	var asset domain.Asset
	if err := json.NewDecoder(r.Body).Decode(&asset); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	existing, err := h.assetRepo.GetByTicker(asset.Ticker)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing != nil {
		h.writeError(w, http.StatusConflict, "asset already exists")
		return
	}

	if err := h.assetRepo.Add(asset); err != nil {
		h.writeRepoError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]string{
		"status": "created",
		"ticker": utils.NormalizeCode(asset.Ticker),
	})
}

// HandleUpdateAsset handles PUT /api/assets/{ticker}
func (h *Handler) HandleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	var asset domain.Asset
	if err := json.NewDecoder(r.Body).Decode(&asset); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	asset.Ticker = chi.URLParam(r, "ticker")

	if err := h.assetRepo.Upsert(asset); err != nil {
		h.writeRepoError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// HandleDeleteAsset handles DELETE /api/assets/{ticker}
func (h *Handler) HandleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	if err := h.assetRepo.Delete(chi.URLParam(r, "ticker")); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) writeRepoError(w http.ResponseWriter, err error) {
	if errors.Is(err, portfolio.ErrInvalidAsset) {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.log.Error().Err(err).Msg("Asset store error")
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
