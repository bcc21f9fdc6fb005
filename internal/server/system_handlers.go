package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/rebalancer/internal/config"
	"github.com/aristath/rebalancer/internal/database"
	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/trading"
	"github.com/aristath/rebalancer/internal/scheduler"
	"github.com/aristath/rebalancer/internal/services"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// NextRunner reports when a scheduled job fires next
type NextRunner interface {
	NextRun(name string) time.Time
}

// SystemHandlers serves store status and provisioning
type SystemHandlers struct {
	schedule   NextRunner
	db         *database.DB
	setup      *services.SetupService
	assetRepo  *portfolio.AssetRepository
	allocRepo  *allocation.Repository
	actionRepo *trading.ActionRepository
	cfg        *config.Config
	startedAt  time.Time
	log        zerolog.Logger
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(
	db *database.DB,
	setup *services.SetupService,
	assetRepo *portfolio.AssetRepository,
	allocRepo *allocation.Repository,
	actionRepo *trading.ActionRepository,
	cfg *config.Config,
	log zerolog.Logger,
) *SystemHandlers {
	return &SystemHandlers{
		db:         db,
		setup:      setup,
		assetRepo:  assetRepo,
		allocRepo:  allocRepo,
		actionRepo: actionRepo,
		cfg:        cfg,
		startedAt:  time.Now(),
		log:        log.With().Str("handler", "system").Logger(),
	}
}

// SetScheduler enables next_rebalance_at in the status response
func (h *SystemHandlers) SetScheduler(s NextRunner) {
	h.schedule = s
}

// SystemStatusResponse represents system status
type SystemStatusResponse struct {
	Status             string  `json:"status"`
	ReferenceCurrency  string  `json:"reference_currency"`
	MinTradePercentage float64 `json:"min_trade_percentage"`
	Schedule           string  `json:"schedule,omitempty"`
	AssetCount         int     `json:"asset_count"`
	AllocationCount    int     `json:"allocation_count"`
	ActionCount        int     `json:"action_count"`
	LastRunID          string  `json:"last_run_id,omitempty"`
	LastRunAt          string  `json:"last_run_at,omitempty"`
	NextRebalanceAt    string  `json:"next_rebalance_at,omitempty"`
	CPUPercent         float64 `json:"cpu_percent"`
	MemoryPercent      float64 `json:"memory_percent"`
	DiskFreeMB         float64 `json:"disk_free_mb"`
	Uptime             string  `json:"uptime"`
}

// HandleSystemStatus returns store counts, the last run and host usage
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	assets, err := h.assetRepo.GetAll()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	allocations, err := h.allocRepo.GetAll()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	actions, err := h.actionRepo.GetAll()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response := SystemStatusResponse{
		Status:             "healthy",
		ReferenceCurrency:  h.cfg.ReferenceCurrency,
		MinTradePercentage: h.cfg.MinTradePercentage,
		Schedule:           h.cfg.Schedule,
		AssetCount:         len(assets),
		AllocationCount:    len(allocations),
		ActionCount:        len(actions),
		Uptime:             time.Since(h.startedAt).Round(time.Second).String(),
	}
	if len(actions) > 0 {
		response.LastRunID = actions[0].RunID
		response.LastRunAt = actions[0].CreatedAt.Format(time.RFC3339)
	}

	if h.schedule != nil {
		if next := h.schedule.NextRun(scheduler.RebalanceJobName); !next.IsZero() {
			response.NextRebalanceAt = next.Format(time.RFC3339)
		}
	}

	response.CPUPercent, response.MemoryPercent = h.getSystemStats()
	response.DiskFreeMB = h.getDiskFree()

	h.writeJSON(w, http.StatusOK, response)
}

// HandleDatabaseStats returns the size of the store
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.GetStats()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get database stats")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":         h.db.Name(),
		"path":         h.db.Path(),
		"stats":        stats,
		"last_checked": time.Now().Format(time.RFC3339),
	})
}

// HandleInitialize provisions the schema and the cash assets
func (h *SystemHandlers) HandleInitialize(w http.ResponseWriter, r *http.Request) {
	if err := h.setup.Initialize(); err != nil {
		h.log.Error().Err(err).Msg("Failed to initialize store")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "initialized",
		"cash":   h.setup.CashCurrencies(),
	})
}

// getSystemStats returns CPU and RAM usage percentages.
// CPU is sampled over 100ms to keep the endpoint fast.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// getDiskFree returns the free space of the data directory's volume in MB
func (h *SystemHandlers) getDiskFree() float64 {
	usage, err := disk.Usage(h.cfg.DataDir)
	if err != nil {
		h.log.Warn().Err(err).Str("dir", h.cfg.DataDir).Msg("Failed to get disk usage")
		return 0
	}
	return float64(usage.Free) / 1024 / 1024
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *SystemHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
