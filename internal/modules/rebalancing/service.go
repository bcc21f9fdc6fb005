// Package rebalancing provides portfolio rebalancing functionality.
package rebalancing

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/aristath/rebalancer/internal/database"
	"github.com/aristath/rebalancer/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AssetReader is the read side of the asset store
type AssetReader interface {
	GetAll() ([]domain.Asset, error)
}

// AllocationStore is the allocation store as used by a run
type AllocationStore interface {
	GetAll() ([]domain.Allocation, error)
	UpdateAllTx(tx database.Execer, allocations []domain.Allocation) error
}

// ActionWriter replaces the stored action list
type ActionWriter interface {
	ReplaceAllTx(tx database.Execer, runID string, actions []domain.Action) error
}

// RunRecorder receives run and notifier outcomes (implemented by metrics.Registry)
type RunRecorder interface {
	RecordRun(duration time.Duration, actions []domain.Action, totalValue float64, err error)
	RecordNotification(notifier string, err error)
}

// RunResult is what a completed run returns to its caller
type RunResult struct {
	*Result
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
}

// Report builds the notifier payload for this run
func (r *RunResult) Report(referenceCurrency string) domain.RunReport {
	return domain.RunReport{
		RunID:               r.RunID,
		StartedAt:           r.StartedAt,
		ReferenceCurrency:   referenceCurrency,
		TotalValue:          r.TotalValue,
		Actions:             r.Actions,
		ObservedPercentages: r.ObservedPercentages,
	}
}

// Service orchestrates rebalance runs: load the snapshot, decide, persist, notify.
// Runs are serialized; the store is never written by two runs at once.
type Service struct {
	engine     *Engine
	db         *sql.DB
	assetRepo  AssetReader
	allocRepo  AllocationStore
	actionRepo ActionWriter
	notifiers  []domain.Notifier
	recorder   RunRecorder
	mu         sync.Mutex
	log        zerolog.Logger
	now        func() time.Time
	newRunID   func() string
}

// NewService creates a new rebalancing service
func NewService(
	engine *Engine,
	db *sql.DB,
	assetRepo AssetReader,
	allocRepo AllocationStore,
	actionRepo ActionWriter,
	log zerolog.Logger,
) *Service {
	return &Service{
		engine:     engine,
		db:         db,
		assetRepo:  assetRepo,
		allocRepo:  allocRepo,
		actionRepo: actionRepo,
		log:        log.With().Str("service", "rebalancing").Logger(),
		now:        time.Now,
		newRunID:   func() string { return uuid.New().String() },
	}
}

// AddNotifier registers a consumer of completed runs
func (s *Service) AddNotifier(n domain.Notifier) {
	s.notifiers = append(s.notifiers, n)
}

// SetRecorder sets the metrics recorder
func (s *Service) SetRecorder(r RunRecorder) {
	s.recorder = r
}

// Engine returns the decision engine used by the service
func (s *Service) Engine() *Engine {
	return s.engine
}

// Run performs a full rebalance. Nothing is written unless the whole computation succeeds;
// allocations and actions are then written in a single transaction.
// Notifiers run after the run lock is released, so a slow notifier never blocks the next run or a preview.
func (s *Service) Run(ctx context.Context) (*RunResult, error) {
	runResult, log, err := s.runLocked(ctx)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, runResult.Report(s.engine.ReferenceCurrency()), log)

	return runResult, nil
}

func (s *Service) runLocked(ctx context.Context) (*RunResult, zerolog.Logger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	startedAt := s.now()
	runID := s.newRunID()
	log := s.log.With().Str("run_id", runID).Logger()

	log.Info().Msg("Starting rebalance run")

	result, err := s.run(ctx, runID)
	duration := time.Since(startedAt)

	if s.recorder != nil {
		var actions []domain.Action
		var total float64
		if result != nil {
			actions = result.Actions
			total = result.TotalValue
		}
		s.recorder.RecordRun(duration, actions, total, err)
	}

	if err != nil {
		log.Error().Err(err).Dur("duration", duration).Msg("Rebalance run failed")
		return nil, log, err
	}

	log.Info().
		Int("actions", len(result.Actions)).
		Float64("total_value", result.TotalValue).
		Str("currency", s.engine.ReferenceCurrency()).
		Dur("duration", duration).
		Msg("Rebalance run completed")

	for _, a := range result.Actions {
		log.Debug().
			Str("ticker", a.Ticker).
			Str("action", string(a.Direction)).
			Float64("quantity", a.Quantity).
			Msg("Action")
	}

	return &RunResult{Result: result, RunID: runID, StartedAt: startedAt}, log, nil
}

// Preview computes a rebalance from the current store without writing anything
func (s *Service) Preview(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	assets, allocations, err := s.load()
	if err != nil {
		return nil, err
	}
	return s.engine.Rebalance(ctx, assets, allocations)
}

func (s *Service) load() ([]domain.Asset, []domain.Allocation, error) {
	assets, err := s.assetRepo.GetAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load assets: %w", err)
	}

	allocations, err := s.allocRepo.GetAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load allocations: %w", err)
	}

	return assets, allocations, nil
}

func (s *Service) run(ctx context.Context, runID string) (*Result, error) {
	assets, allocations, err := s.load()
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Rebalance(ctx, assets, allocations)
	if err != nil {
		return nil, err
	}

	err = database.WithTransaction(s.db, func(tx *sql.Tx) error {
		if err := s.allocRepo.UpdateAllTx(tx, result.Allocations); err != nil {
			return err
		}
		return s.actionRepo.ReplaceAllTx(tx, runID, result.Actions)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist rebalance results: %w", err)
	}

	return result, nil
}

func (s *Service) notify(ctx context.Context, report domain.RunReport, log zerolog.Logger) {
	for _, n := range s.notifiers {
		err := n.Notify(ctx, report)
		if s.recorder != nil {
			s.recorder.RecordNotification(n.Name(), err)
		}
		if err != nil {
			log.Warn().Err(err).Str("notifier", n.Name()).Msg("Notifier failed")
		}
	}
}
