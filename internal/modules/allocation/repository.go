package allocation

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aristath/rebalancer/internal/database"
	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/utils"
	"github.com/rs/zerolog"
)

// ErrInvalidAllocation is wrapped by every validation failure
var ErrInvalidAllocation = errors.New("invalid allocation")

// Repository handles allocation target database operations
// Database: rebalancer.db (allocations table)
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new allocation repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "allocation").Logger(),
	}
}

// GetAll returns all allocations in insertion order
func (r *Repository) GetAll() ([]domain.Allocation, error) {
	query := "SELECT ticker, target_pct, current_pct FROM allocations ORDER BY rowid"

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocations: %w", err)
	}
	defer rows.Close()

	allocations := make([]domain.Allocation, 0)
	for rows.Next() {
		var a domain.Allocation
		if err := rows.Scan(&a.Ticker, &a.TargetWeight, &a.CurrentWeight); err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		allocations = append(allocations, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allocations: %w", err)
	}

	return allocations, nil
}

// GetByTicker returns the allocation for ticker, or nil when there is none
func (r *Repository) GetByTicker(ticker string) (*domain.Allocation, error) {
	query := "SELECT ticker, target_pct, current_pct FROM allocations WHERE ticker = ?"

	var a domain.Allocation
	err := r.db.QueryRow(query, utils.NormalizeCode(ticker)).Scan(&a.Ticker, &a.TargetWeight, &a.CurrentWeight)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get allocation %s: %w", ticker, err)
	}

	return &a, nil
}

// Upsert inserts or updates a single allocation
func (r *Repository) Upsert(a domain.Allocation) error {
	if err := upsert(r.db, a, time.Now().Unix()); err != nil {
		return err
	}

	r.log.Info().
		Str("ticker", a.Ticker).
		Float64("target_pct", a.TargetWeight).
		Msg("Allocation upserted")

	return nil
}

// UpdateAll upserts every allocation in one transaction
func (r *Repository) UpdateAll(allocations []domain.Allocation) error {
	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		return r.UpdateAllTx(tx, allocations)
	})
}

// UpdateAllTx upserts every allocation using the caller's transaction
func (r *Repository) UpdateAllTx(tx database.Execer, allocations []domain.Allocation) error {
	now := time.Now().Unix()
	for _, a := range allocations {
		if err := upsert(tx, a, now); err != nil {
			return err
		}
	}

	r.log.Debug().Int("count", len(allocations)).Msg("Allocations updated")
	return nil
}

// ReplaceAll deletes every allocation and inserts the given list in one transaction
func (r *Repository) ReplaceAll(allocations []domain.Allocation) error {
	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM allocations"); err != nil {
			return fmt.Errorf("failed to clear allocations: %w", err)
		}
		return r.UpdateAllTx(tx, allocations)
	})
}

// Delete removes the allocation for ticker
func (r *Repository) Delete(ticker string) error {
	ticker = utils.NormalizeCode(ticker)
	result, err := r.db.Exec("DELETE FROM allocations WHERE ticker = ?", ticker)
	if err != nil {
		return fmt.Errorf("failed to delete allocation: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.log.Info().
		Str("ticker", ticker).
		Int64("rows_affected", rowsAffected).
		Msg("Allocation deleted")

	return nil
}

// DeleteAll removes every allocation
func (r *Repository) DeleteAll() error {
	if _, err := r.db.Exec("DELETE FROM allocations"); err != nil {
		return fmt.Errorf("failed to delete allocations: %w", err)
	}
	r.log.Warn().Msg("All allocations deleted")
	return nil
}

func upsert(exec database.Execer, a domain.Allocation, now int64) error {
	a.Ticker = utils.NormalizeCode(a.Ticker)
	if a.Ticker == "" {
		return fmt.Errorf("%w: ticker is required", ErrInvalidAllocation)
	}
	if a.TargetWeight < 0 || math.IsNaN(a.TargetWeight) || math.IsInf(a.TargetWeight, 0) {
		return fmt.Errorf("%w: target weight for %s must be a non-negative number", ErrInvalidAllocation, a.Ticker)
	}

	query := `
		INSERT INTO allocations (ticker, target_pct, current_pct, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(ticker) DO UPDATE SET
			target_pct = excluded.target_pct,
			current_pct = excluded.current_pct,
			updated_at = excluded.updated_at
	`

	if _, err := exec.Exec(query, a.Ticker, a.TargetWeight, a.CurrentWeight, now, now); err != nil {
		return fmt.Errorf("failed to upsert allocation %s: %w", a.Ticker, err)
	}
	return nil
}
