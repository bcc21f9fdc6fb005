// Package trading provides the store for suggested rebalancing actions.
package trading

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/rebalancer/internal/database"
	"github.com/aristath/rebalancer/internal/domain"
	"github.com/rs/zerolog"
)

// actionColumns is the list of columns scanned by scanAction
const actionColumns = `run_id, seq, ticker, action, currency, quantity, current_value, target_value, current_price, difference, created_at`

// StoredAction is an action as persisted, with the run that produced it
type StoredAction struct {
	domain.Action
	RunID     string    `json:"run_id"`
	Seq       int       `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
}

// ActionRepository handles action database operations.
// The table only ever holds the actions of the latest run.
type ActionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewActionRepository creates a new action repository
func NewActionRepository(db *sql.DB, log zerolog.Logger) *ActionRepository {
	return &ActionRepository{
		db:  db,
		log: log.With().Str("repo", "action").Logger(),
	}
}

// GetAll returns the stored actions in execution order
func (r *ActionRepository) GetAll() ([]StoredAction, error) {
	rows, err := r.db.Query("SELECT " + actionColumns + " FROM actions ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to query actions: %w", err)
	}
	defer rows.Close()

	actions := make([]StoredAction, 0)
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating actions: %w", err)
	}

	return actions, nil
}

// ReplaceAll discards the previous action list and stores actions in one transaction
func (r *ActionRepository) ReplaceAll(runID string, actions []domain.Action) error {
	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		return r.ReplaceAllTx(tx, runID, actions)
	})
}

// ReplaceAllTx discards the previous action list and stores actions using the caller's transaction.
// Sequence numbers follow the order of actions.
func (r *ActionRepository) ReplaceAllTx(tx database.Execer, runID string, actions []domain.Action) error {
	if _, err := tx.Exec("DELETE FROM actions"); err != nil {
		return fmt.Errorf("failed to clear actions: %w", err)
	}

	query := `
		INSERT INTO actions
		(run_id, seq, ticker, action, currency, quantity, current_value, target_value, current_price, difference, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().Unix()
	for i, a := range actions {
		if !a.Direction.Valid() {
			return fmt.Errorf("invalid direction %q for %s", a.Direction, a.Ticker)
		}

		_, err := tx.Exec(query,
			runID,
			i,
			a.Ticker,
			string(a.Direction),
			a.Currency,
			a.Quantity,
			a.CurrentValue,
			a.TargetValue,
			a.CurrentPrice,
			a.Difference,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert action for %s: %w", a.Ticker, err)
		}
	}

	r.log.Debug().Str("run_id", runID).Int("count", len(actions)).Msg("Actions replaced")
	return nil
}

// DeleteAll removes every stored action
func (r *ActionRepository) DeleteAll() error {
	result, err := r.db.Exec("DELETE FROM actions")
	if err != nil {
		return fmt.Errorf("failed to delete all actions: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.log.Warn().Int64("rows_affected", rowsAffected).Msg("All actions deleted")
	return nil
}

func scanAction(rows *sql.Rows) (StoredAction, error) {
	var a StoredAction
	var direction string
	var createdAt int64

	err := rows.Scan(
		&a.RunID,
		&a.Seq,
		&a.Ticker,
		&direction,
		&a.Currency,
		&a.Quantity,
		&a.CurrentValue,
		&a.TargetValue,
		&a.CurrentPrice,
		&a.Difference,
		&createdAt,
	)
	if err != nil {
		return a, fmt.Errorf("failed to scan action: %w", err)
	}

	a.Direction = domain.Direction(direction)
	a.CreatedAt = time.Unix(createdAt, 0).UTC()
	return a, nil
}

// Actions strips the persistence metadata
func Actions(stored []StoredAction) []domain.Action {
	actions := make([]domain.Action, len(stored))
	for i, s := range stored {
		actions[i] = s.Action
	}
	return actions
}
