// Package portfolio provides the held asset store.
package portfolio

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/rebalancer/internal/database"
	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/utils"
	"github.com/rs/zerolog"
)

// CashAssetName is the name given to cash rows created by AddCurrencyAsset
const CashAssetName = "CASH"

// ErrInvalidAsset is wrapped by every validation failure
var ErrInvalidAsset = errors.New("invalid asset")

// AssetRepository handles asset database operations
// Database: rebalancer.db (assets table)
type AssetRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewAssetRepository creates a new asset repository
func NewAssetRepository(db *sql.DB, log zerolog.Logger) *AssetRepository {
	return &AssetRepository{
		db:  db,
		log: log.With().Str("repo", "asset").Logger(),
	}
}

// GetAll returns all assets in insertion order
func (r *AssetRepository) GetAll() ([]domain.Asset, error) {
	query := "SELECT name, ticker, quantity, currency, notes FROM assets ORDER BY rowid"

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	assets := make([]domain.Asset, 0)
	for rows.Next() {
		var a domain.Asset
		if err := rows.Scan(&a.Name, &a.Ticker, &a.Quantity, &a.Currency, &a.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assets: %w", err)
	}

	return assets, nil
}

// GetByTicker returns the asset for ticker, or nil when there is none
func (r *AssetRepository) GetByTicker(ticker string) (*domain.Asset, error) {
	query := "SELECT name, ticker, quantity, currency, notes FROM assets WHERE ticker = ?"

	var a domain.Asset
	err := r.db.QueryRow(query, utils.NormalizeCode(ticker)).Scan(&a.Name, &a.Ticker, &a.Quantity, &a.Currency, &a.Notes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset %s: %w", ticker, err)
	}

	return &a, nil
}

// Add appends a new asset. It fails if the ticker already exists.
func (r *AssetRepository) Add(asset domain.Asset) error {
	asset, err := validateAsset(asset)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	query := `
		INSERT INTO assets (ticker, name, quantity, currency, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.Exec(query, asset.Ticker, asset.Name, asset.Quantity, asset.Currency, asset.Notes, now, now); err != nil {
		return fmt.Errorf("failed to add asset %s: %w", asset.Ticker, err)
	}

	r.log.Info().Str("ticker", asset.Ticker).Float64("quantity", asset.Quantity).Msg("Asset added")
	return nil
}

// Upsert inserts or updates an asset
func (r *AssetRepository) Upsert(asset domain.Asset) error {
	asset, err := validateAsset(asset)
	if err != nil {
		return err
	}

	if err := upsertAsset(r.db, asset, time.Now().Unix()); err != nil {
		return err
	}

	r.log.Info().Str("ticker", asset.Ticker).Float64("quantity", asset.Quantity).Msg("Asset upserted")
	return nil
}

// UpdateAll upserts every asset in one transaction
func (r *AssetRepository) UpdateAll(assets []domain.Asset) error {
	validated := make([]domain.Asset, len(assets))
	for i, a := range assets {
		v, err := validateAsset(a)
		if err != nil {
			return err
		}
		validated[i] = v
	}

	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		now := time.Now().Unix()
		for _, a := range validated {
			if err := upsertAsset(tx, a, now); err != nil {
				return err
			}
		}
		return nil
	})
}

// AddCurrencyAsset adds a zero-quantity cash row for currency.
// It is a no-op when a row with that ticker already exists.
func (r *AssetRepository) AddCurrencyAsset(currency string) error {
	currency = utils.NormalizeCode(currency)
	if !domain.IsCashCurrency(currency) {
		return fmt.Errorf("%w: %s is not a cash currency", ErrInvalidAsset, currency)
	}

	now := time.Now().Unix()
	query := `
		INSERT INTO assets (ticker, name, quantity, currency, notes, created_at, updated_at)
		VALUES (?, ?, 0, ?, '', ?, ?)
		ON CONFLICT(ticker) DO NOTHING
	`
	result, err := r.db.Exec(query, currency, CashAssetName, currency, now, now)
	if err != nil {
		return fmt.Errorf("failed to add currency asset %s: %w", currency, err)
	}

	if n, _ := result.RowsAffected(); n > 0 {
		r.log.Info().Str("currency", currency).Msg("Currency asset added")
	}
	return nil
}

// SeedSampleAssets inserts the sample holdings used to try the tool out
func (r *AssetRepository) SeedSampleAssets() error {
	samples := []domain.Asset{
		{Name: "Apple", Ticker: "AAPL", Quantity: 10, Currency: "USD", Notes: "Sample Notes"},
		{Name: "Microsoft", Ticker: "MSFT", Quantity: 5, Currency: "USD", Notes: "Sample Notes"},
		{Name: "Tesla", Ticker: "TSLA", Quantity: 3, Currency: "USD", Notes: "Sample Notes"},
		{Name: "NVIDIA", Ticker: "NVDA", Quantity: 2, Currency: "USD", Notes: "Sample Notes"},
	}

	if err := r.UpdateAll(samples); err != nil {
		return fmt.Errorf("failed to seed sample assets: %w", err)
	}

	r.log.Info().Int("count", len(samples)).Msg("Sample assets seeded")
	return nil
}

// Delete removes the asset for ticker
func (r *AssetRepository) Delete(ticker string) error {
	ticker = utils.NormalizeCode(ticker)

	result, err := r.db.Exec("DELETE FROM assets WHERE ticker = ?", ticker)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.log.Info().Str("ticker", ticker).Int64("rows_affected", rowsAffected).Msg("Asset deleted")
	return nil
}

// DeleteAll removes every asset
func (r *AssetRepository) DeleteAll() error {
	result, err := r.db.Exec("DELETE FROM assets")
	if err != nil {
		return fmt.Errorf("failed to delete all assets: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.log.Warn().Int64("rows_affected", rowsAffected).Msg("All assets deleted")
	return nil
}

func upsertAsset(exec database.Execer, a domain.Asset, now int64) error {
	query := `
		INSERT INTO assets (ticker, name, quantity, currency, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticker) DO UPDATE SET
			name = excluded.name,
			quantity = excluded.quantity,
			currency = excluded.currency,
			notes = excluded.notes,
			updated_at = excluded.updated_at
	`

	if _, err := exec.Exec(query, a.Ticker, a.Name, a.Quantity, a.Currency, a.Notes, now, now); err != nil {
		return fmt.Errorf("failed to upsert asset %s: %w", a.Ticker, err)
	}
	return nil
}

func validateAsset(a domain.Asset) (domain.Asset, error) {
	a.Ticker = utils.NormalizeCode(a.Ticker)
	a.Currency = utils.NormalizeCode(a.Currency)
	a.Name = strings.TrimSpace(a.Name)

	if a.Ticker == "" {
		return a, fmt.Errorf("%w: ticker is required", ErrInvalidAsset)
	}
	if a.Quantity < 0 {
		return a, fmt.Errorf("%w: quantity for %s must not be negative", ErrInvalidAsset, a.Ticker)
	}
	if a.Currency == "" {
		if !domain.IsCashCurrency(a.Ticker) {
			return a, fmt.Errorf("%w: currency is required for %s", ErrInvalidAsset, a.Ticker)
		}
		a.Currency = a.Ticker
	}
	return a, nil
}

