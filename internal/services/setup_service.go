package services

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Migrator applies the store schema
type Migrator interface {
	Migrate() error
}

// CashAssetStore provisions and seeds the asset table
type CashAssetStore interface {
	AddCurrencyAsset(currency string) error
	SeedSampleAssets() error
	DeleteAll() error
}

// Truncater empties a table
type Truncater interface {
	DeleteAll() error
}

// baseCashCurrency always gets a cash row next to the reference currency
const baseCashCurrency = "USD"

// SetupService provisions the store and runs the destructive maintenance operations
type SetupService struct {
	db                Migrator
	assets            CashAssetStore
	allocations       Truncater
	actions           Truncater
	referenceCurrency string
	log               zerolog.Logger
}

// NewSetupService creates a new setup service
func NewSetupService(
	db Migrator,
	assets CashAssetStore,
	allocations Truncater,
	actions Truncater,
	referenceCurrency string,
	log zerolog.Logger,
) *SetupService {
	return &SetupService{
		db:                db,
		assets:            assets,
		allocations:       allocations,
		actions:           actions,
		referenceCurrency: strings.ToUpper(referenceCurrency),
		log:               log.With().Str("service", "setup").Logger(),
	}
}

// CashCurrencies returns the currencies Initialize provisions cash rows for
func (s *SetupService) CashCurrencies() []string {
	if s.referenceCurrency == baseCashCurrency {
		return []string{baseCashCurrency}
	}
	return []string{s.referenceCurrency, baseCashCurrency}
}

// Initialize creates the tables if missing and adds the cash assets.
// Running it again changes nothing.
func (s *SetupService) Initialize() error {
	if err := s.db.Migrate(); err != nil {
		return fmt.Errorf("failed to provision schema: %w", err)
	}

	for _, currency := range s.CashCurrencies() {
		if err := s.assets.AddCurrencyAsset(currency); err != nil {
			return fmt.Errorf("failed to provision cash asset: %w", err)
		}
	}

	s.log.Info().Strs("cash", s.CashCurrencies()).Msg("Store initialized")
	return nil
}

// DeleteAll empties the asset, allocation and action tables
func (s *SetupService) DeleteAll() error {
	for name, table := range map[string]Truncater{
		"actions":     s.actions,
		"allocations": s.allocations,
		"assets":      s.assets,
	} {
		if err := table.DeleteAll(); err != nil {
			return fmt.Errorf("failed to clear %s: %w", name, err)
		}
	}

	s.log.Warn().Msg("All assets, allocations and actions deleted")
	return nil
}

// SeedSampleAssets adds the sample holdings
func (s *SetupService) SeedSampleAssets() error {
	return s.assets.SeedSampleAssets()
}
