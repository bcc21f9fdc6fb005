package di

import (
	"fmt"

	"github.com/aristath/rebalancer/internal/config"
	"github.com/aristath/rebalancer/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens the rebalancer store and applies its schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	db, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileSafe, // the store is the only copy of the targets
		Name:    "rebalancer",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize rebalancer database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema to %s: %w", db.Name(), err)
	}

	log.Info().Str("path", db.Path()).Msg("Database initialized and schema applied")

	return &Container{DB: db}, nil
}
