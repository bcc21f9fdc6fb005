package di

import (
	"fmt"

	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/trading"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates all repositories and stores them in the container
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}
	if container.DB == nil {
		return fmt.Errorf("database must be initialized before repositories")
	}

	conn := container.DB.Conn()
	container.AssetRepo = portfolio.NewAssetRepository(conn, log)
	container.AllocationRepo = allocation.NewRepository(conn, log)
	container.ActionRepo = trading.NewActionRepository(conn, log)

	log.Debug().Msg("Repositories initialized")

	return nil
}
