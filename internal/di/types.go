// Package di provides dependency injection type definitions.
package di

import (
	"github.com/aristath/rebalancer/internal/clients/exchangerate"
	"github.com/aristath/rebalancer/internal/clients/yahoo"
	"github.com/aristath/rebalancer/internal/database"
	"github.com/aristath/rebalancer/internal/metrics"
	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/rebalancing"
	"github.com/aristath/rebalancer/internal/modules/trading"
	"github.com/aristath/rebalancer/internal/scheduler"
	"github.com/aristath/rebalancer/internal/services"
)

// Container holds all dependencies for the application.
// It is created by Wire() and passed to the server and the CLI.
type Container struct {
	// Store
	DB *database.DB

	// Repositories
	AssetRepo      *portfolio.AssetRepository
	AllocationRepo *allocation.Repository
	ActionRepo     *trading.ActionRepository

	// Clients
	YahooClient        *yahoo.Client
	ExchangeRateClient *exchangerate.Client // nil unless FX_SOURCE=exchangerate

	// Services
	PriceService       *services.PriceService
	SetupService       *services.SetupService
	Engine             *rebalancing.Engine
	RebalancingService *rebalancing.Service
	Metrics            *metrics.Registry
	Scheduler          *scheduler.Scheduler
}

// JobInstances holds the registered background jobs
type JobInstances struct {
	Rebalance     *scheduler.RebalanceJob
	WALCheckpoint *scheduler.WALCheckpointJob
}

// Close releases the container's resources
func (c *Container) Close() error {
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
