package di

import (
	"fmt"

	"github.com/aristath/rebalancer/internal/config"
	"github.com/aristath/rebalancer/internal/scheduler"
	"github.com/rs/zerolog"
)

// walCheckpointSchedule runs the WAL checkpoint hourly
const walCheckpointSchedule = "@hourly"

// RegisterJobs creates the background jobs and registers them with the scheduler.
// The rebalance job is only scheduled when cfg.Schedule is set; it is always
// created so it can be triggered manually.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil || container.RebalancingService == nil {
		return nil, fmt.Errorf("services must be initialized before jobs")
	}

	container.Scheduler = scheduler.New(log)

	jobs := &JobInstances{
		Rebalance:     scheduler.NewRebalanceJob(container.RebalancingService, scheduler.DefaultRunTimeout, log),
		WALCheckpoint: scheduler.NewWALCheckpointJob(container.DB, log),
	}

	if err := container.Scheduler.AddJob(walCheckpointSchedule, jobs.WALCheckpoint); err != nil {
		return nil, fmt.Errorf("failed to register wal checkpoint job: %w", err)
	}

	if cfg.Schedule != "" {
		if err := container.Scheduler.AddJob(cfg.Schedule, jobs.Rebalance); err != nil {
			return nil, fmt.Errorf("invalid rebalance schedule %q: %w", cfg.Schedule, err)
		}
	} else {
		log.Info().Msg("No rebalance schedule configured, runs are manual only")
	}

	return jobs, nil
}
