package di

import (
	"context"
	"fmt"

	"github.com/aristath/rebalancer/internal/config"
	"github.com/rs/zerolog"
)

// Wire opens the store and builds repositories, services and jobs on top of it.
// The scheduler is created but not started; the caller decides whether it runs.
// On any failure the partially built container is closed.
func Wire(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, *JobInstances, error) {
	container, err := InitializeDatabases(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize databases: %w", err)
	}

	var jobs *JobInstances
	steps := []struct {
		name string
		run  func() error
	}{
		{"repositories", func() error { return InitializeRepositories(container, log) }},
		{"services", func() error { return InitializeServices(ctx, container, cfg, log) }},
		{"jobs", func() (err error) {
			jobs, err = RegisterJobs(container, cfg, log)
			return err
		}},
	}

	for _, step := range steps {
		if err := step.run(); err != nil {
			container.Close()
			return nil, nil, fmt.Errorf("failed to initialize %s: %w", step.name, err)
		}
	}

	log.Info().
		Str("reference_currency", cfg.ReferenceCurrency).
		Bool("scheduled", jobs.Rebalance != nil).
		Msg("Container wired")

	return container, jobs, nil
}
