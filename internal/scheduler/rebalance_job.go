package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/rebalancer/internal/modules/rebalancing"
	"github.com/aristath/rebalancer/internal/utils"
	"github.com/rs/zerolog"
)

// RebalanceJobName identifies the scheduled rebalance
const RebalanceJobName = "rebalance"

// DefaultRunTimeout bounds a scheduled rebalance, including every price lookup
const DefaultRunTimeout = 5 * time.Minute

// RebalanceRunner executes one rebalance run
type RebalanceRunner interface {
	Run(ctx context.Context) (*rebalancing.RunResult, error)
}

// RebalanceJob runs the rebalance on a schedule
type RebalanceJob struct {
	runner  RebalanceRunner
	timeout time.Duration
	log     zerolog.Logger
}

// NewRebalanceJob creates a new scheduled rebalance job
func NewRebalanceJob(runner RebalanceRunner, timeout time.Duration, log zerolog.Logger) *RebalanceJob {
	if timeout <= 0 {
		timeout = DefaultRunTimeout
	}
	return &RebalanceJob{
		runner:  runner,
		timeout: timeout,
		log:     log.With().Str("job", RebalanceJobName).Logger(),
	}
}

// Name returns the job name
func (j *RebalanceJob) Name() string {
	return RebalanceJobName
}

// Run executes the rebalance job
func (j *RebalanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	stop := utils.OperationTimer("scheduled_rebalance", j.log)
	result, err := j.runner.Run(ctx)
	duration := stop()
	if err != nil {
		return fmt.Errorf("scheduled rebalance failed: %w", err)
	}

	j.log.Info().
		Str("run_id", result.RunID).
		Int("actions", len(result.Actions)).
		Float64("total_value", result.TotalValue).
		Dur("duration", duration).
		Msg("Scheduled rebalance completed")

	return nil
}
