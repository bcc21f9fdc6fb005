package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// SlowOperationThreshold is the duration past which a timed operation logs at warn
const SlowOperationThreshold = 30 * time.Second

// OperationTimer starts timing operation and returns the function that stops it.
// The stop function logs the elapsed time and returns it:
//
//	stop := utils.OperationTimer("scheduled_rebalance", log)
//	defer stop()
func OperationTimer(operation string, log zerolog.Logger) func() time.Duration {
	started := time.Now()

	return func() time.Duration {
		elapsed := time.Since(started)

		event := log.Debug()
		if elapsed > SlowOperationThreshold {
			event = log.Warn().Bool("slow", true)
		}
		event.Str("operation", operation).Dur("elapsed", elapsed).Msg("Operation finished")

		return elapsed
	}
}
