package pipeline

import (
	"fmt"
	"runtime"
	"time"

	"github.com/banshee-data/morphometry/internal/config"
	"github.com/banshee-data/morphometry/internal/timeutil"
)

// EngineConfig sizes the engine's worker pool and channels.
type EngineConfig struct {
	Workers           int            // measurement goroutines (default: NumCPU-1, at least 1)
	TaskQueueSize     int            // buffered object batches between producer and workers (default: 64)
	ResultBatchSize   int            // records per result message (default: 32)
	InactivityTimeout time.Duration  // aggregator gives up after this long without a message (default: 10s)
	Clock             timeutil.Clock // nil uses the real clock
}

// DefaultWorkers returns one less than the number of CPUs, at least 1,
// leaving a core for the producer and aggregator.
func DefaultWorkers() int {
	return max(runtime.NumCPU()-1, 1)
}

// DefaultEngineConfig returns the built-in engine configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Workers:           DefaultWorkers(),
		TaskQueueSize:     config.DefaultTaskQueueSize,
		ResultBatchSize:   config.DefaultResultBatchSize,
		InactivityTimeout: config.DefaultInactivityTimeout,
	}
}

// ConfigFromTuning builds an EngineConfig from a loaded TuningConfig.
// A zero worker count selects DefaultWorkers.
func ConfigFromTuning(cfg *config.TuningConfig) EngineConfig {
	workers := cfg.GetWorkers()
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	return EngineConfig{
		Workers:           workers,
		TaskQueueSize:     cfg.GetTaskQueueSize(),
		ResultBatchSize:   cfg.GetResultBatchSize(),
		InactivityTimeout: cfg.GetInactivityTimeout(),
	}
}

// Validate checks that every field is usable.
func (c EngineConfig) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.TaskQueueSize < 1 {
		return fmt.Errorf("task queue size must be at least 1, got %d", c.TaskQueueSize)
	}
	if c.ResultBatchSize < 1 {
		return fmt.Errorf("result batch size must be at least 1, got %d", c.ResultBatchSize)
	}
	if c.InactivityTimeout <= 0 {
		return fmt.Errorf("inactivity timeout must be positive, got %s", c.InactivityTimeout)
	}
	return nil
}
