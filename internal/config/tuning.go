package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/morpho.defaults.json"

// Built-in defaults returned by the Get* methods when a field is unset.
const (
	DefaultShardSigma           = 1.0
	DefaultShardNeighborhood    = 3
	DefaultVolumeThreshold      = 1
	DefaultWindowSize           = 8
	DefaultTaskQueueSize        = 64
	DefaultResultBatchSize      = 32
	DefaultInactivityTimeout    = 10 * time.Second
	DefaultSubsampleThreshold   = 100000
	DefaultSubsampleFraction    = 0.3
	DefaultRandomSeed           = int64(1)
	DefaultNeighborRadiusFactor = 1.75
	DefaultMinNeighbors         = 3
)

// TuningConfig represents the root configuration for a measurement run.
// Every field is optional; omitted fields fall back to the built-in
// defaults through the matching Get* method.
type TuningConfig struct {
	// Sharding params
	ShardSigma        *float64 `json:"shard_sigma,omitempty"`
	ShardNeighborhood *int     `json:"shard_neighborhood,omitempty"`
	VolumeThreshold   *int     `json:"volume_threshold,omitempty"`

	// Object finder params
	WindowSize *int `json:"window_size,omitempty"` // Z slabs per batch

	// Engine params
	Workers           *int    `json:"workers,omitempty"` // 0 means NumCPU-1
	TaskQueueSize     *int    `json:"task_queue_size,omitempty"`
	ResultBatchSize   *int    `json:"result_batch_size,omitempty"`
	InactivityTimeout *string `json:"inactivity_timeout,omitempty"` // duration string like "10s"

	// 3D operator params
	SubsampleThreshold *int     `json:"subsample_threshold,omitempty"`
	SubsampleFraction  *float64 `json:"subsample_fraction,omitempty"`
	RandomSeed         *int64   `json:"random_seed,omitempty"`

	// 2D operator params
	NeighborRadiusFactor *float64  `json:"neighbor_radius_factor,omitempty"`
	MinNeighbors         *int      `json:"min_neighbors,omitempty"`
	ReferenceDirection   []float64 `json:"reference_direction,omitempty"` // [dx, dy]; absent means no correction

	// Classification
	IsPore *bool `json:"is_pore,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,          // from internal/config/
		"../../../" + DefaultConfigPath,       // from internal/morph/l5measure/
		"../../../../" + DefaultConfigPath,    // from internal/morph/storage/sqlite/
		"../../../../../" + DefaultConfigPath, // even deeper
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.ShardSigma != nil && *c.ShardSigma < 0 {
		return fmt.Errorf("shard_sigma must be non-negative, got %f", *c.ShardSigma)
	}
	if c.ShardNeighborhood != nil && *c.ShardNeighborhood < 1 {
		return fmt.Errorf("shard_neighborhood must be at least 1, got %d", *c.ShardNeighborhood)
	}
	if c.VolumeThreshold != nil && *c.VolumeThreshold < 0 {
		return fmt.Errorf("volume_threshold must be non-negative, got %d", *c.VolumeThreshold)
	}
	if c.WindowSize != nil && *c.WindowSize < 1 {
		return fmt.Errorf("window_size must be at least 1, got %d", *c.WindowSize)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	if c.TaskQueueSize != nil && *c.TaskQueueSize < 1 {
		return fmt.Errorf("task_queue_size must be at least 1, got %d", *c.TaskQueueSize)
	}
	if c.ResultBatchSize != nil && *c.ResultBatchSize < 1 {
		return fmt.Errorf("result_batch_size must be at least 1, got %d", *c.ResultBatchSize)
	}
	if c.InactivityTimeout != nil && *c.InactivityTimeout != "" {
		d, err := time.ParseDuration(*c.InactivityTimeout)
		if err != nil {
			return fmt.Errorf("invalid inactivity_timeout '%s': %w", *c.InactivityTimeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("inactivity_timeout must be positive, got %s", d)
		}
	}
	if c.SubsampleThreshold != nil && *c.SubsampleThreshold < 1 {
		return fmt.Errorf("subsample_threshold must be at least 1, got %d", *c.SubsampleThreshold)
	}
	if c.SubsampleFraction != nil {
		if *c.SubsampleFraction <= 0 || *c.SubsampleFraction > 1 {
			return fmt.Errorf("subsample_fraction must be in (0, 1], got %f", *c.SubsampleFraction)
		}
	}
	if c.NeighborRadiusFactor != nil && *c.NeighborRadiusFactor <= 0 {
		return fmt.Errorf("neighbor_radius_factor must be positive, got %f", *c.NeighborRadiusFactor)
	}
	if c.MinNeighbors != nil && *c.MinNeighbors < 1 {
		return fmt.Errorf("min_neighbors must be at least 1, got %d", *c.MinNeighbors)
	}
	if c.ReferenceDirection != nil {
		if len(c.ReferenceDirection) != 2 {
			return fmt.Errorf("reference_direction must have 2 components, got %d", len(c.ReferenceDirection))
		}
		if math.Hypot(c.ReferenceDirection[0], c.ReferenceDirection[1]) == 0 {
			return fmt.Errorf("reference_direction must be non-zero")
		}
	}
	return nil
}

// GetShardSigma returns the shard_sigma value or the default.
func (c *TuningConfig) GetShardSigma() float64 {
	if c.ShardSigma == nil {
		return DefaultShardSigma
	}
	return *c.ShardSigma
}

// GetShardNeighborhood returns the shard_neighborhood value or the default.
func (c *TuningConfig) GetShardNeighborhood() int {
	if c.ShardNeighborhood == nil {
		return DefaultShardNeighborhood
	}
	return *c.ShardNeighborhood
}

// GetVolumeThreshold returns the volume_threshold value or the default.
func (c *TuningConfig) GetVolumeThreshold() int {
	if c.VolumeThreshold == nil {
		return DefaultVolumeThreshold
	}
	return *c.VolumeThreshold
}

// GetWindowSize returns the window_size value or the default.
func (c *TuningConfig) GetWindowSize() int {
	if c.WindowSize == nil {
		return DefaultWindowSize
	}
	return *c.WindowSize
}

// GetWorkers returns the configured worker count; 0 lets the engine pick.
func (c *TuningConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}

// GetTaskQueueSize returns the task_queue_size value or the default.
func (c *TuningConfig) GetTaskQueueSize() int {
	if c.TaskQueueSize == nil {
		return DefaultTaskQueueSize
	}
	return *c.TaskQueueSize
}

// GetResultBatchSize returns the result_batch_size value or the default.
func (c *TuningConfig) GetResultBatchSize() int {
	if c.ResultBatchSize == nil {
		return DefaultResultBatchSize
	}
	return *c.ResultBatchSize
}

// GetInactivityTimeout parses and returns the InactivityTimeout as a time.Duration.
func (c *TuningConfig) GetInactivityTimeout() time.Duration {
	if c.InactivityTimeout == nil || *c.InactivityTimeout == "" {
		return DefaultInactivityTimeout
	}
	d, err := time.ParseDuration(*c.InactivityTimeout)
	if err != nil || d <= 0 {
		return DefaultInactivityTimeout // default on parse error
	}
	return d
}

// GetSubsampleThreshold returns the subsample_threshold value or the default.
func (c *TuningConfig) GetSubsampleThreshold() int {
	if c.SubsampleThreshold == nil {
		return DefaultSubsampleThreshold
	}
	return *c.SubsampleThreshold
}

// GetSubsampleFraction returns the subsample_fraction value or the default.
func (c *TuningConfig) GetSubsampleFraction() float64 {
	if c.SubsampleFraction == nil {
		return DefaultSubsampleFraction
	}
	return *c.SubsampleFraction
}

// GetRandomSeed returns the random_seed value or the default.
func (c *TuningConfig) GetRandomSeed() int64 {
	if c.RandomSeed == nil {
		return DefaultRandomSeed
	}
	return *c.RandomSeed
}

// GetNeighborRadiusFactor returns the neighbor_radius_factor value or the default.
func (c *TuningConfig) GetNeighborRadiusFactor() float64 {
	if c.NeighborRadiusFactor == nil {
		return DefaultNeighborRadiusFactor
	}
	return *c.NeighborRadiusFactor
}

// GetMinNeighbors returns the min_neighbors value or the default.
func (c *TuningConfig) GetMinNeighbors() int {
	if c.MinNeighbors == nil {
		return DefaultMinNeighbors
	}
	return *c.MinNeighbors
}

// GetReferenceDirection returns the reference direction and whether one
// is configured.
func (c *TuningConfig) GetReferenceDirection() ([2]float64, bool) {
	if len(c.ReferenceDirection) != 2 {
		return [2]float64{}, false
	}
	return [2]float64{c.ReferenceDirection[0], c.ReferenceDirection[1]}, true
}

// GetIsPore returns the is_pore value or the default (true).
func (c *TuningConfig) GetIsPore() bool {
	if c.IsPore == nil {
		return true
	}
	return *c.IsPore
}
