package l3shard

import (
	"fmt"

	"github.com/banshee-data/morphometry/internal/config"
)

// Params configures Shard.
type Params struct {
	Sigma           float64 // Gaussian width in voxels applied to the EDT (default: 1.0)
	Neighborhood    int     // Peak half-width in voxels; peaks closer than this merge (default: 3)
	VolumeThreshold int     // Basins with fewer voxels are dropped (default: 1)
}

// DefaultParams returns the built-in sharding parameters.
func DefaultParams() Params {
	return Params{
		Sigma:           config.DefaultShardSigma,
		Neighborhood:    config.DefaultShardNeighborhood,
		VolumeThreshold: config.DefaultVolumeThreshold,
	}
}

// ParamsFromTuning builds Params from a loaded TuningConfig.
func ParamsFromTuning(cfg *config.TuningConfig) Params {
	return Params{
		Sigma:           cfg.GetShardSigma(),
		Neighborhood:    cfg.GetShardNeighborhood(),
		VolumeThreshold: cfg.GetVolumeThreshold(),
	}
}

// Validate checks the parameter ranges.
func (p Params) Validate() error {
	if p.Sigma < 0 {
		return fmt.Errorf("sigma must be non-negative, got %f", p.Sigma)
	}
	if p.Neighborhood < 1 {
		return fmt.Errorf("neighborhood must be at least 1, got %d", p.Neighborhood)
	}
	if p.VolumeThreshold < 0 {
		return fmt.Errorf("volume threshold must be non-negative, got %d", p.VolumeThreshold)
	}
	return nil
}
