package l5measure

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/morphometry/internal/config"
)

// Options is the immutable configuration shared by both operators.
type Options struct {
	IsPore bool // classify against the pore table (true) or the grain table

	// 3D
	SubsampleThreshold int     // objects above this many voxels are subsampled for PCA (default: 100000)
	SubsampleFraction  float64 // fraction kept when subsampling (default: 0.3)
	Seed               int64   // subsample RNG seed, combined with the label

	// 2D
	NeighborRadiusFactor float64 // neighbour radius as a multiple of the smallest spacing (default: 1.75)
	MinNeighbors         int     // other points within the radius needed to keep a border point (default: 3)
	ReferenceDirection   *r2.Vec // optional direction for Feret angle correction
}

// DefaultOptions returns the built-in operator options.
func DefaultOptions() Options {
	return Options{
		IsPore:               true,
		SubsampleThreshold:   config.DefaultSubsampleThreshold,
		SubsampleFraction:    config.DefaultSubsampleFraction,
		Seed:                 config.DefaultRandomSeed,
		NeighborRadiusFactor: config.DefaultNeighborRadiusFactor,
		MinNeighbors:         config.DefaultMinNeighbors,
	}
}

// OptionsFromTuning builds Options from a loaded TuningConfig.
func OptionsFromTuning(cfg *config.TuningConfig) Options {
	opts := Options{
		IsPore:               cfg.GetIsPore(),
		SubsampleThreshold:   cfg.GetSubsampleThreshold(),
		SubsampleFraction:    cfg.GetSubsampleFraction(),
		Seed:                 cfg.GetRandomSeed(),
		NeighborRadiusFactor: cfg.GetNeighborRadiusFactor(),
		MinNeighbors:         cfg.GetMinNeighbors(),
	}
	if dir, ok := cfg.GetReferenceDirection(); ok {
		opts.ReferenceDirection = &r2.Vec{X: dir[0], Y: dir[1]}
	}
	return opts
}

// Validate checks the option ranges.
func (o Options) Validate() error {
	if o.SubsampleThreshold < 1 {
		return fmt.Errorf("subsample threshold must be at least 1, got %d", o.SubsampleThreshold)
	}
	if o.SubsampleFraction <= 0 || o.SubsampleFraction > 1 {
		return fmt.Errorf("subsample fraction must be in (0, 1], got %f", o.SubsampleFraction)
	}
	if o.NeighborRadiusFactor <= 0 {
		return fmt.Errorf("neighbor radius factor must be positive, got %f", o.NeighborRadiusFactor)
	}
	if o.MinNeighbors < 1 {
		return fmt.Errorf("min neighbors must be at least 1, got %d", o.MinNeighbors)
	}
	if d := o.ReferenceDirection; d != nil && r2.Norm(*d) == 0 {
		return fmt.Errorf("reference direction must be non-zero")
	}
	return nil
}

// SizeClasses returns the size-class table selected by IsPore.
func (o Options) SizeClasses() *SizeClassTable {
	if o.IsPore {
		return PoreSizeClasses()
	}
	return GrainSizeClasses()
}
