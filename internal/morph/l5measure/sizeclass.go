package l5measure

import (
	"errors"
	"fmt"
	"math"
)

// ErrOpenEndedTable reports a size-class table whose last breakpoint is not
// +Inf, so some sizes could not be classified.
var ErrOpenEndedTable = errors.New("size-class table must end with +Inf")

// SizeClassTable buckets a physical size (mm) by the first breakpoint that
// is greater than or equal to it. Tables are immutable once built.
type SizeClassTable struct {
	breakpoints []float64
	names       []string
}

// NewSizeClassTable validates and copies a breakpoint table. Breakpoints
// must be strictly ascending and end with +Inf.
func NewSizeClassTable(breakpoints []float64, names []string) (*SizeClassTable, error) {
	if len(breakpoints) == 0 || len(breakpoints) != len(names) {
		return nil, fmt.Errorf("size-class table needs one name per breakpoint, got %d breakpoints and %d names",
			len(breakpoints), len(names))
	}
	for i := 1; i < len(breakpoints); i++ {
		if !(breakpoints[i] > breakpoints[i-1]) {
			return nil, fmt.Errorf("size-class breakpoints must be strictly ascending at index %d (%v after %v)",
				i, breakpoints[i], breakpoints[i-1])
		}
	}
	if !math.IsInf(breakpoints[len(breakpoints)-1], 1) {
		return nil, ErrOpenEndedTable
	}
	t := &SizeClassTable{
		breakpoints: append([]float64(nil), breakpoints...),
		names:       append([]string(nil), names...),
	}
	return t, nil
}

// Classify returns the bucket index and name for size. The upper
// breakpoint is inclusive.
func (t *SizeClassTable) Classify(size float64) (int, string) {
	for i, bp := range t.breakpoints {
		if size <= bp {
			return i, t.names[i]
		}
	}
	// NaN compares false against every breakpoint.
	last := len(t.breakpoints) - 1
	return last, t.names[last]
}

// Len returns the number of classes.
func (t *SizeClassTable) Len() int { return len(t.names) }

// Names returns the class names in breakpoint order.
func (t *SizeClassTable) Names() []string { return append([]string(nil), t.names...) }

// Pore sizes in mm after Choquette and Pray.
var (
	poreBreakpoints = []float64{0.062, 0.125, 0.25, 0.5, 1, 4, 32, math.Inf(1)}
	poreNames       = []string{
		"Micropore",
		"Very Fine Mesopore",
		"Fine Mesopore",
		"Medium Mesopore",
		"Coarse Mesopore",
		"Very Coarse Mesopore",
		"Small Megapore",
		"Large Megapore",
	}
)

// Grain sizes in mm after Wentworth.
var (
	grainBreakpoints = []float64{0.004, 0.008, 0.016, 0.031, 0.062, 0.125, 0.25, 0.5, 1.0, 2.0, 4.0, 64.0, 256.0, math.Inf(1)}
	grainNames       = []string{
		"Clay",
		"Very Fine Silt",
		"Fine Silt",
		"Medium Silt",
		"Coarse Silt",
		"Very Fine Sand",
		"Fine Sand",
		"Medium Sand",
		"Coarse Sand",
		"Very Coarse Sand",
		"Granule",
		"Pebble",
		"Cobble",
		"Boulder",
	}
)

// PoreSizeClasses returns a fresh pore size-class table.
func PoreSizeClasses() *SizeClassTable {
	t, err := NewSizeClassTable(poreBreakpoints, poreNames)
	if err != nil {
		panic(err)
	}
	return t
}

// GrainSizeClasses returns a fresh grain size-class table.
func GrainSizeClasses() *SizeClassTable {
	t, err := NewSizeClassTable(grainBreakpoints, grainNames)
	if err != nil {
		panic(err)
	}
	return t
}
