package l1grid

import (
	"fmt"
	"math"
)

// Spacing is the physical length of one voxel along X, Y and Z (millimetres).
type Spacing [3]float64

// UnitSpacing is 1mm along every axis.
var UnitSpacing = Spacing{1, 1, 1}

// Min returns the smallest spacing of the in-plane axes, plus Z for volumes.
func (s Spacing) Min(is2D bool) float64 {
	m := math.Min(s[0], s[1])
	if !is2D {
		m = math.Min(m, s[2])
	}
	return m
}

// Validate rejects non-positive or non-finite spacing.
func (s Spacing) Validate() error {
	for i, v := range s {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("spacing[%d] must be positive and finite, got %v", i, v)
		}
	}
	return nil
}

// Voxel is an integer grid coordinate.
type Voxel struct {
	X, Y, Z int
}

// Point is a coordinate in physical units.
type Point struct {
	X, Y, Z float64
}

// Physical converts a voxel to a physical point using spacing s.
func (v Voxel) Physical(s Spacing) Point {
	return Point{
		X: float64(v.X) * s[0],
		Y: float64(v.Y) * s[1],
		Z: float64(v.Z) * s[2],
	}
}

// LabelGrid is a dense grid of unsigned labels; 0 is background.
// 2D grids have Nz == 1. Data is row-major: index = (z*Ny + y)*Nx + x.
type LabelGrid struct {
	Nx, Ny, Nz int
	Spacing    Spacing
	Data       []uint32
}

// NewLabelGrid allocates an all-background grid.
func NewLabelGrid(nx, ny, nz int, spacing Spacing) (*LabelGrid, error) {
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return nil, fmt.Errorf("grid dimensions must be positive, got %dx%dx%d", nx, ny, nz)
	}
	if err := spacing.Validate(); err != nil {
		return nil, err
	}
	return &LabelGrid{
		Nx:      nx,
		Ny:      ny,
		Nz:      nz,
		Spacing: spacing,
		Data:    make([]uint32, nx*ny*nz),
	}, nil
}

// MustLabelGrid is NewLabelGrid for fixtures; it panics on invalid input.
func MustLabelGrid(nx, ny, nz int, spacing Spacing) *LabelGrid {
	g, err := NewLabelGrid(nx, ny, nz, spacing)
	if err != nil {
		panic(err)
	}
	return g
}

// Is2D reports whether the grid is a single slice.
func (g *LabelGrid) Is2D() bool { return g.Nz == 1 }

// Len returns the number of voxels.
func (g *LabelGrid) Len() int { return len(g.Data) }

// Index returns the linear index of (x, y, z).
func (g *LabelGrid) Index(x, y, z int) int {
	return (z*g.Ny+y)*g.Nx + x
}

// Coord is the inverse of Index.
func (g *LabelGrid) Coord(i int) Voxel {
	x := i % g.Nx
	y := (i / g.Nx) % g.Ny
	z := i / (g.Nx * g.Ny)
	return Voxel{X: x, Y: y, Z: z}
}

// InBounds reports whether (x, y, z) lies inside the grid.
func (g *LabelGrid) InBounds(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < g.Nx && y < g.Ny && z < g.Nz
}

// At returns the label at (x, y, z).
func (g *LabelGrid) At(x, y, z int) uint32 {
	return g.Data[g.Index(x, y, z)]
}

// Set writes a label at (x, y, z).
func (g *LabelGrid) Set(x, y, z int, label uint32) {
	g.Data[g.Index(x, y, z)] = label
}

// Clone returns a deep copy.
func (g *LabelGrid) Clone() *LabelGrid {
	out := *g
	out.Data = make([]uint32, len(g.Data))
	copy(out.Data, g.Data)
	return &out
}

// SameShape returns an empty grid with the same dimensions and spacing.
func (g *LabelGrid) SameShape() *LabelGrid {
	out := *g
	out.Data = make([]uint32, len(g.Data))
	return &out
}

// Foreground returns a mask that is true wherever the label is non-zero.
func (g *LabelGrid) Foreground() []bool {
	mask := make([]bool, len(g.Data))
	for i, v := range g.Data {
		mask[i] = v != 0
	}
	return mask
}

// MaxLabel returns the largest label present.
func (g *LabelGrid) MaxLabel() uint32 {
	var m uint32
	for _, v := range g.Data {
		if v > m {
			m = v
		}
	}
	return m
}

// VoxelVolume is the physical area (2D) or volume (3D) of one voxel.
func (g *LabelGrid) VoxelVolume() float64 {
	if g.Is2D() {
		return g.Spacing[0] * g.Spacing[1]
	}
	return g.Spacing[0] * g.Spacing[1] * g.Spacing[2]
}

// Dims returns the populated dimensionality (2 or 3).
func (g *LabelGrid) Dims() int {
	if g.Is2D() {
		return 2
	}
	return 3
}
