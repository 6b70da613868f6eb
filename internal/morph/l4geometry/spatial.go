package l4geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// SpatialIndex provides fixed-radius neighbour queries using a regular grid.
// Cell size should approximately match the query radius.
type SpatialIndex struct {
	CellSize float64
	Grid     map[int64][]int // Cell ID → point indices
}

// NewSpatialIndex creates a spatial index with the specified cell size.
func NewSpatialIndex(cellSize float64) *SpatialIndex {
	return &SpatialIndex{
		CellSize: cellSize,
		Grid:     make(map[int64][]int),
	}
}

// Build populates the spatial index from a set of points.
func (si *SpatialIndex) Build(points []r2.Vec) {
	si.Grid = make(map[int64][]int, len(points)/2+1)
	for i, p := range points {
		cx, cy := si.cell(p)
		id := cellID(cx, cy)
		si.Grid[id] = append(si.Grid[id], i)
	}
}

func (si *SpatialIndex) cell(p r2.Vec) (int64, int64) {
	return int64(math.Floor(p.X / si.CellSize)), int64(math.Floor(p.Y / si.CellSize))
}

// cellID maps signed cell coordinates to a unique key: zigzag encoding
// followed by Szudzik's pairing function.
func cellID(cx, cy int64) int64 {
	a, b := zigzag(cx), zigzag(cy)
	if a >= b {
		return a*a + a + b
	}
	return a + b*b
}

func zigzag(v int64) int64 {
	if v >= 0 {
		return 2 * v
	}
	return -2*v - 1
}

// CountWithin returns the number of indexed points within radius of
// points[idx], the point itself included. radius must not exceed CellSize.
func (si *SpatialIndex) CountWithin(points []r2.Vec, idx int, radius float64) int {
	p := points[idx]
	r2max := radius * radius
	cx, cy := si.cell(p)
	n := 0
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, j := range si.Grid[cellID(cx+dx, cy+dy)] {
				d := r2.Sub(points[j], p)
				if d.X*d.X+d.Y*d.Y <= r2max {
					n++
				}
			}
		}
	}
	return n
}

// FilterIsolated keeps the points that have at least minNeighbors other
// points within radius. Corners of a one-pixel-wide boundary have only two
// such neighbours and are dropped.
func FilterIsolated(points []r2.Vec, radius float64, minNeighbors int) []r2.Vec {
	if len(points) == 0 || radius <= 0 {
		return nil
	}
	si := NewSpatialIndex(radius)
	si.Build(points)
	kept := make([]r2.Vec, 0, len(points))
	for i := range points {
		if si.CountWithin(points, i, radius)-1 >= minNeighbors {
			kept = append(kept, points[i])
		}
	}
	return kept
}
