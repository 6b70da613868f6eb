package l4geometry

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/morphometry/internal/morph/l1grid"
)

// Ellipsoid is the equivalent ellipsoid of a point cloud. SemiAxes are in
// ascending order.
type Ellipsoid struct {
	SemiAxes [3]float64
}

// Volume returns (4/3)·π·a·b·c.
func (e Ellipsoid) Volume() float64 {
	return 4.0 / 3.0 * math.Pi * e.SemiAxes[0] * e.SemiAxes[1] * e.SemiAxes[2]
}

// FitEllipsoid fits the solid ellipsoid with the same second moments as
// points. A uniform solid ellipsoid with semi-axis a has variance a²/5
// along that axis, so each semi-axis is sqrt(5·λ) for the principal
// variances λ.
func FitEllipsoid(points []r3.Vec) (Ellipsoid, error) {
	if len(points) < 3 {
		return Ellipsoid{}, ErrDegenerate
	}
	data := mat.NewDense(len(points), 3, nil)
	for i, p := range points {
		data.SetRow(i, []float64{p.X, p.Y, p.Z})
	}
	var pc stat.PC
	if ok := pc.PrincipalComponents(data, nil); !ok {
		return Ellipsoid{}, ErrDegenerate
	}
	vars := pc.VarsTo(nil)
	sort.Float64s(vars)

	var e Ellipsoid
	for i := 0; i < 3 && i < len(vars); i++ {
		e.SemiAxes[i] = math.Sqrt(5 * math.Max(vars[i], 0))
	}
	return e, nil
}

// HullCandidates returns the indices of voxels that can be hull vertices:
// those at either end of their run along every axis-parallel line through
// the set. Any other voxel lies strictly between two voxels of the set.
func HullCandidates(voxels []l1grid.Voxel) []int {
	type key [2]int
	type span struct{ lo, hi int }
	lines := [3]map[key]span{{}, {}, {}}
	project := func(v l1grid.Voxel, axis int) (key, int) {
		switch axis {
		case 0:
			return key{v.Y, v.Z}, v.X
		case 1:
			return key{v.X, v.Z}, v.Y
		default:
			return key{v.X, v.Y}, v.Z
		}
	}
	for _, v := range voxels {
		for axis := 0; axis < 3; axis++ {
			k, c := project(v, axis)
			s, ok := lines[axis][k]
			if !ok {
				lines[axis][k] = span{c, c}
				continue
			}
			lines[axis][k] = span{min(s.lo, c), max(s.hi, c)}
		}
	}
	out := make([]int, 0, len(voxels)/4+1)
	for i, v := range voxels {
		extreme := true
		for axis := 0; axis < 3 && extreme; axis++ {
			k, c := project(v, axis)
			s := lines[axis][k]
			extreme = c == s.lo || c == s.hi
		}
		if extreme {
			out = append(out, i)
		}
	}
	return out
}

// ToR3 converts physical points to gonum vectors.
func ToR3(points []l1grid.Point) []r3.Vec {
	out := make([]r3.Vec, len(points))
	for i, p := range points {
		out[i] = r3.Vec(p)
	}
	return out
}
