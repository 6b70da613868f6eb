package l5measure

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/morphometry/internal/morph/l1grid"
	"github.com/banshee-data/morphometry/internal/morph/l4geometry"
)

// Operator3D measures volume objects from their full voxel sets.
type Operator3D struct {
	spacing l1grid.Spacing
	opts    Options
	classes *SizeClassTable
}

// NewOperator3D builds a 3D operator; the size-class table is fixed here.
func NewOperator3D(spacing l1grid.Spacing, opts Options) (*Operator3D, error) {
	if err := validateSetup(spacing, opts); err != nil {
		return nil, err
	}
	return &Operator3D{spacing: spacing, opts: opts, classes: opts.SizeClasses()}, nil
}

// Measure computes the 3D record for obj:
//
//  1. convex hull of the axis-line extreme voxels (same hull as the full set)
//  2. maximum Feret diameter over the hull vertices
//  3. PCA ellipsoid on all voxels, or on a seeded subsample plus the hull
//     vertices when the object exceeds SubsampleThreshold
//  4. ratios, volumes and size class
func (op *Operator3D) Measure(obj l1grid.Object) (Record, bool) {
	if obj.Label == 0 || len(obj.Voxels) < 4 {
		return nil, false
	}

	cand := l4geometry.HullCandidates(obj.Voxels)
	candPts := make([]r3.Vec, len(cand))
	for i, vi := range cand {
		candPts[i] = r3.Vec(obj.Voxels[vi].Physical(op.spacing))
	}
	hull, err := l4geometry.ConvexHull3D(candPts)
	if err != nil {
		return nil, false
	}
	hullIdx := hull.Vertices()
	hullPts := hull.VertexPoints()
	maxFeret := l4geometry.MaxPairwiseDistance(hullPts)

	cloud := op.pcaCloud(obj, cand, hullIdx)
	ell, err := l4geometry.FitEllipsoid(cloud)
	if err != nil {
		return nil, false
	}
	a, b, c := ell.SemiAxes[0], ell.SemiAxes[1], ell.SemiAxes[2]
	if a <= degenerateEpsilon || maxFeret <= degenerateEpsilon {
		return nil, false
	}

	count := max(obj.Count, len(obj.Voxels))
	voxVol := float64(count) * op.spacing[0] * op.spacing[1] * op.spacing[2]
	ellVol := ell.Volume()
	area := hull.Area()
	idx, name := op.classes.Classify(maxFeret)

	return &Measurement3D{
		Label:              obj.Label,
		Count:              count,
		VoxelVolume:        voxVol,
		EquivalentDiameter: math.Cbrt(6 * voxVol / math.Pi),
		MaxFeret:           maxFeret,
		SemiAxes:           ell.SemiAxes,
		AspectRatio:        a / c,
		Elongation:         c / b,
		Flatness:           b / a,
		EllipsoidVolume:    ellVol,
		SurfaceArea:        area,
		SphereDiameter:     math.Cbrt(6 * ellVol / math.Pi),
		Sphericity:         math.Cbrt(math.Pi) * math.Pow(6*voxVol, 2.0/3.0) / area,
		HullVolume:         hull.Volume(),
		SizeClass:          idx,
		SizeClassName:      name,
		Grain:              !op.opts.IsPore,
	}, true
}

// pcaCloud returns the physical points used for PCA. Large objects keep a
// SubsampleFraction share drawn with a generator seeded by Seed and the
// label, plus every hull vertex.
func (op *Operator3D) pcaCloud(obj l1grid.Object, cand, hullIdx []int) []r3.Vec {
	n := len(obj.Voxels)
	if n <= op.opts.SubsampleThreshold {
		pts := make([]r3.Vec, n)
		for i, v := range obj.Voxels {
			pts[i] = r3.Vec(v.Physical(op.spacing))
		}
		return pts
	}

	keep := make([]bool, n)
	for _, hi := range hullIdx {
		keep[cand[hi]] = true
	}
	rng := rand.New(rand.NewPCG(uint64(op.opts.Seed), uint64(obj.Label)))
	for i := range keep {
		if !keep[i] && rng.Float64() < op.opts.SubsampleFraction {
			keep[i] = true
		}
	}
	pts := make([]r3.Vec, 0, int(float64(n)*op.opts.SubsampleFraction)+len(hullIdx))
	for i, k := range keep {
		if k {
			pts = append(pts, r3.Vec(obj.Voxels[i].Physical(op.spacing)))
		}
	}
	tracef("label %d: subsampled %d of %d voxels for PCA", obj.Label, len(pts), n)
	return pts
}
