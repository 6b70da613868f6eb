package l5measure

import (
	"math"

	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/morphometry/internal/morph/l1grid"
	"github.com/banshee-data/morphometry/internal/morph/l4geometry"
)

// Operator2D measures section objects from their border pixels.
type Operator2D struct {
	spacing l1grid.Spacing
	opts    Options
	classes *SizeClassTable
	radius  float64
	refRad  float64
	hasRef  bool
}

// NewOperator2D builds a 2D operator; the size-class table and the
// reference angle are fixed here.
func NewOperator2D(spacing l1grid.Spacing, opts Options) (*Operator2D, error) {
	if err := validateSetup(spacing, opts); err != nil {
		return nil, err
	}
	op := &Operator2D{
		spacing: spacing,
		opts:    opts,
		classes: opts.SizeClasses(),
		radius:  opts.NeighborRadiusFactor * spacing.Min(true),
	}
	if d := opts.ReferenceDirection; d != nil {
		op.refRad = l4geometry.ReferenceAngle(*d)
		op.hasRef = true
	}
	return op, nil
}

// Measure computes the 2D record for obj. Border points with fewer than
// MinNeighbors other points inside the neighbour radius are
// dropped first; fewer than three survivors is degenerate.
func (op *Operator2D) Measure(obj l1grid.Object) (Record, bool) {
	if obj.Label == 0 {
		return nil, false
	}
	pts := make([]r2.Vec, len(obj.Voxels))
	for i, v := range obj.Voxels {
		p := v.Physical(op.spacing)
		pts[i] = r2.Vec{X: p.X, Y: p.Y}
	}
	pts = l4geometry.FilterIsolated(pts, op.radius, op.opts.MinNeighbors)
	if len(pts) < 3 {
		return nil, false
	}

	hull, err := l4geometry.ConvexHull2D(pts)
	if err != nil {
		return nil, false
	}
	cal, err := l4geometry.RotatingCalipers(hull.Vertices, l4geometry.CaliperSteps)
	if err != nil || cal.MinFeret <= degenerateEpsilon {
		return nil, false
	}

	maxF, minF := cal.MaxFeret, cal.MinFeret
	ecc := math.Sqrt(1 - minF/maxF)
	perimeter := hull.Perimeter()
	hullArea := hull.Area()
	count := max(obj.Count, len(obj.Voxels))
	area := float64(count) * op.spacing[0] * op.spacing[1]

	m := &Measurement2D{
		Label:              obj.Label,
		Count:              count,
		Area:               area,
		EquivalentDiameter: math.Sqrt(4 * area / math.Pi),
		MinFeret:           minF,
		MaxFeret:           maxF,
		MinFeretAngle:      l4geometry.FoldAngle(cal.MinAngle),
		MaxFeretAngle:      l4geometry.FoldAngle(cal.MaxAngle),
		MinFeretCorrected:  math.NaN(),
		MaxFeretCorrected:  math.NaN(),
		Eccentricity:       ecc,
		Elongation:         math.Sqrt(maxF / minF),
		AspectRatio:        minF / maxF,
		Perimeter:          perimeter,
		HullArea:           hullArea,
		EllipsePerimeter:   2 * maxF * mathext.CompleteE(ecc*ecc),
		EllipseArea:        math.Pi * (maxF / 2) * minF,
		Gamma:              perimeter / (2 * math.Sqrt(math.Pi*hullArea)),
		Grain:              !op.opts.IsPore,
	}
	if op.hasRef {
		m.MinFeretCorrected = l4geometry.CorrectAngle(m.MinFeretAngle, op.refRad)
		m.MaxFeretCorrected = l4geometry.CorrectAngle(m.MaxFeretAngle, op.refRad)
	}
	m.SizeClass, m.SizeClassName = op.classes.Classify(maxF)
	return m, true
}
