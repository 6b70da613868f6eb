package l4geometry

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

// CaliperSteps is the number of rotations sampled over a full turn (0.5°).
const CaliperSteps = 720

// CaliperResult holds the extremal Feret diameters of a point set and the
// raw orientation (radians, from atan2) recorded with each.
type CaliperResult struct {
	MinFeret, MaxFeret float64
	MinAngle, MaxAngle float64
}

type caliperSample struct {
	width float64
	angle float64
}

// RotatingCalipers sweeps steps orientations over a full turn. At each
// orientation the points are rotated about their centroid and the first
// minimum and first maximum along the rotated x axis form the caliper pair;
// the sample records the gap between the two supporting lines through the
// pair (their x separation) and atan2 of the minimum point relative to the
// pair's midpoint. Samples are ordered by width (stable), so the first and
// last give the minimum and maximum Feret diameters.
//
// Pass hull vertices rather than the full point set: the extreme points
// are always hull vertices.
func RotatingCalipers(points []r2.Vec, steps int) (CaliperResult, error) {
	if len(points) < 3 || steps < 1 {
		return CaliperResult{}, ErrDegenerate
	}
	c := Centroid(points)
	samples := make([]caliperSample, steps)
	for k := 0; k < steps; k++ {
		theta := 2 * math.Pi * float64(k) / float64(steps)
		sin, cos := math.Sincos(theta)

		var lo, hi r2.Vec
		for i, p := range points {
			d := r2.Sub(p, c)
			q := r2.Vec{X: d.X*cos - d.Y*sin, Y: d.X*sin + d.Y*cos}
			if i == 0 || q.X < lo.X {
				lo = q
			}
			if i == 0 || q.X > hi.X {
				hi = q
			}
		}
		mid := r2.Scale(0.5, r2.Add(lo, hi))
		rel := r2.Sub(lo, mid)
		samples[k] = caliperSample{width: hi.X - lo.X, angle: math.Atan2(rel.Y, rel.X)}
	}
	sort.SliceStable(samples, func(i, j int) bool { return samples[i].width < samples[j].width })

	first, last := samples[0], samples[len(samples)-1]
	if first.width <= 0 {
		return CaliperResult{}, ErrDegenerate
	}
	return CaliperResult{
		MinFeret: first.width,
		MaxFeret: last.width,
		MinAngle: first.angle,
		MaxAngle: last.angle,
	}, nil
}

// FoldAngle converts a raw atan2 angle to the display convention:
// degrees, +180 when the radians were negative, then values in [90, 270)
// are mapped by (v+180) mod 360.
func FoldAngle(rad float64) float64 {
	deg := rad * 180 / math.Pi
	if rad < 0 {
		deg += 180
	}
	if deg >= 90 && deg < 270 {
		deg = math.Mod(deg+180, 360)
	}
	return deg
}

// ReferenceAngle returns the angle (radians) between dir and the vertical
// reference (0, 1).
func ReferenceAngle(dir r2.Vec) float64 {
	return math.Atan2(-dir.X, dir.Y)
}

// CorrectAngle rotates a folded angle (degrees) by the reference angle
// (radians), modulo 180 degrees.
func CorrectAngle(deg, refRad float64) float64 {
	v := math.Mod(deg-refRad*180/math.Pi, 180)
	if v < 0 {
		v += 180
	}
	return v
}
