package l4geometry

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

// Hull2D is a convex polygon with vertices in counter-clockwise order and
// no collinear vertices.
type Hull2D struct {
	Vertices []r2.Vec
}

// ConvexHull2D computes the convex hull with Andrew's monotone chain.
// Fewer than three distinct points, or all points on a line, is degenerate.
func ConvexHull2D(points []r2.Vec) (Hull2D, error) {
	if len(points) < 3 {
		return Hull2D{}, ErrDegenerate
	}
	pts := make([]r2.Vec, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	hull := make([]r2.Vec, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && turn(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && turn(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	hull = hull[:len(hull)-1]

	if len(hull) < 3 {
		return Hull2D{}, ErrDegenerate
	}
	return Hull2D{Vertices: hull}, nil
}

// turn is positive for a counter-clockwise turn a→b→c.
func turn(a, b, c r2.Vec) float64 {
	return r2.Cross(r2.Sub(b, a), r2.Sub(c, a))
}

// Perimeter returns the length of the hull boundary.
func (h Hull2D) Perimeter() float64 {
	n := len(h.Vertices)
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += r2.Norm(r2.Sub(h.Vertices[(i+1)%n], h.Vertices[i]))
	}
	return sum
}

// Area returns the enclosed area (shoelace formula).
func (h Hull2D) Area() float64 {
	n := len(h.Vertices)
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += r2.Cross(h.Vertices[i], h.Vertices[(i+1)%n])
	}
	return math.Abs(sum) / 2
}

// Centroid returns the mean of points.
func Centroid(points []r2.Vec) r2.Vec {
	var c r2.Vec
	for _, p := range points {
		c = r2.Add(c, p)
	}
	return r2.Scale(1/float64(len(points)), c)
}
