package l4geometry

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// hullFace is a triangle with vertices in counter-clockwise order seen from
// outside, and its outward unit plane n·x = d.
type hullFace struct {
	v     [3]int
	n     r3.Vec
	d     float64
	alive bool
}

type edge [2]int

// Hull3D is a closed, triangulated convex polytope over an input point set.
type Hull3D struct {
	points []r3.Vec
	faces  []hullFace
}

// ConvexHull3D computes the convex hull of points by incremental insertion.
// Points within a small relative tolerance of a face plane are treated as
// inside. Fewer than four points, or a coplanar set, is degenerate.
func ConvexHull3D(points []r3.Vec) (*Hull3D, error) {
	if len(points) < 4 {
		return nil, ErrDegenerate
	}
	eps := hullEpsilon(points)
	tet, ok := initialTetrahedron(points, eps)
	if !ok {
		return nil, ErrDegenerate
	}

	h := &Hull3D{points: points}
	edges := make(map[edge]int)
	inner := r3.Scale(0.25, r3.Add(r3.Add(points[tet[0]], points[tet[1]]), r3.Add(points[tet[2]], points[tet[3]])))
	for _, f := range [][3]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}} {
		a, b, c := tet[f[0]], tet[f[1]], tet[f[2]]
		n := r3.Cross(r3.Sub(points[b], points[a]), r3.Sub(points[c], points[a]))
		if r3.Dot(n, r3.Sub(inner, points[a])) > 0 {
			b, c = c, b
		}
		h.addFace(a, b, c, edges)
	}

	visible := make(map[int]bool)
	var order []int
	var horizon []edge
	for i, p := range points {
		if i == tet[0] || i == tet[1] || i == tet[2] || i == tet[3] {
			continue
		}
		clear(visible)
		order = order[:0]
		for fi := range h.faces {
			f := &h.faces[fi]
			if f.alive && r3.Dot(f.n, p)-f.d > eps {
				visible[fi] = true
				order = append(order, fi)
			}
		}
		if len(order) == 0 {
			continue
		}

		horizon = horizon[:0]
		for _, fi := range order {
			f := h.faces[fi]
			for k := 0; k < 3; k++ {
				e := edge{f.v[k], f.v[(k+1)%3]}
				if twin, ok := edges[edge{e[1], e[0]}]; ok && !visible[twin] {
					horizon = append(horizon, e)
				}
			}
		}
		for _, fi := range order {
			f := &h.faces[fi]
			f.alive = false
			for k := 0; k < 3; k++ {
				delete(edges, edge{f.v[k], f.v[(k+1)%3]})
			}
		}
		for _, e := range horizon {
			h.addFace(e[0], e[1], i, edges)
		}
	}

	live := h.faces[:0]
	for _, f := range h.faces {
		if f.alive {
			live = append(live, f)
		}
	}
	h.faces = live
	return h, nil
}

func hullEpsilon(points []r3.Vec) float64 {
	lo, hi := points[0], points[0]
	for _, p := range points[1:] {
		lo = r3.Vec{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
		hi = r3.Vec{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
	}
	ext := r3.Sub(hi, lo)
	return 1e-9 * math.Max(1, math.Max(ext.X, math.Max(ext.Y, ext.Z)))
}

// initialTetrahedron picks four affinely independent points: the lowest x,
// the point farthest from it, the point farthest from that line, and the
// point farthest from that plane.
func initialTetrahedron(points []r3.Vec, eps float64) ([4]int, bool) {
	var t [4]int
	for i, p := range points {
		if p.X < points[t[0]].X {
			t[0] = i
		}
	}
	p0 := points[t[0]]

	best := 0.0
	for i, p := range points {
		if d := r3.Norm(r3.Sub(p, p0)); d > best {
			best, t[1] = d, i
		}
	}
	if best <= eps {
		return t, false
	}
	dir := r3.Unit(r3.Sub(points[t[1]], p0))

	best = 0
	for i, p := range points {
		if d := r3.Norm(r3.Cross(r3.Sub(p, p0), dir)); d > best {
			best, t[2] = d, i
		}
	}
	if best <= eps {
		return t, false
	}
	n := r3.Unit(r3.Cross(r3.Sub(points[t[1]], p0), r3.Sub(points[t[2]], p0)))

	best = 0
	for i, p := range points {
		if d := math.Abs(r3.Dot(n, r3.Sub(p, p0))); d > best {
			best, t[3] = d, i
		}
	}
	return t, best > eps
}

func (h *Hull3D) addFace(a, b, c int, edges map[edge]int) {
	pa := h.points[a]
	n := r3.Cross(r3.Sub(h.points[b], pa), r3.Sub(h.points[c], pa))
	if l := r3.Norm(n); l > 0 {
		n = r3.Scale(1/l, n)
	}
	h.faces = append(h.faces, hullFace{v: [3]int{a, b, c}, n: n, d: r3.Dot(n, pa), alive: true})
	fi := len(h.faces) - 1
	edges[edge{a, b}] = fi
	edges[edge{b, c}] = fi
	edges[edge{c, a}] = fi
}

// Faces returns the number of triangles.
func (h *Hull3D) Faces() int { return len(h.faces) }

// Vertices returns the ascending indices (into the input slice) of the
// hull's corners. Triangulation points lying inside a flat facet or along
// an edge touch fewer than three distinct face planes and are left out.
func (h *Hull3D) Vertices() []int {
	planes := make(map[int][]r3.Vec)
	for _, f := range h.faces {
		if r3.Norm2(f.n) == 0 {
			continue
		}
		for _, v := range f.v {
			planes[v] = addPlane(planes[v], f.n)
		}
	}
	out := make([]int, 0, len(planes))
	for v, ns := range planes {
		if len(ns) >= 3 {
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}

// coplanarCos is the cosine above which two unit face normals are taken
// to describe the same plane.
const coplanarCos = 1 - 1e-10

// addPlane appends n to normals unless an equal direction is present.
func addPlane(normals []r3.Vec, n r3.Vec) []r3.Vec {
	for _, m := range normals {
		if r3.Dot(m, n) > coplanarCos {
			return normals
		}
	}
	return append(normals, n)
}

// VertexPoints returns the hull vertices as points.
func (h *Hull3D) VertexPoints() []r3.Vec {
	idx := h.Vertices()
	out := make([]r3.Vec, len(idx))
	for i, v := range idx {
		out[i] = h.points[v]
	}
	return out
}

// Area returns the surface area.
func (h *Hull3D) Area() float64 {
	sum := 0.0
	for _, f := range h.faces {
		a := h.points[f.v[0]]
		sum += r3.Norm(r3.Cross(r3.Sub(h.points[f.v[1]], a), r3.Sub(h.points[f.v[2]], a)))
	}
	return sum / 2
}

// Volume returns the enclosed volume.
func (h *Hull3D) Volume() float64 {
	if len(h.faces) == 0 {
		return 0
	}
	o := h.points[h.faces[0].v[0]]
	sum := 0.0
	for _, f := range h.faces {
		a := r3.Sub(h.points[f.v[0]], o)
		b := r3.Sub(h.points[f.v[1]], o)
		c := r3.Sub(h.points[f.v[2]], o)
		sum += r3.Dot(a, r3.Cross(b, c))
	}
	return math.Abs(sum) / 6
}

// MaxPairwiseDistance returns the largest distance between any two points.
// Called on hull vertices it gives the maximum Feret diameter.
func MaxPairwiseDistance(points []r3.Vec) float64 {
	best := 0.0
	for i := range points {
		for j := i + 1; j < len(points); j++ {
			if d := r3.Norm2(r3.Sub(points[i], points[j])); d > best {
				best = d
			}
		}
	}
	return math.Sqrt(best)
}
