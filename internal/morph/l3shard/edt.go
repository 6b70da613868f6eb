package l3shard

import (
	"math"

	"github.com/banshee-data/morphometry/internal/morph/l1grid"
)

// DistanceTransform returns the Euclidean distance (physical units) from
// every voxel to the nearest background voxel, using the separable lower
// envelope algorithm of Felzenszwalb and Huttenlocher. The grid edge is not
// background: a mask without any background yields the grid diagonal
// everywhere inside it.
func DistanceTransform(mask []bool, s shape, spacing l1grid.Spacing) []float64 {
	d := make([]float64, len(mask))
	for i, fg := range mask {
		if fg {
			d[i] = math.Inf(1)
		}
	}

	n := max(s[0], s[1], s[2])
	f := make([]float64, n)
	out := make([]float64, n)
	v := make([]int, n)
	z := make([]float64, n+1)

	for axis := 0; axis < 3; axis++ {
		if s[axis] == 1 {
			continue
		}
		w := spacing[axis]
		s.forEachLine(axis, func(start, stride, n int) {
			for k := 0; k < n; k++ {
				f[k] = d[start+k*stride]
			}
			lowerEnvelope(f[:n], w, out[:n], v, z)
			for k := 0; k < n; k++ {
				d[start+k*stride] = out[k]
			}
		})
	}

	diag := 0.0
	for axis := 0; axis < 3; axis++ {
		if s[axis] == 1 {
			continue
		}
		ext := float64(s[axis]) * spacing[axis]
		diag += ext * ext
	}
	diag = math.Sqrt(diag)
	for i, sq := range d {
		if math.IsInf(sq, 1) {
			d[i] = diag
			continue
		}
		d[i] = math.Sqrt(sq)
	}
	return d
}

// lowerEnvelope computes the 1D squared distance transform of sampled
// function f with sample spacing w. Samples at +Inf never contribute.
func lowerEnvelope(f []float64, w float64, d []float64, v []int, z []float64) {
	k := -1
	for q := range f {
		if math.IsInf(f[q], 1) {
			continue
		}
		xq := float64(q) * w
		var s float64
		for {
			if k < 0 {
				s = math.Inf(-1)
				break
			}
			xp := float64(v[k]) * w
			s = ((f[q] + xq*xq) - (f[v[k]] + xp*xp)) / (2 * (xq - xp))
			if s > z[k] {
				break
			}
			k--
		}
		k++
		v[k] = q
		z[k] = s
		z[k+1] = math.Inf(1)
	}

	if k < 0 {
		for q := range d {
			d[q] = math.Inf(1)
		}
		return
	}
	j := 0
	for q := range d {
		xq := float64(q) * w
		for z[j+1] < xq {
			j++
		}
		dx := xq - float64(v[j])*w
		d[q] = dx*dx + f[v[j]]
	}
}
