package l3shard

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// gaussianKernel returns the half kernel w[0..r] for sigma, truncated at
// four standard deviations and normalised over the full window.
func gaussianKernel(sigma float64) []float64 {
	r := int(4*sigma + 0.5)
	w := make([]float64, r+1)
	for k := range w {
		w[k] = math.Exp(-float64(k*k) / (2 * sigma * sigma))
	}
	// Every tap but the centre appears twice in the full window.
	floats.Scale(1/(2*floats.Sum(w)-w[0]), w)
	return w
}

// reflect maps an out-of-range index into [0, n) by mirroring about the
// edges (d c b a | a b c d | d c b a).
func reflect(i, n int) int {
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i - 1
	}
	return i
}

// GaussianSmooth applies a separable Gaussian of width sigma (voxels).
// Mirrored samples are summed in pairs so symmetric inputs stay exactly
// symmetric. sigma <= 0 returns a copy.
func GaussianSmooth(values []float64, s shape, sigma float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	if sigma <= 0 {
		return out
	}
	w := gaussianKernel(sigma)
	r := len(w) - 1

	n := max(s[0], s[1], s[2])
	line := make([]float64, n)
	for axis := 0; axis < 3; axis++ {
		if s[axis] == 1 {
			continue
		}
		s.forEachLine(axis, func(start, stride, n int) {
			for k := 0; k < n; k++ {
				line[k] = out[start+k*stride]
			}
			for i := 0; i < n; i++ {
				acc := w[0] * line[i]
				for k := 1; k <= r; k++ {
					acc += w[k] * (line[reflect(i-k, n)] + line[reflect(i+k, n)])
				}
				out[start+i*stride] = acc
			}
		})
	}
	return out
}
