package l3shard

// maxFilter returns the maximum of values over the box of half-width h
// around every voxel, clipped to the grid.
func maxFilter(values []float64, s shape, h int) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
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
				lo, hi := max(i-h, 0), min(i+h, n-1)
				m := line[lo]
				for k := lo + 1; k <= hi; k++ {
					if line[k] > m {
						m = line[k]
					}
				}
				out[start+i*stride] = m
			}
		})
	}
	return out
}

// LocalMaxima marks voxels inside mask that are positive and equal to the
// maximum of their (2h+1)-wide neighbourhood. Maxima on the grid boundary
// are kept.
func LocalMaxima(values []float64, mask []bool, s shape, h int) []bool {
	mx := maxFilter(values, s, h)
	peaks := make([]bool, len(values))
	for i, v := range values {
		peaks[i] = mask[i] && v > 0 && v == mx[i]
	}
	return peaks
}
