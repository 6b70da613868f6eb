package l3shard

import "github.com/banshee-data/morphometry/internal/morph/l1grid"

// shape holds grid extents along X, Y, Z.
type shape [3]int

func shapeOf(g *l1grid.LabelGrid) shape { return shape{g.Nx, g.Ny, g.Nz} }

func (s shape) size() int { return s[0] * s[1] * s[2] }

func (s shape) stride(axis int) int {
	switch axis {
	case 0:
		return 1
	case 1:
		return s[0]
	default:
		return s[0] * s[1]
	}
}

func (s shape) coord(i int) [3]int {
	return [3]int{i % s[0], (i / s[0]) % s[1], i / (s[0] * s[1])}
}

// forEachLine calls fn with the start index of every line parallel to axis.
func (s shape) forEachLine(axis int, fn func(start, stride, n int)) {
	stride := s.stride(axis)
	n := s[axis]
	for i := 0; i < s.size(); i++ {
		if s.coord(i)[axis] != 0 {
			continue
		}
		fn(i, stride, n)
	}
}

// neighbours appends to dst the in-bounds neighbours of i. Face
// connectivity uses the 2*d axis neighbours; full connectivity uses every
// voxel of the surrounding 3^d block.
func (s shape) neighbours(dst []int, i int, full bool) []int {
	c := s.coord(i)
	dz := 1
	if s[2] == 1 {
		dz = 0
	}
	for z := -dz; z <= dz; z++ {
		for y := -1; y <= 1; y++ {
			for x := -1; x <= 1; x++ {
				nonZero := 0
				if x != 0 {
					nonZero++
				}
				if y != 0 {
					nonZero++
				}
				if z != 0 {
					nonZero++
				}
				if nonZero == 0 || (!full && nonZero > 1) {
					continue
				}
				nx, ny, nz := c[0]+x, c[1]+y, c[2]+z
				if nx < 0 || ny < 0 || nz < 0 || nx >= s[0] || ny >= s[1] || nz >= s[2] {
					continue
				}
				dst = append(dst, (nz*s[1]+ny)*s[0]+nx)
			}
		}
	}
	return dst
}
