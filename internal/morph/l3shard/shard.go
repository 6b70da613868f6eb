package l3shard

import (
	"math"

	"github.com/banshee-data/morphometry/internal/morph/l1grid"
	"github.com/banshee-data/morphometry/internal/morph/l2labels"
)

// Shard splits touching objects of g's foreground (every non-zero label)
// into watershed basins:
//
//  1. Euclidean distance transform of the mask
//  2. Gaussian smoothing with p.Sigma
//  3. local maxima at least p.Neighborhood apart (boundary maxima allowed)
//  4. fully connected labelling of the maxima into seeds
//  5. marker watershed on the negated smoothed distance, inside the mask
//  6. normalisation with p.VolumeThreshold
//
// It returns the sharded grid and the surviving dense labels. An empty mask
// yields an all-zero grid and no labels.
func Shard(g *l1grid.LabelGrid, p Params) (*l1grid.LabelGrid, []uint32, error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}
	s := shapeOf(g)
	mask := g.Foreground()

	empty := true
	for _, on := range mask {
		if on {
			empty = false
			break
		}
	}
	if empty {
		diagf("empty mask %dx%dx%d; nothing to shard", g.Nx, g.Ny, g.Nz)
		return g.SameShape(), nil, nil
	}

	dist := DistanceTransform(mask, s, g.Spacing)
	smooth := GaussianSmooth(dist, s, p.Sigma)
	peaks := LocalMaxima(smooth, mask, s, p.Neighborhood)
	seedComponentsWithoutPeaks(peaks, smooth, mask, s)
	markers, nSeeds := LabelComponents(peaks, s, true)
	tracef("%d seeds from %d foreground voxels", nSeeds, countTrue(mask))

	neg := make([]float64, len(smooth))
	for i, v := range smooth {
		neg[i] = -v
	}
	basins := g.SameShape()
	basins.Data = Watershed(neg, markers, mask, s)

	out, survivors := l2labels.NormalizeGrid(basins, p.VolumeThreshold)
	diagf("sharded %d seeds into %d labels (threshold %d)", nSeeds, len(survivors), p.VolumeThreshold)
	return out, survivors, nil
}

// seedComponentsWithoutPeaks gives every face-connected foreground
// component without a peak a seed at its highest smoothed voxel, so that
// small objects near larger ones are never flooded away.
func seedComponentsWithoutPeaks(peaks []bool, smooth []float64, mask []bool, s shape) {
	comps, n := LabelComponents(mask, s, false)
	if n == 0 {
		return
	}
	hasPeak := make([]bool, n+1)
	best := make([]int, n+1)
	bestVal := make([]float64, n+1)
	for c := range bestVal {
		bestVal[c] = math.Inf(-1)
	}
	for i, c := range comps {
		if c == 0 {
			continue
		}
		if peaks[i] {
			hasPeak[c] = true
		}
		if smooth[i] > bestVal[c] {
			bestVal[c] = smooth[i]
			best[c] = i
		}
	}
	for c := 1; c <= n; c++ {
		if !hasPeak[c] {
			peaks[best[c]] = true
		}
	}
}

func countTrue(mask []bool) int {
	n := 0
	for _, on := range mask {
		if on {
			n++
		}
	}
	return n
}
