package l2labels

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/morphometry/internal/morph/l1grid"
)

func TestNormalize_OrdersByDescendingCount(t *testing.T) {
	values := []uint32{0, 3, 5, 9}
	counts := []int{100, 10, 40, 25}

	lookup, survivors := Normalize(values, counts, 0)

	assert.Equal(t, uint32(0), lookup.Map(0))
	assert.Equal(t, uint32(1), lookup.Map(5))
	assert.Equal(t, uint32(2), lookup.Map(9))
	assert.Equal(t, uint32(3), lookup.Map(3))
	assert.Equal(t, []uint32{1, 2, 3}, survivors)
	assert.Len(t, lookup, 10)
}

func TestNormalize_TieBreaksOnRawLabel(t *testing.T) {
	lookup, _ := Normalize([]uint32{4, 2, 8}, []int{5, 5, 5}, 0)
	assert.Equal(t, uint32(1), lookup.Map(2))
	assert.Equal(t, uint32(2), lookup.Map(4))
	assert.Equal(t, uint32(3), lookup.Map(8))
}

func TestNormalize_ThresholdCollapsesSmallLabels(t *testing.T) {
	lookup, survivors := Normalize([]uint32{1, 2, 3}, []int{50, 4, 20}, 10)
	assert.Equal(t, uint32(1), lookup.Map(1))
	assert.Equal(t, uint32(2), lookup.Map(3))
	assert.Equal(t, uint32(0), lookup.Map(2))
	assert.Equal(t, []uint32{1, 2}, survivors)
}

func TestNormalize_EmptyInput(t *testing.T) {
	lookup, survivors := Normalize(nil, nil, 5)
	assert.Equal(t, Lookup{0}, lookup)
	assert.Empty(t, survivors)
	assert.Equal(t, uint32(0), lookup.Map(42))
}

// Property: for random label/count sets, 0 maps to 0, larger counts get
// smaller ids, and below-threshold labels vanish.
func TestNormalize_RandomisedProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 200; iter++ {
		n := rng.Intn(30)
		seen := map[uint32]bool{}
		var values []uint32
		var counts []int
		for len(values) < n {
			v := uint32(rng.Intn(60))
			if seen[v] {
				continue
			}
			seen[v] = true
			values = append(values, v)
			counts = append(counts, rng.Intn(50))
		}
		threshold := rng.Intn(20)
		lookup, survivors := Normalize(values, counts, threshold)

		require.Equal(t, uint32(0), lookup.Map(0))
		alive := map[uint32]bool{}
		for _, s := range survivors {
			alive[s] = true
		}
		for i, a := range values {
			if a == 0 {
				continue
			}
			da := lookup.Map(a)
			if counts[i] < threshold {
				require.Zero(t, da, "label %d count %d below %d", a, counts[i], threshold)
				continue
			}
			require.True(t, alive[da], "dense id %d missing from survivors", da)
			for j, b := range values {
				if b == 0 || counts[j] < threshold {
					continue
				}
				if counts[i] > counts[j] {
					require.Less(t, da, lookup.Map(b))
				}
			}
		}
		for i := 1; i < len(survivors); i++ {
			require.Less(t, survivors[i-1], survivors[i])
		}
	}
}

func TestNormalizeGrid(t *testing.T) {
	g := l1grid.MustLabelGrid(6, 1, 1, l1grid.UnitSpacing)
	copy(g.Data, []uint32{0, 9, 9, 9, 4, 2})

	out, survivors := NormalizeGrid(g, 1)
	// 9 is largest; 2 and 4 tie on count and order by raw label.
	assert.Equal(t, []uint32{0, 1, 1, 1, 3, 2}, out.Data)
	assert.Equal(t, []uint32{1, 2, 3}, survivors)
	assert.Equal(t, []uint32{0, 9, 9, 9, 4, 2}, g.Data, "input must not be modified")
}
