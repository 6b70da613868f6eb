package l2labels

import (
	"sort"

	"github.com/banshee-data/morphometry/internal/morph/l1grid"
)

// Lookup maps a raw label (the index) to its dense label.
type Lookup []uint32

// Map returns the dense label for raw. Labels beyond the table map to 0.
func (l Lookup) Map(raw uint32) uint32 {
	if int(raw) >= len(l) {
		return 0
	}
	return l[raw]
}

// CountLabels returns the distinct labels of g in ascending order with their
// voxel counts. Background is included when present.
func CountLabels(g *l1grid.LabelGrid) (values []uint32, counts []int) {
	hist := make(map[uint32]int)
	for _, v := range g.Data {
		hist[v]++
	}
	values = make([]uint32, 0, len(hist))
	for v := range hist {
		values = append(values, v)
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	counts = make([]int, len(values))
	for i, v := range values {
		counts[i] = hist[v]
	}
	return values, counts
}

// Normalize builds the dense relabelling table for the given (label, count)
// pairs. Label 0 is excluded and always maps to 0. The remaining labels get
// ids 1..K by descending count; equal counts are ordered by ascending raw
// label. Ids whose count is below threshold collapse to 0. survivors lists
// the remaining non-zero ids in ascending order.
func Normalize(values []uint32, counts []int, threshold int) (lookup Lookup, survivors []uint32) {
	type entry struct {
		label uint32
		count int
	}
	entries := make([]entry, 0, len(values))
	var maxLabel uint32
	for i, v := range values {
		if v > maxLabel {
			maxLabel = v
		}
		if v == 0 {
			continue
		}
		entries = append(entries, entry{label: v, count: counts[i]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].label < entries[j].label
	})

	lookup = make(Lookup, int(maxLabel)+1)
	for rank, e := range entries {
		if e.count < threshold {
			continue
		}
		dense := uint32(rank + 1)
		lookup[e.label] = dense
		survivors = append(survivors, dense)
	}
	return lookup, survivors
}

// Apply returns a copy of g with every label passed through lookup.
func Apply(g *l1grid.LabelGrid, lookup Lookup) *l1grid.LabelGrid {
	out := g.SameShape()
	for i, v := range g.Data {
		out.Data[i] = lookup.Map(v)
	}
	return out
}

// NormalizeGrid counts g, normalises it with threshold and returns the
// relabelled grid together with the surviving dense labels.
func NormalizeGrid(g *l1grid.LabelGrid, threshold int) (*l1grid.LabelGrid, []uint32) {
	values, counts := CountLabels(g)
	lookup, survivors := Normalize(values, counts, threshold)
	return Apply(g, lookup), survivors
}
