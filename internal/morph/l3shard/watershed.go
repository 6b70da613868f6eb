package l3shard

import "container/heap"

type floodItem struct {
	value float64
	age   int
	idx   int
}

// floodQueue is a min-heap on (value, age).
type floodQueue []floodItem

func (q floodQueue) Len() int { return len(q) }
func (q floodQueue) Less(i, j int) bool {
	if q[i].value != q[j].value {
		return q[i].value < q[j].value
	}
	return q[i].age < q[j].age
}
func (q floodQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *floodQueue) Push(x interface{}) { *q = append(*q, x.(floodItem)) }
func (q *floodQueue) Pop() interface{} {
	old := *q
	it := old[len(old)-1]
	*q = old[:len(old)-1]
	return it
}

// Watershed floods values from the non-zero markers in ascending order,
// restricted to mask, using face connectivity. A voxel is labelled when it
// leaves the queue: it takes the label of its labelled neighbours, and when
// they disagree it joins the basin that is currently smallest (then the
// lower label). Mask voxels unreachable from any marker stay 0.
func Watershed(values []float64, markers []uint32, mask []bool, s shape) []uint32 {
	labels := make([]uint32, len(values))
	queued := make([]bool, len(values))
	counts := make(map[uint32]int)
	q := make(floodQueue, 0, len(values)/4+1)
	age := 0

	for i, m := range markers {
		if m == 0 || !mask[i] {
			continue
		}
		labels[i] = m
		counts[m]++
		queued[i] = true
		q = append(q, floodItem{value: values[i], age: age, idx: i})
		age++
	}
	heap.Init(&q)

	var nbrs []int
	for q.Len() > 0 {
		it := heap.Pop(&q).(floodItem)
		p := it.idx
		nbrs = s.neighbours(nbrs[:0], p, false)

		if labels[p] == 0 {
			var best uint32
			for _, j := range nbrs {
				l := labels[j]
				if l == 0 || l == best {
					continue
				}
				if best == 0 || counts[l] < counts[best] || (counts[l] == counts[best] && l < best) {
					best = l
				}
			}
			labels[p] = best
			counts[best]++
		}

		for _, j := range nbrs {
			if !mask[j] || queued[j] {
				continue
			}
			queued[j] = true
			heap.Push(&q, floodItem{value: values[j], age: age, idx: j})
			age++
		}
	}
	return labels
}
