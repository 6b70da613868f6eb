package l3shard

// LabelComponents labels the connected true regions of mask with ids
// 1..n in scan order. full selects full (8/26) rather than face (4/6)
// connectivity.
func LabelComponents(mask []bool, s shape, full bool) ([]uint32, int) {
	labels := make([]uint32, len(mask))
	var next uint32
	queue := make([]int, 0, 1024)
	var nbrs []int

	for i, on := range mask {
		if !on || labels[i] != 0 {
			continue
		}
		next++
		labels[i] = next
		queue = append(queue[:0], i)
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			nbrs = s.neighbours(nbrs[:0], cur, full)
			for _, j := range nbrs {
				if mask[j] && labels[j] == 0 {
					labels[j] = next
					queue = append(queue, j)
				}
			}
		}
	}
	return labels, int(next)
}
