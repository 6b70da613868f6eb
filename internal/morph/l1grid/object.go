package l1grid

// Object is one label's point set as seen by a measurement operator.
// Count is the label's full voxel count; Voxels may be a subset of those
// voxels (border-only scans).
type Object struct {
	Label  uint32
	Count  int
	Voxels []Voxel
}

// ObjectBatch is a set of completed objects surfaced at one scan position.
// Marker increases monotonically across the batches of a single scan.
type ObjectBatch struct {
	Marker  int
	Objects []Object
}

// Len returns the number of objects in the batch.
func (b ObjectBatch) Len() int { return len(b.Objects) }
