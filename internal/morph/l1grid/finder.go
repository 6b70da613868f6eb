package l1grid

import "sort"

// DefaultWindowSize is the number of slabs scanned per finder window.
const DefaultWindowSize = 8

// FinderOptions controls how a Finder scans a grid.
type FinderOptions struct {
	// WindowSize is the number of slabs (Z planes for volumes, Y rows for
	// slices) read per scan window. Zero means DefaultWindowSize.
	WindowSize int

	// BorderOnly restricts each object's Voxels to its boundary voxels
	// (some neighbour, diagonals included, is outside the grid or carries
	// another label).
	// Object.Count still reports the full voxel count.
	BorderOnly bool
}

// Finder lazily scans a LabelGrid slab by slab and yields each label once,
// after the window containing its last slab has been read. Objects spanning
// several windows are therefore always delivered with their complete point set.
type Finder struct {
	grid *LabelGrid
	opts FinderOptions

	lastSlab map[uint32]int
	pending  map[uint32]*Object
	slabs    int
	next     int
}

// NewFinder prepares a finder for grid. It performs one counting pass so
// Total is known before the first batch.
func NewFinder(grid *LabelGrid, opts FinderOptions) *Finder {
	if opts.WindowSize <= 0 {
		opts.WindowSize = DefaultWindowSize
	}
	f := &Finder{
		grid:     grid,
		opts:     opts,
		lastSlab: make(map[uint32]int),
		pending:  make(map[uint32]*Object),
		slabs:    grid.Nz,
	}
	if grid.Is2D() {
		f.slabs = grid.Ny
	}
	for i, v := range grid.Data {
		if v == 0 {
			continue
		}
		f.lastSlab[v] = f.slabOf(i)
	}
	return f
}

// slabOf returns the slab index of linear index i. Data is scanned in
// index order, so the last write per label is its last slab.
func (f *Finder) slabOf(i int) int {
	if f.grid.Is2D() {
		return i / f.grid.Nx
	}
	return i / (f.grid.Nx * f.grid.Ny)
}

// Total returns the number of objects the finder will yield.
func (f *Finder) Total() int { return len(f.lastSlab) }

// Next returns the next non-empty batch, or false once the grid is exhausted.
func (f *Finder) Next() (ObjectBatch, bool) {
	g := f.grid
	slabLen := g.Nx * g.Ny
	if g.Is2D() {
		slabLen = g.Nx
	}

	for f.next < f.slabs {
		start := f.next
		end := start + f.opts.WindowSize
		if end > f.slabs {
			end = f.slabs
		}
		f.next = end

		for i := start * slabLen; i < end*slabLen; i++ {
			v := g.Data[i]
			if v == 0 {
				continue
			}
			obj := f.pending[v]
			if obj == nil {
				obj = &Object{Label: v}
				f.pending[v] = obj
			}
			obj.Count++
			vox := g.Coord(i)
			if f.opts.BorderOnly && !f.isBorder(vox, v) {
				continue
			}
			obj.Voxels = append(obj.Voxels, vox)
		}

		var done []uint32
		for label, obj := range f.pending {
			if f.lastSlab[obj.Label] < end {
				done = append(done, label)
			}
		}
		if len(done) == 0 {
			continue
		}
		sort.Slice(done, func(a, b int) bool { return done[a] < done[b] })

		batch := ObjectBatch{Marker: end, Objects: make([]Object, 0, len(done))}
		for _, label := range done {
			batch.Objects = append(batch.Objects, *f.pending[label])
			delete(f.pending, label)
		}
		return batch, true
	}
	return ObjectBatch{}, false
}

// isBorder reports whether vox touches the grid edge or a different label
// anywhere in its full (8 or 26) neighbourhood.
func (f *Finder) isBorder(vox Voxel, label uint32) bool {
	g := f.grid
	zr := 1
	if g.Is2D() {
		zr = 0
	}
	for dz := -zr; dz <= zr; dz++ {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				x, y, z := vox.X+dx, vox.Y+dy, vox.Z+dz
				if !g.InBounds(x, y, z) || g.At(x, y, z) != label {
					return true
				}
			}
		}
	}
	return false
}
