// Package l1grid owns Layer 1 (Grid) of the morphometry data model.
//
// Responsibilities: the caller-owned label grid and its physical spacing,
// voxel coordinates, per-object point sets, and the reference object finder
// that scans a grid into monotonic batches.
// Key types: LabelGrid, Spacing, Voxel, Object, ObjectBatch, Finder.
//
// Dependency rule: L1 depends on nothing else in internal/morph.
// No SQL/database code is allowed in this package.
package l1grid
