// Package l2labels owns Layer 2 (Labels) of the morphometry data model.
//
// Responsibilities: counting labels in a grid and normalising raw labels
// into dense canonical ids ordered by descending voxel count.
//
// Dependency rule: L2 may depend on L1 only.
package l2labels
