// Package l4geometry owns Layer 4 (Geometry) of the morphometry data model.
//
// Responsibilities: 2D and 3D convex hulls, rotating calipers, PCA
// ellipsoid fitting, maximum Feret search, and the grid-hashed spatial
// index used to drop isolated border points.
// Key types: Hull2D, Hull3D, CaliperResult, SpatialIndex.
//
// All coordinates are physical (spacing already applied). Degenerate input
// (too few points, collinear or coplanar sets) yields ErrDegenerate; the
// measurement layer turns that into "no result".
//
// Dependency rule: L4 may depend on L1-L3, but never on L5+.
// No SQL/database code is allowed in this package.
package l4geometry

import "errors"

// ErrDegenerate reports a point set with no well-defined hull or axes.
var ErrDegenerate = errors.New("degenerate point set")
