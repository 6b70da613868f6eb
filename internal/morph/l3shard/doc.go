// Package l3shard owns Layer 3 (Shards) of the morphometry data model.
//
// Responsibilities: splitting touching objects of a foreground mask into
// shards with a marker-controlled watershed driven by peaks of the smoothed
// Euclidean distance transform, followed by label normalisation.
//
// Dependency rule: L3 may depend on L1-L2.
// No SQL/database code is allowed in this package.
package l3shard
