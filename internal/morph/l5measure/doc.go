// Package l5measure owns Layer 5 (Measurement) of the morphometry data model.
//
// Responsibilities: size-class tables, the 2D and 3D measurement operators
// that turn one object's point set into a fixed-schema record, and the
// append-only statistics table those records accumulate in.
// Key types: SizeClassTable, Options, Operator2D, Operator3D,
// Measurement2D, Measurement3D, StatisticsTable.
//
// An operator either returns a complete record or reports no result;
// geometric degeneracy is never an error.
//
// Dependency rule: L5 may depend on L1-L4, but never on the pipeline or
// storage packages.
// No SQL/database code is allowed in this package.
package l5measure
