// Package sqlite contains SQLite repository implementations for
// morphometry runs and their statistics tables.
//
// All database read/write operations for measurement output belong here
// rather than in the layer packages (L1-L5) or the pipeline. The schema
// itself is owned by internal/db migrations.
package sqlite
