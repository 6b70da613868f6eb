package l5measure

import (
	"fmt"

	"github.com/banshee-data/morphometry/internal/morph/l1grid"
)

// Operator measures one object. It returns false when the object is
// geometrically degenerate; a returned record is always complete.
// Operators are immutable and safe for concurrent use.
type Operator interface {
	Measure(obj l1grid.Object) (Record, bool)
}

// NewOperator returns the 2D operator for single-slice grids and the 3D
// operator otherwise.
func NewOperator(g *l1grid.LabelGrid, opts Options) (Operator, error) {
	if g.Is2D() {
		return NewOperator2D(g.Spacing, opts)
	}
	return NewOperator3D(g.Spacing, opts)
}

// BorderOnly reports whether the operator for g consumes border points
// only, which is how 2D objects are scanned.
func BorderOnly(g *l1grid.LabelGrid) bool { return g.Is2D() }

func validateSetup(spacing l1grid.Spacing, opts Options) error {
	if err := spacing.Validate(); err != nil {
		return fmt.Errorf("invalid spacing: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}
