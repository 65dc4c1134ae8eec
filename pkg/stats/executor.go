package stats

import (
	"context"
	"fmt"
)

// execute runs def's aggregate against the (already narrowed) collection
// under the compiled conditions. compiled replaces the definition's
// pass-through conditions because compileFilters already extended them.
func execute(ctx context.Context, c Collection, def *Definition, compiled any) (float64, error) {
	opts := def.query.clone()
	opts.Conditions = compiled

	column := def.column
	if column == "" {
		column = c.IDColumn()
	}

	value, err := c.Calculate(ctx, def.kind, column, opts)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCalculation, err)
	}
	return value, nil
}
