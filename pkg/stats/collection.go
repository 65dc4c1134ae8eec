package stats

import "context"

// Collection is the queryable capability the engine consumes. Implementations
// wrap a concrete record store; pkg/storage/sqlstore provides the SQL one.
type Collection interface {
	// ApplyScope returns the collection narrowed by the named scope. The
	// receiver is not modified. An unrecognized name is reported with an
	// error matching ErrUnknownScope.
	ApplyScope(name string) (Collection, error)

	// IDColumn names the identity column aggregates default to when a
	// definition does not target a specific column.
	IDColumn() string

	// Calculate runs the aggregate identified by kind over column, under the
	// conditions and pass-through options in opts, and returns the numeric
	// result.
	//
	// Empty input follows the underlying aggregate's convention: Count and
	// Sum of no rows are 0, and implementations surface the absent result of
	// Average, Minimum and Maximum over no rows as 0 as well (SQL NULL scans
	// to zero). Callers that must distinguish "no rows" from a genuine zero
	// should count first.
	Calculate(ctx context.Context, kind CalcKind, column string, opts QueryOptions) (float64, error)
}

// applyScopes folds the named scopes over base from left to right. The
// sentinel ScopeAll applies no narrowing wherever it appears.
func applyScopes(base Collection, scopes []string) (Collection, error) {
	current := base
	for _, name := range scopes {
		if name == ScopeAll {
			continue
		}
		narrowed, err := current.ApplyScope(name)
		if err != nil {
			return nil, err
		}
		current = narrowed
	}
	return current, nil
}
