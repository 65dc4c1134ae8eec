package stats

import "context"

// ScopeAll is the sentinel scope name meaning "no narrowing". A definition
// whose scope chain is empty or [ScopeAll] evaluates against the base
// collection unchanged.
const ScopeAll = "all"

// Getter fetches a sibling statistic by name under the ambient filter
// context of the evaluation that invoked the formula.
type Getter func(name string) (float64, error)

// Formula is the body of a derived statistic. It combines the results of
// other statistics fetched through get; it must not retain get beyond the
// call. A formula that transitively fetches itself is reported as
// ErrCyclicDependency at evaluation time.
type Formula func(ctx context.Context, get Getter) (float64, error)

// Spec describes a calculated statistic at registration time.
//
// The zero value is meaningful: it counts all records of the model. Kind
// defaults to Count, an empty scope chain to no narrowing, and an empty
// Column to the collection's identity column.
type Spec struct {
	// Kind selects the aggregate operation.
	Kind CalcKind

	// Scopes is the ordered chain of named scopes the collection is narrowed
	// through before the aggregate runs. nil and [ScopeAll] apply no
	// narrowing.
	Scopes []string

	// Column is the target field of the aggregate.
	Column string

	// Filters maps filter keys to condition templates that override the
	// registry-wide templates for this statistic only.
	Filters map[string]string

	// Query is forwarded to the collection's query executor untouched except
	// for its Conditions, which the compiled filters extend.
	Query QueryOptions
}

// Definition is an immutable registered statistic: either a calculated one
// built from a Spec, or a derived one holding a Formula. Both variants share
// one name keyspace per registry, last registration winning.
type Definition struct {
	name    string
	kind    CalcKind
	column  string
	scopes  []string
	filters map[string]string
	query   QueryOptions
	formula Formula
}

func newDefinition(name string, spec Spec) *Definition {
	scopes := append([]string(nil), spec.Scopes...)
	if len(scopes) == 0 {
		scopes = []string{ScopeAll}
	}
	filters := make(map[string]string, len(spec.Filters))
	for k, v := range spec.Filters {
		filters[k] = v
	}
	return &Definition{
		name:    name,
		kind:    spec.Kind,
		column:  spec.Column,
		scopes:  scopes,
		filters: filters,
		query:   spec.Query.clone(),
	}
}

func newDerivedDefinition(name string, formula Formula) *Definition {
	return &Definition{name: name, formula: formula}
}

// Name returns the statistic's registered name.
func (d *Definition) Name() string { return d.name }

// Kind returns the aggregate operation. Meaningless for derived definitions.
func (d *Definition) Kind() CalcKind { return d.kind }

// Column returns the target column, or "" when the identity column applies.
func (d *Definition) Column() string { return d.column }

// Scopes returns a copy of the scope chain.
func (d *Definition) Scopes() []string { return append([]string(nil), d.scopes...) }

// Derived reports whether the definition holds a formula instead of an
// aggregate Spec.
func (d *Definition) Derived() bool { return d.formula != nil }
