package stats

import "fmt"

// Condition is a structured query predicate: an SQL-ish expression with `?`
// placeholders and the parameter values bound to them, in order. The engine
// only ever builds conditions in this parameterized form; values are never
// interpolated into the expression text.
type Condition struct {
	Expr string
	Args []any
}

// QueryOptions carries pass-through options forwarded to the collection's
// query executor. Conditions may be pre-populated by the caller in either
// supported representation: a plain string predicate or a Condition. The
// filter compiler extends whichever representation is present without losing
// it.
type QueryOptions struct {
	// Conditions is nil (absent), a string, or a Condition.
	Conditions any

	// Joins are forwarded verbatim to the query executor.
	Joins []string

	// Distinct asks the executor to aggregate over distinct column values.
	Distinct bool
}

func (o QueryOptions) clone() QueryOptions {
	c := o
	c.Joins = append([]string(nil), o.Joins...)
	if cond, ok := o.Conditions.(Condition); ok {
		cond.Args = append([]any(nil), cond.Args...)
		c.Conditions = cond
	}
	return c
}

// MergeConditions extends base with the given fragments, combined with
// logical AND. The three base representations are preserved:
//
//   - nil (or an empty string): the combined fragments become the condition
//     outright;
//   - a plain string predicate: fragments are appended as "AND <expr>", and
//     the result stays a string while no bound parameters are involved;
//   - a Condition: fragments extend the expression, their parameters are
//     appended after the existing ones, which remain untouched.
//
// Any other base type is ErrBadConditions.
func MergeConditions(base any, frags ...Condition) (any, error) {
	var expr string
	var args []any
	stringBase := false

	switch b := base.(type) {
	case nil:
	case string:
		expr = b
		stringBase = true
	case Condition:
		expr = b.Expr
		args = append(args, b.Args...)
	default:
		return nil, fmt.Errorf("%w: %T", ErrBadConditions, base)
	}

	for _, f := range frags {
		if f.Expr == "" {
			continue
		}
		if expr == "" {
			expr = f.Expr
		} else {
			expr += " AND " + f.Expr
		}
		args = append(args, f.Args...)
	}

	if expr == "" {
		return nil, nil
	}
	if stringBase && len(args) == 0 {
		return expr, nil
	}
	return Condition{Expr: expr, Args: args}, nil
}
