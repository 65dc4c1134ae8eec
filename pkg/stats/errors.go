package stats

import "errors"

var (
	// ErrNotFound is returned when an unknown statistic name is requested.
	ErrNotFound = errors.New("statistic not found")

	// ErrUnknownFilter is returned when a runtime filter is supplied with no
	// matching condition template, neither per-statistic nor registry-wide.
	ErrUnknownFilter = errors.New("no condition template for filter key")

	// ErrUnknownScope is returned by a Collection when asked to apply a scope
	// name it does not recognize.
	ErrUnknownScope = errors.New("unknown scope")

	// ErrCyclicDependency is returned when derived statistics recurse past
	// the evaluation depth limit, which indicates a definition that depends
	// on itself directly or transitively.
	ErrCyclicDependency = errors.New("derived statistic recursion limit exceeded")

	// ErrCalculation wraps a failure reported by the underlying collection
	// while executing an aggregate. The collaborator's error remains
	// reachable through errors.Is/errors.As.
	ErrCalculation = errors.New("statistic calculation failed")

	// ErrBadTemplate is returned when a condition template does not contain
	// exactly one placeholder.
	ErrBadTemplate = errors.New("condition template must contain exactly one placeholder")

	// ErrBadConditions is returned when pass-through conditions are neither
	// absent, a plain string, nor a Condition.
	ErrBadConditions = errors.New("unsupported conditions representation")
)
