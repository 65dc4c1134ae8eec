package stats

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// maxDerivedDepth bounds recursion through derived statistics. A chain this
// deep is assumed to be a definition cycle rather than a legitimate formula.
const maxDerivedDepth = 64

// DefaultParallelism bounds how many statistics EvaluateAll computes
// concurrently when Evaluator.Parallelism is unset.
const DefaultParallelism = 4

// Source produces evaluated statistics. Evaluator implements it directly;
// pkg/cache wraps one Source in another.
type Source interface {
	Evaluate(ctx context.Context, name string, filters Filters) (float64, error)
	EvaluateAll(ctx context.Context, filters Filters, except ...string) (map[string]float64, error)
	Names() []string
}

// Observer receives the outcome of every top-level evaluation, one call per
// statistic. Implementations must be safe for concurrent use; EvaluateAll
// reports from its worker goroutines.
type Observer interface {
	ObserveEvaluation(name string, duration time.Duration, err error)
}

// Evaluator binds a registry to the model's base collection and answers
// statistic queries. It is safe for concurrent use; every call compiles its
// own condition and shares no mutable state with other calls.
type Evaluator struct {
	registry   *Registry
	collection Collection
	observer   Observer

	// Parallelism bounds concurrent statistic evaluation in EvaluateAll.
	// Values below 1 fall back to DefaultParallelism. Set before first use.
	Parallelism int
}

// NewEvaluator creates an evaluator over the given registry and collection.
func NewEvaluator(registry *Registry, collection Collection) *Evaluator {
	return &Evaluator{registry: registry, collection: collection}
}

// Names lists the registered statistic names, sorted.
func (e *Evaluator) Names() []string {
	return e.registry.Names()
}

// SetObserver installs an evaluation observer. Only top-level evaluations are
// reported; the dependencies a derived statistic pulls in are part of its own
// measurement. Set before first use.
func (e *Evaluator) SetObserver(o Observer) {
	e.observer = o
}

// Evaluate computes the named statistic under the given filter context.
// Unknown names are ErrNotFound.
func (e *Evaluator) Evaluate(ctx context.Context, name string, filters Filters) (float64, error) {
	return e.observed(ctx, name, filters)
}

func (e *Evaluator) observed(ctx context.Context, name string, filters Filters) (float64, error) {
	if e.observer == nil {
		return e.evaluate(ctx, name, filters, 0)
	}
	start := time.Now()
	value, err := e.evaluate(ctx, name, filters, 0)
	e.observer.ObserveEvaluation(name, time.Since(start), err)
	return value, err
}

func (e *Evaluator) evaluate(ctx context.Context, name string, filters Filters, depth int) (float64, error) {
	if depth > maxDerivedDepth {
		return 0, fmt.Errorf("%w: %q", ErrCyclicDependency, name)
	}

	def, ok := e.registry.Lookup(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	if def.Derived() {
		// The getter binds the ambient filter context explicitly; formulas
		// never share evaluation state through the evaluator itself.
		get := func(sibling string) (float64, error) {
			return e.evaluate(ctx, sibling, filters, depth+1)
		}
		value, err := def.formula(ctx, get)
		if err != nil {
			return 0, fmt.Errorf("statistic %q: %w", name, err)
		}
		return value, nil
	}

	compiled, err := compileFilters(def.query.Conditions, filters, def.filters, e.registry.globalFilters())
	if err != nil {
		return 0, fmt.Errorf("statistic %q: %w", name, err)
	}

	narrowed, err := applyScopes(e.collection, def.scopes)
	if err != nil {
		return 0, fmt.Errorf("statistic %q: %w", name, err)
	}

	value, err := execute(ctx, narrowed, def, compiled)
	if err != nil {
		return 0, fmt.Errorf("statistic %q: %w", name, err)
	}
	return value, nil
}

// EvaluateAll computes every registered statistic except the given names,
// all under the same filter context, and returns a name→value map. Any
// single failure fails the whole call; no partial map is returned.
func (e *Evaluator) EvaluateAll(ctx context.Context, filters Filters, except ...string) (map[string]float64, error) {
	skip := make(map[string]bool, len(except))
	for _, name := range except {
		skip[name] = true
	}

	limit := e.Parallelism
	if limit < 1 {
		limit = DefaultParallelism
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)

	var mu sync.Mutex
	results := make(map[string]float64)

	for _, name := range e.registry.Names() {
		if skip[name] {
			continue
		}
		name := name
		eg.Go(func() error {
			value, err := e.observed(ctx, name, filters)
			if err != nil {
				return err
			}
			mu.Lock()
			results[name] = value
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
