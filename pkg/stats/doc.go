// Package stats implements the statistic registration and evaluation engine
// at the heart of Tally.
//
// # Overview
//
// A model type declares named statistics: aggregate computations (count, sum,
// average, minimum, maximum) over a filtered, scoped subset of its records,
// plus derived statistics computed from sibling statistics via arbitrary
// formulas. Consumers request one or all statistics, optionally supplying
// runtime filter values that are compiled into parameterized query
// conditions.
//
// The engine never touches storage directly. It consumes a Collection
// capability (see pkg/storage/sqlstore for the SQL implementation) and
// produces numeric results.
//
// # Usage Example
//
// Registration happens once, at configuration time:
//
//	reg := stats.NewRegistry()
//	reg.SetGlobalFilter("channel", "channel = ?")
//	reg.Register("total_amount", stats.Spec{Kind: stats.Sum, Column: "amount"})
//	reg.Register("payment_count", stats.Spec{Kind: stats.Count})
//	reg.RegisterDerived("average_amount", func(ctx context.Context, get stats.Getter) (float64, error) {
//		total, err := get("total_amount")
//		if err != nil {
//			return 0, err
//		}
//		count, err := get("payment_count")
//		if err != nil {
//			return 0, err
//		}
//		if count == 0 {
//			return 0, nil
//		}
//		return total / count, nil
//	})
//
// Evaluation is read-only and safe for concurrent use:
//
//	eval := stats.NewEvaluator(reg, collection)
//	total, err := eval.Evaluate(ctx, "total_amount", stats.Filters{"channel": "web"})
//	all, err := eval.EvaluateAll(ctx, nil)
//
// # Filter Compilation
//
// Each filter key maps to a condition template with exactly one `?`
// placeholder. Runtime values are never interpolated into the template text;
// they travel as bound parameters next to the generated expression, and the
// storage collaborator binds them. Per-statistic templates override the
// registry-wide ones. Supplying a filter key with no template fails fast with
// ErrUnknownFilter.
//
// # Concurrency
//
// Register, RegisterDerived and SetGlobalFilter are meant for single-threaded
// configuration at startup and must not race with evaluation. Evaluate and
// EvaluateAll are read-only against the registry and may run concurrently
// without coordination; each call compiles its own condition and shares no
// mutable state.
//
// # Related Packages
//
//   - pkg/storage/sqlstore: SQL-backed Collection
//   - pkg/cache: memoizing wrappers around the evaluator
//   - pkg/definitions: YAML manifest loading into a Registry
package stats
