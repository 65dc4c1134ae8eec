package stats

import (
	"fmt"
	"sort"
	"strings"
)

// Filters is the runtime filter context a statistic is evaluated under: a
// mapping from filter key to the value substituted into that key's condition
// template.
type Filters map[string]any

// present reports whether a filter value takes part in compilation. Absent
// values (nil), false and the empty string are skipped; everything else,
// including zero numbers, is kept.
func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	}
	return true
}

// compileFilters turns the runtime filters into one combined condition,
// extending base (the definition's pre-populated pass-through conditions, if
// any) per MergeConditions. Templates are looked up in overrides first, then
// globals; a present filter key without a template is ErrUnknownFilter.
//
// Keys are processed in sorted order so the generated expression text is
// reproducible. AND is commutative, so ordering is a convenience for tests
// and logs, not a correctness requirement.
func compileFilters(base any, filters Filters, overrides, globals map[string]string) (any, error) {
	if len(filters) == 0 {
		return MergeConditions(base)
	}

	keys := make([]string, 0, len(filters))
	for key, value := range filters {
		if !present(value) {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	frags := make([]Condition, 0, len(keys))
	for _, key := range keys {
		template, ok := overrides[key]
		if !ok {
			template, ok = globals[key]
		}
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, key)
		}
		if n := strings.Count(template, "?"); n != 1 {
			return nil, fmt.Errorf("%w: %q has %d", ErrBadTemplate, template, n)
		}
		frags = append(frags, Condition{Expr: template, Args: []any{filters[key]}})
	}

	return MergeConditions(base, frags...)
}
