package cache

import (
	"fmt"
	"sort"
	"strings"

	"github.com/platinummonkey/tally/pkg/stats"
)

// Key builds the canonical cache key for one statistic evaluation.
//
// Filter keys are sorted so identical contexts produce identical keys
// regardless of map iteration order. Changing this format orphans existing
// entries; they age out on TTL, so no migration is needed.
func Key(name string, filters stats.Filters) string {
	if len(filters) == 0 {
		return "tally:stat:" + name
	}

	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("tally:stat:")
	b.WriteString(name)
	sep := "?"
	for _, k := range keys {
		b.WriteString(sep)
		b.WriteString(k)
		b.WriteString("=")
		fmt.Fprintf(&b, "%v", filters[k])
		sep = "&"
	}
	return b.String()
}
