package stats

import (
	"fmt"
	"strings"
)

// CalcKind identifies the aggregate operation a statistic performs.
type CalcKind int

const (
	// Count is the zero value: a registration that names no calculation kind
	// counts matching records. This default is deliberate, not an error.
	Count CalcKind = iota
	Sum
	Average
	Minimum
	Maximum
)

func (k CalcKind) String() string {
	switch k {
	case Count:
		return "count"
	case Sum:
		return "sum"
	case Average:
		return "average"
	case Minimum:
		return "minimum"
	case Maximum:
		return "maximum"
	default:
		return fmt.Sprintf("calckind(%d)", int(k))
	}
}

// ParseCalcKind converts a kind name into a CalcKind. It accepts the String
// forms plus the common SQL spellings avg, min and max. The empty string
// parses to Count, mirroring the registration default.
func ParseCalcKind(s string) (CalcKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "count":
		return Count, nil
	case "sum":
		return Sum, nil
	case "average", "avg":
		return Average, nil
	case "minimum", "min":
		return Minimum, nil
	case "maximum", "max":
		return Maximum, nil
	default:
		return Count, fmt.Errorf("unrecognized calculation kind %q", s)
	}
}
