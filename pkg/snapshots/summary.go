package snapshots

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// Summary condenses a statistic's history into distribution measures.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	P90    float64 `json:"p90"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summarize computes distribution measures over the given points. It returns
// ErrNoHistory when points is empty.
func Summarize(points []Point) (Summary, error) {
	if len(points) == 0 {
		return Summary{}, ErrNoHistory
	}

	data := make([]float64, len(points))
	for i, p := range points {
		data[i] = p.Value
	}

	mean, err := stats.Mean(data)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to compute mean: %w", err)
	}
	median, err := stats.Median(data)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to compute median: %w", err)
	}
	stdDev, err := stats.StandardDeviation(data)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to compute standard deviation: %w", err)
	}
	p90, err := stats.Percentile(data, 90)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to compute p90: %w", err)
	}
	min, err := stats.Min(data)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to compute min: %w", err)
	}
	max, err := stats.Max(data)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to compute max: %w", err)
	}

	return Summary{
		Count:  len(points),
		Mean:   mean,
		Median: median,
		StdDev: stdDev,
		P90:    p90,
		Min:    min,
		Max:    max,
	}, nil
}
