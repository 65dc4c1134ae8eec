package snapshots

import (
	"context"
	"fmt"
	"time"
)

// Point is one recorded value of a statistic.
type Point struct {
	Value   float64   `json:"value"`
	TakenAt time.Time `json:"taken_at"`
}

// History returns every recorded value of the named statistic taken at or
// after since, oldest first. An unknown name yields an empty history, not an
// error; snapshot rows outlive definition reloads.
func (r *Recorder) History(ctx context.Context, name string, since time.Time) ([]Point, error) {
	query := `
		SELECT value, taken_at
		FROM statistic_snapshots
		WHERE name = $1 AND taken_at >= $2
		ORDER BY taken_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, name, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot history: %w", err)
	}
	defer rows.Close()

	var points []Point
	for rows.Next() {
		var p Point
		if err := rows.Scan(&p.Value, &p.TakenAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshot rows: %w", err)
	}
	return points, nil
}
