package snapshots

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/tally/pkg/stats"
)

// Run is one recorded evaluation pass: every statistic evaluated under the
// same filter context at the same instant.
type Run struct {
	ID      string             `json:"id"`
	TakenAt time.Time          `json:"taken_at"`
	Filters stats.Filters      `json:"filters,omitempty"`
	Values  map[string]float64 `json:"values"`
}

// Recorder evaluates statistics and persists the results.
type Recorder struct {
	db     *sql.DB
	source stats.Source
}

// NewRecorder creates a recorder that evaluates through source and writes
// snapshot rows through db.
func NewRecorder(db *sql.DB, source stats.Source) *Recorder {
	return &Recorder{db: db, source: source}
}

// RecordAll evaluates every registered statistic under the given filter
// context and inserts one snapshot row per statistic. All rows of a run
// share a freshly generated run id and timestamp; the run is committed
// atomically so history never sees a partial pass.
func (r *Recorder) RecordAll(ctx context.Context, filters stats.Filters, except ...string) (*Run, error) {
	values, err := r.source.EvaluateAll(ctx, filters, except...)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate statistics: %w", err)
	}

	run := &Run{
		ID:      uuid.New().String(),
		TakenAt: time.Now().UTC(),
		Filters: filters,
		Values:  values,
	}
	if err := r.insert(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

func (r *Recorder) insert(ctx context.Context, run *Run) error {
	filtersJSON, err := encodeFilters(run.Filters)
	if err != nil {
		return fmt.Errorf("failed to encode filters: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO statistic_snapshots (run_id, name, value, filters, taken_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, name := range sortedNames(run.Values) {
		_, err := tx.ExecContext(ctx, query, run.ID, name, run.Values[name], filtersJSON, run.TakenAt)
		if err != nil {
			return fmt.Errorf("failed to insert snapshot for %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot run: %w", err)
	}
	return nil
}

// encodeFilters keeps the filters column a JSON object even when the run had
// no filter context.
func encodeFilters(filters stats.Filters) ([]byte, error) {
	if len(filters) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(filters)
}

func sortedNames(values map[string]float64) []string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
