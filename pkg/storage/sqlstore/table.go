// Package sqlstore implements stats.Collection over a SQL database. A Table
// renders each calculation as a single aggregate SELECT with parameterized
// conditions, so the database does the work and filter values never appear in
// query text.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/tally/pkg/stats"
)

var (
	tracer = otel.Tracer("tally/storage/sqlstore")
	meter  = otel.Meter("tally/storage/sqlstore")

	queryDuration metric.Float64Histogram
	queriesTotal  metric.Int64Counter
)

func init() {
	var err error
	queryDuration, err = meter.Float64Histogram(
		"db.query.duration",
		metric.WithDescription("Aggregate query duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		otel.Handle(err)
	}
	queriesTotal, err = meter.Int64Counter(
		"db.queries.total",
		metric.WithDescription("Total number of aggregate queries"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		otel.Handle(err)
	}
}

// Bind selects the placeholder style rendered queries use.
type Bind int

const (
	// BindQuestion keeps `?` placeholders as written (sqlite, mysql).
	BindQuestion Bind = iota
	// BindDollar rewrites `?` placeholders to `$1..$n` (postgres).
	BindDollar
)

// Scope is a named reusable narrowing: a condition fragment plus any joins
// the fragment needs. Scope text is registration-time code, not user input;
// only Args are bound as parameters.
type Scope struct {
	Expr  string
	Args  []any
	Joins []string
}

// TableConfig describes the table a Table aggregates over.
type TableConfig struct {
	// Name is the SQL table name.
	Name string
	// IDColumn is the column counts default to. Empty means "id".
	IDColumn string
	// Bind selects the placeholder style of the target database.
	Bind Bind
	// Scopes are the named narrowings statistic definitions may reference.
	Scopes map[string]Scope
}

// Table implements stats.Collection over a *sql.DB. The zero narrowing is
// the whole table; ApplyScope returns narrowed copies and leaves the receiver
// untouched, so one Table is safe to share across concurrent evaluations.
type Table struct {
	db     *sql.DB
	name   string
	idCol  string
	bind   Bind
	scopes map[string]Scope

	conds []stats.Condition
	joins []string
}

// NewTable creates a Table over db per cfg.
func NewTable(db *sql.DB, cfg TableConfig) (*Table, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("table name is required")
	}
	idCol := cfg.IDColumn
	if idCol == "" {
		idCol = "id"
	}
	scopes := make(map[string]Scope, len(cfg.Scopes))
	for name, scope := range cfg.Scopes {
		scopes[name] = scope
	}
	return &Table{db: db, name: cfg.Name, idCol: idCol, bind: cfg.Bind, scopes: scopes}, nil
}

// IDColumn implements stats.Collection.
func (t *Table) IDColumn() string { return t.idCol }

// ApplyScope implements stats.Collection. The named scope's condition and
// joins are added to the returned copy.
func (t *Table) ApplyScope(name string) (stats.Collection, error) {
	scope, ok := t.scopes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", stats.ErrUnknownScope, name)
	}
	narrowed := t.copy()
	if scope.Expr != "" {
		narrowed.conds = append(narrowed.conds, stats.Condition{
			Expr: scope.Expr,
			Args: append([]any(nil), scope.Args...),
		})
	}
	narrowed.joins = append(narrowed.joins, scope.Joins...)
	return narrowed, nil
}

func (t *Table) copy() *Table {
	c := *t
	c.conds = append([]stats.Condition(nil), t.conds...)
	c.joins = append([]string(nil), t.joins...)
	return &c
}

// Calculate implements stats.Collection: it renders and runs one aggregate
// SELECT. Aggregates over zero rows scan as NULL and coerce to zero.
func (t *Table) Calculate(ctx context.Context, kind stats.CalcKind, column string, opts stats.QueryOptions) (float64, error) {
	ctx, span := tracer.Start(ctx, "Table.Calculate",
		trace.WithAttributes(
			attribute.String("db.table", t.name),
			attribute.String("calculation.kind", kind.String()),
			attribute.String("calculation.column", column),
		),
	)
	defer span.End()

	query, args, err := t.render(kind, column, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to render aggregate")
		return 0, err
	}

	var value sql.NullFloat64
	start := time.Now()
	err = t.db.QueryRowContext(ctx, query, args...).Scan(&value)
	recordQuery(ctx, t.name, kind, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to execute aggregate")
		return 0, fmt.Errorf("failed to execute aggregate: %w", err)
	}
	if !value.Valid {
		return 0, nil
	}
	return value.Float64, nil
}

// recordQuery feeds one executed aggregate into the meter instruments.
func recordQuery(ctx context.Context, table string, kind stats.CalcKind, elapsed time.Duration, err error) {
	failed := "false"
	if err != nil {
		failed = "true"
	}
	attrs := metric.WithAttributes(
		attribute.String("db.table", table),
		attribute.String("calculation.kind", kind.String()),
		attribute.String("error", failed),
	)
	queriesTotal.Add(ctx, 1, attrs)
	queryDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// render assembles the aggregate SELECT text and its bound arguments.
// Identifiers (table, column, joins, scope expressions) are registration-time
// code; only condition values travel as parameters.
func (t *Table) render(kind stats.CalcKind, column string, opts stats.QueryOptions) (string, []any, error) {
	agg, err := aggregate(kind, column, opts.Distinct)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(agg)
	b.WriteString(" FROM ")
	b.WriteString(t.name)

	for _, join := range t.joins {
		b.WriteString(" ")
		b.WriteString(join)
	}
	for _, join := range opts.Joins {
		b.WriteString(" ")
		b.WriteString(join)
	}

	merged, err := stats.MergeConditions(opts.Conditions, t.conds...)
	if err != nil {
		return "", nil, err
	}

	var args []any
	switch cond := merged.(type) {
	case nil:
	case string:
		b.WriteString(" WHERE ")
		b.WriteString(cond)
	case stats.Condition:
		b.WriteString(" WHERE ")
		b.WriteString(cond.Expr)
		args = cond.Args
	}

	query := b.String()
	if t.bind == BindDollar {
		query = rebind(query)
	}
	return query, args, nil
}

func aggregate(kind stats.CalcKind, column string, distinct bool) (string, error) {
	if distinct {
		column = "DISTINCT " + column
	}
	switch kind {
	case stats.Count:
		return "COUNT(" + column + ")", nil
	case stats.Sum:
		return "SUM(" + column + ")", nil
	case stats.Average:
		return "AVG(" + column + ")", nil
	case stats.Minimum:
		return "MIN(" + column + ")", nil
	case stats.Maximum:
		return "MAX(" + column + ")", nil
	}
	return "", fmt.Errorf("unsupported calculation kind %s", kind)
}

// rebind rewrites ? placeholders to $1..$n.
func rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$")
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
