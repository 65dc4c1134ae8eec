// Package definitions loads statistic registrations from a YAML manifest, so
// deployments can declare their statistics without recompiling. Derived
// statistics are formulas over other statistics and stay in code; a manifest
// only declares calculated ones.
package definitions

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/tally/pkg/stats"
	"github.com/platinummonkey/tally/pkg/storage/sqlstore"
)

// Manifest is the root of the statistics manifest file.
type Manifest struct {
	Version string `yaml:"version"`
	Model   Model  `yaml:"model"`

	// GlobalFilters maps filter keys to condition templates available to
	// every statistic in this manifest.
	GlobalFilters map[string]string `yaml:"global_filters"`

	Statistics []Statistic `yaml:"statistics"`
}

// Model names the table statistics aggregate over and the scopes statistics
// may reference.
type Model struct {
	Table    string              `yaml:"table"`
	IDColumn string              `yaml:"id_column"`
	Bind     string              `yaml:"bind"` // "question" or "dollar"; empty means dollar
	Scopes   map[string]ScopeDef `yaml:"scopes"`
}

// ScopeDef is one named narrowing. Where and Joins are trusted SQL written by
// whoever authors the manifest; Args are bound as parameters.
type ScopeDef struct {
	Where string   `yaml:"where"`
	Args  []any    `yaml:"args"`
	Joins []string `yaml:"joins"`
}

// Statistic is one calculated statistic registration.
type Statistic struct {
	Name     string            `yaml:"name"`
	Kind     string            `yaml:"kind"`
	Column   string            `yaml:"column"`
	Scopes   []string          `yaml:"scopes"`
	Filters  map[string]string `yaml:"filters"`
	Where    string            `yaml:"where"`
	Joins    []string          `yaml:"joins"`
	Distinct bool              `yaml:"distinct"`
}

// Load reads and parses a manifest file. The manifest is validated before it
// is returned.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse parses and validates manifest bytes.
func Parse(data []byte) (*Manifest, error) {
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := manifest.Validate(); err != nil {
		return nil, err
	}
	return &manifest, nil
}

// Validate checks the manifest for authoring mistakes that would otherwise
// only surface at evaluation time.
func (m *Manifest) Validate() error {
	if m.Model.Table == "" {
		return fmt.Errorf("model.table is required")
	}
	switch m.Model.Bind {
	case "", "dollar", "question":
	default:
		return fmt.Errorf("model.bind must be %q or %q, got %q", "dollar", "question", m.Model.Bind)
	}

	for key, template := range m.GlobalFilters {
		if err := validateTemplate(key, template); err != nil {
			return err
		}
	}

	for i, stat := range m.Statistics {
		if stat.Name == "" {
			return fmt.Errorf("statistics[%d]: name is required", i)
		}
		if _, err := stats.ParseCalcKind(stat.Kind); err != nil {
			return fmt.Errorf("statistic %q: %w", stat.Name, err)
		}
		for _, scope := range stat.Scopes {
			if scope == stats.ScopeAll {
				continue
			}
			if _, ok := m.Model.Scopes[scope]; !ok {
				return fmt.Errorf("statistic %q: undefined scope %q", stat.Name, scope)
			}
		}
		for key, template := range stat.Filters {
			if err := validateTemplate(key, template); err != nil {
				return fmt.Errorf("statistic %q: %w", stat.Name, err)
			}
		}
	}
	return nil
}

func validateTemplate(key, template string) error {
	if n := strings.Count(template, "?"); n != 1 {
		return fmt.Errorf("filter %q: template %q must contain exactly one placeholder, has %d", key, template, n)
	}
	return nil
}

// Apply registers the manifest's global filters and statistics into reg.
// Later entries overwrite earlier ones of the same name, matching the
// registry's own semantics.
func (m *Manifest) Apply(reg *stats.Registry) error {
	for key, template := range m.GlobalFilters {
		reg.SetGlobalFilter(key, template)
	}

	for _, stat := range m.Statistics {
		kind, err := stats.ParseCalcKind(stat.Kind)
		if err != nil {
			return fmt.Errorf("statistic %q: %w", stat.Name, err)
		}
		spec := stats.Spec{
			Kind:    kind,
			Column:  stat.Column,
			Scopes:  stat.Scopes,
			Filters: stat.Filters,
			Query: stats.QueryOptions{
				Joins:    stat.Joins,
				Distinct: stat.Distinct,
			},
		}
		if stat.Where != "" {
			spec.Query.Conditions = stat.Where
		}
		reg.Register(stat.Name, spec)
	}
	return nil
}

// Table builds the sqlstore collection the manifest's model describes.
func (m *Manifest) Table(db *sql.DB) (*sqlstore.Table, error) {
	scopes := make(map[string]sqlstore.Scope, len(m.Model.Scopes))
	for name, def := range m.Model.Scopes {
		scopes[name] = sqlstore.Scope{
			Expr:  def.Where,
			Args:  def.Args,
			Joins: def.Joins,
		}
	}

	bind := sqlstore.BindDollar
	if m.Model.Bind == "question" {
		bind = sqlstore.BindQuestion
	}

	return sqlstore.NewTable(db, sqlstore.TableConfig{
		Name:     m.Model.Table,
		IDColumn: m.Model.IDColumn,
		Bind:     bind,
		Scopes:   scopes,
	})
}

// Build assembles a fresh registry and collection from the manifest. Callers
// that define derived statistics register them on the returned registry
// before wiring an evaluator.
func (m *Manifest) Build(db *sql.DB) (*stats.Registry, *sqlstore.Table, error) {
	reg := stats.NewRegistry()
	if err := m.Apply(reg); err != nil {
		return nil, nil, err
	}
	table, err := m.Table(db)
	if err != nil {
		return nil, nil, err
	}
	return reg, table, nil
}
