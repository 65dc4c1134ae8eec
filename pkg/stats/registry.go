package stats

import (
	"sort"
	"sync"
)

// Registry holds the statistic definitions and registry-wide filter
// templates for one model type.
//
// Registration is meant for single-threaded configuration at startup;
// mutation is guarded so a registry can also be assembled lazily, but
// registering while evaluations are in flight gives them an arbitrary
// before/after view of the change. Evaluation only reads.
type Registry struct {
	mu      sync.RWMutex
	defs    map[string]*Definition
	globals map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		defs:    make(map[string]*Definition),
		globals: make(map[string]string),
	}
}

// Register stores a calculated statistic under name, overwriting any prior
// definition of either variant. Overwriting is not an error; the last
// registration wins.
func (r *Registry) Register(name string, spec Spec) {
	def := newDefinition(name, spec)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[name] = def
}

// RegisterDerived stores a derived statistic under name; the same overwrite
// rule as Register applies.
func (r *Registry) RegisterDerived(name string, formula Formula) {
	def := newDerivedDefinition(name, formula)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[name] = def
}

// SetGlobalFilter maps a filter key to a condition template for every
// statistic in this registry, unless a definition overrides the key. The
// template must contain exactly one `?` placeholder; it is validated when
// filters compile.
func (r *Registry) SetGlobalFilter(key, template string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Copy-on-write so evaluations can hold the previous snapshot without
	// observing the mutation.
	globals := make(map[string]string, len(r.globals)+1)
	for k, v := range r.globals {
		globals[k] = v
	}
	globals[key] = template
	r.globals = globals
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// Names returns all registered statistic names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// globalFilters returns the current template snapshot. The returned map is
// immutable; SetGlobalFilter replaces it instead of mutating it.
func (r *Registry) globalFilters() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.globals
}
