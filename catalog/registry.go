// Package catalog implements the process-wide named-table registry: the
// sole mutable shared state in the engine, as spec.md §5 requires, guarded
// by a single mutex held for the duration of each operation.
package catalog

import (
	"sort"
	"sync"

	"github.com/queryflow/pipeql/table"
)

// Registry is a mutex-guarded name -> *table.Table map.
type Registry struct {
	mu     sync.Mutex
	tables map[string]*table.Table
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{tables: make(map[string]*table.Table)}
}

// Set installs (or overwrites) a named table.
func (r *Registry) Set(name string, t *table.Table) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[name] = t
}

// Get returns the table registered under name, or nil, false if absent.
func (r *Registry) Get(name string) (*table.Table, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tables[name]
	return t, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tables[name]
	return ok
}

// Delete removes name, returning whether it existed.
func (r *Registry) Delete(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tables[name]
	delete(r.tables, name)
	return ok
}

// Clear drops every entry.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables = make(map[string]*table.Table)
}

// List enumerates registered names in sorted (stable) order. spec.md only
// requires "any stable order"; sorted is the simplest one to test against.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.tables))
	for n := range r.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
