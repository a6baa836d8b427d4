// Package exec threads a Table through the operators a Plan names,
// mirroring the sequential execute()-per-command loop of the original
// source's engine, with a mutex-guarded process-wide table registry
// (catalog.Registry) as the only shared mutable state and a depth-
// limited SubqueryExecutor for join/append recursion.
package exec

import (
	"context"

	"github.com/queryflow/pipeql/ast"
	"github.com/queryflow/pipeql/catalog"
	"github.com/queryflow/pipeql/config"
	"github.com/queryflow/pipeql/perr"
	"github.com/queryflow/pipeql/table"
)

// Context carries everything an Operator needs beyond its own AST node:
// the shared registry, engine configuration, and the recursion depth of
// the subquery that is currently executing (0 at top level).
type Context struct {
	Ctx      context.Context
	Registry *catalog.Registry
	Config   *config.EngineConfig
	Depth    int
	Sub      *SubqueryExecutor
}

// WithDepth returns a shallow copy of c with Depth set to depth, used when
// entering a subquery.
func (c *Context) WithDepth(depth int) *Context {
	cp := *c
	cp.Depth = depth
	return &cp
}

// Operator is a single pipe-command implementation. Execute receives the
// table produced by the previous stage (or the source, for the first
// stage) and returns the table it produces.
type Operator interface {
	Execute(c *Context, in *table.Table, node *ast.PipeCommandNode) (*table.Table, error)
}

// Constructor builds a fresh Operator instance for one pipe-command
// invocation; operators are stateless across rows but may accumulate
// per-invocation state (e.g. transaction's running counters), so the
// registry hands back a constructor rather than a shared instance.
type Constructor func() Operator

// OperatorRegistry maps a lower-cased command keyword to its Operator
// constructor. Registration is last-write-wins, matching the original
// source's PipeMap.register decorator semantics: a later registration
// for the same keyword silently replaces the earlier one.
type OperatorRegistry struct {
	constructors map[string]Constructor
}

// NewOperatorRegistry builds a registry pre-populated with every
// built-in operator (see register.go).
func NewOperatorRegistry() *OperatorRegistry {
	r := &OperatorRegistry{constructors: map[string]Constructor{}}
	registerBuiltins(r)
	return r
}

// Register installs ctor under every given keyword, last call wins.
func (r *OperatorRegistry) Register(ctor Constructor, keywords ...string) {
	for _, k := range keywords {
		r.constructors[k] = ctor
	}
}

// New instantiates the operator registered for name, or a ResolutionError
// if no command with that keyword has been registered.
func (r *OperatorRegistry) New(name string) (Operator, error) {
	ctor, ok := r.constructors[name]
	if !ok {
		return nil, perr.Resolution("unknown pipe command: " + name)
	}
	return ctor(), nil
}
