package exec

import (
	"github.com/queryflow/pipeql/ast"
	"github.com/queryflow/pipeql/perr"
	"github.com/queryflow/pipeql/table"
)

// CacheOperator implements `cache as name`/`new_cache as name`: register
// the current table under name in the shared catalog, passing the
// table through unchanged so the pipeline can continue past it.
type CacheOperator struct{}

func (CacheOperator) Execute(c *Context, in *table.Table, node *ast.PipeCommandNode) (*table.Table, error) {
	kv := keywordArgs(node)
	var name string
	if v, ok := kv["as"]; ok {
		name = nodeLiteralString(v)
	} else if fs := positionalStrings(node); len(fs) > 0 {
		name = fs[0]
	}
	if name == "" {
		return nil, perr.Semantic("cache requires a destination name (cache as <name>)")
	}
	c.Registry.Set(name, in.Clone())
	return in, nil
}
