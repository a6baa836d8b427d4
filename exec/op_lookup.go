package exec

import (
	"strings"

	"github.com/queryflow/pipeql/ast"
	"github.com/queryflow/pipeql/perr"
	"github.com/queryflow/pipeql/table"
)

// LookupOperator implements `lookup table="name" field=x [lookup_field=y]
// [output=a, b] [default=v]`: a left-join-shaped enrichment against a
// table registered in the shared catalog, grounded on lookup.py.
type LookupOperator struct{}

func (LookupOperator) Execute(c *Context, in *table.Table, node *ast.PipeCommandNode) (*table.Table, error) {
	kv := keywordArgs(node)
	tableName, ok := kv["table"]
	if !ok {
		return nil, perr.Semantic("lookup requires table=<name>")
	}
	fieldNode, ok := kv["field"]
	if !ok {
		return nil, perr.Semantic("lookup requires field=<name>")
	}
	field := nodeLiteralString(fieldNode)
	lookupField := field
	if v, ok := kv["lookup_field"]; ok {
		lookupField = nodeLiteralString(v)
	}

	lookupTable, ok := c.Registry.Get(nodeLiteralString(tableName))
	if !ok {
		return nil, perr.ResolutionField("lookup table not found: "+nodeLiteralString(tableName), nodeLiteralString(tableName))
	}

	srcIdx := in.ColumnIndex(field)
	if srcIdx < 0 {
		return nil, perr.ResolutionField("no such field in source: "+field, field)
	}
	lookupIdx := lookupTable.ColumnIndex(lookupField)
	if lookupIdx < 0 {
		return nil, perr.ResolutionField("no such field in lookup table: "+lookupField, lookupField)
	}

	var outputFields []string
	if v, ok := kv["output"]; ok {
		for _, f := range strings.Split(nodeLiteralString(v), ",") {
			outputFields = append(outputFields, strings.TrimSpace(f))
		}
	} else {
		for _, col := range lookupTable.Columns {
			if col.Name != lookupField {
				outputFields = append(outputFields, col.Name)
			}
		}
	}
	var defaultVal interface{}
	if v, ok := kv["default"]; ok {
		defaultVal = nodeLiteralValue(v)
	}

	index := map[string]int{}
	for ri, row := range lookupTable.Rows {
		index[toKey(row[lookupIdx])] = ri
	}

	out := in.Clone()
	outIdxs := make([]int, len(outputFields))
	for i, f := range outputFields {
		outIdxs[i] = out.AddColumn(f, table.Any)
	}
	for _, row := range out.Rows {
		ri, found := index[toKey(row[srcIdx])]
		for i, f := range outputFields {
			if found {
				row[outIdxs[i]] = lookupTable.Rows[ri][lookupTable.ColumnIndex(f)]
			} else {
				row[outIdxs[i]] = defaultVal
			}
		}
	}
	return out, nil
}
