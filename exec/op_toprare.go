package exec

import (
	"sort"

	"github.com/queryflow/pipeql/ast"
	"github.com/queryflow/pipeql/perr"
	"github.com/queryflow/pipeql/table"
)

// TopRareOperator implements `top`/`rare`: count rows per distinct value
// of the given field(s) and keep the N most (top) or least (rare)
// frequent combinations, adding a "count" column.
type TopRareOperator struct{ rare bool }

func (o TopRareOperator) Execute(c *Context, in *table.Table, node *ast.PipeCommandNode) (*table.Table, error) {
	fields := positionalStrings(node)
	if len(fields) == 0 {
		return nil, perr.Semantic("top/rare requires at least one field")
	}
	n := 10
	kv := keywordArgs(node)
	if v, ok := kv["count"]; ok {
		n = int(toInt64(nodeLiteralValue(v)))
	}

	groups := in.GroupBy(fields)
	out := table.New()
	for _, f := range fields {
		out.AddColumn(f, table.Any)
	}
	out.AddColumn("count", table.Int64)

	type counted struct {
		key   []any
		count int
	}
	var rows []counted
	for _, g := range groups {
		rows = append(rows, counted{key: g.Key, count: len(g.RowIdxs)})
	}
	sort.Slice(rows, func(i, j int) bool {
		if o.rare {
			return rows[i].count < rows[j].count
		}
		return rows[i].count > rows[j].count
	})
	if n < len(rows) {
		rows = rows[:n]
	}
	for _, r := range rows {
		row := append([]any{}, r.key...)
		row = append(row, int64(r.count))
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}
