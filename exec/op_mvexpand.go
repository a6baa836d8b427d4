package exec

import (
	"fmt"
	"strings"

	"github.com/queryflow/pipeql/ast"
	"github.com/queryflow/pipeql/perr"
	"github.com/queryflow/pipeql/table"
)

// MvExpandOperator implements `mvexpand`/`expand`/`explode`: expand a
// delimiter-separated (or already-comma-separated, by default) field
// into one row per value, duplicating every other column. An optional
// `limit=N` caps the number of expanded rows produced per original row.
type MvExpandOperator struct{}

func (MvExpandOperator) Execute(c *Context, in *table.Table, node *ast.PipeCommandNode) (*table.Table, error) {
	fields := positionalStrings(node)
	if len(fields) == 0 {
		return nil, perr.Semantic("mvexpand requires a field")
	}
	field := fields[0]
	idx := in.ColumnIndex(field)
	if idx < 0 {
		return nil, perr.ResolutionField("no such field: "+field, field)
	}
	kv := keywordArgs(node)
	delim := ","
	if v, ok := kv["delim"]; ok {
		delim = nodeLiteralString(v)
	}
	if v, ok := kv["delimiter"]; ok {
		delim = nodeLiteralString(v)
	}
	limit := -1
	if v, ok := kv["limit"]; ok {
		limit = int(toInt64(nodeLiteralValue(v)))
	}

	out := in.Clone()
	out.Rows = nil
	for _, row := range in.Rows {
		v := row[idx]
		if v == nil {
			out.Rows = append(out.Rows, row)
			continue
		}
		var parts []string
		switch x := v.(type) {
		case string:
			parts = strings.Split(x, delim)
		default:
			parts = []string{fmt.Sprint(x)}
		}
		if limit >= 0 && limit < len(parts) {
			parts = parts[:limit]
		}
		for _, p := range parts {
			newRow := append([]any(nil), row...)
			newRow[idx] = strings.TrimSpace(p)
			out.Rows = append(out.Rows, newRow)
		}
	}
	return out, nil
}
