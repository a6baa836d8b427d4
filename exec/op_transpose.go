package exec

import (
	"fmt"

	"github.com/queryflow/pipeql/ast"
	"github.com/queryflow/pipeql/table"
)

// TransposeOperator implements `transpose`/`pivot`: swap rows and
// columns. Each original column becomes a row (labeled "field" by
// default, unless include_header=false), and each original row becomes
// a column — named from header_field's values when given, else col1,
// col2, ...
type TransposeOperator struct{}

func (TransposeOperator) Execute(c *Context, in *table.Table, node *ast.PipeCommandNode) (*table.Table, error) {
	if in.Empty() {
		return in.Clone(), nil
	}
	kv := keywordArgs(node)
	includeHeader := true
	if v, ok := kv["include_header"]; ok {
		includeHeader = nodeLiteralString(v) == "true" || nodeLiteralString(v) == "1" || nodeLiteralString(v) == "yes"
	}

	srcCols := in.Columns
	headerIdx := -1
	newHeaders := make([]string, in.NumRows())
	if v, ok := kv["header_field"]; ok {
		name := nodeLiteralString(v)
		headerIdx = in.ColumnIndex(name)
	}
	for i := 0; i < in.NumRows(); i++ {
		if headerIdx >= 0 {
			newHeaders[i] = fmt.Sprint(in.Rows[i][headerIdx])
		} else {
			newHeaders[i] = fmt.Sprintf("col%d", i+1)
		}
	}

	out := table.New()
	if includeHeader {
		out.AddColumn("field", table.Any)
	}
	for _, h := range newHeaders {
		out.AddColumn(h, table.Any)
	}

	for colIdx, col := range srcCols {
		if colIdx == headerIdx {
			continue
		}
		row := []any{}
		if includeHeader {
			row = append(row, col.Name)
		}
		for rowIdx := range in.Rows {
			row = append(row, in.Rows[rowIdx][colIdx])
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}
