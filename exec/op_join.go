package exec

import (
	"github.com/queryflow/pipeql/ast"
	"github.com/queryflow/pipeql/perr"
	"github.com/queryflow/pipeql/table"
)

// JoinOperator implements `join field [subquery]`: run the bracketed
// subquery (recursing through the shared SubqueryExecutor so the depth
// limit applies), then left-join its table onto the input by the named
// field(s). A left row with no match is kept, right-side columns filled
// with null — join never decreases row count.
type JoinOperator struct{}

func (JoinOperator) Execute(c *Context, in *table.Table, node *ast.PipeCommandNode) (*table.Table, error) {
	fields := positionalStrings(node)
	if len(fields) == 0 {
		return nil, perr.Semantic("join requires at least one field")
	}
	if len(node.Subqueries) == 0 {
		return nil, perr.Semantic("join requires a bracketed subquery")
	}
	right, err := c.Sub.Run(c, node.Subqueries[0])
	if err != nil {
		return nil, err
	}
	return joinTables(in, right, fields)
}

func joinTables(left, right *table.Table, fields []string) (*table.Table, error) {
	leftIdxs := make([]int, len(fields))
	rightIdxs := make([]int, len(fields))
	for i, f := range fields {
		leftIdxs[i] = left.ColumnIndex(f)
		rightIdxs[i] = right.ColumnIndex(f)
		if leftIdxs[i] < 0 {
			return nil, perr.ResolutionField("no such field on left side of join: "+f, f)
		}
		if rightIdxs[i] < 0 {
			return nil, perr.ResolutionField("no such field on right side of join: "+f, f)
		}
	}

	rightExtraCols := []string{}
	rightExtraIdxs := []int{}
	for i, col := range right.Columns {
		if !contains(fields, col.Name) {
			rightExtraCols = append(rightExtraCols, col.Name)
			rightExtraIdxs = append(rightExtraIdxs, i)
		}
	}

	out := left.Clone()
	for _, name := range rightExtraCols {
		out.AddColumn(uniqueName(out, name), table.Any)
	}
	out.Rows = nil

	rightByKey := map[string][]int{}
	for ri, rrow := range right.Rows {
		k := joinKey(rrow, rightIdxs)
		rightByKey[k] = append(rightByKey[k], ri)
	}

	for _, lrow := range left.Rows {
		k := joinKey(lrow, leftIdxs)
		matches := rightByKey[k]
		if len(matches) == 0 {
			newRow := append([]any(nil), lrow...)
			for range rightExtraCols {
				newRow = append(newRow, nil)
			}
			out.Rows = append(out.Rows, newRow)
			continue
		}
		for _, ri := range matches {
			newRow := append([]any(nil), lrow...)
			for _, idx := range rightExtraIdxs {
				newRow = append(newRow, right.Rows[ri][idx])
			}
			out.Rows = append(out.Rows, newRow)
		}
	}
	return out, nil
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

func uniqueName(t *table.Table, name string) string {
	if !t.HasColumn(name) {
		return name
	}
	return name + "_2"
}

func joinKey(row []any, idxs []int) string {
	s := ""
	for _, idx := range idxs {
		s += toKey(row[idx]) + "\x1f"
	}
	return s
}

// AppendOperator implements `append [subquery]`: run the subquery and
// union its rows (column-name-aligned) onto the input.
type AppendOperator struct{}

func (AppendOperator) Execute(c *Context, in *table.Table, node *ast.PipeCommandNode) (*table.Table, error) {
	if len(node.Subqueries) == 0 {
		return nil, perr.Semantic("append requires a bracketed subquery")
	}
	other, err := c.Sub.Run(c, node.Subqueries[0])
	if err != nil {
		return nil, err
	}
	return table.Union(in, other), nil
}
