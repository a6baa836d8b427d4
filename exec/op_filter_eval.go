package exec

import (
	"github.com/queryflow/pipeql/ast"
	"github.com/queryflow/pipeql/exec/expr"
	"github.com/queryflow/pipeql/perr"
	"github.com/queryflow/pipeql/table"
)

// rowMap builds an expr.Row view of one table row by column name.
func rowMap(t *table.Table, row []any) expr.Row {
	m := make(expr.Row, len(t.Columns))
	for i, col := range t.Columns {
		m[col.Name] = row[i]
	}
	return m
}

// FilterOperator implements `filter`/`where`: keep rows for which the
// single boolean expression argument evaluates true. Never falls back
// to a native eval of any kind; every operand and function call is
// walked directly by exec/expr's interpreter.
type FilterOperator struct{}

func (FilterOperator) Execute(c *Context, in *table.Table, node *ast.PipeCommandNode) (*table.Table, error) {
	if len(node.Arguments) == 0 {
		return nil, perr.Semantic("filter requires a boolean expression")
	}
	pa, ok := node.Arguments[0].(*ast.PositionalArgument)
	if !ok {
		return nil, perr.Semantic("filter requires a boolean expression")
	}
	var evalErr error
	out := in.Filter(func(row []any) bool {
		if evalErr != nil {
			return false
		}
		ok, err := expr.EvaluateBool(pa.Value, rowMap(in, row))
		if err != nil {
			evalErr = err
			return false
		}
		return ok
	})
	if evalErr != nil {
		return nil, perr.Semantic("filter expression failed: " + evalErr.Error())
	}
	return out, nil
}

// EvalOperator implements `eval`/`calculate`/`compute`: each keyword
// argument `field = expression` computes a new (or replacement) column,
// evaluated left to right so later assignments can reference earlier
// ones in the same eval invocation.
type EvalOperator struct{}

func (EvalOperator) Execute(c *Context, in *table.Table, node *ast.PipeCommandNode) (*table.Table, error) {
	out := in.Clone()
	var assigns []*ast.KeywordArgument
	for _, a := range node.Arguments {
		if ka, ok := a.(*ast.KeywordArgument); ok {
			assigns = append(assigns, ka)
		}
	}
	if len(assigns) == 0 {
		return nil, perr.Semantic("eval requires at least one field=expression assignment")
	}
	for _, ka := range assigns {
		colIdx := out.AddColumn(ka.Key, table.Any)
		for i, row := range out.Rows {
			v, err := expr.Evaluate(ka.Value, rowMap(out, row))
			if err != nil {
				return nil, perr.SemanticCommand("eval: "+err.Error(), "eval")
			}
			out.Rows[i][colIdx] = v
		}
	}
	return out, nil
}
