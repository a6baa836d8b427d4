package exec

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/queryflow/pipeql/ast"
	"github.com/queryflow/pipeql/perr"
	"github.com/queryflow/pipeql/table"
)

// positionalStrings extracts the literal/identifier string values of
// every PositionalArgument on node, used by commands whose arguments
// are a bare comma-separated field list (select, rename's pairs, dedup...).
func positionalStrings(node *ast.PipeCommandNode) []string {
	var out []string
	for _, a := range node.Arguments {
		if pa, ok := a.(*ast.PositionalArgument); ok {
			out = append(out, nodeToFieldName(pa.Value))
		}
	}
	return out
}

func nodeToFieldName(n ast.Node) string {
	switch v := n.(type) {
	case *ast.Identifier:
		return v.Name
	case *ast.Literal:
		return fmt.Sprint(v.Value)
	default:
		return ""
	}
}

func keywordArgs(node *ast.PipeCommandNode) map[string]ast.Node {
	out := map[string]ast.Node{}
	for _, a := range node.Arguments {
		if ka, ok := a.(*ast.KeywordArgument); ok {
			out[strings.ToLower(ka.Key)] = ka.Value
		}
	}
	return out
}

func nodeLiteralString(n ast.Node) string {
	switch v := n.(type) {
	case *ast.Literal:
		return fmt.Sprint(v.Value)
	case *ast.Identifier:
		return v.Name
	default:
		return ""
	}
}

// HeadOperator implements `head`/`limit`: keep the first N rows.
type HeadOperator struct{}

func (HeadOperator) Execute(c *Context, in *table.Table, node *ast.PipeCommandNode) (*table.Table, error) {
	n := 10
	if len(node.Arguments) > 0 {
		if pa, ok := node.Arguments[0].(*ast.PositionalArgument); ok {
			if lit, ok := pa.Value.(*ast.Literal); ok {
				n = int(toInt64(lit.Value))
			}
		}
	}
	return in.Head(n), nil
}

// TailOperator implements `tail`: keep the last N rows.
type TailOperator struct{}

func (TailOperator) Execute(c *Context, in *table.Table, node *ast.PipeCommandNode) (*table.Table, error) {
	n := 10
	if len(node.Arguments) > 0 {
		if pa, ok := node.Arguments[0].(*ast.PositionalArgument); ok {
			if lit, ok := pa.Value.(*ast.Literal); ok {
				n = int(toInt64(lit.Value))
			}
		}
	}
	return in.Tail(n), nil
}

func toInt64(v interface{}) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case float64:
		return int64(x)
	default:
		return 0
	}
}

// SortOperator implements `sort`: the parser encodes each field as a
// positional string literal, "-field" meaning descending.
type SortOperator struct{}

func (SortOperator) Execute(c *Context, in *table.Table, node *ast.PipeCommandNode) (*table.Table, error) {
	var keys []table.SortKey
	for _, f := range positionalStrings(node) {
		if strings.HasPrefix(f, "-") {
			keys = append(keys, table.SortKey{Field: strings.TrimPrefix(f, "-"), Ascending: false})
		} else {
			keys = append(keys, table.SortKey{Field: f, Ascending: true})
		}
	}
	if len(keys) == 0 {
		return nil, perr.Semantic("sort requires at least one field")
	}
	return in.SortBy(keys), nil
}

// ReverseOperator implements `reverse`: flip row order.
type ReverseOperator struct{}

func (ReverseOperator) Execute(c *Context, in *table.Table, node *ast.PipeCommandNode) (*table.Table, error) {
	return in.Reverse(), nil
}

// SelectOperator implements `select`/`fields`/`table`/`project`: project
// to the named columns, in the order given.
type SelectOperator struct{}

func (SelectOperator) Execute(c *Context, in *table.Table, node *ast.PipeCommandNode) (*table.Table, error) {
	names := positionalStrings(node)
	if len(names) == 0 {
		return nil, perr.Semantic("select requires at least one field")
	}
	for _, n := range names {
		if !in.HasColumn(n) {
			return nil, perr.ResolutionField("no such field: "+n, n)
		}
	}
	return in.Select(names), nil
}

// RenameOperator implements `rename old as new (, old as new)*`.
type RenameOperator struct{}

func (RenameOperator) Execute(c *Context, in *table.Table, node *ast.PipeCommandNode) (*table.Table, error) {
	out := in.Clone()
	pairs := renamePairs(node)
	for _, p := range pairs {
		idx := out.ColumnIndex(p[0])
		if idx < 0 {
			return nil, perr.ResolutionField("no such field: "+p[0], p[0])
		}
		out.Columns[idx].Name = p[1]
	}
	return out, nil
}

// renamePairs reads both rename spellings: `old as new` (adjacent
// positional identifiers, since a bare `as` between two identifiers
// isn't part of the expression grammar and so never gets attached as an
// alias) and `old=new` (a plain keyword argument).
func renamePairs(node *ast.PipeCommandNode) [][2]string {
	var pairs [][2]string
	var positional []string
	for _, a := range node.Arguments {
		switch v := a.(type) {
		case *ast.PositionalArgument:
			positional = append(positional, nodeToFieldName(v.Value))
		case *ast.KeywordArgument:
			pairs = append(pairs, [2]string{v.Key, nodeLiteralString(v.Value)})
		}
	}
	for i := 0; i+1 < len(positional); i += 2 {
		pairs = append(pairs, [2]string{positional[i], positional[i+1]})
	}
	return pairs
}

// DedupOperator implements `dedup`/`distinct`/`unique`: keep the first
// row seen for each distinct combination of the given fields (or every
// field, if none given).
type DedupOperator struct{}

func (DedupOperator) Execute(c *Context, in *table.Table, node *ast.PipeCommandNode) (*table.Table, error) {
	fields := positionalStrings(node)
	if len(fields) == 0 {
		fields = in.ColumnNames()
	}
	seen := map[string]bool{}
	out := in.Clone()
	out.Rows = nil
	for _, row := range in.Rows {
		key := dedupKey(in, row, fields)
		if seen[key] {
			continue
		}
		seen[key] = true
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

func dedupKey(t *table.Table, row []any, fields []string) string {
	var sb strings.Builder
	for _, f := range fields {
		idx := t.ColumnIndex(f)
		if idx >= 0 {
			fmt.Fprintf(&sb, "%v\x1f", row[idx])
		}
	}
	return sb.String()
}

// DropNullOperator implements `dropnull`/`dropna`: drop rows with a null
// in any of the given fields (or any field, if none given).
type DropNullOperator struct{}

func (DropNullOperator) Execute(c *Context, in *table.Table, node *ast.PipeCommandNode) (*table.Table, error) {
	fields := positionalStrings(node)
	idxs := []int{}
	if len(fields) == 0 {
		for i := range in.Columns {
			idxs = append(idxs, i)
		}
	} else {
		for _, f := range fields {
			idxs = append(idxs, in.ColumnIndex(f))
		}
	}
	return in.Filter(func(row []any) bool {
		for _, idx := range idxs {
			if idx >= 0 && row[idx] == nil {
				return false
			}
		}
		return true
	}), nil
}

// FillNullOperator implements `fillnull`/`fillna`/`fill`: replace null
// values with a given literal (default "0"), across every column or a
// named subset (`value=X field1, field2`).
type FillNullOperator struct{}

func (FillNullOperator) Execute(c *Context, in *table.Table, node *ast.PipeCommandNode) (*table.Table, error) {
	kv := keywordArgs(node)
	value := interface{}("0")
	if v, ok := kv["value"]; ok {
		value = nodeLiteralValue(v)
	}
	fields := positionalStrings(node)
	out := in.Clone()
	idxs := []int{}
	if len(fields) == 0 {
		for i := range out.Columns {
			idxs = append(idxs, i)
		}
	} else {
		for _, f := range fields {
			idxs = append(idxs, out.ColumnIndex(f))
		}
	}
	for _, row := range out.Rows {
		for _, idx := range idxs {
			if idx >= 0 && row[idx] == nil {
				row[idx] = value
			}
		}
	}
	return out, nil
}

func nodeLiteralValue(n ast.Node) interface{} {
	if lit, ok := n.(*ast.Literal); ok {
		return lit.Value
	}
	return nodeLiteralString(n)
}

// SampleOperator implements `sample`: keep roughly the given fraction
// (0 < p <= 1, default 0.1) of rows, or exactly N rows when given an
// integer count via `count=N`.
type SampleOperator struct{}

func (SampleOperator) Execute(c *Context, in *table.Table, node *ast.PipeCommandNode) (*table.Table, error) {
	kv := keywordArgs(node)
	if v, ok := kv["count"]; ok {
		n := int(toInt64(nodeLiteralValue(v)))
		if n >= in.NumRows() {
			return in.Clone(), nil
		}
		idxs := rand.Perm(in.NumRows())[:n]
		idxSet := map[int]bool{}
		for _, i := range idxs {
			idxSet[i] = true
		}
		out := in.Clone()
		out.Rows = nil
		for i, row := range in.Rows {
			if idxSet[i] {
				out.Rows = append(out.Rows, row)
			}
		}
		return out, nil
	}
	p := 0.1
	if v, ok := kv["p"]; ok {
		if f, ok2 := nodeLiteralValue(v).(float64); ok2 {
			p = f
		}
	}
	return in.Filter(func(row []any) bool { return rand.Float64() < p }), nil
}
