package exec

import (
	"regexp"
	"strings"

	"github.com/queryflow/pipeql/ast"
	"github.com/queryflow/pipeql/perr"
	"github.com/queryflow/pipeql/table"
)

// ReplaceOperator implements `replace old=X new=Y [field1, field2]` (or
// `in=field`): a literal (non-regex) replacement of every cell whose
// whole value equals X; substrings are not replaced. With no fields
// given, every column is rewritten. `old`/`new` may each be "null" to
// mean the nil value, giving this command its dual role as both a
// value-rewrite and a null-coalescing tool. The `old with new` spelling
// and a regex= pattern form are not accepted; without old= and new= the
// command fails with a semantic error.
type ReplaceOperator struct{}

func (ReplaceOperator) Execute(c *Context, in *table.Table, node *ast.PipeCommandNode) (*table.Table, error) {
	kv := keywordArgs(node)
	oldV, hasOld := kv["old"]
	newV, hasNew := kv["new"]
	if !hasOld || !hasNew {
		return nil, perr.Semantic("replace requires old= and new= values")
	}
	oldVal := replaceLiteral(oldV)
	newVal := replaceLiteral(newV)

	fields := positionalStrings(node)
	if fields == nil {
		if v, ok := kv["in"]; ok {
			fields = []string{nodeLiteralString(v)}
		}
	}

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
			if idx >= 0 && looseValueEqual(row[idx], oldVal) {
				row[idx] = newVal
			}
		}
	}
	return out, nil
}

func replaceLiteral(n ast.Node) interface{} {
	if lit, ok := n.(*ast.Literal); ok {
		if s, ok2 := lit.Value.(string); ok2 && s == "null" {
			return nil
		}
		return lit.Value
	}
	if id, ok := n.(*ast.Identifier); ok {
		if id.Name == "null" {
			return nil
		}
		return id.Name
	}
	return nil
}

func looseValueEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a == b
}

// RexOperator implements `rex field=name "regex"` (sometimes spelled
// `regex`/`extract`): apply a regular expression with named capture
// groups to a field, adding one new column per named group. With
// `mode=sed`, or when the expression itself starts with `s/`, instead
// applies a sed-style `s/pattern/replacement/` substitution in place.
type RexOperator struct{}

func (RexOperator) Execute(c *Context, in *table.Table, node *ast.PipeCommandNode) (*table.Table, error) {
	kv := keywordArgs(node)
	fieldNode, ok := kv["field"]
	if !ok {
		return nil, perr.Semantic("rex requires field=<name>")
	}
	field := nodeLiteralString(fieldNode)
	idx := in.ColumnIndex(field)
	if idx < 0 {
		return nil, perr.ResolutionField("no such field: "+field, field)
	}

	if mode, ok := kv["mode"]; ok && nodeLiteralString(mode) == "sed" {
		return rexSed(in, idx, node)
	}
	if strings.HasPrefix(firstPositionalString(node), "s/") {
		return rexSed(in, idx, node)
	}

	pattern := firstPositionalString(node)
	if pattern == "" {
		return nil, perr.Semantic("rex requires a regular expression")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, perr.SemanticCommand("invalid regular expression: "+err.Error(), "rex")
	}
	names := re.SubexpNames()

	out := in.Clone()
	colIdxs := map[string]int{}
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, exists := colIdxs[n]; !exists {
			colIdxs[n] = out.AddColumn(n, table.Any)
		}
	}
	for rowIdx, row := range out.Rows {
		s, _ := row[idx].(string)
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		for i, n := range names {
			if n == "" {
				continue
			}
			out.Rows[rowIdx][colIdxs[n]] = m[i]
		}
	}
	return out, nil
}

func firstPositionalString(node *ast.PipeCommandNode) string {
	for _, a := range node.Arguments {
		if pa, ok := a.(*ast.PositionalArgument); ok {
			if lit, ok := pa.Value.(*ast.Literal); ok {
				if s, ok := lit.Value.(string); ok {
					return s
				}
			}
		}
	}
	return ""
}

// rexSed applies a sed-style s/pattern/replacement/ substitution,
// expected as the sole positional string argument, to every value of
// the target field.
func rexSed(in *table.Table, idx int, node *ast.PipeCommandNode) (*table.Table, error) {
	spec := firstPositionalString(node)
	pattern, replacement, ok := parseSedSpec(spec)
	if !ok {
		return nil, perr.SemanticCommand("rex mode=sed requires a s/pattern/replacement/ expression", "rex")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, perr.SemanticCommand("invalid regular expression: "+err.Error(), "rex")
	}
	out := in.Clone()
	for _, row := range out.Rows {
		s, ok := row[idx].(string)
		if !ok {
			continue
		}
		row[idx] = re.ReplaceAllString(s, replacement)
	}
	return out, nil
}

// parseSedSpec splits "s/pattern/replacement/" into its two halves,
// honoring backslash-escaped delimiters within each half.
func parseSedSpec(spec string) (pattern, replacement string, ok bool) {
	if len(spec) < 3 || spec[0] != 's' {
		return "", "", false
	}
	delim := spec[1]
	rest := spec[2:]
	var parts []string
	var cur []byte
	escaped := false
	for i := 0; i < len(rest); i++ {
		ch := rest[i]
		if escaped {
			if ch != delim {
				cur = append(cur, '\\')
			}
			cur = append(cur, ch)
			escaped = false
			continue
		}
		if ch == '\\' {
			escaped = true
			continue
		}
		if ch == delim {
			parts = append(parts, string(cur))
			cur = nil
			continue
		}
		cur = append(cur, ch)
	}
	if len(cur) > 0 {
		parts = append(parts, string(cur))
	}
	if len(parts) < 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}
