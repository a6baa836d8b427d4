// Package expr is the dedicated AST-walking interpreter for the
// expression grammar shared by `filter`/`where` and `eval`. It exists
// precisely because the original source's eval.py falls back to a
// restricted-namespace call into the host language's native eval() for
// anything its hand-rolled string matching doesn't recognize — a
// porting hazard called out explicitly in this project's own design
// notes. Evaluate never stringifies and re-parses; it walks the
// ast.Node tree the parser already built.
package expr

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/queryflow/pipeql/ast"
)

// Row is the per-record field lookup the evaluator reads from: column
// name to cell value.
type Row map[string]interface{}

// Now is overridable for deterministic tests; it defaults to the wall
// clock, and nothing in the engine assigns it from configuration.
var Now = func() time.Time { return time.Now() }

// Evaluate walks node against row and returns its value. Errors surface
// as Go errors rather than panics; a missing field evaluates to nil
// (matching the source table model's null = nil convention) rather than
// raising. Callers do not check that referenced columns exist before
// evaluating, so a misspelled field reads as null rather than failing.
func Evaluate(node ast.Node, row Row) (interface{}, error) {
	switch n := node.(type) {
	case *ast.Literal:
		return n.Value, nil
	case *ast.Identifier:
		return row[n.Name], nil
	case *ast.UnaryOp:
		return evalUnary(n, row)
	case *ast.BinaryOp:
		return evalBinary(n, row)
	case *ast.FunctionCall:
		return evalFunction(n, row)
	default:
		return nil, fmt.Errorf("expr: cannot evaluate node of type %T", node)
	}
}

// EvaluateBool evaluates node and coerces the result to a boolean,
// treating nil as false (a missing/null field never satisfies a
// predicate).
func EvaluateBool(node ast.Node, row Row) (bool, error) {
	v, err := Evaluate(node, row)
	if err != nil {
		return false, err
	}
	if v == nil {
		return false, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return truthy(v), nil
	}
	return b, nil
}

func truthy(v interface{}) bool {
	switch x := v.(type) {
	case string:
		return x != ""
	case float64:
		return x != 0
	case int64:
		return x != 0
	case bool:
		return x
	default:
		return v != nil
	}
}

func evalUnary(n *ast.UnaryOp, row Row) (interface{}, error) {
	switch n.Operator {
	case "-":
		v, err := Evaluate(n.Operand, row)
		if err != nil {
			return nil, err
		}
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, err
		}
		return -f, nil
	case "not":
		b, err := EvaluateBool(n.Operand, row)
		if err != nil {
			return nil, err
		}
		return !b, nil
	default:
		return nil, fmt.Errorf("expr: unknown unary operator %q", n.Operator)
	}
}

func evalBinary(n *ast.BinaryOp, row Row) (interface{}, error) {
	switch n.Operator {
	case "and":
		l, err := EvaluateBool(n.Left, row)
		if err != nil || !l {
			return false, err
		}
		return EvaluateBool(n.Right, row)
	case "or":
		l, err := EvaluateBool(n.Left, row)
		if err != nil {
			return false, err
		}
		if l {
			return true, nil
		}
		return EvaluateBool(n.Right, row)
	case "in", "not_in":
		left, err := Evaluate(n.Left, row)
		if err != nil {
			return nil, err
		}
		list, ok := n.Right.(*ast.FunctionCall)
		if !ok || list.Name != "__list__" {
			return nil, fmt.Errorf("expr: right side of in/not in must be a value list")
		}
		found := false
		for _, item := range list.Arguments {
			v, err := Evaluate(item, row)
			if err != nil {
				return nil, err
			}
			if looseEqual(left, v) {
				found = true
				break
			}
		}
		if n.Operator == "not_in" {
			return !found, nil
		}
		return found, nil
	case "like":
		left, err := Evaluate(n.Left, row)
		if err != nil {
			return nil, err
		}
		pattern, err := Evaluate(n.Right, row)
		if err != nil {
			return nil, err
		}
		return likeMatch(cast.ToString(left), cast.ToString(pattern)), nil
	case "==", "!=", ">", "<", ">=", "<=":
		left, err := Evaluate(n.Left, row)
		if err != nil {
			return nil, err
		}
		right, err := Evaluate(n.Right, row)
		if err != nil {
			return nil, err
		}
		return compareOp(n.Operator, left, right), nil
	case "+", "-", "*", "/":
		left, err := Evaluate(n.Left, row)
		if err != nil {
			return nil, err
		}
		right, err := Evaluate(n.Right, row)
		if err != nil {
			return nil, err
		}
		return arith(n.Operator, left, right)
	default:
		return nil, fmt.Errorf("expr: unknown binary operator %q", n.Operator)
	}
}

func looseEqual(a, b interface{}) bool {
	if af, err := cast.ToFloat64E(a); err == nil {
		if bf, err := cast.ToFloat64E(b); err == nil {
			return af == bf
		}
	}
	return cast.ToString(a) == cast.ToString(b)
}

// likeMatch translates a SQL-style LIKE pattern (% = any run, _ = single
// char) into an anchored, case-sensitive regular expression, per the
// search semantics spelled out for LIKE.
func likeMatch(value, pattern string) bool {
	var sb strings.Builder
	sb.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			sb.WriteString(".*")
		case '_':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	re, err := regexp.Compile(sb.String())
	if err != nil {
		return false
	}
	return re.MatchString(value)
}

func compareOp(op string, a, b interface{}) bool {
	if a == nil || b == nil {
		switch op {
		case "==":
			return a == nil && b == nil
		case "!=":
			return !(a == nil && b == nil)
		default:
			return false
		}
	}
	if af, aerr := cast.ToFloat64E(a); aerr == nil {
		if bf, berr := cast.ToFloat64E(b); berr == nil {
			return numericCompare(op, af, bf)
		}
	}
	if at, aerr := cast.ToTimeE(a); aerr == nil {
		if bt, berr := cast.ToTimeE(b); berr == nil {
			return numericCompare(op, float64(at.UnixNano()), float64(bt.UnixNano()))
		}
	}
	as, bs := cast.ToString(a), cast.ToString(b)
	switch op {
	case "==":
		return as == bs
	case "!=":
		return as != bs
	case ">":
		return as > bs
	case "<":
		return as < bs
	case ">=":
		return as >= bs
	case "<=":
		return as <= bs
	}
	return false
}

func numericCompare(op string, a, b float64) bool {
	switch op {
	case "==":
		return a == b
	case "!=":
		return a != b
	case ">":
		return a > b
	case "<":
		return a < b
	case ">=":
		return a >= b
	case "<=":
		return a <= b
	}
	return false
}

func arith(op string, a, b interface{}) (interface{}, error) {
	if op == "+" {
		as, aIsStr := a.(string)
		bs, bIsStr := b.(string)
		if aIsStr || bIsStr {
			if !aIsStr {
				as = cast.ToString(a)
			}
			if !bIsStr {
				bs = cast.ToString(b)
			}
			return as + bs, nil
		}
	}
	af, err := cast.ToFloat64E(a)
	if err != nil {
		return nil, fmt.Errorf("expr: cannot use %v as a number: %w", a, err)
	}
	bf, err := cast.ToFloat64E(b)
	if err != nil {
		return nil, fmt.Errorf("expr: cannot use %v as a number: %w", b, err)
	}
	switch op {
	case "+":
		return af + bf, nil
	case "-":
		return af - bf, nil
	case "*":
		return af * bf, nil
	case "/":
		if bf == 0 {
			return nil, nil
		}
		return af / bf, nil
	}
	return nil, fmt.Errorf("expr: unknown arithmetic operator %q", op)
}

func evalFunction(n *ast.FunctionCall, row Row) (interface{}, error) {
	name := strings.ToLower(n.Name)
	switch name {
	case "if":
		if len(n.Arguments) != 3 {
			return nil, fmt.Errorf("expr: if() takes exactly 3 arguments")
		}
		cond, err := EvaluateBool(n.Arguments[0], row)
		if err != nil {
			return nil, err
		}
		if cond {
			return Evaluate(n.Arguments[1], row)
		}
		return Evaluate(n.Arguments[2], row)
	case "case":
		return evalCase(n.Arguments, row)
	case "isnull":
		v, err := evalArg0(n, row)
		if err != nil {
			return nil, err
		}
		return v == nil, nil
	case "isnotnull":
		v, err := evalArg0(n, row)
		if err != nil {
			return nil, err
		}
		return v != nil, nil
	case "coalesce":
		for _, a := range n.Arguments {
			v, err := Evaluate(a, row)
			if err != nil {
				return nil, err
			}
			if v != nil {
				return v, nil
			}
		}
		return nil, nil
	case "nullif":
		if len(n.Arguments) != 2 {
			return nil, fmt.Errorf("expr: nullif() takes exactly 2 arguments")
		}
		v, err := Evaluate(n.Arguments[0], row)
		if err != nil {
			return nil, err
		}
		cmp, err := Evaluate(n.Arguments[1], row)
		if err != nil {
			return nil, err
		}
		if looseEqual(v, cmp) {
			return nil, nil
		}
		return v, nil
	case "now":
		return Now(), nil
	case "abs":
		f, err := floatArg(n, row, 0)
		if err != nil {
			return nil, err
		}
		return math.Abs(f), nil
	case "ceil":
		f, err := floatArg(n, row, 0)
		if err != nil {
			return nil, err
		}
		return math.Ceil(f), nil
	case "floor":
		f, err := floatArg(n, row, 0)
		if err != nil {
			return nil, err
		}
		return math.Floor(f), nil
	case "round":
		f, err := floatArg(n, row, 0)
		if err != nil {
			return nil, err
		}
		prec := 0
		if len(n.Arguments) > 1 {
			p, err := Evaluate(n.Arguments[1], row)
			if err != nil {
				return nil, err
			}
			prec = cast.ToInt(p)
		}
		mult := math.Pow(10, float64(prec))
		return math.Round(f*mult) / mult, nil
	case "sqrt":
		f, err := floatArg(n, row, 0)
		if err != nil {
			return nil, err
		}
		return math.Sqrt(f), nil
	case "log":
		f, err := floatArg(n, row, 0)
		if err != nil {
			return nil, err
		}
		return math.Log(f), nil
	case "log10":
		f, err := floatArg(n, row, 0)
		if err != nil {
			return nil, err
		}
		return math.Log10(f), nil
	case "exp":
		f, err := floatArg(n, row, 0)
		if err != nil {
			return nil, err
		}
		return math.Exp(f), nil
	case "pow":
		a, err := floatArg(n, row, 0)
		if err != nil {
			return nil, err
		}
		b, err := floatArg(n, row, 1)
		if err != nil {
			return nil, err
		}
		return math.Pow(a, b), nil
	case "lower":
		s, err := stringArg(n, row, 0)
		if err != nil {
			return nil, err
		}
		return strings.ToLower(s), nil
	case "upper":
		s, err := stringArg(n, row, 0)
		if err != nil {
			return nil, err
		}
		return strings.ToUpper(s), nil
	case "trim":
		s, err := stringArg(n, row, 0)
		if err != nil {
			return nil, err
		}
		return strings.TrimSpace(s), nil
	case "ltrim":
		s, err := stringArg(n, row, 0)
		if err != nil {
			return nil, err
		}
		return strings.TrimLeft(s, " \t\n\r"), nil
	case "rtrim":
		s, err := stringArg(n, row, 0)
		if err != nil {
			return nil, err
		}
		return strings.TrimRight(s, " \t\n\r"), nil
	case "len":
		s, err := stringArg(n, row, 0)
		if err != nil {
			return nil, err
		}
		return int64(len(s)), nil
	case "substr":
		s, err := stringArg(n, row, 0)
		if err != nil {
			return nil, err
		}
		start, err := intArg(n, row, 1)
		if err != nil {
			return nil, err
		}
		if start < 0 || start > len(s) {
			return "", nil
		}
		if len(n.Arguments) > 2 {
			length, err := intArg(n, row, 2)
			if err != nil {
				return nil, err
			}
			end := start + length
			if end > len(s) {
				end = len(s)
			}
			return s[start:end], nil
		}
		return s[start:], nil
	case "replace":
		s, err := stringArg(n, row, 0)
		if err != nil {
			return nil, err
		}
		oldS, err := stringArg(n, row, 1)
		if err != nil {
			return nil, err
		}
		newS, err := stringArg(n, row, 2)
		if err != nil {
			return nil, err
		}
		return strings.ReplaceAll(s, oldS, newS), nil
	case "split":
		s, err := stringArg(n, row, 0)
		if err != nil {
			return nil, err
		}
		sep, err := stringArg(n, row, 1)
		if err != nil {
			return nil, err
		}
		idx := 0
		if len(n.Arguments) > 2 {
			idx, err = intArg(n, row, 2)
			if err != nil {
				return nil, err
			}
		}
		parts := strings.Split(s, sep)
		if idx < 0 || idx >= len(parts) {
			return nil, nil
		}
		return parts[idx], nil
	case "concat":
		var sb strings.Builder
		for _, a := range n.Arguments {
			v, err := Evaluate(a, row)
			if err != nil {
				return nil, err
			}
			sb.WriteString(cast.ToString(v))
		}
		return sb.String(), nil
	case "year", "month", "day", "hour", "minute", "second", "dayofweek":
		t, err := timeArg(n, row, 0)
		if err != nil {
			return nil, err
		}
		switch name {
		case "year":
			return int64(t.Year()), nil
		case "month":
			return int64(t.Month()), nil
		case "day":
			return int64(t.Day()), nil
		case "hour":
			return int64(t.Hour()), nil
		case "minute":
			return int64(t.Minute()), nil
		case "second":
			return int64(t.Second()), nil
		case "dayofweek":
			return int64(t.Weekday()), nil
		}
	case "strftime":
		t, err := timeArg(n, row, 0)
		if err != nil {
			return nil, err
		}
		layout, err := stringArg(n, row, 1)
		if err != nil {
			return nil, err
		}
		return t.Format(strftimeToGoLayout(layout)), nil
	case "strptime":
		s, err := stringArg(n, row, 0)
		if err != nil {
			return nil, err
		}
		layout, err := stringArg(n, row, 1)
		if err != nil {
			return nil, err
		}
		t, err := time.Parse(strftimeToGoLayout(layout), s)
		if err != nil {
			return nil, nil
		}
		return t, nil
	case "tonumber":
		v, err := evalArg0(n, row)
		if err != nil {
			return nil, err
		}
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, nil
		}
		return f, nil
	case "tostring":
		v, err := evalArg0(n, row)
		if err != nil {
			return nil, err
		}
		return cast.ToString(v), nil
	case "todate":
		t, err := timeArg(n, row, 0)
		if err != nil {
			return nil, nil
		}
		return t, nil
	default:
		return nil, fmt.Errorf("expr: unknown function %q", n.Name)
	}
	return nil, nil
}

func evalCase(args []ast.Node, row Row) (interface{}, error) {
	i := 0
	for i+1 < len(args) {
		cond, err := EvaluateBool(args[i], row)
		if err != nil {
			return nil, err
		}
		if cond {
			return Evaluate(args[i+1], row)
		}
		i += 2
	}
	if i < len(args) {
		return Evaluate(args[i], row)
	}
	return nil, nil
}

func evalArg0(n *ast.FunctionCall, row Row) (interface{}, error) {
	if len(n.Arguments) == 0 {
		return nil, fmt.Errorf("expr: %s() requires an argument", n.Name)
	}
	return Evaluate(n.Arguments[0], row)
}

func floatArg(n *ast.FunctionCall, row Row, i int) (float64, error) {
	if i >= len(n.Arguments) {
		return 0, fmt.Errorf("expr: %s() missing argument %d", n.Name, i)
	}
	v, err := Evaluate(n.Arguments[i], row)
	if err != nil {
		return 0, err
	}
	return cast.ToFloat64E(v)
}

func intArg(n *ast.FunctionCall, row Row, i int) (int, error) {
	f, err := floatArg(n, row, i)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func stringArg(n *ast.FunctionCall, row Row, i int) (string, error) {
	if i >= len(n.Arguments) {
		return "", fmt.Errorf("expr: %s() missing argument %d", n.Name, i)
	}
	v, err := Evaluate(n.Arguments[i], row)
	if err != nil {
		return "", err
	}
	return cast.ToString(v), nil
}

func timeArg(n *ast.FunctionCall, row Row, i int) (time.Time, error) {
	if i >= len(n.Arguments) {
		return time.Time{}, fmt.Errorf("expr: %s() missing argument %d", n.Name, i)
	}
	v, err := Evaluate(n.Arguments[i], row)
	if err != nil {
		return time.Time{}, err
	}
	return cast.ToTimeE(v)
}

// strftimeToGoLayout translates the common strftime directives used in
// original_source queries into Go's reference-time layout syntax; only
// the subset actually exercised by the supported commands is covered.
func strftimeToGoLayout(layout string) string {
	replacer := strings.NewReplacer(
		"%Y", "2006", "%m", "01", "%d", "02",
		"%H", "15", "%M", "04", "%S", "05",
		"%y", "06", "%b", "Jan", "%B", "January",
		"%a", "Mon", "%A", "Monday", "%Z", "MST",
	)
	return replacer.Replace(layout)
}

// sortStrings returns a sorted copy of ss, leaving ss unchanged.
func sortStrings(ss []string) []string {
	out := append([]string(nil), ss...)
	sort.Strings(out)
	return out
}
