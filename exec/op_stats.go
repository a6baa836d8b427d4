package exec

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/queryflow/pipeql/ast"
	"github.com/queryflow/pipeql/exec/expr"
	"github.com/queryflow/pipeql/perr"
	"github.com/queryflow/pipeql/table"
)

// aggColumnName picks the output column name for one aggregation: its
// alias, if given, else "func_field" (or just "func" for count()/count(*)
// with no field).
func aggColumnName(agg *ast.FunctionCall) string {
	if agg.Alias != "" {
		return agg.Alias
	}
	if len(agg.Arguments) == 0 || fieldNameOf(agg.Arguments[0]) == "*" {
		return strings.ToLower(agg.Name)
	}
	return strings.ToLower(agg.Name) + "_" + fieldNameOf(agg.Arguments[0])
}

func fieldNameOf(n ast.Node) string {
	switch v := n.(type) {
	case *ast.Identifier:
		return v.Name
	default:
		return "value"
	}
}

// computeAggregate evaluates one aggregation function over the given
// rows of a group, reading agg.Arguments[0] (when present) per row via
// exec/expr, matching the FUNCTIONS set stats.py supports plus the
// stdev/percentile additions.
func computeAggregate(agg *ast.FunctionCall, t *table.Table, rowIdxs []int) (interface{}, error) {
	name := strings.ToLower(agg.Name)
	star := len(agg.Arguments) == 0 || fieldNameOf(agg.Arguments[0]) == "*"

	values := func() ([]interface{}, error) {
		var out []interface{}
		if len(agg.Arguments) == 0 {
			return out, nil
		}
		for _, idx := range rowIdxs {
			v, err := expr.Evaluate(agg.Arguments[0], rowMap(t, t.Rows[idx]))
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}

	switch {
	case name == "count":
		if star {
			return int64(len(rowIdxs)), nil
		}
		vs, err := values()
		if err != nil {
			return nil, err
		}
		n := int64(0)
		for _, v := range vs {
			if v != nil {
				n++
			}
		}
		return n, nil
	case name == "dc" || name == "distinct_count":
		vs, err := values()
		if err != nil {
			return nil, err
		}
		seen := map[string]bool{}
		for _, v := range vs {
			if v != nil {
				seen[toKey(v)] = true
			}
		}
		return int64(len(seen)), nil
	case name == "values":
		vs, err := values()
		if err != nil {
			return nil, err
		}
		seen := map[string]bool{}
		var uniq []string
		for _, v := range vs {
			if v == nil {
				continue
			}
			k := toKey(v)
			if !seen[k] {
				seen[k] = true
				uniq = append(uniq, k)
			}
		}
		sort.Strings(uniq)
		return strings.Join(uniq, ","), nil
	case name == "first":
		vs, err := values()
		if err != nil {
			return nil, err
		}
		if len(vs) == 0 {
			return nil, nil
		}
		return vs[0], nil
	case name == "last":
		vs, err := values()
		if err != nil {
			return nil, err
		}
		if len(vs) == 0 {
			return nil, nil
		}
		return vs[len(vs)-1], nil
	case name == "sum" || name == "avg" || name == "mean" || name == "min" || name == "max" || name == "stdev":
		vs, err := values()
		if err != nil {
			return nil, err
		}
		nums := numericValues(vs)
		if len(nums) == 0 {
			return nil, nil
		}
		switch name {
		case "sum":
			return sum(nums), nil
		case "avg", "mean":
			return sum(nums) / float64(len(nums)), nil
		case "min":
			m := nums[0]
			for _, v := range nums {
				if v < m {
					m = v
				}
			}
			return m, nil
		case "max":
			m := nums[0]
			for _, v := range nums {
				if v > m {
					m = v
				}
			}
			return m, nil
		case "stdev":
			return sampleStdev(nums), nil
		}
	case strings.HasPrefix(name, "perc"):
		pctStr := strings.TrimPrefix(name, "perc")
		pct, err := strconv.ParseFloat(pctStr, 64)
		if err != nil {
			return nil, perr.SemanticCommand("invalid percentile aggregation: "+agg.Name, "stats")
		}
		vs, err := values()
		if err != nil {
			return nil, err
		}
		nums := numericValues(vs)
		return nearestRankPercentile(nums, pct), nil
	}
	return nil, perr.SemanticCommand("unknown aggregation function: "+agg.Name, "stats")
}

func toKey(v interface{}) string {
	return fmt.Sprint(v)
}

func numericValues(vs []interface{}) []float64 {
	var out []float64
	for _, v := range vs {
		if v == nil {
			continue
		}
		f, ok := toFloat(v)
		if ok {
			out = append(out, f)
		}
	}
	return out
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

func sum(vs []float64) float64 {
	var s float64
	for _, v := range vs {
		s += v
	}
	return s
}

// sampleStdev returns the Bessel-corrected sample standard deviation,
// or 0 when fewer than two values are present (spec.md's resolution for
// this originally-unspecified edge case).
func sampleStdev(vs []float64) float64 {
	if len(vs) < 2 {
		return 0
	}
	mean := sum(vs) / float64(len(vs))
	var ss float64
	for _, v := range vs {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vs)-1))
}

// nearestRankPercentile implements the nearest-rank method (no
// interpolation), spec.md's resolution for percentile aggregations.
func nearestRankPercentile(vs []float64, pct float64) interface{} {
	if len(vs) == 0 {
		return nil
	}
	sorted := append([]float64(nil), vs...)
	sort.Float64s(sorted)
	rank := int(math.Ceil(pct / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

// StatsOperator implements `stats`: collapse the table to one row per
// distinct `by` group (or a single overall row when no `by` is given),
// carrying only the group fields and the computed aggregations.
type StatsOperator struct{ eventMode bool }

func (o StatsOperator) Execute(c *Context, in *table.Table, node *ast.PipeCommandNode) (*table.Table, error) {
	if len(node.Aggregations) == 0 {
		return nil, perr.Semantic("stats requires at least one aggregation")
	}
	groups := groupsFor(in, node.ByFields)

	if !o.eventMode {
		out := table.New()
		for _, f := range node.ByFields {
			out.AddColumn(f, table.Any)
		}
		for _, agg := range node.Aggregations {
			out.AddColumn(aggColumnName(agg), table.Any)
		}
		for _, g := range groups {
			row := make([]any, 0, len(node.ByFields)+len(node.Aggregations))
			row = append(row, g.Key...)
			for _, agg := range node.Aggregations {
				v, err := computeAggregate(agg, in, g.RowIdxs)
				if err != nil {
					return nil, err
				}
				row = append(row, v)
			}
			out.Rows = append(out.Rows, row)
		}
		return out, nil
	}

	// eventstats: left-join the computed aggregates back onto every
	// original row instead of collapsing the table, the Splunk-domain
	// distinction from plain `stats` restored per spec.md's resolution.
	out := in.Clone()
	aggIdxs := make([]int, len(node.Aggregations))
	for i, agg := range node.Aggregations {
		aggIdxs[i] = out.AddColumn(aggColumnName(agg), table.Any)
	}
	for _, g := range groups {
		values := make([]interface{}, len(node.Aggregations))
		for i, agg := range node.Aggregations {
			v, err := computeAggregate(agg, in, g.RowIdxs)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		for _, rowIdx := range g.RowIdxs {
			for i, idx := range aggIdxs {
				out.Rows[rowIdx][idx] = values[i]
			}
		}
	}
	return out, nil
}

func groupsFor(t *table.Table, byFields []string) []table.Group {
	if len(byFields) == 0 {
		idxs := make([]int, t.NumRows())
		for i := range idxs {
			idxs[i] = i
		}
		return []table.Group{{Key: nil, RowIdxs: idxs}}
	}
	return t.GroupBy(byFields)
}
