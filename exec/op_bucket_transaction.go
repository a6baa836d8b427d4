package exec

import (
	"regexp"
	"strconv"
	"time"

	"github.com/queryflow/pipeql/ast"
	"github.com/queryflow/pipeql/perr"
	"github.com/queryflow/pipeql/table"
)

var spanPattern = regexp.MustCompile(`^(\d+)([smhdw])$`)

// parseSpan parses a time span like "30s", "5m", "1h", "1d", "1w" into a
// time.Duration, grounded on bucket.py's `_parse_span`.
func parseSpan(span string) (time.Duration, error) {
	m := spanPattern.FindStringSubmatch(span)
	if m == nil {
		return 0, perr.SemanticCommand("invalid span format: "+span, "bucket")
	}
	n, _ := strconv.Atoi(m[1])
	switch m[2] {
	case "s":
		return time.Duration(n) * time.Second, nil
	case "m":
		return time.Duration(n) * time.Minute, nil
	case "h":
		return time.Duration(n) * time.Hour, nil
	case "d":
		return time.Duration(n) * 24 * time.Hour, nil
	case "w":
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	}
	return 0, perr.SemanticCommand("invalid span unit in: "+span, "bucket")
}

// BucketOperator implements `bucket`/`bin`: floor a time field to the
// nearest span boundary, replacing the field's value in place with the
// bucket start time.
type BucketOperator struct{}

func (BucketOperator) Execute(c *Context, in *table.Table, node *ast.PipeCommandNode) (*table.Table, error) {
	kv := keywordArgs(node)
	field := c.Config.DefaultTimeField
	if fs := positionalStrings(node); len(fs) > 0 {
		field = fs[0]
	}
	if v, ok := kv["field"]; ok {
		field = nodeLiteralString(v)
	}
	spanStr := "5m"
	if v, ok := kv["span"]; ok {
		spanStr = nodeLiteralString(v)
	}
	span, err := parseSpan(spanStr)
	if err != nil {
		return nil, err
	}
	idx := in.ColumnIndex(field)
	if idx < 0 {
		return nil, perr.ResolutionField("no such field: "+field, field)
	}
	out := in.Clone()
	for _, row := range out.Rows {
		t, ok := row[idx].(time.Time)
		if !ok {
			continue
		}
		row[idx] = t.Truncate(span)
	}
	return out, nil
}

// TransactionOperator implements `transaction group_field [maxspan=duration]`:
// group rows by the given field, sort each group by the default time
// field, and split a group into separate transactions whenever the gap
// between consecutive events exceeds maxspan, grounded on
// transaction.py's groupby/diff/cumsum boundary logic.
type TransactionOperator struct{}

func (TransactionOperator) Execute(c *Context, in *table.Table, node *ast.PipeCommandNode) (*table.Table, error) {
	fields := positionalStrings(node)
	if len(fields) == 0 {
		return nil, perr.Semantic("transaction requires a group-by field")
	}
	groupField := fields[0]
	kv := keywordArgs(node)
	maxspan := time.Duration(0)
	hasMaxspan := false
	if v, ok := kv["maxspan"]; ok {
		d, err := parseSpan(nodeLiteralString(v))
		if err != nil {
			return nil, err
		}
		maxspan = d
		hasMaxspan = true
	}

	timeField := c.Config.DefaultTimeField
	timeIdx := in.ColumnIndex(timeField)
	if timeIdx < 0 {
		return nil, perr.ResolutionField("no such field: "+timeField, timeField)
	}

	groups := in.GroupBy([]string{groupField})
	out := table.New(groupField, timeField, "_end_time", "duration", "event_count")
	for _, col := range in.Columns {
		if col.Name != groupField && col.Name != timeField {
			out.AddColumn(col.Name, col.Type)
		}
	}

	for _, g := range groups {
		sorted := append([]int(nil), g.RowIdxs...)
		sortIdxsByTime(in, sorted, timeIdx)

		var current []int
		flush := func() {
			if len(current) == 0 {
				return
			}
			startT, _ := in.Rows[current[0]][timeIdx].(time.Time)
			endT, _ := in.Rows[current[len(current)-1]][timeIdx].(time.Time)
			row := []any{g.Key[0], startT, endT, endT.Sub(startT).Seconds(), int64(len(current))}
			for _, col := range in.Columns {
				if col.Name == groupField || col.Name == timeField {
					continue
				}
				row = append(row, in.Rows[current[0]][in.ColumnIndex(col.Name)])
			}
			out.Rows = append(out.Rows, row)
		}

		var prevT time.Time
		for i, rowIdx := range sorted {
			t, _ := in.Rows[rowIdx][timeIdx].(time.Time)
			if i > 0 && hasMaxspan && t.Sub(prevT) > maxspan {
				flush()
				current = nil
			}
			current = append(current, rowIdx)
			prevT = t
		}
		flush()
	}
	return out, nil
}

func sortIdxsByTime(t *table.Table, idxs []int, timeIdx int) {
	for i := 1; i < len(idxs); i++ {
		for j := i; j > 0; j-- {
			a, _ := t.Rows[idxs[j-1]][timeIdx].(time.Time)
			b, _ := t.Rows[idxs[j]][timeIdx].(time.Time)
			if b.Before(a) {
				idxs[j-1], idxs[j] = idxs[j], idxs[j-1]
			} else {
				break
			}
		}
	}
}
