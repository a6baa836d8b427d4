package table

import "fmt"

// Group is one group-by bucket: the key values (aligned with the group-by
// field list) and the row indices belonging to it, in original order.
type Group struct {
	Key     []any
	RowIdxs []int
}

// GroupBy partitions row indices by the values of the given fields,
// preserving first-encounter order of distinct keys (not sorted).
func (t *Table) GroupBy(fields []string) []Group {
	idxs := make([]int, len(fields))
	for i, f := range fields {
		idxs[i] = t.ColumnIndex(f)
	}
	order := []string{}
	groups := map[string]*Group{}
	for rowIdx, row := range t.Rows {
		key := make([]any, len(fields))
		for i, idx := range idxs {
			if idx >= 0 {
				key[i] = row[idx]
			}
		}
		keyStr := fmt.Sprint(key)
		g, ok := groups[keyStr]
		if !ok {
			g = &Group{Key: key}
			groups[keyStr] = g
			order = append(order, keyStr)
		}
		g.RowIdxs = append(g.RowIdxs, rowIdx)
	}
	out := make([]Group, len(order))
	for i, k := range order {
		out[i] = *groups[k]
	}
	return out
}
