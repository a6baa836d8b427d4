// Package table supplies the minimal in-memory columnar table type that
// spec.md treats as an out-of-scope collaborator ("any columnar table
// with typed columns, null support, group-by, sort, merge, regex string
// operations, and datetime arithmetic suffices"). It deliberately stays a
// thin, dependency-free leaf so the ~30 operators in package exec never need to
// reach into a third-party dataframe implementation.
package table

import (
	"sort"
	"time"
)

// ColumnType tags the declared type of a column. Any cell may still be
// nil regardless of declared type, representing SQL-style null.
type ColumnType int

const (
	Any ColumnType = iota
	Int64
	Float64
	String
	Bool
	Time
)

// Column describes one named column.
type Column struct {
	Name string
	Type ColumnType
}

// Table is an ordered set of columns plus row-major data. Rows[i][j] is
// the value of Columns[j] in row i, or nil for null.
type Table struct {
	Columns []Column
	Rows    [][]any
}

// New creates an empty table with the given column names, typed Any.
func New(columnNames ...string) *Table {
	cols := make([]Column, len(columnNames))
	for i, n := range columnNames {
		cols[i] = Column{Name: n, Type: Any}
	}
	return &Table{Columns: cols}
}

// NewTyped creates an empty table with explicit column types.
func NewTyped(cols []Column) *Table {
	return &Table{Columns: cols}
}

// Empty reports whether the table has zero rows.
func (t *Table) Empty() bool { return t == nil || len(t.Rows) == 0 }

// NumRows returns the row count.
func (t *Table) NumRows() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnNames returns the table's column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// ColumnIndex returns the index of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column returns every value in the named column, in row order.
func (t *Table) Column(name string) []any {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	out := make([]any, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[idx]
	}
	return out
}

// Clone produces a deep-enough copy: new Columns and Rows slices, with row
// slices copied (cell values, being typically immutable scalars, are
// shared).
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	cols := make([]Column, len(t.Columns))
	copy(cols, t.Columns)
	rows := make([][]any, len(t.Rows))
	for i, r := range t.Rows {
		row := make([]any, len(r))
		copy(row, r)
		rows[i] = row
	}
	return &Table{Columns: cols, Rows: rows}
}

// AddColumn appends a new column, filling every existing row with the
// zero value nil, then returns the new column's index. If a column with
// that name exists already, its type is updated and its index returned
// without adding a duplicate.
func (t *Table) AddColumn(name string, typ ColumnType) int {
	if idx := t.ColumnIndex(name); idx >= 0 {
		t.Columns[idx].Type = typ
		return idx
	}
	t.Columns = append(t.Columns, Column{Name: name, Type: typ})
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], nil)
	}
	return len(t.Columns) - 1
}

// SetColumn overwrites every row's value in the named column (must exist
// and have the same row count as values).
func (t *Table) SetColumn(name string, values []any) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return
	}
	for i := range t.Rows {
		if i < len(values) {
			t.Rows[i][idx] = values[i]
		}
	}
}

// Select projects the table down to the named columns, in the order
// given. Unknown names are silently skipped.
func (t *Table) Select(names []string) *Table {
	idxs := make([]int, 0, len(names))
	cols := make([]Column, 0, len(names))
	for _, n := range names {
		idx := t.ColumnIndex(n)
		if idx < 0 {
			continue
		}
		idxs = append(idxs, idx)
		cols = append(cols, t.Columns[idx])
	}
	rows := make([][]any, len(t.Rows))
	for i, r := range t.Rows {
		row := make([]any, len(idxs))
		for j, idx := range idxs {
			row[j] = r[idx]
		}
		rows[i] = row
	}
	return &Table{Columns: cols, Rows: rows}
}

// SortKey describes one sort field.
type SortKey struct {
	Field     string
	Ascending bool
}

// SortBy performs a stable multi-key sort.
func (t *Table) SortBy(keys []SortKey) *Table {
	out := t.Clone()
	idxs := make([]int, len(keys))
	for i, k := range keys {
		idxs[i] = out.ColumnIndex(k.Field)
	}
	sort.SliceStable(out.Rows, func(i, j int) bool {
		for n, idx := range idxs {
			if idx < 0 {
				continue
			}
			cmp := compareValues(out.Rows[i][idx], out.Rows[j][idx])
			if cmp == 0 {
				continue
			}
			if keys[n].Ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return false
	})
	return out
}

// Reverse returns a new table with row order reversed.
func (t *Table) Reverse() *Table {
	out := t.Clone()
	for i, j := 0, len(out.Rows)-1; i < j; i, j = i+1, j-1 {
		out.Rows[i], out.Rows[j] = out.Rows[j], out.Rows[i]
	}
	return out
}

// Head returns the first n rows (n clamped to row count).
func (t *Table) Head(n int) *Table {
	out := t.Clone()
	if n < 0 {
		n = 0
	}
	if n > len(out.Rows) {
		n = len(out.Rows)
	}
	out.Rows = out.Rows[:n]
	return out
}

// Tail returns the last n rows (n clamped to row count).
func (t *Table) Tail(n int) *Table {
	out := t.Clone()
	if n < 0 {
		n = 0
	}
	if n > len(out.Rows) {
		n = len(out.Rows)
	}
	out.Rows = out.Rows[len(out.Rows)-n:]
	return out
}

// Filter returns a new table containing only rows for which keep(row) is
// true.
func (t *Table) Filter(keep func(row []any) bool) *Table {
	out := &Table{Columns: append([]Column(nil), t.Columns...)}
	for _, r := range t.Rows {
		if keep(r) {
			cp := make([]any, len(r))
			copy(cp, r)
			out.Rows = append(out.Rows, cp)
		}
	}
	return out
}

// Union appends other's rows below t's, aligning columns by name; columns
// present in only one table are filled with nil in the other.
func Union(tables ...*Table) *Table {
	if len(tables) == 0 {
		return New()
	}
	colOrder := []string{}
	seen := map[string]bool{}
	for _, tb := range tables {
		for _, c := range tb.Columns {
			if !seen[c.Name] {
				seen[c.Name] = true
				colOrder = append(colOrder, c.Name)
			}
		}
	}
	cols := make([]Column, len(colOrder))
	for i, n := range colOrder {
		cols[i] = Column{Name: n, Type: Any}
	}
	out := &Table{Columns: cols}
	for _, tb := range tables {
		idxByName := map[string]int{}
		for i, c := range tb.Columns {
			idxByName[c.Name] = i
		}
		for _, r := range tb.Rows {
			row := make([]any, len(colOrder))
			for i, n := range colOrder {
				if srcIdx, ok := idxByName[n]; ok {
					row[i] = r[srcIdx]
				}
			}
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// compareValues orders two cell values, treating nil as less than any
// non-nil value. Numeric types compare numerically, times compare
// chronologically, everything else falls back to string comparison.
func compareValues(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	if at, aok := a.(time.Time); aok {
		if bt, bok := b.(time.Time); bok {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			default:
				return 0
			}
		}
	}
	as, bs := toStringLoose(a), toStringLoose(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

func toStringLoose(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return toDebugString(v)
}
