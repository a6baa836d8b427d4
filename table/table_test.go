package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Table {
	tb := New("name", "department", "salary")
	tb.Rows = [][]any{
		{"Alice", "Sales", 50000.0},
		{"Bob", "IT", 60000.0},
		{"Charlie", "IT", 55000.0},
	}
	return tb
}

func TestSortByDescending(t *testing.T) {
	tb := sample()
	sorted := tb.SortBy([]SortKey{{Field: "salary", Ascending: false}})
	require.Equal(t, 3, sorted.NumRows())
	assert.Equal(t, "Bob", sorted.Rows[0][0])
	assert.Equal(t, "Charlie", sorted.Rows[1][0])
	assert.Equal(t, "Alice", sorted.Rows[2][0])
}

func TestHeadAndTailClamp(t *testing.T) {
	tb := sample()
	assert.Equal(t, 2, tb.Head(2).NumRows())
	assert.Equal(t, 3, tb.Head(100).NumRows())
	assert.Equal(t, 1, tb.Tail(1).NumRows())
}

func TestReverseTwiceIsIdentity(t *testing.T) {
	tb := sample()
	rev := tb.Reverse().Reverse()
	assert.Equal(t, tb.Rows, rev.Rows)
}

func TestUnionAlignsByName(t *testing.T) {
	a := New("x", "y")
	a.Rows = [][]any{{1, 2}}
	b := New("y", "z")
	b.Rows = [][]any{{3, 4}}
	u := Union(a, b)
	require.Equal(t, []string{"x", "y", "z"}, u.ColumnNames())
	require.Len(t, u.Rows, 2)
	assert.Nil(t, u.Rows[0][2])
	assert.Nil(t, u.Rows[1][0])
}

func TestGroupByPreservesEncounterOrder(t *testing.T) {
	tb := sample()
	groups := tb.GroupBy([]string{"department"})
	require.Len(t, groups, 2)
	assert.Equal(t, "Sales", groups[0].Key[0])
	assert.Equal(t, "IT", groups[1].Key[0])
}
