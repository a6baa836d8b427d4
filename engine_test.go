package pipeql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queryflow/pipeql/table"
)

func sampleTable() *table.Table {
	t := table.New("name", "department", "salary")
	t.Rows = [][]any{
		{"Alice", "IT", int64(50000)},
		{"Bob", "IT", int64(60000)},
		{"Carol", "Sales", int64(45000)},
	}
	return t
}

func TestEngineExecuteRunsPipeline(t *testing.T) {
	e := New(nil)
	e.Register("data", sampleTable())

	out, err := e.Execute(context.Background(), "cache=data | sort -salary | head 1", nil)
	require.NoError(t, err)
	require.Equal(t, 1, out.NumRows())
	assert.Equal(t, "Bob", out.Rows[0][out.ColumnIndex("name")])
}

func TestEngineRegisterUnregisterListClear(t *testing.T) {
	e := New(nil)
	e.Register("a", sampleTable())
	e.Register("b", sampleTable())
	assert.Equal(t, []string{"a", "b"}, e.ListSources())

	assert.True(t, e.Unregister("a"))
	assert.False(t, e.Unregister("a"))
	assert.Equal(t, []string{"b"}, e.ListSources())

	e.ClearSources()
	assert.Empty(t, e.ListSources())
}

func TestEngineExplainRendersYAML(t *testing.T) {
	e := New(nil)
	e.Register("data", sampleTable())

	out, err := e.Explain("cache=data | stats count by department")
	require.NoError(t, err)
	assert.Contains(t, out, "command: stats")
}

func TestEngineExecutePropagatesParseError(t *testing.T) {
	e := New(nil)
	_, err := e.Execute(context.Background(), "cache=data |", nil)
	assert.Error(t, err)
}
