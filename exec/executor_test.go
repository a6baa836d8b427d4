package exec

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queryflow/pipeql/ast"
	"github.com/queryflow/pipeql/catalog"
	"github.com/queryflow/pipeql/config"
	"github.com/queryflow/pipeql/parser"
	"github.com/queryflow/pipeql/perr"
	"github.com/queryflow/pipeql/table"
)

func newTestExecutor(t *testing.T) (*Executor, *catalog.Registry) {
	t.Helper()
	reg := catalog.New()
	cfg := config.Default()
	cfg.Now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return NewExecutor(reg, cfg), reg
}

func run(t *testing.T, e *Executor, command string) *table.Table {
	t.Helper()
	cmd, err := parser.Parse(command)
	require.NoError(t, err)
	tbl, err := e.Execute(context.Background(), cmd)
	require.NoError(t, err)
	return tbl
}

func dataTable() *table.Table {
	tbl := table.New("name", "department", "salary", "age")
	tbl.Rows = [][]any{
		{"Alice", "IT", int64(50000), int64(30)},
		{"Bob", "IT", int64(60000), int64(25)},
		{"Charlie", "IT", int64(55000), int64(35)},
		{"Dave", "Sales", int64(45000), int64(40)},
		{"Erin", "Sales", int64(48000), int64(28)},
		{"Frank", "HR", int64(42000), int64(50)},
	}
	return tbl
}

func TestStatsCountByDepartment(t *testing.T) {
	e, reg := newTestExecutor(t)
	reg.Set("data", dataTable())

	out := run(t, e, "cache=data | stats count by department")
	require.Equal(t, 3, out.NumRows())
	counts := map[string]int64{}
	deptIdx := out.ColumnIndex("department")
	countIdx := out.ColumnIndex("count")
	var total int64
	for _, row := range out.Rows {
		counts[row[deptIdx].(string)] = row[countIdx].(int64)
		total += row[countIdx].(int64)
	}
	assert.Equal(t, int64(3), counts["IT"])
	assert.Equal(t, int64(2), counts["Sales"])
	assert.Equal(t, int64(1), counts["HR"])
	assert.Equal(t, int64(6), total)
}

func TestFilterSortHead(t *testing.T) {
	e, reg := newTestExecutor(t)
	reg.Set("data", dataTable())

	out := run(t, e, "cache=data | filter salary > 50000 | sort -salary | head 2")
	require.Equal(t, 2, out.NumRows())
	nameIdx := out.ColumnIndex("name")
	assert.Equal(t, "Bob", out.Rows[0][nameIdx])
	assert.Equal(t, "Charlie", out.Rows[1][nameIdx])
}

func TestJoinWithSearchSubquery(t *testing.T) {
	e, reg := newTestExecutor(t)

	orders := table.New("order_id", "customer_id", "amount")
	for i := 0; i < 10; i++ {
		orders.Rows = append(orders.Rows, []any{int64(i), int64(i % 3), int64(100 + i)})
	}
	reg.Set("orders", orders)

	customers := table.New("customer_id", "segment")
	customers.Rows = [][]any{{int64(0), "gold"}, {int64(1), "silver"}, {int64(2), "bronze"}}
	reg.Set("customers", customers)

	out := run(t, e, `cache=orders | join customer_id [search index="customers" | stats first(segment) as segment by customer_id]`)
	require.Equal(t, 10, out.NumRows())
	require.True(t, out.HasColumn("segment"))
}

func TestJoinKeepsUnmatchedLeftRows(t *testing.T) {
	e, reg := newTestExecutor(t)

	orders := table.New("order_id", "customer_id", "amount")
	orders.Rows = [][]any{
		{int64(1), int64(1), int64(100)},
		{int64(2), int64(2), int64(200)},
		{int64(3), int64(99), int64(300)},
	}
	reg.Set("orders", orders)

	customers := table.New("customer_id", "segment")
	customers.Rows = [][]any{{int64(1), "gold"}, {int64(2), "silver"}}
	reg.Set("customers", customers)

	out := run(t, e, `cache=orders | join customer_id [search index="customers" | stats first(segment) as segment by customer_id]`)
	require.Equal(t, 3, out.NumRows())

	segIdx := out.ColumnIndex("segment")
	custIdx := out.ColumnIndex("customer_id")
	for _, row := range out.Rows {
		if row[custIdx].(int64) == 99 {
			assert.Nil(t, row[segIdx])
		}
	}
}

func TestBucketThenStatsByHostAndTime(t *testing.T) {
	e, reg := newTestExecutor(t)

	metrics := table.New("host", "_time", "cpu")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	metrics.Rows = [][]any{
		{"a", base, 10.0},
		{"a", base.Add(2 * time.Minute), 20.0},
		{"b", base, 30.0},
	}
	reg.Set("metrics", metrics)

	out := run(t, e, "cache=metrics | bucket _time span=5m | stats avg(cpu) as avg_cpu by host, _time")
	require.Equal(t, 2, out.NumRows())
}

func TestTransactionSplitsOnMaxspan(t *testing.T) {
	e, reg := newTestExecutor(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	events := table.New("user_id", "_time", "action")
	events.Rows = [][]any{
		{"u1", base, "login"},
		{"u1", base.Add(1 * time.Minute), "click"},
		{"u1", base.Add(20 * time.Minute), "login"},
		{"u1", base.Add(21 * time.Minute), "click"},
	}
	reg.Set("events", events)

	out := run(t, e, "cache=events | transaction user_id maxspan=5m")
	require.Equal(t, 2, out.NumRows())
	durIdx := out.ColumnIndex("duration")
	countIdx := out.ColumnIndex("event_count")
	for _, row := range out.Rows {
		assert.Equal(t, int64(2), row[countIdx])
		assert.Equal(t, 60.0, row[durIdx])
	}
}

func TestRexExtractsNamedGroups(t *testing.T) {
	e, reg := newTestExecutor(t)

	logs := table.New("_raw")
	logs.Rows = [][]any{{"level=ERROR msg=boom"}, {"level=INFO msg=ok"}}
	reg.Set("logs", logs)

	out := run(t, e, `cache=logs | rex field=_raw "level=(?P<level>[A-Z]+)" | where level = "ERROR"`)
	require.Equal(t, 1, out.NumRows())
}

func TestUnknownCommandIsResolutionError(t *testing.T) {
	e, reg := newTestExecutor(t)
	reg.Set("data", dataTable())

	_, err := e.Execute(context.Background(), mustParse(t, "cache=data | nosuchcommand"))
	require.Error(t, err)
	assert.True(t, perr.IsResolution(err))
}

func mustParse(t *testing.T, command string) *ast.CommandAST {
	t.Helper()
	cmd, err := parser.Parse(command)
	require.NoError(t, err)
	return cmd
}
