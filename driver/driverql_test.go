package driverql

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/queryflow/pipeql"
	"github.com/queryflow/pipeql/table"
)

func newTestDB(t *testing.T) (*sql.DB, *pipeql.Engine) {
	t.Helper()
	engine := pipeql.New(nil)
	tbl := table.New("id", "name")
	tbl.Rows = [][]any{{int64(1), "alice"}, {int64(2), "bob"}}
	engine.Register("people", tbl)

	drv := New(SingleEngineRegistry{Engine: engine})
	sql.Register(t.Name(), drv)
	db, err := sql.Open(t.Name(), "ignored")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, engine
}

func TestDriverQueryRoundTrip(t *testing.T) {
	db, _ := newTestDB(t)

	rows, err := db.Query(`cache=people | sort name`)
	require.NoError(t, err)
	defer rows.Close()

	var got []string
	for rows.Next() {
		var id int64
		var name string
		require.NoError(t, rows.Scan(&id, &name))
		got = append(got, name)
	}
	require.NoError(t, rows.Err())
	require.Equal(t, []string{"alice", "bob"}, got)
}

func TestDriverExecReturnsRowCount(t *testing.T) {
	db, _ := newTestDB(t)

	res, err := db.Exec(`cache=people | head 1`)
	require.NoError(t, err)
	n, err := res.RowsAffected()
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestDriverQueryRejectsUnknownCommand(t *testing.T) {
	db, _ := newTestDB(t)

	_, err := db.Query(`cache=people | nosuchcommand`)
	require.Error(t, err)
}
