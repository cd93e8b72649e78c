package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymdesk/internal/adapters/http/perf"
)

// TestTimedDB_RecordsEveryCall verifies pool and transaction calls are timed.
func TestTimedDB_RecordsEveryCall(t *testing.T) {
	db := openTestDB(t)
	collector := perf.NewCollector(100, nil)
	tdb := NewTimedDB(db, collector, 0)
	ctx := context.Background()

	_, err := tdb.ExecContext(ctx, "CREATE TABLE probe (id TEXT PRIMARY KEY, val TEXT)")
	require.NoError(t, err)
	_, err = tdb.ExecContext(ctx, "INSERT INTO probe (id, val) VALUES (?, ?)", "1", "hello")
	require.NoError(t, err)

	var val string
	require.NoError(t, tdb.QueryRowContext(ctx, "SELECT val FROM probe WHERE id = ?", "1").Scan(&val))
	assert.Equal(t, "hello", val)
	assert.Equal(t, int64(3), collector.TotalRecorded())

	tx, err := tdb.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = tx.ExecContext(ctx, "UPDATE probe SET val = ? WHERE id = ?", "bye", "1")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	// BeginTx + tx exec + commit
	assert.Equal(t, int64(6), collector.TotalRecorded())
	ops := map[string]bool{}
	for _, q := range collector.Snapshot(time.Time{}, 20).SlowestQueries {
		ops[q.Path] = true
	}
	assert.True(t, ops["tx.ExecContext"], "transaction statements not recorded: %v", ops)
	assert.True(t, ops["tx.Commit"])
}
