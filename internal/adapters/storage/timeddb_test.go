package storage

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"gymhub/internal/adapters/http/perf"
)

func openTimedTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if _, err := db.Exec("CREATE TABLE test (id TEXT PRIMARY KEY, val TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestTimedDB_RecordsEachCall verifies every wrapped call lands in the collector.
func TestTimedDB_RecordsEachCall(t *testing.T) {
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(openTimedTestDB(t), collector, 0)
	ctx := context.Background()

	if _, err := tdb.ExecContext(ctx, "INSERT INTO test (id, val) VALUES (?, ?)", "1", "hello"); err != nil {
		t.Fatalf("ExecContext: %v", err)
	}
	rows, err := tdb.QueryContext(ctx, "SELECT id FROM test")
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	rows.Close()
	var val string
	if err := tdb.QueryRowContext(ctx, "SELECT val FROM test WHERE id = ?", "1").Scan(&val); err != nil {
		t.Fatalf("QueryRowContext: %v", err)
	}
	if val != "hello" {
		t.Errorf("val = %q, want hello", val)
	}
	if collector.TotalRecorded() != 3 {
		t.Errorf("TotalRecorded = %d, want 3", collector.TotalRecorded())
	}

	snap := collector.Snapshot(time.Now().Add(-time.Minute), 10)
	labels := map[string]bool{}
	for _, q := range snap.SlowestQueries {
		labels[q.Path] = true
	}
	if !labels["INSERT test"] || !labels["SELECT test"] {
		t.Errorf("query labels = %v", labels)
	}
}

// TestTimedDB_ErrorPassthrough verifies SQL errors are returned unchanged
// and timing is still recorded.
func TestTimedDB_ErrorPassthrough(t *testing.T) {
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(openTimedTestDB(t), collector, 0)

	if _, err := tdb.ExecContext(context.Background(), "INSERT INTO nonexistent_table VALUES (?)", 1); err == nil {
		t.Fatal("expected error from invalid SQL, got nil")
	}
	var val string
	err := tdb.QueryRowContext(context.Background(), "SELECT val FROM test WHERE id = ?", "missing").Scan(&val)
	if err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
	if collector.TotalRecorded() != 2 {
		t.Errorf("TotalRecorded = %d, want 2 (must record even on error)", collector.TotalRecorded())
	}
}

// TestTimedDB_NilCollector verifies TimedDB works without a collector.
func TestTimedDB_NilCollector(t *testing.T) {
	tdb := NewTimedDB(openTimedTestDB(t), nil, time.Second)
	if _, err := tdb.ExecContext(context.Background(), "INSERT INTO test (id, val) VALUES (?, ?)", "1", "x"); err != nil {
		t.Fatalf("ExecContext with nil collector: %v", err)
	}
}

// TestTimedDB_BeginTx verifies transactions work through the wrapper.
func TestTimedDB_BeginTx(t *testing.T) {
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(openTimedTestDB(t), collector, 0)

	tx, err := tdb.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	if _, err := tx.Exec("INSERT INTO test (id, val) VALUES (?, ?)", "1", "hello"); err != nil {
		t.Fatalf("tx exec: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if collector.TotalRecorded() != 1 {
		t.Errorf("TotalRecorded = %d, want 1", collector.TotalRecorded())
	}
}

// TestTimedDB_Concurrent verifies no races under concurrent reads and writes.
func TestTimedDB_Concurrent(t *testing.T) {
	collector := perf.NewCollector(1000)
	tdb := NewTimedDB(openTimedTestDB(t), collector, 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				tdb.ExecContext(ctx, "INSERT OR REPLACE INTO test (id, val) VALUES (?, ?)", "w", "v")
				var v string
				tdb.QueryRowContext(ctx, "SELECT val FROM test WHERE id = ?", "w").Scan(&v)
			}
		}()
	}
	wg.Wait()

	if collector.TotalRecorded() != 160 {
		t.Errorf("TotalRecorded = %d, want 160", collector.TotalRecorded())
	}
}

// TestQueryLabel verifies statements are grouped by verb and table.
func TestQueryLabel(t *testing.T) {
	tests := map[string]string{
		"SELECT id FROM attendance WHERE branch_id = ?": "SELECT attendance",
		"INSERT INTO customers (id) VALUES (?)":         "INSERT customers",
		"UPDATE attendance SET check_out = ?":           "UPDATE attendance",
		"DELETE FROM attendance WHERE check_in < ?":     "DELETE attendance",
		"PRAGMA foreign_keys":                           "PRAGMA",
		"WITH days AS (SELECT 1) SELECT * FROM days":    "WITH days",
		"":                                              "EMPTY",
	}
	for q, want := range tests {
		if got := QueryLabel(q); got != want {
			t.Errorf("QueryLabel(%q) = %q, want %q", q, got, want)
		}
	}
}
