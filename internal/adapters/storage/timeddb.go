package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"gymhub/internal/adapters/http/perf"
)

// SQLDB is the database interface used by all stores.
// Both *sql.DB and *TimedDB satisfy this interface.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

var _ SQLDB = (*sql.DB)(nil)

// DefaultSlowQuery is the statement latency logged as slow_query when
// NewTimedDB is given none.
const DefaultSlowQuery = 50 * time.Millisecond

// TimedDB wraps a *sql.DB to log slow or failing statements and record
// every timing to a collector.
type TimedDB struct {
	db        *sql.DB
	collector *perf.Collector
	slow      time.Duration
}

var _ SQLDB = (*TimedDB)(nil)

// NewTimedDB wraps db. A nil collector only logs; a non-positive slow
// means DefaultSlowQuery.
// PRE: db is a valid database connection
func NewTimedDB(db *sql.DB, collector *perf.Collector, slow time.Duration) *TimedDB {
	if slow <= 0 {
		slow = DefaultSlowQuery
	}
	return &TimedDB{db: db, collector: collector, slow: slow}
}

// observe logs and records one statement. sql.ErrNoRows is a result, not a
// failure.
func (t *TimedDB) observe(ctx context.Context, query string, start time.Time, err error) {
	elapsed := time.Since(start)
	durationMs := float64(elapsed.Microseconds()) / 1000.0
	label := QueryLabel(query)

	switch {
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		slog.WarnContext(ctx, "query_failed", "query", label, "duration_ms", durationMs, "error", err)
	case elapsed >= t.slow:
		slog.WarnContext(ctx, "slow_query", "query", label, "duration_ms", durationMs)
	default:
		slog.DebugContext(ctx, "query", "query", label, "duration_ms", durationMs)
	}

	if t.collector != nil {
		t.collector.Record(perf.Entry{
			Kind:       perf.KindQuery,
			Path:       label,
			DurationMs: durationMs,
			Timestamp:  start,
		})
	}
}

func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	result, err := t.db.ExecContext(ctx, query, args...)
	t.observe(ctx, query, start, err)
	return result, err
}

func (t *TimedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := t.db.QueryContext(ctx, query, args...)
	t.observe(ctx, query, start, err)
	return rows, err
}

func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := t.db.QueryRowContext(ctx, query, args...)
	t.observe(ctx, query, start, row.Err())
	return row
}

// BeginTx times only the BEGIN. Statements run on the returned *sql.Tx,
// such as the attendance sweep's batch updates, are not timed individually.
func (t *TimedDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	start := time.Now()
	tx, err := t.db.BeginTx(ctx, opts)
	t.observe(ctx, "BEGIN", start, err)
	return tx, err
}

// QueryLabel reduces a SQL statement to "VERB table" for grouping.
func QueryLabel(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "EMPTY"
	}
	verb := strings.ToUpper(fields[0])
	if verb == "WITH" {
		return "WITH " + strings.Trim(fields[min(1, len(fields)-1)], "(),")
	}
	var marker string
	switch verb {
	case "SELECT", "DELETE":
		marker = "FROM"
	case "INSERT":
		marker = "INTO"
	case "UPDATE":
		if len(fields) > 1 {
			return verb + " " + fields[1]
		}
		return verb
	default:
		return verb
	}
	for i, f := range fields {
		if strings.EqualFold(f, marker) && i+1 < len(fields) {
			return verb + " " + strings.Trim(fields[i+1], "(),")
		}
	}
	return verb
}
