package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// TimeLayout is how timestamps are stored. Values are local wall-clock time
// so SQLite date functions (date(), strftime()) group by the gym's day.
const TimeLayout = "2006-01-02 15:04:05"

// DateLayout is how calendar dates are stored.
const DateLayout = "2006-01-02"

// ErrNotFound is returned by stores when a row does not exist (or belongs
// to another branch).
var ErrNotFound = errors.New("not found")

// OpenDB opens the SQLite database at path with the pragmas every store
// relies on.
// PRE: path is a file path or ":memory:"
// POST: foreign keys on, WAL journal, busy timeout set and write
// transactions begin IMMEDIATE
// INVARIANT: a ":memory:" database is pinned to one connection so every
// query sees the same schema
func OpenDB(path string) (*sql.DB, error) {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	if path != ":memory:" {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	q.Set("_txlock", "immediate")

	dsn := "file:" + path + "?" + q.Encode()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// FormatTime renders t for storage.
func FormatTime(t time.Time) string {
	return t.In(time.Local).Format(TimeLayout)
}

// NullableTime renders t for storage, mapping the zero time to NULL.
func NullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return FormatTime(t)
}

// ParseTime parses a stored timestamp.
func ParseTime(value string) (time.Time, error) {
	layouts := []string{TimeLayout, time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"}
	for _, layout := range layouts {
		if parsed, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format: %q", value)
}

// ParseNullTime parses a nullable stored timestamp; NULL becomes the zero time.
func ParseNullTime(value sql.NullString) (time.Time, error) {
	if !value.Valid || value.String == "" {
		return time.Time{}, nil
	}
	return ParseTime(value.String)
}

// NullString maps "" to NULL.
func NullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// IsUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// BoolInt maps a bool to SQLite's 0/1.
func BoolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
