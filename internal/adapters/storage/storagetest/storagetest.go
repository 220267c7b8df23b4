// Package storagetest provides a migrated in-memory database and seed
// helpers for store tests.
package storagetest

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"gymhub/internal/adapters/storage"
)

// Open returns a migrated in-memory database closed at test cleanup.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	db, err := storage.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// SeedBranch inserts a branch with default attendance settings and returns its ID.
func SeedBranch(t testing.TB, db *sql.DB, name string) string {
	t.Helper()
	id := uuid.NewString()
	now := storage.FormatTime(time.Now())
	exec(t, db, `INSERT INTO branches (id, name, status, created_at) VALUES (?, ?, 'active', ?)`, id, name, now)
	exec(t, db, `INSERT INTO attendance_settings (branch_id, max_entries_per_day, auto_checkout_after, require_checkout, updated_at) VALUES (?, 1, 180, 0, ?)`, id, now)
	return id
}

// SeedCustomer inserts an active monthly customer and returns its ID.
func SeedCustomer(t testing.TB, db *sql.DB, branchID, name string) string {
	t.Helper()
	id := uuid.NewString()
	exec(t, db, `INSERT INTO customers (id, branch_id, name, subscription_type, join_date, status, created_at) VALUES (?, ?, ?, 'monthly', '2026-01-01', 'active', ?)`,
		id, branchID, name, storage.FormatTime(time.Now()))
	return id
}

// SeedTrainer inserts an active trainer and returns its ID.
func SeedTrainer(t testing.TB, db *sql.DB, branchID, name string) string {
	t.Helper()
	id := uuid.NewString()
	exec(t, db, `INSERT INTO trainers (id, branch_id, name, status, created_at) VALUES (?, ?, ?, 'active', ?)`,
		id, branchID, name, storage.FormatTime(time.Now()))
	return id
}

// SeedAdmin inserts a branch admin without feature grants and returns its ID.
func SeedAdmin(t testing.TB, db *sql.DB, branchID, email string) string {
	t.Helper()
	id := uuid.NewString()
	exec(t, db, `INSERT INTO accounts (id, name, email, password_hash, role, branch_id, created_at) VALUES (?, ?, ?, '', 'branch_admin', ?, ?)`,
		id, email, email, branchID, storage.FormatTime(time.Now()))
	return id
}

// SeedAttendance inserts a raw attendance row. A zero checkOut leaves it open.
func SeedAttendance(t testing.TB, db *sql.DB, branchID, customerID string, checkIn, checkOut time.Time) string {
	t.Helper()
	id := uuid.NewString()
	exec(t, db, `INSERT INTO attendance (id, customer_id, branch_id, check_in, check_out) VALUES (?, ?, ?, ?, ?)`,
		id, customerID, branchID, storage.FormatTime(checkIn), storage.NullableTime(checkOut))
	return id
}

// Count runs a COUNT(*) query.
func Count(t testing.TB, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count %q: %v", query, err)
	}
	return n
}

func exec(t testing.TB, db *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}
