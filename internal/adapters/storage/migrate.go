package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gymhub/internal/domain/attendance"
	"gymhub/internal/domain/featureflag"
)

// migration is one forward-only schema step.
type migration struct {
	version int
	name    string
	up      func(tx *sql.Tx) error
}

// migrations is the ordered migration chain. Append only: never edit a
// migration that has shipped.
var migrations = []migration{
	{1, "baseline", migrateBaseline},
	{2, "scheduling", migrateScheduling},
	{3, "audit_log", migrateAuditLog},
}

// LatestSchemaVersion returns the version the chain migrates to.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the applied schema version, 0 for a fresh database.
// PRE: db is a valid connection
// POST: Returns the highest applied version
func SchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'`).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect schema_version: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}
	var v sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema_version: %w", err)
	}
	return int(v.Int64), nil
}

// MigrateDB applies every pending migration, each in its own transaction.
// A file database is snapshotted to "<path>.bak-v<N>" before the first
// pending step runs.
// PRE: db is a valid connection opened with OpenDB
// POST: SchemaVersion(db) == LatestSchemaVersion()
// INVARIANT: applied migrations are never re-run
func MigrateDB(db *sql.DB, path string) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	if current >= LatestSchemaVersion() {
		return nil
	}

	if current > 0 && path != "" && path != ":memory:" {
		backup := fmt.Sprintf("%s.bak-v%d", path, current)
		if _, err := db.Exec(`VACUUM INTO ?`, backup); err != nil {
			slog.Warn("migration_event", "event", "backup_failed", "path", backup, "error", err)
		} else {
			slog.Info("migration_event", "event", "backup_written", "path", backup)
		}
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return err
		}
		slog.Info("migration_event", "event", "applied", "version", m.version, "name", m.name)
	}
	return nil
}

func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migration %d: begin: %w", m.version, err)
	}
	defer tx.Rollback()

	if err := m.up(tx); err != nil {
		return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
	}
	if _, err := tx.Exec(`INSERT INTO schema_version (version, name, applied_at) VALUES (?, ?, ?)`,
		m.version, m.name, FormatTime(time.Now())); err != nil {
		return fmt.Errorf("migration %d: record version: %w", m.version, err)
	}
	return tx.Commit()
}

func execAll(tx *sql.Tx, stmts ...string) error {
	for _, stmt := range stmts {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// migrateBaseline creates branches, accounts, feature permissions,
// customers, trainers and attendance.
func migrateBaseline(tx *sql.Tx) error {
	err := execAll(tx,
		`CREATE TABLE IF NOT EXISTS branches (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			address TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'active',
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL,
			branch_id TEXT REFERENCES branches(id),
			created_at TEXT NOT NULL,
			failed_logins INTEGER NOT NULL DEFAULT 0,
			locked_until TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS features (
			key TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS admin_features (
			account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			feature_key TEXT NOT NULL REFERENCES features(key),
			enabled INTEGER NOT NULL DEFAULT 1,
			PRIMARY KEY (account_id, feature_key)
		)`,
		`CREATE TABLE IF NOT EXISTS customers (
			id TEXT PRIMARY KEY,
			branch_id TEXT NOT NULL REFERENCES branches(id),
			name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			gender TEXT NOT NULL DEFAULT '',
			subscription_type TEXT NOT NULL,
			join_date TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_customers_branch ON customers(branch_id, name)`,
		`CREATE TABLE IF NOT EXISTS memberships (
			id TEXT PRIMARY KEY,
			customer_id TEXT NOT NULL UNIQUE REFERENCES customers(id) ON DELETE CASCADE,
			type TEXT NOT NULL,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			status TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS trainers (
			id TEXT PRIMARY KEY,
			branch_id TEXT NOT NULL REFERENCES branches(id),
			name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			specialization TEXT NOT NULL DEFAULT '',
			bio TEXT NOT NULL DEFAULT '',
			photo_path TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'active',
			hire_date TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trainers_branch ON trainers(branch_id, name)`,
		`CREATE TABLE IF NOT EXISTS attendance_settings (
			branch_id TEXT PRIMARY KEY REFERENCES branches(id) ON DELETE CASCADE,
			max_entries_per_day INTEGER NOT NULL DEFAULT 1 CHECK (max_entries_per_day >= 1),
			auto_checkout_after INTEGER NOT NULL DEFAULT 180 CHECK (auto_checkout_after >= 1),
			require_checkout INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS attendance (
			id TEXT PRIMARY KEY,
			customer_id TEXT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
			branch_id TEXT NOT NULL REFERENCES branches(id),
			check_in TEXT NOT NULL,
			check_out TEXT,
			notes TEXT NOT NULL DEFAULT '',
			admin_override INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_attendance_one_open ON attendance(customer_id, branch_id) WHERE check_out IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_attendance_branch_checkin ON attendance(branch_id, check_in)`,
	)
	if err != nil {
		return err
	}
	for _, f := range featureflag.Catalog() {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO features (key, name, description) VALUES (?, ?, ?)`,
			f.Key, f.Name, f.Description); err != nil {
			return err
		}
	}
	// Branches created before settings existed get the defaults.
	_, err = tx.Exec(`INSERT OR IGNORE INTO attendance_settings (branch_id, max_entries_per_day, auto_checkout_after, require_checkout, updated_at)
		SELECT id, ?, ?, 0, ? FROM branches`,
		attendance.DefaultMaxEntriesPerDay, attendance.DefaultAutoCheckoutAfter, FormatTime(time.Now()))
	return err
}

// migrateScheduling creates trainer schedules, sessions and assignments.
func migrateScheduling(tx *sql.Tx) error {
	return execAll(tx,
		`CREATE TABLE IF NOT EXISTS trainer_schedules (
			id TEXT PRIMARY KEY,
			trainer_id TEXT NOT NULL REFERENCES trainers(id) ON DELETE CASCADE,
			branch_id TEXT NOT NULL REFERENCES branches(id),
			date TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			UNIQUE (trainer_id, date, start_time, end_time)
		)`,
		`CREATE TABLE IF NOT EXISTS training_sessions (
			id TEXT PRIMARY KEY,
			trainer_id TEXT NOT NULL REFERENCES trainers(id) ON DELETE CASCADE,
			customer_id TEXT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
			schedule_id TEXT REFERENCES trainer_schedules(id) ON DELETE SET NULL,
			branch_id TEXT NOT NULL REFERENCES branches(id),
			date TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'scheduled',
			notes TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_branch_date ON training_sessions(branch_id, date)`,
		`CREATE TABLE IF NOT EXISTS trainer_customer_assignments (
			id TEXT PRIMARY KEY,
			trainer_id TEXT NOT NULL REFERENCES trainers(id) ON DELETE CASCADE,
			customer_id TEXT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
			branch_id TEXT NOT NULL REFERENCES branches(id),
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			updated_at TEXT NOT NULL,
			UNIQUE (trainer_id, customer_id)
		)`,
	)
}

// migrateAuditLog creates the audit trail.
func migrateAuditLog(tx *sql.Tx) error {
	return execAll(tx,
		`CREATE TABLE IF NOT EXISTS audit_log (
			id TEXT PRIMARY KEY,
			timestamp TEXT NOT NULL,
			category TEXT NOT NULL,
			action TEXT NOT NULL,
			severity TEXT NOT NULL,
			actor_id TEXT NOT NULL,
			actor_email TEXT NOT NULL DEFAULT '',
			actor_role TEXT NOT NULL DEFAULT '',
			branch_id TEXT NOT NULL DEFAULT '',
			resource_id TEXT NOT NULL DEFAULT '',
			resource_type TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			ip_address TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_timestamp ON audit_log(timestamp)`,
	)
}
