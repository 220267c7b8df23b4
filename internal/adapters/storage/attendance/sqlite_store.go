package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gymhub/internal/adapters/storage"
	domain "gymhub/internal/domain/attendance"
)

const recordColumns = "a.id, a.customer_id, a.branch_id, a.check_in, a.check_out, a.notes, a.admin_override, COALESCE(c.name, '')"

const recordFrom = " FROM attendance a LEFT JOIN customers c ON c.id = a.customer_id"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new attendance store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an attendance record within a branch.
// POST: domain.ErrNotFound when absent or in another branch
func (s *SQLiteStore) GetByID(ctx context.Context, branchID, id string) (domain.Attendance, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+recordColumns+recordFrom+" WHERE a.branch_id = ? AND a.id = ?", branchID, id)
	rec, err := scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Attendance{}, domain.ErrNotFound
	}
	return rec, err
}

// List returns records of a branch, newest check-in first.
// PRE: filter.BranchID is non-empty
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Attendance, error) {
	query := "SELECT " + recordColumns + recordFrom + " WHERE a.branch_id = ?"
	args := []any{filter.BranchID}
	if filter.CustomerID != "" {
		query += " AND a.customer_id = ?"
		args = append(args, filter.CustomerID)
	}
	if filter.From != "" {
		query += " AND substr(a.check_in, 1, 10) >= ?"
		args = append(args, filter.From)
	}
	if filter.To != "" {
		query += " AND substr(a.check_in, 1, 10) <= ?"
		args = append(args, filter.To)
	}
	query += " ORDER BY a.check_in DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}
	return s.query(ctx, s.db, query, args...)
}

// ListOpen returns every open record of a branch, oldest first.
func (s *SQLiteStore) ListOpen(ctx context.Context, branchID string) ([]domain.Attendance, error) {
	return s.query(ctx, s.db, "SELECT "+recordColumns+recordFrom+" WHERE a.branch_id = ? AND a.check_out IS NULL ORDER BY a.check_in", branchID)
}

// CheckIn writes a new open record if guard allows it.
// PRE: rec has been validated and carries a fresh ID
// POST: the record is stored with AdminOverride as decided by guard, or
// guard's error is returned and nothing is written
// INVARIANT: the open-record lookup, today's count and the insert run in one
// IMMEDIATE transaction, so concurrent check-ins for one customer serialize
func (s *SQLiteStore) CheckIn(ctx context.Context, rec domain.Attendance, guard CheckInGuard) (domain.Attendance, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Attendance{}, err
	}
	defer tx.Rollback()

	var state domain.CheckInState
	var open int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM attendance WHERE customer_id = ? AND branch_id = ? AND check_out IS NULL",
		rec.CustomerID, rec.BranchID).Scan(&open)
	if err != nil {
		return domain.Attendance{}, fmt.Errorf("check open record: %w", err)
	}
	state.HasOpenRecord = open > 0

	day := rec.CheckInTime.In(time.Local).Format(storage.DateLayout)
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM attendance WHERE customer_id = ? AND branch_id = ? AND substr(check_in, 1, 10) = ?",
		rec.CustomerID, rec.BranchID, day).Scan(&state.TodayCount)
	if err != nil {
		return domain.Attendance{}, fmt.Errorf("count today's check-ins: %w", err)
	}

	override, err := guard(state)
	if err != nil {
		return domain.Attendance{}, err
	}
	rec.AdminOverride = override

	_, err = tx.ExecContext(ctx,
		`INSERT INTO attendance (id, customer_id, branch_id, check_in, check_out, notes, admin_override)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CustomerID, rec.BranchID, storage.FormatTime(rec.CheckInTime),
		storage.NullableTime(rec.CheckOutTime), rec.Notes, storage.BoolInt(rec.AdminOverride))
	if storage.IsUniqueViolation(err) {
		return domain.Attendance{}, domain.ErrAlreadyCheckedIn
	}
	if err != nil {
		return domain.Attendance{}, fmt.Errorf("insert attendance: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Attendance{}, err
	}
	return rec, nil
}

// CheckOut closes an open record of a branch.
// POST: domain.ErrNotFound for records of other branches,
// domain.ErrAlreadyCheckedOut for closed records
func (s *SQLiteStore) CheckOut(ctx context.Context, branchID, id string, at time.Time, note string) (domain.Attendance, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Attendance{}, err
	}
	defer tx.Rollback()

	recs, err := s.query(ctx, tx, "SELECT "+recordColumns+recordFrom+" WHERE a.branch_id = ? AND a.id = ?", branchID, id)
	if err != nil {
		return domain.Attendance{}, err
	}
	if len(recs) == 0 {
		return domain.Attendance{}, domain.ErrNotFound
	}
	rec := recs[0]
	if err := rec.Close(at, note); err != nil {
		return domain.Attendance{}, err
	}
	if err := closeRecord(ctx, tx, rec); err != nil {
		return domain.Attendance{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Attendance{}, err
	}
	return rec, nil
}

// CloseExpired closes every open record of settings.BranchID that has been
// open longer than settings.AutoCheckoutAfter minutes.
// POST: Returns exactly the records it closed; other records are untouched
func (s *SQLiteStore) CloseExpired(ctx context.Context, settings domain.Settings, now time.Time) ([]domain.Attendance, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	open, err := s.query(ctx, tx, "SELECT "+recordColumns+recordFrom+" WHERE a.branch_id = ? AND a.check_out IS NULL", settings.BranchID)
	if err != nil {
		return nil, err
	}

	var closed []domain.Attendance
	for _, rec := range open {
		if !settings.ShouldAutoCheckout(rec, now) {
			continue
		}
		if err := rec.Close(now, settings.AutoCheckoutNote()); err != nil {
			return nil, err
		}
		if err := closeRecord(ctx, tx, rec); err != nil {
			return nil, err
		}
		closed = append(closed, rec)
	}
	if len(closed) == 0 {
		return nil, nil
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return closed, nil
}

// DeleteClosedBefore purges closed records that checked in before cutoff.
// An empty branchID purges across all branches.
// POST: open records are never deleted
func (s *SQLiteStore) DeleteClosedBefore(ctx context.Context, branchID string, cutoff time.Time) (int, error) {
	query := "DELETE FROM attendance WHERE check_out IS NOT NULL AND check_in < ?"
	args := []any{storage.FormatTime(cutoff)}
	if branchID != "" {
		query += " AND branch_id = ?"
		args = append(args, branchID)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// GetSettings returns a branch's attendance settings, falling back to the
// defaults when no row exists.
func (s *SQLiteStore) GetSettings(ctx context.Context, branchID string) (domain.Settings, error) {
	var st domain.Settings
	var requireCheckout int
	var updatedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT branch_id, max_entries_per_day, auto_checkout_after, require_checkout, updated_at FROM attendance_settings WHERE branch_id = ?",
		branchID).Scan(&st.BranchID, &st.MaxEntriesPerDay, &st.AutoCheckoutAfter, &requireCheckout, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultSettings(branchID), nil
	}
	if err != nil {
		return domain.Settings{}, err
	}
	st.RequireCheckout = requireCheckout == 1
	st.UpdatedAt, _ = storage.ParseTime(updatedAt)
	return st, nil
}

// SaveSettings upserts a branch's attendance settings.
// PRE: settings have been validated
func (s *SQLiteStore) SaveSettings(ctx context.Context, st domain.Settings) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attendance_settings (branch_id, max_entries_per_day, auto_checkout_after, require_checkout, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(branch_id) DO UPDATE SET
			max_entries_per_day = excluded.max_entries_per_day,
			auto_checkout_after = excluded.auto_checkout_after,
			require_checkout = excluded.require_checkout,
			updated_at = excluded.updated_at`,
		st.BranchID, st.MaxEntriesPerDay, st.AutoCheckoutAfter, storage.BoolInt(st.RequireCheckout), storage.FormatTime(st.UpdatedAt))
	return err
}

// querier is satisfied by both storage.SQLDB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *SQLiteStore) query(ctx context.Context, q querier, query string, args ...any) ([]domain.Attendance, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Attendance
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func closeRecord(ctx context.Context, tx *sql.Tx, rec domain.Attendance) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE attendance SET check_out = ?, notes = ? WHERE id = ? AND check_out IS NULL",
		storage.FormatTime(rec.CheckOutTime), rec.Notes, rec.ID)
	if err != nil {
		return fmt.Errorf("close attendance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrAlreadyCheckedOut
	}
	return nil
}

func scanRecord(scan func(dest ...any) error) (domain.Attendance, error) {
	var rec domain.Attendance
	var checkIn string
	var checkOut sql.NullString
	var override int
	if err := scan(&rec.ID, &rec.CustomerID, &rec.BranchID, &checkIn, &checkOut, &rec.Notes, &override, &rec.CustomerName); err != nil {
		return domain.Attendance{}, err
	}
	var err error
	if rec.CheckInTime, err = storage.ParseTime(checkIn); err != nil {
		return domain.Attendance{}, fmt.Errorf("failed to parse check_in: %w", err)
	}
	if rec.CheckOutTime, err = storage.ParseNullTime(checkOut); err != nil {
		return domain.Attendance{}, fmt.Errorf("failed to parse check_out: %w", err)
	}
	rec.AdminOverride = override == 1
	return rec, nil
}
