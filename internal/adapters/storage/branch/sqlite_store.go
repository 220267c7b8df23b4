package branch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gymhub/internal/adapters/storage"
	"gymhub/internal/domain/attendance"
	domain "gymhub/internal/domain/branch"
)

const branchColumns = "id, name, address, phone, status, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new branch store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Branch by its ID.
// PRE: id is non-empty
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Branch, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+branchColumns+" FROM branches WHERE id = ?", id)
	b, err := scanBranch(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Branch{}, domain.ErrNotFound
	}
	return b, err
}

// List returns every branch ordered by name.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Branch, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+branchColumns+" FROM branches ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Branch
	for rows.Next() {
		b, err := scanBranch(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Save upserts a branch.
// PRE: value has been validated
// POST: Branch persisted; duplicate name yields domain.ErrDuplicateName
func (s *SQLiteStore) Save(ctx context.Context, value domain.Branch) error {
	_, err := s.db.ExecContext(ctx, upsertBranch, branchArgs(value)...)
	if storage.IsUniqueViolation(err) {
		return domain.ErrDuplicateName
	}
	return err
}

// CreateWithSettings inserts a branch and its attendance settings in one
// transaction.
// PRE: value and settings have been validated, settings.BranchID == value.ID
// POST: both rows exist, or neither does
func (s *SQLiteStore) CreateWithSettings(ctx context.Context, value domain.Branch, settings attendance.Settings) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, upsertBranch, branchArgs(value)...); err != nil {
		if storage.IsUniqueViolation(err) {
			return domain.ErrDuplicateName
		}
		return fmt.Errorf("insert branch: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO attendance_settings (branch_id, max_entries_per_day, auto_checkout_after, require_checkout, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		settings.BranchID, settings.MaxEntriesPerDay, settings.AutoCheckoutAfter,
		storage.BoolInt(settings.RequireCheckout), storage.FormatTime(value.CreatedAt)); err != nil {
		return fmt.Errorf("insert attendance settings: %w", err)
	}
	return tx.Commit()
}

// Delete removes an empty branch.
// PRE: id is non-empty
// POST: domain.ErrNotEmpty if customers, trainers or admins still reference
// the branch; domain.ErrNotFound if absent
// INVARIANT: the emptiness check and the delete share one transaction
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var dependents int
	err = tx.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM customers WHERE branch_id = ?) +
		(SELECT COUNT(*) FROM trainers WHERE branch_id = ?) +
		(SELECT COUNT(*) FROM accounts WHERE branch_id = ?)`, id, id, id).Scan(&dependents)
	if err != nil {
		return err
	}
	if dependents > 0 {
		return domain.ErrNotEmpty
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM branches WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return tx.Commit()
}

// Summaries returns per-branch counts for the super admin dashboard.
// INVARIANT: Store state is not mutated
func (s *SQLiteStore) Summaries(ctx context.Context, today time.Time) ([]domain.Summary, error) {
	day := today.Format(storage.DateLayout)
	rows, err := s.db.QueryContext(ctx, `SELECT b.id, b.name, b.address, b.phone, b.status, b.created_at,
		(SELECT COUNT(*) FROM customers c WHERE c.branch_id = b.id),
		(SELECT COUNT(*) FROM trainers t WHERE t.branch_id = b.id),
		(SELECT COUNT(*) FROM accounts a WHERE a.branch_id = b.id),
		(SELECT COUNT(*) FROM attendance att WHERE att.branch_id = b.id AND att.check_out IS NULL),
		(SELECT COUNT(*) FROM attendance att WHERE att.branch_id = b.id AND substr(att.check_in, 1, 10) = ?)
		FROM branches b ORDER BY b.name`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Summary
	for rows.Next() {
		var sum domain.Summary
		var createdAt string
		b := &sum.Branch
		if err := rows.Scan(&b.ID, &b.Name, &b.Address, &b.Phone, &b.Status, &createdAt,
			&sum.Customers, &sum.Trainers, &sum.Admins, &sum.OpenCheckIns, &sum.TodayCheckIns); err != nil {
			return nil, err
		}
		b.CreatedAt, _ = storage.ParseTime(createdAt)
		out = append(out, sum)
	}
	return out, rows.Err()
}

const upsertBranch = `INSERT INTO branches (id, name, address, phone, status, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		address = excluded.address,
		phone = excluded.phone,
		status = excluded.status`

func branchArgs(b domain.Branch) []any {
	return []any{b.ID, b.Name, b.Address, b.Phone, b.Status, storage.FormatTime(b.CreatedAt)}
}

func scanBranch(scan func(dest ...any) error) (domain.Branch, error) {
	var b domain.Branch
	var createdAt string
	if err := scan(&b.ID, &b.Name, &b.Address, &b.Phone, &b.Status, &createdAt); err != nil {
		return domain.Branch{}, err
	}
	var err error
	if b.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Branch{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return b, nil
}
