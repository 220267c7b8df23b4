package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gymhub/internal/adapters/storage"
	domain "gymhub/internal/domain/account"
	"gymhub/internal/domain/featureflag"
)

const accountColumns = "a.id, a.name, a.email, a.password_hash, a.role, a.branch_id, a.created_at, a.failed_logins, a.locked_until, COALESCE(b.name, '')"

const accountFrom = " FROM accounts a LEFT JOIN branches b ON b.id = a.branch_id"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new AccountStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Account by its ID.
// PRE: id is non-empty
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+accountColumns+accountFrom+" WHERE a.id = ?", id)
	return scanOne(row)
}

// GetByEmail retrieves an Account by email (case-insensitive).
// PRE: email is non-empty
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+accountColumns+accountFrom+" WHERE a.email = ? COLLATE NOCASE", domain.NormalizeEmail(email))
	return scanOne(row)
}

// Save persists an Account (insert or update).
// PRE: entity has been validated
// POST: Entity is persisted; duplicate email yields domain.ErrDuplicateEmail
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Account) error {
	_, err := s.db.ExecContext(ctx, upsertAccount, accountArgs(entity)...)
	if storage.IsUniqueViolation(err) {
		return domain.ErrDuplicateEmail
	}
	return err
}

// CreateWithGrants inserts a new account and its feature grants in one
// transaction.
// PRE: entity has been validated, grants belong to entity.ID
// POST: both the account and every grant exist, or neither does
func (s *SQLiteStore) CreateWithGrants(ctx context.Context, entity domain.Account, grants []featureflag.Grant) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, upsertAccount, accountArgs(entity)...); err != nil {
		if storage.IsUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert account: %w", err)
	}
	for _, g := range grants {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO admin_features (account_id, feature_key, enabled) VALUES (?, ?, ?)
			 ON CONFLICT(account_id, feature_key) DO UPDATE SET enabled = excluded.enabled`,
			g.AccountID, g.FeatureKey, storage.BoolInt(g.Enabled)); err != nil {
			return fmt.Errorf("insert grant %s: %w", g.FeatureKey, err)
		}
	}
	return tx.Commit()
}

// Delete removes an Account. Grants cascade.
// PRE: id is non-empty
// POST: Account with given id is removed; domain.ErrNotFound if absent
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List retrieves accounts matching the filter, ordered by name.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Account, error) {
	query := "SELECT " + accountColumns + accountFrom + " WHERE 1=1"
	var args []any
	if filter.Role != "" {
		query += " AND a.role = ?"
		args = append(args, filter.Role)
	}
	if filter.BranchID != "" {
		query += " AND a.branch_id = ?"
		args = append(args, filter.BranchID)
	}
	query += " ORDER BY a.name"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Count returns the number of accounts with the given role ("" for all).
func (s *SQLiteStore) Count(ctx context.Context, role string) (int, error) {
	var n int
	var err error
	if role == "" {
		err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts").Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts WHERE role = ?", role).Scan(&n)
	}
	return n, err
}

const upsertAccount = `INSERT INTO accounts (id, name, email, password_hash, role, branch_id, created_at, failed_logins, locked_until)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		email = excluded.email,
		password_hash = excluded.password_hash,
		role = excluded.role,
		branch_id = excluded.branch_id,
		failed_logins = excluded.failed_logins,
		locked_until = excluded.locked_until`

func accountArgs(a domain.Account) []any {
	return []any{
		a.ID, a.Name, domain.NormalizeEmail(a.Email), a.PasswordHash, a.Role,
		storage.NullString(a.BranchID), storage.FormatTime(a.CreatedAt),
		a.FailedLogins, storage.NullableTime(a.LockedUntil),
	}
}

func scanOne(row *sql.Row) (domain.Account, error) {
	a, err := scanAccount(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, domain.ErrNotFound
	}
	return a, err
}

func scanAccount(scan func(dest ...any) error) (domain.Account, error) {
	var a domain.Account
	var branchID, lockedUntil sql.NullString
	var createdAt string
	if err := scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Role, &branchID, &createdAt, &a.FailedLogins, &lockedUntil, &a.BranchName); err != nil {
		return domain.Account{}, err
	}
	a.BranchID = branchID.String
	var err error
	if a.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Account{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if a.LockedUntil, err = storage.ParseNullTime(lockedUntil); err != nil {
		return domain.Account{}, fmt.Errorf("failed to parse locked_until: %w", err)
	}
	return a, nil
}
