package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gymhub/internal/adapters/storage"
	domain "gymhub/internal/domain/customer"
)

const profileColumns = `c.id, c.branch_id, c.name, c.email, c.phone, c.gender, c.subscription_type, c.join_date, c.status, c.created_at,
	COALESCE(m.id, ''), COALESCE(m.type, ''), COALESCE(m.start_date, ''), COALESCE(m.end_date, ''), COALESCE(m.status, '')`

const profileFrom = ` FROM customers c LEFT JOIN memberships m ON m.customer_id = c.id`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new customer store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a customer within a branch.
// PRE: branchID and id are non-empty
// POST: Returns domain.ErrNotFound when the customer is absent or belongs
// to another branch
func (s *SQLiteStore) GetByID(ctx context.Context, branchID, id string) (domain.Customer, error) {
	p, err := s.GetProfile(ctx, branchID, id)
	return p.Customer, err
}

// GetProfile retrieves a customer and its membership within a branch.
func (s *SQLiteStore) GetProfile(ctx context.Context, branchID, id string) (domain.Profile, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+profileColumns+profileFrom+" WHERE c.branch_id = ? AND c.id = ?", branchID, id)
	p, err := scanProfile(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, domain.ErrNotFound
	}
	return p, err
}

// sortColumns maps the sortable list columns to SQL expressions.
var sortColumns = map[string]string{
	SortName:       "c.name COLLATE NOCASE",
	SortJoinDate:   "c.join_date",
	SortMemberTill: "m.end_date",
	SortStatus:     "c.status",
}

// List returns customers of one branch matching the filter, ordered by
// filter.Sort (name when empty).
// PRE: filter.BranchID is non-empty
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Profile, error) {
	where, args := filterClause(filter)
	query := "SELECT " + profileColumns + profileFrom + where + orderClause(filter)
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Count returns how many customers match the filter (ignoring paging).
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := filterClause(filter)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers c"+where, args...).Scan(&n)
	return n, err
}

// CreateWithMembership inserts a customer and its membership in one transaction.
// PRE: c and m have been validated, m.CustomerID == c.ID
// POST: both rows exist, or neither does
func (s *SQLiteStore) CreateWithMembership(ctx context.Context, c domain.Customer, m domain.Membership) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO customers (id, branch_id, name, email, phone, gender, subscription_type, join_date, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.BranchID, c.Name, c.Email, c.Phone, c.Gender, c.SubscriptionType, c.JoinDate, c.Status, storage.FormatTime(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	if err := upsertMembership(ctx, tx, m); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateWithMembership updates a customer and replaces its membership in
// one transaction.
// PRE: c and m have been validated
// POST: domain.ErrNotFound when the customer is not in c.BranchID
func (s *SQLiteStore) UpdateWithMembership(ctx context.Context, c domain.Customer, m domain.Membership) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE customers SET name = ?, email = ?, phone = ?, gender = ?, subscription_type = ?, join_date = ?, status = ?
		WHERE id = ? AND branch_id = ?`,
		c.Name, c.Email, c.Phone, c.Gender, c.SubscriptionType, c.JoinDate, c.Status, c.ID, c.BranchID)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	if err := upsertMembership(ctx, tx, m); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a customer of a branch. Membership, attendance, sessions
// and assignments cascade.
// POST: domain.ErrNotFound when the customer is not in branchID
func (s *SQLiteStore) Delete(ctx context.Context, branchID, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM customers WHERE id = ? AND branch_id = ?", id, branchID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func upsertMembership(ctx context.Context, tx *sql.Tx, m domain.Membership) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO memberships (id, customer_id, type, start_date, end_date, status)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(customer_id) DO UPDATE SET
			type = excluded.type,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			status = excluded.status`,
		m.ID, m.CustomerID, m.Type, m.StartDate, m.EndDate, m.Status)
	if err != nil {
		return fmt.Errorf("upsert membership: %w", err)
	}
	return nil
}

func filterClause(f ListFilter) (string, []any) {
	where := " WHERE c.branch_id = ?"
	args := []any{f.BranchID}
	if q := strings.TrimSpace(f.Search); q != "" {
		like := "%" + q + "%"
		where += " AND (c.name LIKE ? OR c.email LIKE ? OR c.phone LIKE ?)"
		args = append(args, like, like, like)
	}
	if f.Status != "" {
		where += " AND c.status = ?"
		args = append(args, f.Status)
	}
	return where, args
}

func orderClause(f ListFilter) string {
	col, ok := sortColumns[f.Sort]
	if !ok {
		col = sortColumns[SortName]
	}
	dir := " ASC"
	if f.Desc {
		dir = " DESC"
	}
	return " ORDER BY " + col + dir + ", c.id"
}

func scanProfile(scan func(dest ...any) error) (domain.Profile, error) {
	var p domain.Profile
	c := &p.Customer
	m := &p.Membership
	var createdAt string
	if err := scan(&c.ID, &c.BranchID, &c.Name, &c.Email, &c.Phone, &c.Gender, &c.SubscriptionType, &c.JoinDate, &c.Status, &createdAt,
		&m.ID, &m.Type, &m.StartDate, &m.EndDate, &m.Status); err != nil {
		return domain.Profile{}, err
	}
	var err error
	if c.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Profile{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if m.ID != "" {
		m.CustomerID = c.ID
	}
	return p, nil
}
