package trainer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gymhub/internal/adapters/storage"
	domain "gymhub/internal/domain/trainer"
)

const trainerColumns = "id, branch_id, name, email, phone, specialization, bio, photo_path, status, hire_date, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new trainer store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a trainer within a branch.
// POST: Returns domain.ErrNotFound when absent or in another branch
func (s *SQLiteStore) GetByID(ctx context.Context, branchID, id string) (domain.Trainer, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+trainerColumns+" FROM trainers WHERE branch_id = ? AND id = ?", branchID, id)
	t, err := scanTrainer(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Trainer{}, domain.ErrNotFound
	}
	return t, err
}

// List returns trainers of one branch ordered by name.
// PRE: filter.BranchID is non-empty
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Trainer, error) {
	query := "SELECT " + trainerColumns + " FROM trainers WHERE branch_id = ?"
	args := []any{filter.BranchID}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		query += " AND (name LIKE ? OR specialization LIKE ?)"
		args = append(args, "%"+q+"%", "%"+q+"%")
	}
	query += " ORDER BY name COLLATE NOCASE"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Trainer
	for rows.Next() {
		t, err := scanTrainer(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Create inserts a trainer.
// PRE: value has been validated
func (s *SQLiteStore) Create(ctx context.Context, t domain.Trainer) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO trainers (`+trainerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.BranchID, t.Name, t.Email, t.Phone, t.Specialization, t.Bio, t.PhotoPath, t.Status, t.HireDate, storage.FormatTime(t.CreatedAt))
	return err
}

// Update rewrites a trainer's editable fields, including the photo path.
// POST: domain.ErrNotFound when the trainer is not in value.BranchID
func (s *SQLiteStore) Update(ctx context.Context, t domain.Trainer) error {
	res, err := s.db.ExecContext(ctx, `UPDATE trainers SET name = ?, email = ?, phone = ?, specialization = ?, bio = ?, photo_path = ?, status = ?, hire_date = ?
		WHERE id = ? AND branch_id = ?`,
		t.Name, t.Email, t.Phone, t.Specialization, t.Bio, t.PhotoPath, t.Status, t.HireDate, t.ID, t.BranchID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a trainer of a branch. Schedules, sessions and
// assignments cascade.
// POST: domain.ErrNotFound when the trainer is not in branchID
func (s *SQLiteStore) Delete(ctx context.Context, branchID, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM trainers WHERE id = ? AND branch_id = ?", id, branchID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanTrainer(scan func(dest ...any) error) (domain.Trainer, error) {
	var t domain.Trainer
	var createdAt string
	if err := scan(&t.ID, &t.BranchID, &t.Name, &t.Email, &t.Phone, &t.Specialization, &t.Bio, &t.PhotoPath, &t.Status, &t.HireDate, &createdAt); err != nil {
		return domain.Trainer{}, err
	}
	var err error
	if t.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Trainer{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return t, nil
}
