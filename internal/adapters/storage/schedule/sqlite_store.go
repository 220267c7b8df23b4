package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gymhub/internal/adapters/storage"
	domain "gymhub/internal/domain/schedule"
)

const sessionColumns = `s.id, s.trainer_id, s.customer_id, COALESCE(s.schedule_id, ''), s.branch_id, s.date, s.start_time, s.end_time, s.status, s.notes, s.created_at,
	COALESCE(t.name, ''), COALESCE(c.name, '')`

const sessionFrom = ` FROM training_sessions s
	LEFT JOIN trainers t ON t.id = s.trainer_id
	LEFT JOIN customers c ON c.id = s.customer_id`

const assignmentColumns = `a.id, a.trainer_id, a.customer_id, a.branch_id, a.start_date, a.end_date, a.status, a.updated_at,
	COALESCE(t.name, ''), COALESCE(c.name, '')`

const assignmentFrom = ` FROM trainer_customer_assignments a
	LEFT JOIN trainers t ON t.id = a.trainer_id
	LEFT JOIN customers c ON c.id = a.customer_id`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  storage.SQLDB
	now func() time.Time
}

// NewSQLiteStore creates a new scheduling store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Book writes a session, its schedule slot and the trainer-customer
// assignment in one transaction, after guard has approved the booking.
// PRE: slot, session and assignment share branch, trainer, customer and date
// POST: the slot is reused when an identical one exists; the assignment for
// (trainer, customer) is created or overwritten and reactivated, widened to
// cover every scheduled session of the pair
// INVARIANT: the conflict lookup and the writes run in one IMMEDIATE
// transaction, so two overlapping bookings cannot both succeed
func (s *SQLiteStore) Book(ctx context.Context, slot domain.Slot, session domain.Session, assignment domain.Assignment, guard BookingGuard) (domain.Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Session{}, err
	}
	defer tx.Rollback()

	existing, err := sameDaySessions(ctx, tx, session)
	if err != nil {
		return domain.Session{}, err
	}
	if err := guard(existing); err != nil {
		return domain.Session{}, err
	}

	slotID, err := upsertSlot(ctx, tx, slot)
	if err != nil {
		return domain.Session{}, err
	}
	now := s.now()

	session.ScheduleID = slotID
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	session.CreatedAt = now
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO training_sessions (id, trainer_id, customer_id, schedule_id, branch_id, date, start_time, end_time, status, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.TrainerID, session.CustomerID, session.ScheduleID, session.BranchID,
		session.Date, session.StartTime, session.EndTime, session.Status, session.Notes, storage.FormatTime(now)); err != nil {
		return domain.Session{}, fmt.Errorf("insert session: %w", err)
	}

	var first, last sql.NullString
	if err := tx.QueryRowContext(ctx,
		"SELECT MIN(date), MAX(date) FROM training_sessions WHERE branch_id = ? AND trainer_id = ? AND customer_id = ? AND status = ?",
		assignment.BranchID, assignment.TrainerID, assignment.CustomerID, domain.SessionScheduled).Scan(&first, &last); err != nil {
		return domain.Session{}, fmt.Errorf("load scheduled range: %w", err)
	}
	assignment.Widen(first.String, last.String)

	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO trainer_customer_assignments (id, trainer_id, customer_id, branch_id, start_date, end_date, status, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(trainer_id, customer_id) DO UPDATE SET
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			status = excluded.status,
			updated_at = excluded.updated_at`,
		assignment.ID, assignment.TrainerID, assignment.CustomerID, assignment.BranchID,
		assignment.StartDate, assignment.EndDate, assignment.Status, storage.FormatTime(now)); err != nil {
		return domain.Session{}, fmt.Errorf("upsert assignment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// GetSession retrieves a session within a branch.
// POST: domain.ErrSessionNotFound when absent or in another branch
func (s *SQLiteStore) GetSession(ctx context.Context, branchID, id string) (domain.Session, error) {
	list, err := querySessions(ctx, s.db, "SELECT "+sessionColumns+sessionFrom+" WHERE s.branch_id = ? AND s.id = ?", branchID, id)
	if err != nil {
		return domain.Session{}, err
	}
	if len(list) == 0 {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return list[0], nil
}

// ListSessions returns sessions of a branch ordered by date and start time.
// PRE: filter.BranchID is non-empty
func (s *SQLiteStore) ListSessions(ctx context.Context, filter SessionFilter) ([]domain.Session, error) {
	query := "SELECT " + sessionColumns + sessionFrom + " WHERE s.branch_id = ?"
	args := []any{filter.BranchID}
	if filter.From != "" {
		query += " AND s.date >= ?"
		args = append(args, filter.From)
	}
	if filter.To != "" {
		query += " AND s.date <= ?"
		args = append(args, filter.To)
	}
	if filter.TrainerID != "" {
		query += " AND s.trainer_id = ?"
		args = append(args, filter.TrainerID)
	}
	if filter.CustomerID != "" {
		query += " AND s.customer_id = ?"
		args = append(args, filter.CustomerID)
	}
	if filter.Status != "" {
		query += " AND s.status = ?"
		args = append(args, filter.Status)
	}
	query += " ORDER BY s.date, s.start_time"
	return querySessions(ctx, s.db, query, args...)
}

// UpdateSessionStatus sets a session's status after guard, when non-nil,
// has approved the change.
// PRE: status is valid
// POST: domain.ErrSessionNotFound when the session is not in branchID
// INVARIANT: the guard's lookup and the update run in one IMMEDIATE
// transaction
func (s *SQLiteStore) UpdateSessionStatus(ctx context.Context, branchID, id, status string, guard StatusGuard) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	list, err := querySessions(ctx, tx, "SELECT "+sessionColumns+sessionFrom+" WHERE s.branch_id = ? AND s.id = ?", branchID, id)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return domain.ErrSessionNotFound
	}
	if guard != nil {
		sameDay, err := sameDaySessions(ctx, tx, list[0])
		if err != nil {
			return err
		}
		if err := guard(list[0], sameDay); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, "UPDATE training_sessions SET status = ? WHERE id = ? AND branch_id = ?", status, id, branchID); err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	return tx.Commit()
}

// DeleteSession removes a session.
// POST: domain.ErrSessionNotFound when the session is not in branchID
func (s *SQLiteStore) DeleteSession(ctx context.Context, branchID, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM training_sessions WHERE id = ? AND branch_id = ?", id, branchID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// GetAssignment retrieves an assignment within a branch.
// POST: domain.ErrAssignmentNotFound when absent or in another branch
func (s *SQLiteStore) GetAssignment(ctx context.Context, branchID, id string) (domain.Assignment, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+assignmentColumns+assignmentFrom+" WHERE a.branch_id = ? AND a.id = ?", branchID, id)
	a, err := scanAssignment(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Assignment{}, domain.ErrAssignmentNotFound
	}
	return a, err
}

// ListAssignments returns assignments of a branch, most recently changed first.
func (s *SQLiteStore) ListAssignments(ctx context.Context, filter AssignmentFilter) ([]domain.Assignment, error) {
	query := "SELECT " + assignmentColumns + assignmentFrom + " WHERE a.branch_id = ?"
	args := []any{filter.BranchID}
	if filter.TrainerID != "" {
		query += " AND a.trainer_id = ?"
		args = append(args, filter.TrainerID)
	}
	if filter.Status != "" {
		query += " AND a.status = ?"
		args = append(args, filter.Status)
	}
	query += " ORDER BY a.updated_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateAssignmentStatus sets an assignment's status.
// POST: domain.ErrAssignmentNotFound when the assignment is not in branchID
func (s *SQLiteStore) UpdateAssignmentStatus(ctx context.Context, branchID, id, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE trainer_customer_assignments SET status = ?, updated_at = ? WHERE id = ? AND branch_id = ?",
		status, storage.FormatTime(s.now()), id, branchID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrAssignmentNotFound
	}
	return nil
}

// upsertSlot returns the ID of the trainer's identical slot, inserting it
// first when it does not exist yet.
func upsertSlot(ctx context.Context, tx *sql.Tx, slot domain.Slot) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx,
		"SELECT id FROM trainer_schedules WHERE trainer_id = ? AND date = ? AND start_time = ? AND end_time = ?",
		slot.TrainerID, slot.Date, slot.StartTime, slot.EndTime).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("find slot: %w", err)
	}
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO trainer_schedules (id, trainer_id, branch_id, date, start_time, end_time) VALUES (?, ?, ?, ?, ?, ?)",
		slot.ID, slot.TrainerID, slot.BranchID, slot.Date, slot.StartTime, slot.EndTime); err != nil {
		return "", fmt.Errorf("insert slot: %w", err)
	}
	return slot.ID, nil
}

// sameDaySessions loads the sessions on session's date that share its
// trainer or customer.
func sameDaySessions(ctx context.Context, q querier, session domain.Session) ([]domain.Session, error) {
	list, err := querySessions(ctx, q,
		"SELECT "+sessionColumns+sessionFrom+" WHERE s.branch_id = ? AND s.date = ? AND (s.trainer_id = ? OR s.customer_id = ?)",
		session.BranchID, session.Date, session.TrainerID, session.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	return list, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func querySessions(ctx context.Context, q querier, query string, args ...any) ([]domain.Session, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Session
	for rows.Next() {
		var sess domain.Session
		var createdAt string
		if err := rows.Scan(&sess.ID, &sess.TrainerID, &sess.CustomerID, &sess.ScheduleID, &sess.BranchID,
			&sess.Date, &sess.StartTime, &sess.EndTime, &sess.Status, &sess.Notes, &createdAt,
			&sess.TrainerName, &sess.CustomerName); err != nil {
			return nil, err
		}
		sess.CreatedAt, _ = storage.ParseTime(createdAt)
		out = append(out, sess)
	}
	return out, rows.Err()
}

func scanAssignment(scan func(dest ...any) error) (domain.Assignment, error) {
	var a domain.Assignment
	var updatedAt string
	if err := scan(&a.ID, &a.TrainerID, &a.CustomerID, &a.BranchID, &a.StartDate, &a.EndDate, &a.Status, &updatedAt,
		&a.TrainerName, &a.CustomerName); err != nil {
		return domain.Assignment{}, err
	}
	a.UpdatedAt, _ = storage.ParseTime(updatedAt)
	return a, nil
}
