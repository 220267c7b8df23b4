package audit

import (
	"context"
	"fmt"
	"strings"

	"gymhub/internal/adapters/storage"
	domain "gymhub/internal/domain/audit"
)

const eventColumns = "id, timestamp, category, action, severity, actor_id, actor_email, actor_role, branch_id, resource_id, resource_type, description, ip_address"

// SQLiteStore implements Store on the audit_log table.
type SQLiteStore struct {
	db storage.SQLDB
}

func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Save(ctx context.Context, e domain.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, storage.FormatTime(e.Timestamp), e.Category, e.Action, e.Severity,
		e.Actor.ID, e.Actor.Email, e.Actor.Role, e.BranchID, e.ResourceID, e.ResourceType, e.Description, e.Actor.IP)
	if err != nil {
		return fmt.Errorf("save audit event %s/%s: %w", e.Category, e.Action, err)
	}
	return nil
}

// where renders filter as a WHERE clause with its arguments.
func (f Filter) where() (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v string) {
		if v != "" {
			conds = append(conds, cond)
			args = append(args, v)
		}
	}
	add("category = ?", string(f.Category))
	add("action = ?", string(f.Action))
	add("actor_id = ?", f.ActorID)
	add("branch_id = ?", f.BranchID)
	add("substr(timestamp, 1, 10) >= ?", f.From)
	add("substr(timestamp, 1, 10) <= ?", f.To)
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *SQLiteStore) List(ctx context.Context, filter Filter, limit int) ([]domain.Event, error) {
	where, args := filter.where()
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM audit_log`+where+` ORDER BY timestamp DESC, id LIMIT ?`,
		append(args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		var ts string
		if err := rows.Scan(&e.ID, &ts, &e.Category, &e.Action, &e.Severity,
			&e.Actor.ID, &e.Actor.Email, &e.Actor.Role,
			&e.BranchID, &e.ResourceID, &e.ResourceType, &e.Description, &e.Actor.IP); err != nil {
			return nil, err
		}
		e.Timestamp, _ = storage.ParseTime(ts)
		events = append(events, e)
	}
	return events, rows.Err()
}
