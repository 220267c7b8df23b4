package audit

import (
	"context"

	domain "gymhub/internal/domain/audit"
)

// Store persists audit events.
type Store interface {
	// Save appends an event.
	Save(ctx context.Context, event domain.Event) error

	// List returns up to limit events matching filter, newest first.
	// PRE: limit > 0
	List(ctx context.Context, filter Filter, limit int) ([]domain.Event, error)
}

// Filter narrows List. Empty fields do not filter; From and To are
// inclusive YYYY-MM-DD dates.
type Filter struct {
	Category domain.Category
	Action   domain.Action
	ActorID  string
	BranchID string
	From     string
	To       string
}

var _ Store = (*SQLiteStore)(nil)
