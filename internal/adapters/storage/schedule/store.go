package schedule

import (
	"context"

	domain "gymhub/internal/domain/schedule"
)

// BookingGuard inspects the sessions already booked on the requested date
// for the same trainer or customer and rejects the booking by returning an
// error.
type BookingGuard func(existing []domain.Session) error

// StatusGuard inspects a session and the sessions booked on its date for the
// same trainer or customer, and rejects a status change by returning an
// error.
type StatusGuard func(current domain.Session, sameDay []domain.Session) error

// Store persists trainer schedule slots, training sessions and
// trainer-customer assignments, scoped to a branch.
type Store interface {
	Book(ctx context.Context, slot domain.Slot, session domain.Session, assignment domain.Assignment, guard BookingGuard) (domain.Session, error)
	GetSession(ctx context.Context, branchID, id string) (domain.Session, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]domain.Session, error)
	UpdateSessionStatus(ctx context.Context, branchID, id, status string, guard StatusGuard) error
	DeleteSession(ctx context.Context, branchID, id string) error
	GetAssignment(ctx context.Context, branchID, id string) (domain.Assignment, error)
	ListAssignments(ctx context.Context, filter AssignmentFilter) ([]domain.Assignment, error)
	UpdateAssignmentStatus(ctx context.Context, branchID, id, status string) error
}

// SessionFilter carries filtering parameters for ListSessions.
type SessionFilter struct {
	BranchID   string
	From       string // YYYY-MM-DD inclusive, optional
	To         string // YYYY-MM-DD inclusive, optional
	TrainerID  string
	CustomerID string
	Status     string
}

// AssignmentFilter carries filtering parameters for ListAssignments.
type AssignmentFilter struct {
	BranchID  string
	TrainerID string
	Status    string
}

var _ Store = (*SQLiteStore)(nil)
