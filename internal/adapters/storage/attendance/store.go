package attendance

import (
	"context"
	"time"

	domain "gymhub/internal/domain/attendance"
)

// CheckInGuard decides, inside the check-in transaction, whether the new
// record may be written. It returns whether the record is an admin override.
type CheckInGuard func(state domain.CheckInState) (override bool, err error)

// Store persists attendance records and per-branch attendance settings.
type Store interface {
	GetByID(ctx context.Context, branchID, id string) (domain.Attendance, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Attendance, error)
	ListOpen(ctx context.Context, branchID string) ([]domain.Attendance, error)
	CheckIn(ctx context.Context, rec domain.Attendance, guard CheckInGuard) (domain.Attendance, error)
	CheckOut(ctx context.Context, branchID, id string, at time.Time, note string) (domain.Attendance, error)
	CloseExpired(ctx context.Context, settings domain.Settings, now time.Time) ([]domain.Attendance, error)
	DeleteClosedBefore(ctx context.Context, branchID string, cutoff time.Time) (int, error)
	GetSettings(ctx context.Context, branchID string) (domain.Settings, error)
	SaveSettings(ctx context.Context, settings domain.Settings) error
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	BranchID   string
	CustomerID string
	From       string // YYYY-MM-DD inclusive, optional
	To         string // YYYY-MM-DD inclusive, optional
	Limit      int
	Offset     int
}

var _ Store = (*SQLiteStore)(nil)
