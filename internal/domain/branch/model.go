package branch

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
)

// Status constants
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Domain errors
var (
	ErrEmptyName     = errors.New("branch name cannot be empty")
	ErrNameTooLong   = errors.New("branch name cannot exceed 100 characters")
	ErrInvalidStatus = errors.New("status must be 'active' or 'inactive'")
	ErrNotEmpty      = errors.New("branch still has customers, trainers or admins")
	ErrDuplicateName = errors.New("a branch with this name already exists")
	ErrNotFound      = errors.New("branch not found")
)

// Branch is a physical gym location and the tenancy boundary for all
// customer, trainer and attendance data.
type Branch struct {
	ID        string
	Name      string
	Address   string
	Phone     string
	Status    string
	CreatedAt time.Time
}

// Validate checks if the Branch has valid data.
// PRE: Branch struct is populated
// POST: Returns nil if valid, error otherwise
func (b *Branch) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if len(b.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if b.Status != StatusActive && b.Status != StatusInactive {
		return ErrInvalidStatus
	}
	return nil
}

// IsActive returns true if the branch accepts day-to-day operations.
func (b *Branch) IsActive() bool {
	return b.Status == StatusActive
}

// Summary is the per-branch roll-up shown on the super admin dashboard.
type Summary struct {
	Branch        Branch
	Customers     int
	Trainers      int
	Admins        int
	OpenCheckIns  int
	TodayCheckIns int
}
