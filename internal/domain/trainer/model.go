package trainer

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
	MaxBioLength  = 4000
)

// Status constants
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusOnLeave  = "on_leave"
)

// ValidStatuses contains all valid trainer statuses.
var ValidStatuses = []string{StatusActive, StatusInactive, StatusOnLeave}

// Domain errors
var (
	ErrEmptyName      = errors.New("trainer name cannot be empty")
	ErrNameTooLong    = errors.New("trainer name cannot exceed 100 characters")
	ErrBioTooLong     = errors.New("trainer bio cannot exceed 4000 characters")
	ErrInvalidEmail   = errors.New("trainer email must be valid")
	ErrMissingBranch  = errors.New("trainer must belong to a branch")
	ErrInvalidStatus  = errors.New("status must be active, inactive or on_leave")
	ErrInvalidHire    = errors.New("hire date must be YYYY-MM-DD")
	ErrNotFound       = errors.New("trainer not found")
	ErrNotSchedulable = errors.New("trainer is not active and cannot take sessions")
)

// Trainer is a coach employed at one branch.
type Trainer struct {
	ID             string
	BranchID       string
	Name           string
	Email          string
	Phone          string
	Specialization string
	Bio            string // markdown
	PhotoPath      string // relative to the upload root, empty when no photo
	Status         string
	HireDate       string // YYYY-MM-DD, optional
	CreatedAt      time.Time
}

// Validate checks if the Trainer has valid data.
// PRE: Trainer struct is populated
// POST: Returns nil if valid, error otherwise
func (t *Trainer) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if len(t.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if len(t.Bio) > MaxBioLength {
		return ErrBioTooLong
	}
	if t.Email != "" && !strings.Contains(t.Email, "@") {
		return ErrInvalidEmail
	}
	if t.BranchID == "" {
		return ErrMissingBranch
	}
	if !isValidStatus(t.Status) {
		return ErrInvalidStatus
	}
	if t.HireDate != "" {
		if _, err := time.Parse("2006-01-02", t.HireDate); err != nil {
			return ErrInvalidHire
		}
	}
	return nil
}

// CanTakeSessions returns true only for active trainers.
func (t *Trainer) CanTakeSessions() bool {
	return t.Status == StatusActive
}

func isValidStatus(s string) bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}
