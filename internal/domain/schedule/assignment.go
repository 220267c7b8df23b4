package schedule

import (
	"errors"
	"time"
)

// Assignment status constants
const (
	AssignmentActive    = "active"
	AssignmentCompleted = "completed"
	AssignmentCancelled = "cancelled"
)

var (
	ErrAssignmentNotFound  = errors.New("trainer assignment not found")
	ErrAssignmentNotActive = errors.New("trainer assignment is not active")
	ErrInvalidEndStatus    = errors.New("an assignment can only end as completed or cancelled")
	ErrAssignmentRange     = errors.New("assignment end date must not be before its start date")
)

// Assignment pairs a trainer with a customer over a date range. There is at
// most one assignment per (trainer, customer); rebooking overwrites it.
type Assignment struct {
	ID         string
	TrainerID  string
	CustomerID string
	BranchID   string
	StartDate  string // YYYY-MM-DD
	EndDate    string // YYYY-MM-DD
	Status     string
	UpdatedAt  time.Time

	TrainerName  string
	CustomerName string
}

// Covers reports whether date lies within [StartDate, EndDate]. All three
// are YYYY-MM-DD, so lexical comparison is date order.
func (a Assignment) Covers(date string) bool {
	return date >= a.StartDate && date <= a.EndDate
}

// Reactivate overwrites the date range and marks the assignment active.
// POST: Status = active
func (a *Assignment) Reactivate(start, end string) error {
	if end < start {
		return ErrAssignmentRange
	}
	a.StartDate = start
	a.EndDate = end
	a.Status = AssignmentActive
	return nil
}

// Widen extends the date range to include [from, to]. Empty bounds are
// ignored.
// POST: Covers(from) and Covers(to) for each non-empty bound
func (a *Assignment) Widen(from, to string) {
	if from != "" && from < a.StartDate {
		a.StartDate = from
	}
	if to != "" && to > a.EndDate {
		a.EndDate = to
	}
}

// End closes an active assignment as completed or cancelled.
// PRE: a.Status == active
// POST: a.Status = status
func (a *Assignment) End(status string) error {
	if status != AssignmentCompleted && status != AssignmentCancelled {
		return ErrInvalidEndStatus
	}
	if a.Status != AssignmentActive {
		return ErrAssignmentNotActive
	}
	a.Status = status
	return nil
}
