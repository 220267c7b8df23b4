package attendance

import (
	"errors"
	"strings"
	"time"
)

// Domain errors
var (
	ErrMissingCustomer       = errors.New("attendance must be associated with a customer")
	ErrMissingBranch         = errors.New("attendance must be associated with a branch")
	ErrMissingCheckIn        = errors.New("check-in time must be set")
	ErrCheckOutBeforeCheckIn = errors.New("check-out time cannot be before check-in time")
	ErrAlreadyCheckedOut     = errors.New("attendance record is already checked out")
	ErrNotFound              = errors.New("attendance record not found")
)

// Attendance is one visit of a customer to a branch. A zero CheckOutTime
// means the visit is still open.
type Attendance struct {
	ID            string
	CustomerID    string
	BranchID      string
	CheckInTime   time.Time
	CheckOutTime  time.Time
	Notes         string
	AdminOverride bool

	CustomerName string // display only, filled by list queries
}

// Validate checks if the Attendance has valid data.
// PRE: Attendance struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (a *Attendance) Validate() error {
	if a.CustomerID == "" {
		return ErrMissingCustomer
	}
	if a.BranchID == "" {
		return ErrMissingBranch
	}
	if a.CheckInTime.IsZero() {
		return ErrMissingCheckIn
	}
	if !a.CheckOutTime.IsZero() && a.CheckOutTime.Before(a.CheckInTime) {
		return ErrCheckOutBeforeCheckIn
	}
	return nil
}

// IsOpen returns true while the customer has not checked out.
func (a *Attendance) IsOpen() bool {
	return a.CheckOutTime.IsZero()
}

// Duration returns the visit length, measured up to now for open visits.
func (a *Attendance) Duration(now time.Time) time.Duration {
	if !a.IsOpen() {
		return a.CheckOutTime.Sub(a.CheckInTime)
	}
	return now.Sub(a.CheckInTime)
}

// ElapsedMinutes returns whole minutes since check-in (floored).
func (a *Attendance) ElapsedMinutes(now time.Time) int {
	return int(now.Sub(a.CheckInTime) / time.Minute)
}

// Close checks the visit out at the given time and appends an optional note.
// PRE: record is open
// POST: CheckOutTime = at
func (a *Attendance) Close(at time.Time, note string) error {
	if !a.IsOpen() {
		return ErrAlreadyCheckedOut
	}
	if at.Before(a.CheckInTime) {
		return ErrCheckOutBeforeCheckIn
	}
	a.CheckOutTime = at
	a.AppendNote(note)
	return nil
}

// AppendNote adds a line to Notes, ignoring blank input.
func (a *Attendance) AppendNote(note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	if a.Notes == "" {
		a.Notes = note
		return
	}
	a.Notes += "\n" + note
}
