package schedule

import (
	"errors"
	"fmt"
	"time"
)

// Session status constants
const (
	SessionScheduled = "scheduled"
	SessionCompleted = "completed"
	SessionCancelled = "cancelled"
	SessionNoShow    = "no_show"
)

// ValidSessionStatuses contains all valid session status values.
var ValidSessionStatuses = []string{SessionScheduled, SessionCompleted, SessionCancelled, SessionNoShow}

var (
	ErrInvalidSessionStatus = errors.New("session status must be one of: scheduled, completed, cancelled, no_show")
	ErrSessionNotFound      = errors.New("training session not found")
	ErrTrainerBusy          = errors.New("trainer already has a session in this time range")
	ErrCustomerBusy         = errors.New("customer already has a session in this time range")
)

// Session is one booked training session between a trainer and a customer.
type Session struct {
	ID         string
	TrainerID  string
	CustomerID string
	ScheduleID string
	BranchID   string
	Date       string // YYYY-MM-DD
	StartTime  string // HH:MM
	EndTime    string // HH:MM
	Status     string
	Notes      string
	CreatedAt  time.Time

	// Display fields, filled by list queries.
	TrainerName  string
	CustomerName string
}

// Range returns the session's time range. Malformed rows yield an empty range.
func (s Session) Range() Range {
	r, err := ParseRange(s.StartTime, s.EndTime)
	if err != nil {
		return Range{}
	}
	return r
}

// Blocks reports whether the session occupies its time slot. Cancelled
// sessions free the slot.
func (s Session) Blocks() bool {
	return s.Status != SessionCancelled
}

// SetStatus changes the session status.
// PRE: status is one of ValidSessionStatuses
// POST: s.Status = status
func (s *Session) SetStatus(status string) error {
	if !isValidSessionStatus(status) {
		return ErrInvalidSessionStatus
	}
	s.Status = status
	return nil
}

// StartsAt returns the session start as a time in loc.
func (s Session) StartsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+TimeLayout, s.Date+" "+clip(s.StartTime), loc)
}

// EndsAt returns the session end as a time in loc.
func (s Session) EndsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+TimeLayout, s.Date+" "+clip(s.EndTime), loc)
}

// CheckConflicts tests a proposed session against existing sessions on the
// same date. existing may contain sessions of any trainer or customer.
// PRE: proposed has a valid range
// POST: Returns ErrTrainerBusy or ErrCustomerBusy (wrapped with the
// clashing times) for the first blocking overlap found, nil otherwise
// INVARIANT: cancelled sessions never conflict
func CheckConflicts(proposed Session, existing []Session) error {
	want := proposed.Range()
	for _, other := range existing {
		if other.ID != "" && other.ID == proposed.ID {
			continue
		}
		if other.Date != proposed.Date || !other.Blocks() {
			continue
		}
		if !want.Overlaps(other.Range()) {
			continue
		}
		clash := fmt.Sprintf("%s-%s", clip(other.StartTime), clip(other.EndTime))
		if other.TrainerID == proposed.TrainerID {
			return fmt.Errorf("%w (%s)", ErrTrainerBusy, clash)
		}
		if other.CustomerID == proposed.CustomerID {
			return fmt.Errorf("%w (%s)", ErrCustomerBusy, clash)
		}
	}
	return nil
}

// CheckStatusChange tests moving s to status against the sessions booked on
// its date for the same trainer or customer.
// POST: ErrTrainerBusy or ErrCustomerBusy when a cancelled session would
// return to a time another session now occupies, nil otherwise
// INVARIANT: changes between blocking statuses never conflict, since the
// session already holds its slot
func CheckStatusChange(s Session, status string, sameDay []Session) error {
	if s.Blocks() || status == SessionCancelled {
		return nil
	}
	s.Status = status
	return CheckConflicts(s, sameDay)
}

func isValidSessionStatus(status string) bool {
	for _, s := range ValidSessionStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func clip(v string) string {
	if len(v) > len(TimeLayout) {
		return v[:len(TimeLayout)]
	}
	return v
}
