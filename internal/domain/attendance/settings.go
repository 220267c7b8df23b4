package attendance

import (
	"errors"
	"fmt"
	"time"
)

// Defaults applied when a branch is created.
const (
	DefaultMaxEntriesPerDay  = 1
	DefaultAutoCheckoutAfter = 180 // minutes
)

// RetentionPeriod is how far back the cleanup action keeps attendance data.
const RetentionPeriod = 1 // years

// Check-in decision errors
var (
	ErrAlreadyCheckedIn     = errors.New("customer is already checked in at this branch: check them out before a new visit")
	ErrOverrideRequired     = errors.New("daily check-in limit reached: admin override required")
	ErrInvalidMaxEntries    = errors.New("max entries per day must be at least 1")
	ErrInvalidAutoCheckout  = errors.New("auto checkout minutes must be at least 1")
	ErrSettingsMissingOwner = errors.New("attendance settings must belong to a branch")
)

// Settings is the per-branch attendance configuration.
type Settings struct {
	BranchID          string
	MaxEntriesPerDay  int
	AutoCheckoutAfter int // minutes
	RequireCheckout   bool
	UpdatedAt         time.Time
}

// DefaultSettings returns the configuration a new branch starts with.
func DefaultSettings(branchID string) Settings {
	return Settings{
		BranchID:          branchID,
		MaxEntriesPerDay:  DefaultMaxEntriesPerDay,
		AutoCheckoutAfter: DefaultAutoCheckoutAfter,
	}
}

// Validate checks if the Settings have valid data.
func (s *Settings) Validate() error {
	if s.BranchID == "" {
		return ErrSettingsMissingOwner
	}
	if s.MaxEntriesPerDay < 1 {
		return ErrInvalidMaxEntries
	}
	if s.AutoCheckoutAfter < 1 {
		return ErrInvalidAutoCheckout
	}
	return nil
}

// CheckInState is what the store observed for a customer inside the
// check-in transaction.
type CheckInState struct {
	HasOpenRecord bool
	TodayCount    int
}

// DecideCheckIn applies the check-in rules to the observed state.
// It returns whether the new record must be flagged as an admin override.
// PRE: s is valid
// POST: ErrAlreadyCheckedIn when an open record exists;
// ErrOverrideRequired when the daily limit is reached without override
// INVARIANT: override only flags a record when it actually bypassed the limit
func (s Settings) DecideCheckIn(state CheckInState, override bool) (bool, error) {
	if state.HasOpenRecord {
		return false, ErrAlreadyCheckedIn
	}
	if state.TodayCount >= s.MaxEntriesPerDay {
		if !override {
			return false, ErrOverrideRequired
		}
		return true, nil
	}
	return false, nil
}

// ShouldAutoCheckout reports whether an open record has been open longer
// than the configured threshold.
func (s Settings) ShouldAutoCheckout(a Attendance, now time.Time) bool {
	return a.IsOpen() && a.ElapsedMinutes(now) > s.AutoCheckoutAfter
}

// AutoCheckoutNote is appended to records closed by the sweep.
func (s Settings) AutoCheckoutNote() string {
	return fmt.Sprintf("Auto checked-out after %d minutes", s.AutoCheckoutAfter)
}

// OverrideNote is appended to records created through an admin override.
func (s Settings) OverrideNote() string {
	return fmt.Sprintf("Admin override: daily limit of %d reached", s.MaxEntriesPerDay)
}

// RetentionCutoff returns the instant before which records may be purged.
func RetentionCutoff(now time.Time) time.Time {
	return now.AddDate(-RetentionPeriod, 0, 0)
}
