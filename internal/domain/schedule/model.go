package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Layouts used for the string-typed date and time columns.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Domain errors
var (
	ErrEmptyTrainerID = errors.New("trainer ID cannot be empty")
	ErrEmptyBranchID  = errors.New("branch ID cannot be empty")
	ErrInvalidDate    = errors.New("date must be in YYYY-MM-DD format")
	ErrEmptyStartTime = errors.New("start time cannot be empty")
	ErrEmptyEndTime   = errors.New("end time cannot be empty")
	ErrEndNotAfter    = errors.New("end time must be after start time")
	ErrSlotNotFound   = errors.New("schedule slot not found")
)

// Slot is a dated block of a trainer's time at a branch. Sessions reference
// the slot they were booked into; identical slots are reused.
type Slot struct {
	ID        string
	TrainerID string
	BranchID  string
	Date      string // YYYY-MM-DD
	StartTime string // HH:MM
	EndTime   string // HH:MM
}

// Validate checks if the Slot has valid data.
// PRE: Slot struct is populated
// POST: Returns nil if valid, error otherwise
func (s *Slot) Validate() error {
	if strings.TrimSpace(s.TrainerID) == "" {
		return ErrEmptyTrainerID
	}
	if strings.TrimSpace(s.BranchID) == "" {
		return ErrEmptyBranchID
	}
	if _, err := time.Parse(DateLayout, s.Date); err != nil {
		return ErrInvalidDate
	}
	if strings.TrimSpace(s.StartTime) == "" {
		return ErrEmptyStartTime
	}
	if strings.TrimSpace(s.EndTime) == "" {
		return ErrEmptyEndTime
	}
	if _, err := ParseRange(s.StartTime, s.EndTime); err != nil {
		return err
	}
	return nil
}

// Range is a half-open [Start, End) interval within one day, in minutes
// since midnight.
type Range struct {
	Start int
	End   int
}

// ParseRange parses two HH:MM times into a Range.
// PRE: start and end are HH:MM (HH:MM:SS is accepted and truncated)
// POST: Returns ErrEndNotAfter unless end > start
func ParseRange(start, end string) (Range, error) {
	s, err := parseClock(start)
	if err != nil {
		return Range{}, fmt.Errorf("invalid start time %q: %w", start, err)
	}
	e, err := parseClock(end)
	if err != nil {
		return Range{}, fmt.Errorf("invalid end time %q: %w", end, err)
	}
	if e <= s {
		return Range{}, ErrEndNotAfter
	}
	return Range{Start: s, End: e}, nil
}

// Overlaps reports whether two half-open ranges intersect. Touching ranges
// (one ends when the other starts) do not overlap.
func (r Range) Overlaps(other Range) bool {
	return r.Start < other.End && other.Start < r.End
}

// DurationMinutes returns the length of the range.
func (r Range) DurationMinutes() int {
	return r.End - r.Start
}

func parseClock(v string) (int, error) {
	v = strings.TrimSpace(v)
	if len(v) > len(TimeLayout) {
		v = v[:len(TimeLayout)]
	}
	t, err := time.Parse(TimeLayout, v)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
