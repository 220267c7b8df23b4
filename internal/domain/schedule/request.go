package schedule

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidRequest is matched (via errors.Is) by every *ValidationError.
var ErrInvalidRequest = errors.New("invalid session request")

// ValidationError collects every problem found with a booking request so
// they can be shown together.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

// Is lets callers test with errors.Is(err, ErrInvalidRequest).
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRequest
}

// Add appends a problem.
func (e *ValidationError) Add(problem string) {
	e.Problems = append(e.Problems, problem)
}

// Err returns nil when no problems were collected.
func (e *ValidationError) Err() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// Request is the input for booking a session together with its assignment
// period.
type Request struct {
	TrainerID       string
	CustomerID      string
	Date            string
	StartTime       string
	EndTime         string
	AssignmentStart string
	AssignmentEnd   string
	Notes           string
}

// Validate checks the request fields that need no lookups.
// POST: Returns a *ValidationError listing every problem, or nil
func (r Request) Validate() *ValidationError {
	v := &ValidationError{}
	required := []struct{ value, label string }{
		{r.TrainerID, "trainer"},
		{r.CustomerID, "customer"},
		{r.Date, "session date"},
		{r.StartTime, "start time"},
		{r.EndTime, "end time"},
		{r.AssignmentStart, "assignment start date"},
		{r.AssignmentEnd, "assignment end date"},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			v.Add(f.label + " is required")
		}
	}

	if r.StartTime != "" && r.EndTime != "" {
		if _, err := ParseRange(r.StartTime, r.EndTime); err != nil {
			if errors.Is(err, ErrEndNotAfter) {
				v.Add("end time must be after start time")
			} else {
				v.Add(err.Error())
			}
		}
	}

	dates := map[string]string{
		"session date":          r.Date,
		"assignment start date": r.AssignmentStart,
		"assignment end date":   r.AssignmentEnd,
	}
	datesOK := true
	for _, label := range []string{"session date", "assignment start date", "assignment end date"} {
		d := dates[label]
		if d == "" {
			datesOK = false
			continue
		}
		if _, err := time.Parse(DateLayout, d); err != nil {
			v.Add(label + " must be in YYYY-MM-DD format")
			datesOK = false
		}
	}
	if datesOK {
		if r.AssignmentEnd < r.AssignmentStart {
			v.Add("assignment end date must not be before its start date")
		} else if r.Date < r.AssignmentStart || r.Date > r.AssignmentEnd {
			v.Add("session date must fall within the assignment period")
		}
	}
	if v.Err() == nil {
		return nil
	}
	return v
}

// Session builds the session this request describes.
func (r Request) Session(branchID string) Session {
	return Session{
		TrainerID:  r.TrainerID,
		CustomerID: r.CustomerID,
		BranchID:   branchID,
		Date:       r.Date,
		StartTime:  clip(r.StartTime),
		EndTime:    clip(r.EndTime),
		Status:     SessionScheduled,
		Notes:      strings.TrimSpace(r.Notes),
	}
}

// Slot builds the trainer schedule slot this request occupies.
func (r Request) Slot(branchID string) Slot {
	return Slot{
		TrainerID: r.TrainerID,
		BranchID:  branchID,
		Date:      r.Date,
		StartTime: clip(r.StartTime),
		EndTime:   clip(r.EndTime),
	}
}

// Assignment builds the assignment this request upserts.
func (r Request) Assignment(branchID string) Assignment {
	return Assignment{
		TrainerID:  r.TrainerID,
		CustomerID: r.CustomerID,
		BranchID:   branchID,
		StartDate:  r.AssignmentStart,
		EndDate:    r.AssignmentEnd,
		Status:     AssignmentActive,
	}
}
