package projections

import (
	"context"
	"errors"
	"time"

	"gymhub/internal/adapters/storage/schedule"
	domainSchedule "gymhub/internal/domain/schedule"
)

// maxCalendarDays bounds the range a calendar request may ask for.
const maxCalendarDays = 93

// ErrCalendarRange is returned for malformed or oversized ranges.
var ErrCalendarRange = errors.New("calendar range must be valid dates at most 93 days apart")

// CalendarEvent is one session in the JSON shape the calendar view consumes.
type CalendarEvent struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Start     string `json:"start"` // YYYY-MM-DDTHH:MM
	End       string `json:"end"`
	Status    string `json:"status"`
	TrainerID string `json:"trainerId"`
	Color     string `json:"color"`
}

// GetCalendarEventsQuery carries query parameters.
type GetCalendarEventsQuery struct {
	BranchID  string
	From      string // YYYY-MM-DD
	To        string // YYYY-MM-DD
	TrainerID string // optional
}

// GetCalendarEventsDeps holds dependencies for GetCalendarEvents.
type GetCalendarEventsDeps struct {
	ScheduleStore ScheduleStore
}

var statusColors = map[string]string{
	domainSchedule.SessionScheduled: "#3b82f6",
	domainSchedule.SessionCompleted: "#16a34a",
	domainSchedule.SessionCancelled: "#9ca3af",
	domainSchedule.SessionNoShow:    "#dc2626",
}

// QueryGetCalendarEvents returns the sessions between From and To as calendar events.
// PRE: From <= To, both YYYY-MM-DD
// POST: Returns an empty (non-nil) slice when nothing is booked
func QueryGetCalendarEvents(ctx context.Context, query GetCalendarEventsQuery, deps GetCalendarEventsDeps) ([]CalendarEvent, error) {
	from, err := time.Parse(dateLayout, query.From)
	if err != nil {
		return nil, ErrCalendarRange
	}
	to, err := time.Parse(dateLayout, query.To)
	if err != nil || to.Before(from) || to.Sub(from) > maxCalendarDays*24*time.Hour {
		return nil, ErrCalendarRange
	}

	sessions, err := deps.ScheduleStore.ListSessions(ctx, schedule.SessionFilter{
		BranchID:  query.BranchID,
		From:      query.From,
		To:        query.To,
		TrainerID: query.TrainerID,
	})
	if err != nil {
		return nil, err
	}

	events := make([]CalendarEvent, 0, len(sessions))
	for _, s := range sessions {
		events = append(events, CalendarEvent{
			ID:        s.ID,
			Title:     s.TrainerName + " / " + s.CustomerName,
			Start:     s.Date + "T" + s.StartTime,
			End:       s.Date + "T" + s.EndTime,
			Status:    s.Status,
			TrainerID: s.TrainerID,
			Color:     statusColors[s.Status],
		})
	}
	return events, nil
}
