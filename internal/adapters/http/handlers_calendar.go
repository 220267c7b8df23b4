package web

import (
	"encoding/json"
	"net/http"
	"time"

	"gymhub/internal/application/projections"
	"gymhub/internal/domain/schedule"
)

// calendarDefaultDays is the range served when the client sends none.
const calendarDefaultDays = 31

// handleCalendarPage renders the calendar shell; events load from
// /scheduling/events (GET /scheduling/calendar)
func handleCalendarPage(w http.ResponseWriter, r *http.Request) {
	trainers, err := activeTrainers(r)
	if err != nil {
		internalError(w, err)
		return
	}
	from, to := calendarMonth(timeNow())
	q := r.URL.Query()
	if _, err := time.Parse(schedule.DateLayout, q.Get("from")); err == nil {
		from = q.Get("from")
	}
	if _, err := time.Parse(schedule.DateLayout, q.Get("to")); err == nil {
		to = q.Get("to")
	}
	renderTemplate(w, r, "calendar.html", map[string]any{
		"Trainers":  trainers,
		"TrainerID": q.Get("trainer"),
		"From":      from,
		"To":        to,
	})
}

// handleCalendarEvents handles GET /scheduling/events?from=&to=&trainer=
// Returns the branch's sessions in the range as JSON calendar events.
func handleCalendarEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	if from == "" && to == "" {
		start := timeNow()
		from = start.Format(schedule.DateLayout)
		to = start.AddDate(0, 0, calendarDefaultDays).Format(schedule.DateLayout)
	}

	events, err := projections.QueryGetCalendarEvents(r.Context(), projections.GetCalendarEventsQuery{
		BranchID:  branchID(r),
		From:      from,
		To:        to,
		TrainerID: q.Get("trainer"),
	}, projections.GetCalendarEventsDeps{ScheduleStore: stores.ScheduleStore})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(events); err != nil {
		internalError(w, err)
	}
}

// calendarMonth returns the first and last day of the month holding day.
func calendarMonth(day time.Time) (string, string) {
	first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
	last := first.AddDate(0, 1, -1)
	return first.Format(schedule.DateLayout), last.Format(schedule.DateLayout)
}
