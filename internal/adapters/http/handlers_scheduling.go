package web

import (
	"net/http"

	"gymhub/internal/adapters/http/middleware"
	trainerStore "gymhub/internal/adapters/storage/trainer"
	"gymhub/internal/application/orchestrators"
	"gymhub/internal/application/projections"
	"gymhub/internal/domain/schedule"
	"gymhub/internal/domain/trainer"
)

func schedulingDeps() orchestrators.SchedulingDeps {
	return orchestrators.SchedulingDeps{
		ScheduleStore: stores.ScheduleStore,
		TrainerStore:  stores.TrainerStore,
		CustomerStore: stores.CustomerStore,
		Audit:         stores.AuditStore,
		Counter:       perfCollector,
		Now:           timeNow,
	}
}

func activeTrainers(r *http.Request) ([]trainer.Trainer, error) {
	return stores.TrainerStore.List(r.Context(), trainerStore.ListFilter{BranchID: branchID(r), Status: trainer.StatusActive})
}

// handleScheduling renders upcoming sessions, active assignments and the
// booking form (GET /scheduling)
func handleScheduling(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryGetSchedulingPage(r.Context(), projections.GetSchedulingPageQuery{
		BranchID:  branchID(r),
		TrainerID: r.URL.Query().Get("trainer"),
	}, projections.GetSchedulingPageDeps{
		ScheduleStore: stores.ScheduleStore,
		TrainerStore:  stores.TrainerStore,
		CustomerStore: stores.CustomerStore,
		Now:           timeNow,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	renderTemplate(w, r, "scheduling.html", map[string]any{
		"Page":     result,
		"Statuses": []string{schedule.SessionCompleted, schedule.SessionCancelled, schedule.SessionNoShow},
		"Today":    timeNow().Format(schedule.DateLayout),
	})
}

// handleScheduleSession books a session (POST /scheduling/sessions)
// POST: slot, session and assignment written in one transaction; every
// validation problem is reported in one notice
func handleScheduleSession(w http.ResponseWriter, r *http.Request) {
	var form sessionForm
	if err := decodeForm(r, &form); err != nil {
		failRedirect(w, r, "/scheduling", err)
		return
	}
	s, err := orchestrators.ExecuteScheduleSession(r.Context(), orchestrators.ScheduleSessionInput{
		BranchID: branchID(r),
		Request: schedule.Request{
			TrainerID:       form.TrainerID,
			CustomerID:      form.CustomerID,
			Date:            form.Date,
			StartTime:       form.StartTime,
			EndTime:         form.EndTime,
			AssignmentStart: form.AssignmentStart,
			AssignmentEnd:   form.AssignmentEnd,
			Notes:           form.Notes,
		},
		Actor: actorFrom(r),
	}, schedulingDeps())
	if err != nil {
		failRedirect(w, r, "/scheduling", err)
		return
	}
	redirectNotice(w, r, "/scheduling", middleware.NoticeSuccess,
		"Session booked for "+s.Date+" "+s.StartTime+"-"+s.EndTime+".")
}

// handleSessionStatus handles POST /scheduling/sessions/{id}/status
func handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	var form statusForm
	if err := decodeForm(r, &form); err != nil {
		failRedirect(w, r, "/scheduling", err)
		return
	}
	s, err := orchestrators.ExecuteUpdateSessionStatus(r.Context(), orchestrators.SessionStatusInput{
		BranchID:  branchID(r),
		SessionID: r.PathValue("id"),
		Status:    form.Status,
		Actor:     actorFrom(r),
	}, schedulingDeps())
	if err != nil {
		failRedirect(w, r, "/scheduling", err)
		return
	}
	redirectNotice(w, r, "/scheduling", middleware.NoticeSuccess, "Session marked "+s.Status+".")
}

// handleDeleteSession handles POST /scheduling/sessions/{id}/delete
func handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	err := orchestrators.ExecuteDeleteSession(r.Context(), orchestrators.SessionStatusInput{
		BranchID:  branchID(r),
		SessionID: r.PathValue("id"),
		Actor:     actorFrom(r),
	}, schedulingDeps())
	if err != nil {
		failRedirect(w, r, "/scheduling", err)
		return
	}
	redirectNotice(w, r, "/scheduling", middleware.NoticeSuccess, "Session deleted.")
}

// handleEndAssignment handles POST /scheduling/assignments/{id}/end
func handleEndAssignment(w http.ResponseWriter, r *http.Request) {
	var form statusForm
	if err := decodeForm(r, &form); err != nil {
		failRedirect(w, r, "/scheduling", err)
		return
	}
	a, err := orchestrators.ExecuteEndAssignment(r.Context(), orchestrators.EndAssignmentInput{
		BranchID:     branchID(r),
		AssignmentID: r.PathValue("id"),
		Status:       form.Status,
		Actor:        actorFrom(r),
	}, schedulingDeps())
	if err != nil {
		failRedirect(w, r, "/scheduling", err)
		return
	}
	redirectNotice(w, r, "/scheduling", middleware.NoticeSuccess, "Assignment "+a.Status+".")
}
