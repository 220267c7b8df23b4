package projections

import (
	"context"
	"time"

	"gymhub/internal/adapters/storage/customer"
	"gymhub/internal/adapters/storage/schedule"
	"gymhub/internal/adapters/storage/trainer"
	domainCustomer "gymhub/internal/domain/customer"
	domainSchedule "gymhub/internal/domain/schedule"
	domainTrainer "gymhub/internal/domain/trainer"
)

// upcomingDays is the window of sessions listed on the scheduling page.
const upcomingDays = 14

// GetSchedulingPageQuery carries query parameters.
type GetSchedulingPageQuery struct {
	BranchID  string
	TrainerID string // optional filter
}

// GetSchedulingPageResult carries the query result.
type GetSchedulingPageResult struct {
	From        string
	To          string
	Sessions    []domainSchedule.Session
	Assignments []domainSchedule.Assignment
	Trainers    []domainTrainer.Trainer // active trainers for the booking form
	Customers   []domainCustomer.Profile
}

// GetSchedulingPageDeps holds dependencies for GetSchedulingPage.
type GetSchedulingPageDeps struct {
	ScheduleStore ScheduleStore
	TrainerStore  TrainerStore
	CustomerStore CustomerStore
	Now           func() time.Time
}

// QueryGetSchedulingPage lists the next two weeks of sessions, active
// assignments and the booking form choices.
// PRE: query.BranchID is the session's branch
func QueryGetSchedulingPage(ctx context.Context, query GetSchedulingPageQuery, deps GetSchedulingPageDeps) (GetSchedulingPageResult, error) {
	now := nowFrom(deps.Now)
	result := GetSchedulingPageResult{
		From: now.Format(dateLayout),
		To:   now.AddDate(0, 0, upcomingDays).Format(dateLayout),
	}

	var err error
	result.Sessions, err = deps.ScheduleStore.ListSessions(ctx, schedule.SessionFilter{
		BranchID:  query.BranchID,
		From:      result.From,
		To:        result.To,
		TrainerID: query.TrainerID,
	})
	if err != nil {
		return GetSchedulingPageResult{}, err
	}
	result.Assignments, err = deps.ScheduleStore.ListAssignments(ctx, schedule.AssignmentFilter{
		BranchID:  query.BranchID,
		TrainerID: query.TrainerID,
		Status:    domainSchedule.AssignmentActive,
	})
	if err != nil {
		return GetSchedulingPageResult{}, err
	}
	result.Trainers, err = deps.TrainerStore.List(ctx, trainer.ListFilter{BranchID: query.BranchID, Status: domainTrainer.StatusActive})
	if err != nil {
		return GetSchedulingPageResult{}, err
	}
	result.Customers, err = deps.CustomerStore.List(ctx, customer.ListFilter{BranchID: query.BranchID, Status: domainCustomer.StatusActive})
	if err != nil {
		return GetSchedulingPageResult{}, err
	}
	return result, nil
}
