package projections

import (
	"context"
	"time"

	"gymhub/internal/adapters/storage/attendance"
	"gymhub/internal/adapters/storage/customer"
	"gymhub/internal/adapters/storage/schedule"
	domainAttendance "gymhub/internal/domain/attendance"
	domainBranch "gymhub/internal/domain/branch"
	domainCustomer "gymhub/internal/domain/customer"
	domainSchedule "gymhub/internal/domain/schedule"
)

// GetBranchDashboardQuery carries query parameters.
type GetBranchDashboardQuery struct {
	BranchID string
}

// GetBranchDashboardResult carries the query result.
type GetBranchDashboardResult struct {
	Branch          domainBranch.Branch
	ActiveCustomers int
	OpenCheckIns    []domainAttendance.Attendance
	TodayCheckIns   int
	TodaySessions   []domainSchedule.Session
	ExpiringSoon    []domainCustomer.Profile
}

// GetBranchDashboardDeps holds dependencies for GetBranchDashboard.
type GetBranchDashboardDeps struct {
	BranchStore     BranchStore
	CustomerStore   CustomerStore
	AttendanceStore AttendanceStore
	ScheduleStore   ScheduleStore
	Now             func() time.Time
}

// expiringWindowDays is how far ahead the dashboard warns about memberships.
const expiringWindowDays = 7

// QueryGetBranchDashboard assembles the branch admin home page.
// PRE: query.BranchID is the session's branch
// POST: every list is scoped to query.BranchID
func QueryGetBranchDashboard(ctx context.Context, query GetBranchDashboardQuery, deps GetBranchDashboardDeps) (GetBranchDashboardResult, error) {
	now := nowFrom(deps.Now)
	today := now.Format(dateLayout)

	b, err := deps.BranchStore.GetByID(ctx, query.BranchID)
	if err != nil {
		return GetBranchDashboardResult{}, err
	}
	result := GetBranchDashboardResult{Branch: b}

	filter := customer.ListFilter{BranchID: query.BranchID, Status: domainCustomer.StatusActive}
	if result.ActiveCustomers, err = deps.CustomerStore.Count(ctx, filter); err != nil {
		return GetBranchDashboardResult{}, err
	}
	profiles, err := deps.CustomerStore.List(ctx, customer.ListFilter{
		BranchID: query.BranchID,
		Status:   domainCustomer.StatusActive,
		Sort:     customer.SortMemberTill,
	})
	if err != nil {
		return GetBranchDashboardResult{}, err
	}
	horizon := now.AddDate(0, 0, expiringWindowDays).Format(dateLayout)
	for _, p := range profiles {
		end := p.Membership.EndDate
		if end != "" && end >= today && end <= horizon {
			result.ExpiringSoon = append(result.ExpiringSoon, p)
		}
	}

	if result.OpenCheckIns, err = deps.AttendanceStore.ListOpen(ctx, query.BranchID); err != nil {
		return GetBranchDashboardResult{}, err
	}
	todays, err := deps.AttendanceStore.List(ctx, attendance.ListFilter{BranchID: query.BranchID, From: today, To: today})
	if err != nil {
		return GetBranchDashboardResult{}, err
	}
	result.TodayCheckIns = len(todays)

	sessions, err := deps.ScheduleStore.ListSessions(ctx, schedule.SessionFilter{BranchID: query.BranchID, From: today, To: today})
	if err != nil {
		return GetBranchDashboardResult{}, err
	}
	for _, s := range sessions {
		if s.Blocks() {
			result.TodaySessions = append(result.TodaySessions, s)
		}
	}
	return result, nil
}
