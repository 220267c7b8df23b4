package projections

import (
	"context"
	"time"

	"gymhub/internal/adapters/storage/attendance"
	"gymhub/internal/adapters/storage/customer"
	domainAttendance "gymhub/internal/domain/attendance"
	domainCustomer "gymhub/internal/domain/customer"
)

// OpenVisit is an open attendance record with its elapsed time.
type OpenVisit struct {
	domainAttendance.Attendance
	ElapsedMinutes int
	Overdue        bool // past the auto-checkout threshold; the next sweep closes it
}

// GetAttendancePageQuery carries query parameters.
type GetAttendancePageQuery struct {
	BranchID string
	Date     string // YYYY-MM-DD, defaults to today
}

// GetAttendancePageResult carries the query result.
type GetAttendancePageResult struct {
	Date      string
	IsToday   bool
	Settings  domainAttendance.Settings
	Open      []OpenVisit
	Records   []domainAttendance.Attendance
	Customers []domainCustomer.Profile // active customers for the check-in form
}

// GetAttendancePageDeps holds dependencies for GetAttendancePage.
type GetAttendancePageDeps struct {
	AttendanceStore AttendanceStore
	CustomerStore   CustomerStore
	Now             func() time.Time
}

// QueryGetAttendancePage returns the attendance page for one day.
// PRE: the caller has already run the auto-checkout sweep for the branch
// POST: Records holds every check-in of Date, newest first
func QueryGetAttendancePage(ctx context.Context, query GetAttendancePageQuery, deps GetAttendancePageDeps) (GetAttendancePageResult, error) {
	now := nowFrom(deps.Now)
	today := now.Format(dateLayout)
	day := query.Date
	if _, err := time.Parse(dateLayout, day); err != nil {
		day = today
	}

	settings, err := deps.AttendanceStore.GetSettings(ctx, query.BranchID)
	if err != nil {
		return GetAttendancePageResult{}, err
	}
	open, err := deps.AttendanceStore.ListOpen(ctx, query.BranchID)
	if err != nil {
		return GetAttendancePageResult{}, err
	}
	records, err := deps.AttendanceStore.List(ctx, attendance.ListFilter{BranchID: query.BranchID, From: day, To: day})
	if err != nil {
		return GetAttendancePageResult{}, err
	}
	customers, err := deps.CustomerStore.List(ctx, customer.ListFilter{BranchID: query.BranchID, Status: domainCustomer.StatusActive})
	if err != nil {
		return GetAttendancePageResult{}, err
	}

	result := GetAttendancePageResult{
		Date:      day,
		IsToday:   day == today,
		Settings:  settings,
		Records:   records,
		Customers: customers,
	}
	for _, a := range open {
		result.Open = append(result.Open, OpenVisit{
			Attendance:     a,
			ElapsedMinutes: a.ElapsedMinutes(now),
			Overdue:        settings.ShouldAutoCheckout(a, now),
		})
	}
	return result, nil
}
