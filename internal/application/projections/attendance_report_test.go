package projections

import (
	"context"
	"errors"
	"testing"
	"time"

	"gymhub/internal/adapters/storage/audit"
	domainAttendance "gymhub/internal/domain/attendance"
	domainAudit "gymhub/internal/domain/audit"
	domainCustomer "gymhub/internal/domain/customer"
	domainReport "gymhub/internal/domain/report"
	domainSchedule "gymhub/internal/domain/schedule"
)

// TestQueryGetAttendancePage verifies open visits carry elapsed time and
// the overdue flag.
func TestQueryGetAttendancePage(t *testing.T) {
	at := func(day, h, m int) time.Time { return time.Date(2026, 3, day, h, m, 0, 0, time.Local) }
	store := &mockAttendanceStore{
		settings: domainAttendance.Settings{MaxEntriesPerDay: 1, AutoCheckoutAfter: 90},
		records: []domainAttendance.Attendance{
			{ID: "fresh", BranchID: "b1", CheckInTime: at(2, 10, 0)},
			{ID: "stale", BranchID: "b1", CheckInTime: at(2, 9, 0)},
			{ID: "closed", BranchID: "b1", CheckInTime: at(2, 7, 0), CheckOutTime: at(2, 8, 0)},
			{ID: "yesterday", BranchID: "b1", CheckInTime: at(1, 7, 0), CheckOutTime: at(1, 8, 0)},
		},
	}
	deps := GetAttendancePageDeps{
		AttendanceStore: store,
		CustomerStore: &mockCustomerStore{profiles: []domainCustomer.Profile{
			profile("c1", "b1", "Ana", "active", ""),
			profile("c2", "b1", "Ben", "inactive", ""),
		}},
		Now: clock,
	}

	got, err := QueryGetAttendancePage(context.Background(), GetAttendancePageQuery{BranchID: "b1"}, deps)
	if err != nil {
		t.Fatalf("QueryGetAttendancePage: %v", err)
	}
	if !got.IsToday || got.Date != "2026-03-02" {
		t.Errorf("Date = %s (today=%v)", got.Date, got.IsToday)
	}
	if len(got.Records) != 3 {
		t.Errorf("Records = %d, want 3", len(got.Records))
	}
	if len(got.Customers) != 1 {
		t.Errorf("Customers = %d, want only active", len(got.Customers))
	}
	overdue := map[string]bool{}
	for _, v := range got.Open {
		overdue[v.ID] = v.Overdue
		if v.ID == "fresh" && v.ElapsedMinutes != 60 {
			t.Errorf("fresh elapsed = %d, want 60", v.ElapsedMinutes)
		}
	}
	if len(got.Open) != 2 || overdue["fresh"] || !overdue["stale"] {
		t.Errorf("overdue = %v, want stale only", overdue)
	}

	past, err := QueryGetAttendancePage(context.Background(), GetAttendancePageQuery{BranchID: "b1", Date: "2026-03-01"}, deps)
	if err != nil {
		t.Fatalf("past day: %v", err)
	}
	if past.IsToday || len(past.Records) != 1 || past.Records[0].ID != "yesterday" {
		t.Errorf("past day = %+v", past.Records)
	}
}

// TestQueryGetReport verifies kind handling and the default range.
func TestQueryGetReport(t *testing.T) {
	tests := []struct {
		name     string
		query    GetReportQuery
		wantKind string
		wantFrom string
		wantErr  error
	}{
		{"default daily", GetReportQuery{BranchID: "b1"}, domainReport.KindDaily, "2026-01-31", nil},
		{"weekly range", GetReportQuery{BranchID: "b1", Kind: "weekly", From: "2026-02-01", To: "2026-02-28"}, domainReport.KindWeekly, "2026-02-01", nil},
		{"customer", GetReportQuery{BranchID: "b1", Kind: "customer"}, domainReport.KindCustomer, "2026-01-31", nil},
		{"unknown kind", GetReportQuery{BranchID: "b1", Kind: "hourly"}, "", "", domainReport.ErrInvalidKind},
		{"reversed", GetReportQuery{BranchID: "b1", From: "2026-03-01", To: "2026-02-01"}, "", "", domainReport.ErrInvalidRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockReportStore{
				periods:   []domainReport.PeriodRow{{Period: "2026-02-01", CheckIns: 3}},
				customers: []domainReport.CustomerRow{{CustomerName: "Ana", Visits: 2}},
			}
			got, err := QueryGetReport(context.Background(), tt.query, GetReportDeps{ReportStore: store, Now: clock})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got.Kind != tt.wantKind || store.lastKind != tt.wantKind || got.Range.From != tt.wantFrom {
				t.Errorf("report = %s from %s (store kind %s)", got.Kind, got.Range.From, store.lastKind)
			}
			if len(got.Table()) != 2 {
				t.Errorf("table rows = %d, want header + 1", len(got.Table()))
			}
		})
	}
}

// TestQueryGetCalendarEvents verifies range checks and event shape.
func TestQueryGetCalendarEvents(t *testing.T) {
	store := &mockScheduleStore{sessions: []domainSchedule.Session{
		{ID: "s1", BranchID: "b1", TrainerID: "t1", TrainerName: "Tess", CustomerName: "Ana", Date: "2026-03-02", StartTime: "09:00", EndTime: "10:00", Status: domainSchedule.SessionScheduled},
		{ID: "s2", BranchID: "b1", TrainerID: "t2", TrainerName: "Tom", CustomerName: "Ben", Date: "2026-03-03", StartTime: "10:00", EndTime: "11:00", Status: domainSchedule.SessionNoShow},
		{ID: "s3", BranchID: "b2", TrainerID: "t3", Date: "2026-03-02", StartTime: "09:00", EndTime: "10:00"},
	}}
	deps := GetCalendarEventsDeps{ScheduleStore: store}

	got, err := QueryGetCalendarEvents(context.Background(), GetCalendarEventsQuery{BranchID: "b1", From: "2026-03-01", To: "2026-03-31"}, deps)
	if err != nil {
		t.Fatalf("QueryGetCalendarEvents: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("events = %d, want 2", len(got))
	}
	want := CalendarEvent{ID: "s1", Title: "Tess / Ana", Start: "2026-03-02T09:00", End: "2026-03-02T10:00", Status: "scheduled", TrainerID: "t1", Color: "#3b82f6"}
	if got[0] != want {
		t.Errorf("event = %+v, want %+v", got[0], want)
	}

	filtered, err := QueryGetCalendarEvents(context.Background(), GetCalendarEventsQuery{BranchID: "b1", From: "2026-03-01", To: "2026-03-31", TrainerID: "t2"}, deps)
	if err != nil || len(filtered) != 1 || filtered[0].ID != "s2" {
		t.Errorf("trainer filter = %+v, %v", filtered, err)
	}

	empty, err := QueryGetCalendarEvents(context.Background(), GetCalendarEventsQuery{BranchID: "b9", From: "2026-03-01", To: "2026-03-02"}, deps)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("empty = %#v, %v; want non-nil empty slice", empty, err)
	}

	for _, bad := range []GetCalendarEventsQuery{
		{BranchID: "b1", From: "03/01/2026", To: "2026-03-31"},
		{BranchID: "b1", From: "2026-03-31", To: "2026-03-01"},
		{BranchID: "b1", From: "2026-01-01", To: "2026-12-31"},
	} {
		if _, err := QueryGetCalendarEvents(context.Background(), bad, deps); !errors.Is(err, ErrCalendarRange) {
			t.Errorf("%+v: err = %v, want %v", bad, err, ErrCalendarRange)
		}
	}
}

// TestQueryGetAuditLog verifies filters are passed through.
func TestQueryGetAuditLog(t *testing.T) {
	store := &mockAuditStore{}
	got, err := QueryGetAuditLog(context.Background(), GetAuditLogQuery{Category: "attendance", BranchID: "b1", From: "2026-03-01"}, GetAuditLogDeps{AuditStore: store})
	if err != nil {
		t.Fatalf("QueryGetAuditLog: %v", err)
	}
	want := audit.Filter{Category: domainAudit.CategoryAttendance, BranchID: "b1", From: "2026-03-01"}
	if store.lastFilter != want {
		t.Errorf("filter = %+v, want %+v", store.lastFilter, want)
	}
	if store.lastLimit != DefaultAuditLimit || got.Query.Limit != DefaultAuditLimit {
		t.Errorf("limit = %d, want %d", store.lastLimit, DefaultAuditLimit)
	}
	if len(got.Categories) == 0 {
		t.Error("Categories empty")
	}

	got, _ = QueryGetAuditLog(context.Background(), GetAuditLogQuery{Category: "billing"}, GetAuditLogDeps{AuditStore: store})
	if store.lastFilter.Category != "" || got.Query.Category != "" {
		t.Errorf("unknown category not dropped: filter %+v, query %+v", store.lastFilter, got.Query)
	}
}
