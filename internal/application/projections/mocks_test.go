package projections

import (
	"context"
	"sort"
	"strings"
	"time"

	"gymhub/internal/adapters/storage/account"
	"gymhub/internal/adapters/storage/attendance"
	"gymhub/internal/adapters/storage/audit"
	"gymhub/internal/adapters/storage/customer"
	"gymhub/internal/adapters/storage/schedule"
	"gymhub/internal/adapters/storage/trainer"
	domainAccount "gymhub/internal/domain/account"
	domainAttendance "gymhub/internal/domain/attendance"
	domainAudit "gymhub/internal/domain/audit"
	domainBranch "gymhub/internal/domain/branch"
	domainCustomer "gymhub/internal/domain/customer"
	domainFeature "gymhub/internal/domain/featureflag"
	domainReport "gymhub/internal/domain/report"
	domainSchedule "gymhub/internal/domain/schedule"
	domainTrainer "gymhub/internal/domain/trainer"
)

var testNow = time.Date(2026, 3, 2, 11, 0, 0, 0, time.Local)

func clock() time.Time { return testNow }

type mockBranchStore struct {
	branches  []domainBranch.Branch
	summaries []domainBranch.Summary
}

func (m *mockBranchStore) GetByID(_ context.Context, id string) (domainBranch.Branch, error) {
	for _, b := range m.branches {
		if b.ID == id {
			return b, nil
		}
	}
	return domainBranch.Branch{}, domainBranch.ErrNotFound
}

func (m *mockBranchStore) List(_ context.Context) ([]domainBranch.Branch, error) {
	return m.branches, nil
}

func (m *mockBranchStore) Summaries(_ context.Context, _ time.Time) ([]domainBranch.Summary, error) {
	return m.summaries, nil
}

type mockAccountStore struct {
	accounts []domainAccount.Account
}

func (m *mockAccountStore) List(_ context.Context, f account.ListFilter) ([]domainAccount.Account, error) {
	var out []domainAccount.Account
	for _, a := range m.accounts {
		if f.Role != "" && a.Role != f.Role {
			continue
		}
		if f.BranchID != "" && a.BranchID != f.BranchID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

type mockFeatureStore struct {
	grants map[string]domainFeature.Permissions
}

func (m *mockFeatureStore) ListFeatures(_ context.Context) ([]domainFeature.Feature, error) {
	return domainFeature.Catalog(), nil
}

func (m *mockFeatureStore) ListAllGrants(_ context.Context) (map[string]domainFeature.Permissions, error) {
	return m.grants, nil
}

type mockAuditStore struct {
	events     []domainAudit.Event
	lastFilter audit.Filter
	lastLimit  int
}

func (m *mockAuditStore) List(_ context.Context, f audit.Filter, limit int) ([]domainAudit.Event, error) {
	m.lastFilter, m.lastLimit = f, limit
	out := m.events
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// mockCustomerStore filters by branch, status and search and honours paging.
type mockCustomerStore struct {
	profiles   []domainCustomer.Profile
	lastFilter customer.ListFilter
}

func (m *mockCustomerStore) match(f customer.ListFilter) []domainCustomer.Profile {
	var out []domainCustomer.Profile
	for _, p := range m.profiles {
		c := p.Customer
		if c.BranchID != f.BranchID {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Customer.Name < out[j].Customer.Name })
	return out
}

func (m *mockCustomerStore) List(_ context.Context, f customer.ListFilter) ([]domainCustomer.Profile, error) {
	m.lastFilter = f
	out := m.match(f)
	if f.Limit > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		end := f.Offset + f.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[f.Offset:end]
	}
	return out, nil
}

func (m *mockCustomerStore) Count(_ context.Context, f customer.ListFilter) (int, error) {
	return len(m.match(f)), nil
}

type mockTrainerStore struct {
	trainers []domainTrainer.Trainer
}

func (m *mockTrainerStore) List(_ context.Context, f trainer.ListFilter) ([]domainTrainer.Trainer, error) {
	var out []domainTrainer.Trainer
	for _, t := range m.trainers {
		if t.BranchID == f.BranchID && (f.Status == "" || t.Status == f.Status) {
			out = append(out, t)
		}
	}
	return out, nil
}

type mockAttendanceStore struct {
	records  []domainAttendance.Attendance
	settings domainAttendance.Settings
}

func (m *mockAttendanceStore) List(_ context.Context, f attendance.ListFilter) ([]domainAttendance.Attendance, error) {
	var out []domainAttendance.Attendance
	for _, a := range m.records {
		day := a.CheckInTime.Format(dateLayout)
		if a.BranchID != f.BranchID || (f.From != "" && day < f.From) || (f.To != "" && day > f.To) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *mockAttendanceStore) ListOpen(_ context.Context, branchID string) ([]domainAttendance.Attendance, error) {
	var out []domainAttendance.Attendance
	for _, a := range m.records {
		if a.BranchID == branchID && a.IsOpen() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAttendanceStore) GetSettings(_ context.Context, branchID string) (domainAttendance.Settings, error) {
	s := m.settings
	s.BranchID = branchID
	return s, nil
}

type mockScheduleStore struct {
	sessions    []domainSchedule.Session
	assignments []domainSchedule.Assignment
	lastFilter  schedule.SessionFilter
}

func (m *mockScheduleStore) ListSessions(_ context.Context, f schedule.SessionFilter) ([]domainSchedule.Session, error) {
	m.lastFilter = f
	var out []domainSchedule.Session
	for _, s := range m.sessions {
		if s.BranchID != f.BranchID || (f.From != "" && s.Date < f.From) || (f.To != "" && s.Date > f.To) {
			continue
		}
		if f.TrainerID != "" && s.TrainerID != f.TrainerID {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *mockScheduleStore) ListAssignments(_ context.Context, f schedule.AssignmentFilter) ([]domainSchedule.Assignment, error) {
	var out []domainSchedule.Assignment
	for _, a := range m.assignments {
		if a.BranchID == f.BranchID && (f.Status == "" || a.Status == f.Status) {
			out = append(out, a)
		}
	}
	return out, nil
}

type mockReportStore struct {
	periods   []domainReport.PeriodRow
	customers []domainReport.CustomerRow
	lastKind  string
	lastRange domainReport.Range
}

func (m *mockReportStore) Periods(_ context.Context, _ string, kind string, r domainReport.Range) ([]domainReport.PeriodRow, error) {
	m.lastKind, m.lastRange = kind, r
	return m.periods, nil
}

func (m *mockReportStore) Customers(_ context.Context, _ string, r domainReport.Range) ([]domainReport.CustomerRow, error) {
	m.lastKind, m.lastRange = domainReport.KindCustomer, r
	return m.customers, nil
}

func profile(id, branchID, name, status, end string) domainCustomer.Profile {
	return domainCustomer.Profile{
		Customer:   domainCustomer.Customer{ID: id, BranchID: branchID, Name: name, Status: status},
		Membership: domainCustomer.Membership{CustomerID: id, EndDate: end},
	}
}
