package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	attendanceStore "gymhub/internal/adapters/storage/attendance"
	"gymhub/internal/domain/attendance"
	"gymhub/internal/domain/audit"
	"gymhub/internal/domain/branch"
	"gymhub/internal/domain/customer"
)

// mockAttendanceStore implements AttendanceStoreForOrchestrator in memory.
type mockAttendanceStore struct {
	records  []attendance.Attendance
	settings map[string]attendance.Settings
	deleted  int
	failFor  string
}

func newMockAttendanceStore() *mockAttendanceStore {
	return &mockAttendanceStore{settings: map[string]attendance.Settings{}}
}

func (m *mockAttendanceStore) CheckIn(_ context.Context, rec attendance.Attendance, guard attendanceStore.CheckInGuard) (attendance.Attendance, error) {
	var state attendance.CheckInState
	day := rec.CheckInTime.Format("2006-01-02")
	for _, r := range m.records {
		if r.CustomerID != rec.CustomerID || r.BranchID != rec.BranchID {
			continue
		}
		if r.IsOpen() {
			state.HasOpenRecord = true
		}
		if r.CheckInTime.Format("2006-01-02") == day {
			state.TodayCount++
		}
	}
	override, err := guard(state)
	if err != nil {
		return attendance.Attendance{}, err
	}
	rec.AdminOverride = override
	m.records = append(m.records, rec)
	return rec, nil
}

func (m *mockAttendanceStore) CheckOut(_ context.Context, branchID, id string, at time.Time, note string) (attendance.Attendance, error) {
	for i := range m.records {
		if m.records[i].ID == id && m.records[i].BranchID == branchID {
			if err := m.records[i].Close(at, note); err != nil {
				return attendance.Attendance{}, err
			}
			return m.records[i], nil
		}
	}
	return attendance.Attendance{}, attendance.ErrNotFound
}

func (m *mockAttendanceStore) CloseExpired(_ context.Context, s attendance.Settings, now time.Time) ([]attendance.Attendance, error) {
	if s.BranchID == m.failFor {
		return nil, errors.New("disk I/O error")
	}
	var closed []attendance.Attendance
	for i := range m.records {
		r := &m.records[i]
		if r.BranchID != s.BranchID || !s.ShouldAutoCheckout(*r, now) {
			continue
		}
		if err := r.Close(now, s.AutoCheckoutNote()); err != nil {
			return nil, err
		}
		closed = append(closed, *r)
	}
	return closed, nil
}

func (m *mockAttendanceStore) DeleteClosedBefore(_ context.Context, branchID string, cutoff time.Time) (int, error) {
	kept := m.records[:0]
	n := 0
	for _, r := range m.records {
		if !r.IsOpen() && r.CheckInTime.Before(cutoff) && (branchID == "" || r.BranchID == branchID) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.records = kept
	m.deleted += n
	return n, nil
}

func (m *mockAttendanceStore) GetSettings(_ context.Context, branchID string) (attendance.Settings, error) {
	if s, ok := m.settings[branchID]; ok {
		return s, nil
	}
	return attendance.DefaultSettings(branchID), nil
}

func (m *mockAttendanceStore) SaveSettings(_ context.Context, s attendance.Settings) error {
	m.settings[s.BranchID] = s
	return nil
}

// mockCustomers implements CustomerLookup.
type mockCustomers map[string]customer.Customer

func (m mockCustomers) GetByID(_ context.Context, branchID, id string) (customer.Customer, error) {
	c, ok := m[id]
	if !ok || c.BranchID != branchID {
		return customer.Customer{}, customer.ErrNotFound
	}
	return c, nil
}

// mockBranches implements BranchLister.
type mockBranches []branch.Branch

func (m mockBranches) List(context.Context) ([]branch.Branch, error) {
	return m, nil
}

type attendanceFixture struct {
	store   *mockAttendanceStore
	audit   *recordingAudit
	counter *countingCounter
	now     time.Time
}

func newAttendanceFixture() *attendanceFixture {
	return &attendanceFixture{
		store:   newMockAttendanceStore(),
		audit:   &recordingAudit{},
		counter: newCountingCounter(),
		now:     testNow,
	}
}

func (f *attendanceFixture) deps() AttendanceDeps {
	return AttendanceDeps{
		AttendanceStore: f.store,
		CustomerStore: mockCustomers{
			"c5":   {ID: "c5", BranchID: "downtown", Name: "Customer Five", Status: customer.StatusActive},
			"c6":   {ID: "c6", BranchID: "downtown", Name: "Customer Six", Status: customer.StatusInactive},
			"c-up": {ID: "c-up", BranchID: "uptown", Name: "Uptown Regular", Status: customer.StatusActive},
		},
		BranchStore: mockBranches{{ID: "downtown"}, {ID: "uptown"}},
		Audit:       f.audit,
		Counter:     f.counter,
		GenerateID:  seqIDs("att"),
		Now:         func() time.Time { return f.now },
	}
}

func (f *attendanceFixture) at(h, m int) {
	f.now = time.Date(2026, 3, 2, h, m, 0, 0, time.Local)
}

// TestExecuteCheckIn_DowntownScenario walks the override flow for one customer.
func TestExecuteCheckIn_DowntownScenario(t *testing.T) {
	f := newAttendanceFixture()
	deps := f.deps()
	ctx := context.Background()
	in := CheckInInput{BranchID: "downtown", CustomerID: "c5", Actor: Actor{ID: "adm-1", Role: "branch_admin"}}

	f.at(9, 0)
	first, err := ExecuteCheckIn(ctx, in, deps)
	if err != nil {
		t.Fatalf("09:00 check-in: %v", err)
	}
	if first.AdminOverride {
		t.Error("first check-in must not be flagged")
	}
	if first.CustomerName != "Customer Five" {
		t.Errorf("CustomerName = %q", first.CustomerName)
	}

	f.at(10, 0)
	// The open visit is refused before the daily limit is consulted; the
	// message points the admin at check-out, after which the override applies.
	_, err = ExecuteCheckIn(ctx, in, deps)
	if !errors.Is(err, attendance.ErrAlreadyCheckedIn) {
		t.Fatalf("10:00 with open record = %v, want %v", err, attendance.ErrAlreadyCheckedIn)
	}
	if !strings.Contains(err.Error(), "check them out") {
		t.Errorf("10:00 message = %q, want a check-out hint", err.Error())
	}

	f.at(10, 1)
	if _, err := ExecuteCheckOut(ctx, CheckOutInput{BranchID: "downtown", AttendanceID: first.ID}, deps); err != nil {
		t.Fatalf("check-out: %v", err)
	}

	f.at(10, 2)
	if _, err := ExecuteCheckIn(ctx, in, deps); !errors.Is(err, attendance.ErrOverrideRequired) {
		t.Fatalf("second visit without override = %v, want %v", err, attendance.ErrOverrideRequired)
	}

	f.at(10, 5)
	in.Override = true
	second, err := ExecuteCheckIn(ctx, in, deps)
	if err != nil {
		t.Fatalf("override check-in: %v", err)
	}
	if !second.AdminOverride {
		t.Error("override check-in must be flagged")
	}

	if len(f.store.records) != 2 {
		t.Fatalf("records = %d, want 2", len(f.store.records))
	}
	if got := f.counter.get(EventCheckIn); got != 2 {
		t.Errorf("check_in count = %d, want 2", got)
	}
	if got := f.counter.get(EventCheckInOverride); got != 1 {
		t.Errorf("override count = %d, want 1", got)
	}
	if len(f.audit.events) != 1 || f.audit.events[0].Action != audit.ActionOverride || f.audit.events[0].Severity != audit.SeverityWarning {
		t.Errorf("audit events = %+v, want one override warning", f.audit.events)
	}
}

// TestExecuteCheckIn_Rejections covers customer lookups that stop a check-in.
func TestExecuteCheckIn_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		branchID   string
		customerID string
		wantErr    error
	}{
		{"inactive customer", "downtown", "c6", ErrCustomerInactive},
		{"customer of another branch", "downtown", "c-up", customer.ErrNotFound},
		{"unknown customer", "downtown", "nobody", customer.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAttendanceFixture()
			_, err := ExecuteCheckIn(context.Background(), CheckInInput{BranchID: tt.branchID, CustomerID: tt.customerID}, f.deps())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if len(f.store.records) != 0 {
				t.Errorf("records written: %d", len(f.store.records))
			}
		})
	}
}

// TestExecuteCheckIn_OverrideUnderLimitNotFlagged verifies the flag marks only real bypasses.
func TestExecuteCheckIn_OverrideUnderLimitNotFlagged(t *testing.T) {
	f := newAttendanceFixture()
	rec, err := ExecuteCheckIn(context.Background(), CheckInInput{BranchID: "downtown", CustomerID: "c5", Override: true}, f.deps())
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if rec.AdminOverride {
		t.Error("override under the limit must not be flagged")
	}
}

// TestExecuteCheckOut_Errors verifies branch scoping and double check-out.
func TestExecuteCheckOut_Errors(t *testing.T) {
	f := newAttendanceFixture()
	deps := f.deps()
	ctx := context.Background()
	rec, err := ExecuteCheckIn(ctx, CheckInInput{BranchID: "downtown", CustomerID: "c5"}, deps)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ExecuteCheckOut(ctx, CheckOutInput{BranchID: "uptown", AttendanceID: rec.ID}, deps); !errors.Is(err, attendance.ErrNotFound) {
		t.Errorf("cross-branch = %v, want %v", err, attendance.ErrNotFound)
	}
	f.at(9, 45)
	out, err := ExecuteCheckOut(ctx, CheckOutInput{BranchID: "downtown", AttendanceID: rec.ID, Notes: "left early"}, deps)
	if err != nil {
		t.Fatalf("check-out: %v", err)
	}
	if out.Notes != "left early" {
		t.Errorf("Notes = %q", out.Notes)
	}
	if _, err := ExecuteCheckOut(ctx, CheckOutInput{BranchID: "downtown", AttendanceID: rec.ID}, deps); !errors.Is(err, attendance.ErrAlreadyCheckedOut) {
		t.Errorf("double = %v, want %v", err, attendance.ErrAlreadyCheckedOut)
	}
}

// TestExecuteAutoCheckout_OnlyExpired verifies the strict threshold and branch scoping.
func TestExecuteAutoCheckout_OnlyExpired(t *testing.T) {
	f := newAttendanceFixture()
	base := time.Date(2026, 3, 2, 6, 0, 0, 0, time.Local)
	f.store.records = []attendance.Attendance{
		{ID: "long", CustomerID: "c1", BranchID: "downtown", CheckInTime: base},
		{ID: "exact", CustomerID: "c2", BranchID: "downtown", CheckInTime: base.Add(60 * time.Minute)},
		{ID: "short", CustomerID: "c3", BranchID: "downtown", CheckInTime: base.Add(3 * time.Hour)},
		{ID: "other", CustomerID: "c4", BranchID: "uptown", CheckInTime: base},
	}
	f.at(10, 0) // long: 240m, exact: 180m, short: 60m

	closed, err := ExecuteAutoCheckout(context.Background(), "downtown", SystemActorFor(), f.deps())
	if err != nil {
		t.Fatalf("ExecuteAutoCheckout: %v", err)
	}
	if len(closed) != 1 || closed[0].ID != "long" {
		t.Fatalf("closed = %+v, want only long", closed)
	}
	if closed[0].Notes != "Auto checked-out after 180 minutes" {
		t.Errorf("Notes = %q", closed[0].Notes)
	}
	for _, r := range f.store.records {
		if r.ID != "long" && !r.IsOpen() {
			t.Errorf("record %s closed unexpectedly", r.ID)
		}
	}
	if got := f.counter.get(EventAutoCheckout); got != 1 {
		t.Errorf("auto_checkout count = %d, want 1", got)
	}
	if acts := f.audit.actions(); len(acts) != 1 || acts[0] != audit.ActionSweep {
		t.Errorf("audit = %v, want one sweep", acts)
	}

	again, err := ExecuteAutoCheckout(context.Background(), "downtown", SystemActorFor(), f.deps())
	if err != nil || len(again) != 0 {
		t.Errorf("second sweep = %v, %v; want nothing", again, err)
	}
	if len(f.audit.events) != 1 {
		t.Error("an empty sweep must not be audited")
	}
}

// TestExecuteAutoCheckoutAll_ContinuesPastFailures verifies one failing branch does not stop the rest.
func TestExecuteAutoCheckoutAll_ContinuesPastFailures(t *testing.T) {
	f := newAttendanceFixture()
	base := time.Date(2026, 3, 2, 6, 0, 0, 0, time.Local)
	f.store.records = []attendance.Attendance{
		{ID: "d", CustomerID: "c1", BranchID: "downtown", CheckInTime: base},
		{ID: "u", CustomerID: "c2", BranchID: "uptown", CheckInTime: base},
	}
	f.store.failFor = "downtown"
	f.at(12, 0)

	n, err := ExecuteAutoCheckoutAll(context.Background(), SystemActorFor(), f.deps())
	if err == nil {
		t.Error("expected the downtown failure to be reported")
	}
	if n != 1 {
		t.Errorf("closed = %d, want 1", n)
	}
}

// TestExecuteCleanupAttendance verifies only old closed records are purged.
func TestExecuteCleanupAttendance(t *testing.T) {
	f := newAttendanceFixture()
	old := testNow.AddDate(-2, 0, 0)
	f.store.records = []attendance.Attendance{
		{ID: "old-closed", BranchID: "downtown", CheckInTime: old, CheckOutTime: old.Add(time.Hour)},
		{ID: "old-open", BranchID: "downtown", CheckInTime: old},
		{ID: "recent", BranchID: "downtown", CheckInTime: testNow.AddDate(0, -1, 0), CheckOutTime: testNow.AddDate(0, -1, 0).Add(time.Hour)},
	}

	n, err := ExecuteCleanupAttendance(context.Background(), "downtown", superAdmin, f.deps())
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if n != 1 || len(f.store.records) != 2 {
		t.Errorf("deleted = %d, remaining = %d; want 1 and 2", n, len(f.store.records))
	}
	if got := f.counter.get(EventCleanupDeleted); got != 1 {
		t.Errorf("cleanup count = %d, want 1", got)
	}
	if acts := f.audit.actions(); len(acts) != 1 || acts[0] != audit.ActionCleanup {
		t.Errorf("audit = %v", acts)
	}
}

// TestExecuteUpdateAttendanceSettings validates and persists settings.
func TestExecuteUpdateAttendanceSettings(t *testing.T) {
	tests := []struct {
		name    string
		in      AttendanceSettingsInput
		wantErr error
	}{
		{"valid", AttendanceSettingsInput{BranchID: "downtown", MaxEntriesPerDay: 2, AutoCheckoutAfter: 90}, nil},
		{"zero entries", AttendanceSettingsInput{BranchID: "downtown", MaxEntriesPerDay: 0, AutoCheckoutAfter: 90}, attendance.ErrInvalidMaxEntries},
		{"zero minutes", AttendanceSettingsInput{BranchID: "downtown", MaxEntriesPerDay: 1, AutoCheckoutAfter: 0}, attendance.ErrInvalidAutoCheckout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAttendanceFixture()
			_, err := ExecuteUpdateAttendanceSettings(context.Background(), tt.in, f.deps())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			_, saved := f.store.settings["downtown"]
			if saved != (tt.wantErr == nil) {
				t.Errorf("saved = %v", saved)
			}
		})
	}
}

// TestStartAutoCheckoutSweep verifies the worker sweeps on its interval and stops cleanly.
func TestStartAutoCheckoutSweep(t *testing.T) {
	store := newMockAttendanceStore()
	store.records = []attendance.Attendance{
		{ID: "stale", CustomerID: "c1", BranchID: "downtown", CheckInTime: time.Now().Add(-5 * time.Hour)},
	}
	counter := newCountingCounter()
	deps := AttendanceDeps{
		AttendanceStore: store,
		BranchStore:     mockBranches{{ID: "downtown"}},
		Counter:         counter,
	}

	stop := StartAutoCheckoutSweep(context.Background(), deps, SweepConfig{Interval: 5 * time.Millisecond})
	deadline := time.Now().Add(2 * time.Second)
	for counter.get(EventAutoCheckout) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	stop()

	if got := counter.get(EventAutoCheckout); got != 1 {
		t.Errorf("auto_checkout count = %d, want 1", got)
	}
}

// TestStartAutoCheckoutSweep_Disabled verifies a zero interval starts nothing.
func TestStartAutoCheckoutSweep_Disabled(t *testing.T) {
	stop := StartAutoCheckoutSweep(context.Background(), AttendanceDeps{}, SweepConfig{})
	stop()
}
