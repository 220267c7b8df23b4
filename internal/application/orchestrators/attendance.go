package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	attendanceStore "gymhub/internal/adapters/storage/attendance"
	"gymhub/internal/domain/attendance"
	"gymhub/internal/domain/audit"
	"gymhub/internal/domain/branch"
	"gymhub/internal/domain/customer"
)

// ErrCustomerInactive is returned when an inactive customer tries to check in.
var ErrCustomerInactive = errors.New("customer is inactive and cannot check in")

// AttendanceStoreForOrchestrator defines the store interface needed by the attendance orchestrators.
type AttendanceStoreForOrchestrator interface {
	CheckIn(ctx context.Context, rec attendance.Attendance, guard attendanceStore.CheckInGuard) (attendance.Attendance, error)
	CheckOut(ctx context.Context, branchID, id string, at time.Time, note string) (attendance.Attendance, error)
	CloseExpired(ctx context.Context, settings attendance.Settings, now time.Time) ([]attendance.Attendance, error)
	DeleteClosedBefore(ctx context.Context, branchID string, cutoff time.Time) (int, error)
	GetSettings(ctx context.Context, branchID string) (attendance.Settings, error)
	SaveSettings(ctx context.Context, settings attendance.Settings) error
}

// CustomerLookup resolves a customer within a branch.
type CustomerLookup interface {
	GetByID(ctx context.Context, branchID, id string) (customer.Customer, error)
}

// BranchLister lists every branch, for sweeps across the whole gym chain.
type BranchLister interface {
	List(ctx context.Context) ([]branch.Branch, error)
}

// AttendanceDeps holds dependencies for the attendance orchestrators.
type AttendanceDeps struct {
	AttendanceStore AttendanceStoreForOrchestrator
	CustomerStore   CustomerLookup
	BranchStore     BranchLister
	Audit           AuditSaver
	Counter         EventCounter
	GenerateID      func() string
	Now             func() time.Time
}

// CheckInInput carries a check-in request.
type CheckInInput struct {
	BranchID   string
	CustomerID string
	Notes      string
	Override   bool
	Actor      Actor
}

// ExecuteCheckIn records a customer arriving at the actor's branch.
// PRE: BranchID comes from the session
// POST: customer.ErrNotFound for customers of other branches;
// ErrCustomerInactive for inactive customers;
// attendance.ErrAlreadyCheckedIn while an open record exists;
// attendance.ErrOverrideRequired when the daily limit is reached without override
// INVARIANT: the limit check and the insert share one write transaction
func ExecuteCheckIn(ctx context.Context, input CheckInInput, deps AttendanceDeps) (attendance.Attendance, error) {
	c, err := deps.CustomerStore.GetByID(ctx, input.BranchID, input.CustomerID)
	if err != nil {
		return attendance.Attendance{}, err
	}
	if !c.IsActive() {
		return attendance.Attendance{}, ErrCustomerInactive
	}

	settings, err := deps.AttendanceStore.GetSettings(ctx, input.BranchID)
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("load attendance settings: %w", err)
	}

	now := nowFrom(deps.Now)
	rec := attendance.Attendance{
		ID:          idFrom(deps.GenerateID),
		CustomerID:  c.ID,
		BranchID:    input.BranchID,
		CheckInTime: now,
		Notes:       strings.TrimSpace(input.Notes),
	}
	if err := rec.Validate(); err != nil {
		return attendance.Attendance{}, err
	}

	rec, err = deps.AttendanceStore.CheckIn(ctx, rec, func(state attendance.CheckInState) (bool, error) {
		return settings.DecideCheckIn(state, input.Override)
	})
	if err != nil {
		if errors.Is(err, attendance.ErrOverrideRequired) || errors.Is(err, attendance.ErrAlreadyCheckedIn) {
			slog.Info("checkin_event", "event", "check_in_refused", "customer_id", c.ID, "branch_id", input.BranchID, "reason", err.Error())
		}
		return attendance.Attendance{}, err
	}
	rec.CustomerName = c.Name

	count(deps.Counter, EventCheckIn, 1)
	slog.Info("checkin_event", "event", "customer_checked_in", "customer_id", c.ID, "branch_id", rec.BranchID, "attendance_id", rec.ID, "admin_override", rec.AdminOverride)
	if rec.AdminOverride {
		count(deps.Counter, EventCheckInOverride, 1)
		recordAudit(ctx, deps.Audit, input.Actor.event(now, audit.CategoryAttendance, audit.ActionOverride).
			WithSeverity(audit.SeverityWarning).
			WithBranch(rec.BranchID).
			WithResource("attendance", rec.ID).
			WithDescription(settings.OverrideNote()+" for "+c.Name))
	}
	return rec, nil
}

// CheckOutInput carries a check-out request.
type CheckOutInput struct {
	BranchID     string
	AttendanceID string
	Notes        string
	Actor        Actor
}

// ExecuteCheckOut closes an open attendance record of the actor's branch.
// POST: attendance.ErrNotFound for records of other branches;
// attendance.ErrAlreadyCheckedOut for closed records
func ExecuteCheckOut(ctx context.Context, input CheckOutInput, deps AttendanceDeps) (attendance.Attendance, error) {
	rec, err := deps.AttendanceStore.CheckOut(ctx, input.BranchID, input.AttendanceID, nowFrom(deps.Now), input.Notes)
	if err != nil {
		return attendance.Attendance{}, err
	}
	count(deps.Counter, EventCheckOut, 1)
	slog.Info("checkin_event", "event", "customer_checked_out", "customer_id", rec.CustomerID, "branch_id", rec.BranchID, "attendance_id", rec.ID, "minutes", int(rec.Duration(time.Time{})/time.Minute))
	return rec, nil
}

// ExecuteAutoCheckout closes every open record of one branch that has
// exceeded the branch's auto-checkout threshold.
// POST: Returns the closed records; records under the threshold are untouched
func ExecuteAutoCheckout(ctx context.Context, branchID string, actor Actor, deps AttendanceDeps) ([]attendance.Attendance, error) {
	settings, err := deps.AttendanceStore.GetSettings(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("load attendance settings: %w", err)
	}
	now := nowFrom(deps.Now)
	closed, err := deps.AttendanceStore.CloseExpired(ctx, settings, now)
	if err != nil {
		return nil, fmt.Errorf("auto checkout branch %s: %w", branchID, err)
	}
	if len(closed) == 0 {
		return nil, nil
	}

	count(deps.Counter, EventAutoCheckout, len(closed))
	slog.Info("checkin_event", "event", "auto_checkout", "branch_id", branchID, "closed", len(closed), "after_minutes", settings.AutoCheckoutAfter)
	recordAudit(ctx, deps.Audit, actor.event(now, audit.CategoryAttendance, audit.ActionSweep).
		WithBranch(branchID).
		WithDescription(fmt.Sprintf("Auto checked-out %d record(s) open longer than %d minutes", len(closed), settings.AutoCheckoutAfter)))
	return closed, nil
}

// ExecuteAutoCheckoutAll runs the auto-checkout sweep for every branch.
// A failing branch is logged and does not stop the others.
// POST: Returns the total number of records closed
func ExecuteAutoCheckoutAll(ctx context.Context, actor Actor, deps AttendanceDeps) (int, error) {
	branches, err := deps.BranchStore.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list branches: %w", err)
	}
	total := 0
	var errs []error
	for _, b := range branches {
		closed, err := ExecuteAutoCheckout(ctx, b.ID, actor, deps)
		if err != nil {
			slog.Error("checkin_event", "event", "auto_checkout_failed", "branch_id", b.ID, "error", err)
			errs = append(errs, err)
			continue
		}
		total += len(closed)
	}
	return total, errors.Join(errs...)
}

// ExecuteCleanupAttendance purges closed records older than the retention
// period. An empty branchID purges every branch.
// POST: open records are never deleted
func ExecuteCleanupAttendance(ctx context.Context, branchID string, actor Actor, deps AttendanceDeps) (int, error) {
	now := nowFrom(deps.Now)
	cutoff := attendance.RetentionCutoff(now)
	n, err := deps.AttendanceStore.DeleteClosedBefore(ctx, branchID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup attendance: %w", err)
	}

	count(deps.Counter, EventCleanupDeleted, n)
	slog.Info("checkin_event", "event", "attendance_cleanup", "branch_id", branchID, "deleted", n, "cutoff", cutoff.Format(time.DateOnly))
	recordAudit(ctx, deps.Audit, actor.event(now, audit.CategoryAttendance, audit.ActionCleanup).
		WithSeverity(audit.SeverityWarning).
		WithBranch(branchID).
		WithDescription(fmt.Sprintf("Deleted %d attendance record(s) checked in before %s", n, cutoff.Format(time.DateOnly))))
	return n, nil
}

// AttendanceSettingsInput carries edited settings for the actor's branch.
type AttendanceSettingsInput struct {
	BranchID          string
	MaxEntriesPerDay  int
	AutoCheckoutAfter int
	RequireCheckout   bool
	Actor             Actor
}

// ExecuteUpdateAttendanceSettings validates and stores a branch's settings.
// POST: Returns the saved settings; invalid values are rejected unchanged
func ExecuteUpdateAttendanceSettings(ctx context.Context, input AttendanceSettingsInput, deps AttendanceDeps) (attendance.Settings, error) {
	now := nowFrom(deps.Now)
	s := attendance.Settings{
		BranchID:          input.BranchID,
		MaxEntriesPerDay:  input.MaxEntriesPerDay,
		AutoCheckoutAfter: input.AutoCheckoutAfter,
		RequireCheckout:   input.RequireCheckout,
		UpdatedAt:         now,
	}
	if err := s.Validate(); err != nil {
		return attendance.Settings{}, err
	}
	if err := deps.AttendanceStore.SaveSettings(ctx, s); err != nil {
		return attendance.Settings{}, err
	}

	slog.Info("checkin_event", "event", "settings_updated", "branch_id", s.BranchID, "max_entries_per_day", s.MaxEntriesPerDay, "auto_checkout_after", s.AutoCheckoutAfter)
	recordAudit(ctx, deps.Audit, input.Actor.event(now, audit.CategoryAttendance, audit.ActionUpdate).
		WithBranch(s.BranchID).
		WithResource("attendance_settings", s.BranchID).
		WithDescription(fmt.Sprintf("Max %d check-in(s) per day, auto checkout after %d minutes", s.MaxEntriesPerDay, s.AutoCheckoutAfter)))
	return s, nil
}
