package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	scheduleStore "gymhub/internal/adapters/storage/schedule"
	"gymhub/internal/domain/audit"
	"gymhub/internal/domain/customer"
	"gymhub/internal/domain/schedule"
	"gymhub/internal/domain/trainer"
)

// ScheduleStoreForOrchestrator defines the store interface needed by the scheduling orchestrators.
type ScheduleStoreForOrchestrator interface {
	Book(ctx context.Context, slot schedule.Slot, session schedule.Session, assignment schedule.Assignment, guard scheduleStore.BookingGuard) (schedule.Session, error)
	GetSession(ctx context.Context, branchID, id string) (schedule.Session, error)
	UpdateSessionStatus(ctx context.Context, branchID, id, status string, guard scheduleStore.StatusGuard) error
	DeleteSession(ctx context.Context, branchID, id string) error
	GetAssignment(ctx context.Context, branchID, id string) (schedule.Assignment, error)
	UpdateAssignmentStatus(ctx context.Context, branchID, id, status string) error
}

// TrainerLookup resolves a trainer within a branch.
type TrainerLookup interface {
	GetByID(ctx context.Context, branchID, id string) (trainer.Trainer, error)
}

// SchedulingDeps holds dependencies for the scheduling orchestrators.
type SchedulingDeps struct {
	ScheduleStore ScheduleStoreForOrchestrator
	TrainerStore  TrainerLookup
	CustomerStore CustomerLookup
	Audit         AuditSaver
	Counter       EventCounter
	GenerateID    func() string
	Now           func() time.Time
}

// ScheduleSessionInput carries a booking request for the actor's branch.
type ScheduleSessionInput struct {
	BranchID string
	Request  schedule.Request
	Actor    Actor
}

// ExecuteScheduleSession books a training session, its trainer schedule
// slot and the trainer-customer assignment.
// PRE: BranchID comes from the session
// POST: a *schedule.ValidationError lists every field and lookup problem at
// once; schedule.ErrTrainerBusy or schedule.ErrCustomerBusy on overlap,
// with nothing written
// INVARIANT: the overlap check runs inside the booking transaction
func ExecuteScheduleSession(ctx context.Context, input ScheduleSessionInput, deps SchedulingDeps) (schedule.Session, error) {
	req := input.Request
	problems := &schedule.ValidationError{}
	if v := req.Validate(); v != nil {
		problems.Problems = append(problems.Problems, v.Problems...)
	}

	if req.TrainerID != "" {
		t, err := deps.TrainerStore.GetByID(ctx, input.BranchID, req.TrainerID)
		switch {
		case errors.Is(err, trainer.ErrNotFound):
			problems.Add("trainer does not belong to this branch")
		case err != nil:
			return schedule.Session{}, fmt.Errorf("load trainer: %w", err)
		case !t.CanTakeSessions():
			problems.Add(trainer.ErrNotSchedulable.Error())
		}
	}
	if req.CustomerID != "" {
		_, err := deps.CustomerStore.GetByID(ctx, input.BranchID, req.CustomerID)
		switch {
		case errors.Is(err, customer.ErrNotFound):
			problems.Add("customer does not belong to this branch")
		case err != nil:
			return schedule.Session{}, fmt.Errorf("load customer: %w", err)
		}
	}
	if err := problems.Err(); err != nil {
		return schedule.Session{}, err
	}

	proposed := req.Session(input.BranchID)
	proposed.ID = idFrom(deps.GenerateID)
	assignment := req.Assignment(input.BranchID)
	assignment.ID = idFrom(deps.GenerateID)

	s, err := deps.ScheduleStore.Book(ctx, req.Slot(input.BranchID), proposed, assignment, func(existing []schedule.Session) error {
		return schedule.CheckConflicts(proposed, existing)
	})
	if err != nil {
		if errors.Is(err, schedule.ErrTrainerBusy) || errors.Is(err, schedule.ErrCustomerBusy) {
			slog.Info("schedule_event", "event", "session_conflict", "trainer_id", req.TrainerID, "customer_id", req.CustomerID, "date", req.Date, "reason", err.Error())
		}
		return schedule.Session{}, err
	}

	count(deps.Counter, EventSessionBooked, 1)
	slog.Info("schedule_event", "event", "session_booked", "session_id", s.ID, "trainer_id", s.TrainerID, "customer_id", s.CustomerID, "branch_id", s.BranchID, "date", s.Date, "start", s.StartTime, "end", s.EndTime)
	recordAudit(ctx, deps.Audit, input.Actor.event(nowFrom(deps.Now), audit.CategoryScheduling, audit.ActionCreate).
		WithBranch(s.BranchID).
		WithResource("session", s.ID).
		WithDescription(fmt.Sprintf("Booked session on %s %s-%s", s.Date, s.StartTime, s.EndTime)))
	return s, nil
}

// SessionStatusInput changes or removes one session of the actor's branch.
type SessionStatusInput struct {
	BranchID  string
	SessionID string
	Status    string
	Actor     Actor
}

// ExecuteUpdateSessionStatus marks a session scheduled, completed, cancelled
// or no-show.
// POST: schedule.ErrSessionNotFound for sessions of other branches;
// schedule.ErrTrainerBusy or schedule.ErrCustomerBusy when a cancelled
// session would return to a time that has been booked since
// INVARIANT: the overlap check runs inside the update transaction
func ExecuteUpdateSessionStatus(ctx context.Context, input SessionStatusInput, deps SchedulingDeps) (schedule.Session, error) {
	s, err := deps.ScheduleStore.GetSession(ctx, input.BranchID, input.SessionID)
	if err != nil {
		return schedule.Session{}, err
	}
	previous := s.Status
	if err := s.SetStatus(input.Status); err != nil {
		return schedule.Session{}, err
	}
	err = deps.ScheduleStore.UpdateSessionStatus(ctx, input.BranchID, s.ID, s.Status, func(current schedule.Session, sameDay []schedule.Session) error {
		return schedule.CheckStatusChange(current, input.Status, sameDay)
	})
	if err != nil {
		if errors.Is(err, schedule.ErrTrainerBusy) || errors.Is(err, schedule.ErrCustomerBusy) {
			slog.Info("schedule_event", "event", "session_conflict", "session_id", s.ID, "trainer_id", s.TrainerID, "customer_id", s.CustomerID, "date", s.Date, "reason", err.Error())
		}
		return schedule.Session{}, err
	}

	slog.Info("schedule_event", "event", "session_status_changed", "session_id", s.ID, "branch_id", s.BranchID, "from", previous, "to", s.Status)
	recordAudit(ctx, deps.Audit, input.Actor.event(nowFrom(deps.Now), audit.CategoryScheduling, audit.ActionUpdate).
		WithBranch(s.BranchID).
		WithResource("session", s.ID).
		WithDescription("Session " + previous + " -> " + s.Status))
	return s, nil
}

// ExecuteDeleteSession removes a session of the actor's branch. The
// assignment and schedule slot stay.
func ExecuteDeleteSession(ctx context.Context, input SessionStatusInput, deps SchedulingDeps) error {
	if err := deps.ScheduleStore.DeleteSession(ctx, input.BranchID, input.SessionID); err != nil {
		return err
	}
	slog.Info("schedule_event", "event", "session_deleted", "session_id", input.SessionID, "branch_id", input.BranchID)
	recordAudit(ctx, deps.Audit, input.Actor.event(nowFrom(deps.Now), audit.CategoryScheduling, audit.ActionDelete).
		WithBranch(input.BranchID).
		WithResource("session", input.SessionID))
	return nil
}

// EndAssignmentInput ends one assignment of the actor's branch.
type EndAssignmentInput struct {
	BranchID     string
	AssignmentID string
	Status       string // completed | cancelled
	Actor        Actor
}

// ExecuteEndAssignment closes an active assignment.
// POST: schedule.ErrAssignmentNotActive when already ended;
// schedule.ErrInvalidEndStatus for any status but completed or cancelled
func ExecuteEndAssignment(ctx context.Context, input EndAssignmentInput, deps SchedulingDeps) (schedule.Assignment, error) {
	a, err := deps.ScheduleStore.GetAssignment(ctx, input.BranchID, input.AssignmentID)
	if err != nil {
		return schedule.Assignment{}, err
	}
	if err := a.End(input.Status); err != nil {
		return schedule.Assignment{}, err
	}
	if err := deps.ScheduleStore.UpdateAssignmentStatus(ctx, input.BranchID, a.ID, a.Status); err != nil {
		return schedule.Assignment{}, err
	}

	slog.Info("schedule_event", "event", "assignment_ended", "assignment_id", a.ID, "branch_id", a.BranchID, "status", a.Status)
	recordAudit(ctx, deps.Audit, input.Actor.event(nowFrom(deps.Now), audit.CategoryScheduling, audit.ActionUpdate).
		WithBranch(a.BranchID).
		WithResource("assignment", a.ID).
		WithDescription("Assignment " + a.Status))
	return a, nil
}
