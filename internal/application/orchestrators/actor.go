package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gymhub/internal/domain/audit"
)

// Domain event names passed to EventCounter.
const (
	EventCheckIn         = "check_in"
	EventCheckInOverride = "check_in_override"
	EventCheckOut        = "check_out"
	EventAutoCheckout    = "auto_checkout"
	EventCleanupDeleted  = "attendance_cleanup_deleted"
	EventSessionBooked   = "session_booked"
	EventLoginFailed     = "login_failed"
	EventLoginLocked     = "login_locked"
)

// Actor identifies who triggered an orchestrator: a signed-in admin, or
// audit.SystemActor for the background sweep and CLI commands.
type Actor struct {
	ID       string
	Email    string
	Role     string
	BranchID string
	IP       string
}

// SystemActorFor returns the actor used for unattended work.
func SystemActorFor() Actor {
	return Actor{ID: audit.SystemActor, Role: audit.SystemActor}
}

// AuditSaver persists audit events.
type AuditSaver interface {
	Save(ctx context.Context, e audit.Event) error
}

// EventCounter counts domain events for /metrics.
type EventCounter interface {
	Count(event string, n int)
}

// event starts an audit event attributed to the actor.
func (a Actor) event(now time.Time, cat audit.Category, action audit.Action) audit.Event {
	return audit.New(now, audit.Actor{ID: a.ID, Email: a.Email, Role: a.Role, IP: a.IP}, cat, action)
}

// recordAudit saves e when an AuditSaver is wired. Failures are logged and
// never fail the operation that produced the event.
func recordAudit(ctx context.Context, saver AuditSaver, e audit.Event) {
	if saver == nil {
		return
	}
	if err := saver.Save(ctx, e); err != nil {
		slog.Error("audit_event", "event", "audit_save_failed", "category", e.Category, "action", e.Action, "error", err)
	}
}

func count(c EventCounter, event string, n int) {
	if c != nil {
		c.Count(event, n)
	}
}

func nowFrom(f func() time.Time) time.Time {
	if f == nil {
		return time.Now()
	}
	return f()
}

func idFrom(f func() string) string {
	if f == nil {
		return uuid.NewString()
	}
	return f()
}
