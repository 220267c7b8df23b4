// Package audit models the append-only trail of who changed what, in which
// branch. Events are written by orchestrators and read by super admins.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Category groups events by the part of the system they touch.
type Category string

const (
	CategoryBranch     Category = "branch"
	CategoryAccount    Category = "account"
	CategoryFeature    Category = "feature"
	CategoryCustomer   Category = "customer"
	CategoryTrainer    Category = "trainer"
	CategoryAttendance Category = "attendance"
	CategoryScheduling Category = "scheduling"
	CategorySecurity   Category = "security"
	CategorySystem     Category = "system"
)

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{
		CategoryBranch, CategoryAccount, CategoryFeature,
		CategoryCustomer, CategoryTrainer, CategoryAttendance,
		CategoryScheduling, CategorySecurity, CategorySystem,
	}
}

// ParseCategory accepts only known categories.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Action is the verb of an event.
type Action string

const (
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionLogin    Action = "login"
	ActionLogout   Action = "logout"
	ActionToggle   Action = "toggle"
	ActionOverride Action = "override"
	ActionSweep    Action = "sweep"
	ActionCleanup  Action = "cleanup"
	ActionExport   Action = "export"
)

// Severity marks events a super admin should look at.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// SystemActor is the actor ID recorded for background jobs and CLI commands.
const SystemActor = "system"

// Actor is whoever caused an event. Background jobs use ID SystemActor and
// leave the rest empty.
type Actor struct {
	ID    string
	Email string
	Role  string
	IP    string
}

// Label is what the audit view shows for the actor.
func (a Actor) Label() string {
	if a.Email != "" {
		return a.Email
	}
	return a.ID
}

// Event is one audit log entry.
// INVARIANT: ID, Timestamp, Category, Action and Actor.ID are set
type Event struct {
	ID           string
	Timestamp    time.Time
	Category     Category
	Action       Action
	Severity     Severity
	Actor        Actor
	BranchID     string // empty for events outside any branch
	ResourceType string
	ResourceID   string
	Description  string
}

// New starts an info-level event by actor at now.
// PRE: actor.ID is non-empty
func New(now time.Time, actor Actor, category Category, action Action) Event {
	return Event{
		ID:        uuid.NewString(),
		Timestamp: now,
		Category:  category,
		Action:    action,
		Severity:  SeverityInfo,
		Actor:     actor,
	}
}

func (e Event) WithSeverity(s Severity) Event {
	e.Severity = s
	return e
}

func (e Event) WithBranch(branchID string) Event {
	e.BranchID = branchID
	return e
}

// WithResource names the record the event is about, e.g. ("customer", id).
func (e Event) WithResource(resourceType, resourceID string) Event {
	e.ResourceType = resourceType
	e.ResourceID = resourceID
	return e
}

func (e Event) WithDescription(desc string) Event {
	e.Description = desc
	return e
}
