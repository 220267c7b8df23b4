package orchestrators

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"gymhub/internal/domain/audit"
	"gymhub/internal/domain/customer"
)

// CustomerStoreForOrchestrator defines the store interface needed by the customer orchestrators.
type CustomerStoreForOrchestrator interface {
	GetProfile(ctx context.Context, branchID, id string) (customer.Profile, error)
	CreateWithMembership(ctx context.Context, c customer.Customer, m customer.Membership) error
	UpdateWithMembership(ctx context.Context, c customer.Customer, m customer.Membership) error
	Delete(ctx context.Context, branchID, id string) error
}

// CustomerInput carries the editable customer fields. ID is empty on create.
// BranchID always comes from the session, never from the form.
type CustomerInput struct {
	ID               string
	BranchID         string
	Name             string
	Email            string
	Phone            string
	Gender           string
	SubscriptionType string
	JoinDate         string // YYYY-MM-DD; defaults to today on create
	Status           string
	Actor            Actor
}

// CustomerDeps holds dependencies for the customer orchestrators.
type CustomerDeps struct {
	CustomerStore CustomerStoreForOrchestrator
	Audit         AuditSaver
	GenerateID    func() string
	Now           func() time.Time
}

func (in CustomerInput) apply(c *customer.Customer) {
	c.Name = strings.TrimSpace(in.Name)
	c.Email = strings.TrimSpace(in.Email)
	c.Phone = strings.TrimSpace(in.Phone)
	c.Gender = in.Gender
	c.SubscriptionType = in.SubscriptionType
	if in.JoinDate != "" {
		c.JoinDate = in.JoinDate
	}
	if in.Status != "" {
		c.Status = in.Status
	}
}

// ExecuteCreateCustomer creates a customer in the actor's branch together
// with the membership derived from its subscription.
// POST: Membership starts on JoinDate and ends one subscription length later
func ExecuteCreateCustomer(ctx context.Context, input CustomerInput, deps CustomerDeps) (customer.Profile, error) {
	now := nowFrom(deps.Now)
	c := customer.Customer{
		ID:        idFrom(deps.GenerateID),
		BranchID:  input.BranchID,
		JoinDate:  now.Format(customer.DateLayout),
		Status:    customer.StatusActive,
		CreatedAt: now,
	}
	input.apply(&c)
	if err := c.Validate(); err != nil {
		return customer.Profile{}, err
	}

	m, err := customer.NewMembership(c.ID, c.SubscriptionType, c.JoinDate, now)
	if err != nil {
		return customer.Profile{}, err
	}
	m.ID = idFrom(deps.GenerateID)

	if err := deps.CustomerStore.CreateWithMembership(ctx, c, m); err != nil {
		return customer.Profile{}, err
	}

	slog.Info("customer_event", "event", "customer_created", "customer_id", c.ID, "branch_id", c.BranchID, "subscription", c.SubscriptionType, "membership_end", m.EndDate)
	recordAudit(ctx, deps.Audit, input.Actor.event(now, audit.CategoryCustomer, audit.ActionCreate).
		WithBranch(c.BranchID).
		WithResource("customer", c.ID).
		WithDescription("Created customer " + c.Name))
	return customer.Profile{Customer: c, Membership: m}, nil
}

// ExecuteUpdateCustomer rewrites a customer of the actor's branch and
// recomputes its membership.
// POST: customer.ErrNotFound for customers of other branches; the membership
// keeps its start date unless the subscription type changed
func ExecuteUpdateCustomer(ctx context.Context, input CustomerInput, deps CustomerDeps) (customer.Profile, error) {
	p, err := deps.CustomerStore.GetProfile(ctx, input.BranchID, input.ID)
	if err != nil {
		return customer.Profile{}, err
	}
	now := nowFrom(deps.Now)

	c := p.Customer
	input.apply(&c)
	if err := c.Validate(); err != nil {
		return customer.Profile{}, err
	}

	current := p.Membership
	if current.CustomerID == "" {
		current = customer.Membership{ID: idFrom(deps.GenerateID), CustomerID: c.ID, StartDate: c.JoinDate}
	}
	m, err := current.Renew(c.SubscriptionType, now)
	if err != nil {
		return customer.Profile{}, err
	}

	if err := deps.CustomerStore.UpdateWithMembership(ctx, c, m); err != nil {
		return customer.Profile{}, err
	}

	slog.Info("customer_event", "event", "customer_updated", "customer_id", c.ID, "branch_id", c.BranchID, "membership_status", m.Status)
	recordAudit(ctx, deps.Audit, input.Actor.event(now, audit.CategoryCustomer, audit.ActionUpdate).
		WithBranch(c.BranchID).
		WithResource("customer", c.ID))
	return customer.Profile{Customer: c, Membership: m}, nil
}

// ExecuteDeleteCustomer removes a customer of the actor's branch. Membership,
// attendance, sessions and assignments cascade.
func ExecuteDeleteCustomer(ctx context.Context, input CustomerInput, deps CustomerDeps) error {
	if err := deps.CustomerStore.Delete(ctx, input.BranchID, input.ID); err != nil {
		return err
	}
	slog.Info("customer_event", "event", "customer_deleted", "customer_id", input.ID, "branch_id", input.BranchID)
	recordAudit(ctx, deps.Audit, input.Actor.event(nowFrom(deps.Now), audit.CategoryCustomer, audit.ActionDelete).
		WithSeverity(audit.SeverityWarning).
		WithBranch(input.BranchID).
		WithResource("customer", input.ID))
	return nil
}
