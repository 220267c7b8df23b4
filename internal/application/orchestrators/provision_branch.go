package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gymhub/internal/domain/attendance"
	"gymhub/internal/domain/audit"
	"gymhub/internal/domain/branch"
)

// BranchStoreForProvisioning defines the store interface needed by the branch orchestrators.
type BranchStoreForProvisioning interface {
	GetByID(ctx context.Context, id string) (branch.Branch, error)
	Save(ctx context.Context, b branch.Branch) error
	CreateWithSettings(ctx context.Context, b branch.Branch, settings attendance.Settings) error
	Delete(ctx context.Context, id string) error
}

// BranchInput carries the editable branch fields. ID is empty on create.
type BranchInput struct {
	ID      string
	Name    string
	Address string
	Phone   string
	Status  string
	Actor   Actor
}

// BranchDeps holds dependencies for the branch orchestrators.
type BranchDeps struct {
	BranchStore BranchStoreForProvisioning
	Audit       AuditSaver
	GenerateID  func() string
	Now         func() time.Time
}

// ExecuteCreateBranch creates a branch together with its default attendance settings.
// PRE: Actor is a super admin
// POST: Branch and settings rows exist, or neither does
// INVARIANT: Branch names are unique
func ExecuteCreateBranch(ctx context.Context, input BranchInput, deps BranchDeps) (branch.Branch, error) {
	now := nowFrom(deps.Now)
	b := branch.Branch{
		ID:        idFrom(deps.GenerateID),
		Name:      strings.TrimSpace(input.Name),
		Address:   strings.TrimSpace(input.Address),
		Phone:     strings.TrimSpace(input.Phone),
		Status:    input.Status,
		CreatedAt: now,
	}
	if b.Status == "" {
		b.Status = branch.StatusActive
	}
	if err := b.Validate(); err != nil {
		return branch.Branch{}, err
	}

	if err := deps.BranchStore.CreateWithSettings(ctx, b, attendance.DefaultSettings(b.ID)); err != nil {
		return branch.Branch{}, err
	}

	slog.Info("branch_event", "event", "branch_created", "branch_id", b.ID, "name", b.Name, "actor_id", input.Actor.ID)
	recordAudit(ctx, deps.Audit, input.Actor.event(now, audit.CategoryBranch, audit.ActionCreate).
		WithBranch(b.ID).
		WithResource("branch", b.ID).
		WithDescription(fmt.Sprintf("Created branch %q", b.Name)))
	return b, nil
}

// ExecuteUpdateBranch rewrites a branch's editable fields.
// PRE: input.ID names an existing branch
// POST: Branch updated; branch.ErrNotFound if absent
func ExecuteUpdateBranch(ctx context.Context, input BranchInput, deps BranchDeps) (branch.Branch, error) {
	b, err := deps.BranchStore.GetByID(ctx, input.ID)
	if err != nil {
		return branch.Branch{}, err
	}
	b.Name = strings.TrimSpace(input.Name)
	b.Address = strings.TrimSpace(input.Address)
	b.Phone = strings.TrimSpace(input.Phone)
	if input.Status != "" {
		b.Status = input.Status
	}
	if err := b.Validate(); err != nil {
		return branch.Branch{}, err
	}
	if err := deps.BranchStore.Save(ctx, b); err != nil {
		return branch.Branch{}, err
	}

	slog.Info("branch_event", "event", "branch_updated", "branch_id", b.ID, "status", b.Status, "actor_id", input.Actor.ID)
	recordAudit(ctx, deps.Audit, input.Actor.event(nowFrom(deps.Now), audit.CategoryBranch, audit.ActionUpdate).
		WithBranch(b.ID).
		WithResource("branch", b.ID).
		WithDescription(fmt.Sprintf("Updated branch %q", b.Name)))
	return b, nil
}

// ExecuteDeleteBranch removes a branch that no longer has customers,
// trainers or admins.
// POST: branch.ErrNotEmpty while dependents remain
func ExecuteDeleteBranch(ctx context.Context, input BranchInput, deps BranchDeps) error {
	if input.ID == "" {
		return branch.ErrNotFound
	}
	err := deps.BranchStore.Delete(ctx, input.ID)
	if errors.Is(err, branch.ErrNotEmpty) {
		slog.Info("branch_event", "event", "branch_delete_refused", "branch_id", input.ID, "reason", "not_empty")
		return err
	}
	if err != nil {
		return err
	}

	slog.Info("branch_event", "event", "branch_deleted", "branch_id", input.ID, "actor_id", input.Actor.ID)
	recordAudit(ctx, deps.Audit, input.Actor.event(nowFrom(deps.Now), audit.CategoryBranch, audit.ActionDelete).
		WithSeverity(audit.SeverityWarning).
		WithBranch(input.ID).
		WithResource("branch", input.ID))
	return nil
}
