package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	emailAdapter "gymhub/internal/adapters/email"
	"gymhub/internal/domain/account"
	"gymhub/internal/domain/audit"
	"gymhub/internal/domain/branch"
	"gymhub/internal/domain/featureflag"
)

// AccountStoreForProvisioning defines the account store interface needed by
// the branch-admin orchestrators.
type AccountStoreForProvisioning interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	CreateWithGrants(ctx context.Context, a account.Account, grants []featureflag.Grant) error
	Delete(ctx context.Context, id string) error
}

// BranchLookup resolves a branch by ID.
type BranchLookup interface {
	GetByID(ctx context.Context, id string) (branch.Branch, error)
}

// GrantStore persists a single feature toggle.
type GrantStore interface {
	SetGrant(ctx context.Context, g featureflag.Grant) error
}

// CreateBranchAdminInput carries input for creating a branch admin.
type CreateBranchAdminInput struct {
	Name     string
	Email    string
	Password string
	BranchID string
	LoginURL string // included in the welcome email
	Actor    Actor
}

// BranchAdminDeps holds dependencies for the branch-admin orchestrators.
type BranchAdminDeps struct {
	AccountStore AccountStoreForProvisioning
	BranchStore  BranchLookup
	GrantStore   GrantStore
	EmailSender  emailAdapter.Sender // optional: nil skips the welcome email
	Audit        AuditSaver
	GenerateID   func() string
	Now          func() time.Time
}

// ErrNotBranchAdmin is returned when a branch-admin operation targets another kind of account.
var ErrNotBranchAdmin = errors.New("account is not a branch admin")

// ExecuteCreateBranchAdmin creates a branch-admin account with every feature
// enabled and sends a welcome email.
// PRE: Actor is a super admin; BranchID names an existing branch
// POST: Account and its grants exist, or neither does; the welcome email is
// best-effort and its failure is only logged
// INVARIANT: Emails are unique across all accounts
func ExecuteCreateBranchAdmin(ctx context.Context, input CreateBranchAdminInput, deps BranchAdminDeps) (account.Account, error) {
	b, err := deps.BranchStore.GetByID(ctx, input.BranchID)
	if err != nil {
		return account.Account{}, err
	}

	now := nowFrom(deps.Now)
	acct := account.Account{
		ID:         idFrom(deps.GenerateID),
		Name:       strings.TrimSpace(input.Name),
		Email:      account.NormalizeEmail(input.Email),
		Role:       account.RoleBranchAdmin,
		BranchID:   b.ID,
		BranchName: b.Name,
		CreatedAt:  now,
	}
	if err := acct.Validate(); err != nil {
		return account.Account{}, err
	}
	if err := acct.SetPassword(input.Password); err != nil {
		return account.Account{}, err
	}

	if err := deps.AccountStore.CreateWithGrants(ctx, acct, featureflag.DefaultGrants(acct.ID)); err != nil {
		return account.Account{}, err
	}

	slog.Info("auth_event", "event", "branch_admin_created", "account_id", acct.ID, "email", acct.Email, "branch_id", b.ID)
	recordAudit(ctx, deps.Audit, input.Actor.event(now, audit.CategoryAccount, audit.ActionCreate).
		WithBranch(b.ID).
		WithResource("account", acct.ID).
		WithDescription(fmt.Sprintf("Created branch admin %s for %s", acct.Email, b.Name)))

	sendWelcome(ctx, deps.EmailSender, acct, input.LoginURL)
	return acct, nil
}

func sendWelcome(ctx context.Context, sender emailAdapter.Sender, acct account.Account, loginURL string) {
	if sender == nil {
		return
	}
	msg, err := emailAdapter.Welcome{
		Name:     acct.Name,
		Branch:   acct.BranchName,
		Email:    acct.Email,
		LoginURL: loginURL,
	}.Message()
	if err == nil {
		_, err = sender.Send(ctx, msg)
	}
	if err != nil {
		slog.Warn("email_event", "event", "welcome_email_failed", "account_id", acct.ID, "error", err)
	}
}

// DeleteBranchAdminInput carries input for deleting a branch admin.
type DeleteBranchAdminInput struct {
	AccountID string
	Actor     Actor
}

// ExecuteDeleteBranchAdmin removes a branch-admin account and its grants.
// POST: ErrNotBranchAdmin for super admins; account.ErrNotFound if absent
func ExecuteDeleteBranchAdmin(ctx context.Context, input DeleteBranchAdminInput, deps BranchAdminDeps) error {
	acct, err := deps.AccountStore.GetByID(ctx, input.AccountID)
	if err != nil {
		return err
	}
	if !acct.IsBranchAdmin() {
		return ErrNotBranchAdmin
	}
	if err := deps.AccountStore.Delete(ctx, acct.ID); err != nil {
		return err
	}

	slog.Info("auth_event", "event", "branch_admin_deleted", "account_id", acct.ID, "branch_id", acct.BranchID)
	recordAudit(ctx, deps.Audit, input.Actor.event(nowFrom(deps.Now), audit.CategoryAccount, audit.ActionDelete).
		WithSeverity(audit.SeverityWarning).
		WithBranch(acct.BranchID).
		WithResource("account", acct.ID).
		WithDescription("Deleted branch admin " + acct.Email))
	return nil
}

// ToggleFeatureInput carries input for flipping one admin's feature permission.
type ToggleFeatureInput struct {
	AccountID  string
	FeatureKey string
	Enabled    bool
	Actor      Actor
}

// ExecuteToggleFeature enables or disables one feature for one branch admin.
// PRE: Actor is a super admin
// POST: Only the (AccountID, FeatureKey) grant changes; takes effect on the
// admin's next request
func ExecuteToggleFeature(ctx context.Context, input ToggleFeatureInput, deps BranchAdminDeps) error {
	acct, err := deps.AccountStore.GetByID(ctx, input.AccountID)
	if err != nil {
		return err
	}
	if !acct.IsBranchAdmin() {
		return ErrNotBranchAdmin
	}
	g := featureflag.Grant{AccountID: acct.ID, FeatureKey: input.FeatureKey, Enabled: input.Enabled}
	if err := g.Validate(); err != nil {
		return err
	}
	if err := deps.GrantStore.SetGrant(ctx, g); err != nil {
		return err
	}

	slog.Info("feature_event", "event", "feature_toggled", "account_id", acct.ID, "feature", g.FeatureKey, "enabled", g.Enabled)
	state := "disabled"
	if g.Enabled {
		state = "enabled"
	}
	recordAudit(ctx, deps.Audit, input.Actor.event(nowFrom(deps.Now), audit.CategoryFeature, audit.ActionToggle).
		WithBranch(acct.BranchID).
		WithResource("account", acct.ID).
		WithDescription(fmt.Sprintf("Feature %s %s for %s", g.FeatureKey, state, acct.Email)))
	return nil
}
