package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gymhub/internal/domain/account"
	"gymhub/internal/domain/audit"
)

// ChangePasswordInput carries a signed-in admin's password change.
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
	Actor           Actor
}

// AccountStoreForChangePassword defines the store interface needed by ChangePassword.
type AccountStoreForChangePassword interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// ChangePasswordDeps holds dependencies for ChangePassword.
type ChangePasswordDeps struct {
	AccountStore AccountStoreForChangePassword
	Audit        AuditSaver
	Now          func() time.Time
}

var (
	ErrCurrentPasswordWrong = errors.New("current password is incorrect")
	ErrNewPasswordSame      = errors.New("new password must be different from the current password")
)

// ExecuteChangePassword replaces the actor's own password.
// PRE: Actor.ID is the signed-in account
// POST: the new bcrypt hash is stored and a security audit event recorded;
// a wrong current password changes nothing but is audited as a warning
func ExecuteChangePassword(ctx context.Context, input ChangePasswordInput, deps ChangePasswordDeps) error {
	acct, err := deps.AccountStore.GetByID(ctx, input.Actor.ID)
	if err != nil {
		return err
	}
	now := nowFrom(deps.Now)
	if err := acct.CheckPassword(input.CurrentPassword); err != nil {
		slog.Info("auth_event", "event", "password_change_refused", "account_id", acct.ID)
		recordAudit(ctx, deps.Audit, input.Actor.event(now, audit.CategorySecurity, audit.ActionUpdate).
			WithSeverity(audit.SeverityWarning).
			WithBranch(acct.BranchID).
			WithResource("account", acct.ID).
			WithDescription("Password change refused: wrong current password"))
		return ErrCurrentPasswordWrong
	}
	if input.CurrentPassword == input.NewPassword {
		return ErrNewPasswordSame
	}
	if err := acct.SetPassword(input.NewPassword); err != nil {
		return err
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return err
	}

	slog.Info("auth_event", "event", "password_changed", "account_id", acct.ID)
	recordAudit(ctx, deps.Audit, input.Actor.event(now, audit.CategorySecurity, audit.ActionUpdate).
		WithBranch(acct.BranchID).
		WithResource("account", acct.ID).
		WithDescription("Password changed"))
	return nil
}
