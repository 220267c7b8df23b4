package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gymhub/internal/domain/account"
	"gymhub/internal/domain/audit"
)

// AccountStoreForLogin defines the store interface needed by Login.
type AccountStoreForLogin interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
	IP       string
}

// LoginResult carries what the session needs after a successful login.
type LoginResult struct {
	AccountID  string
	Name       string
	Email      string
	Role       string
	BranchID   string
	BranchName string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	AccountStore AccountStoreForLogin
	Audit        AuditSaver
	Counter      EventCounter
	Now          func() time.Time
}

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is locked after too many failed attempts, try again later")
)

// ExecuteLogin validates credentials and returns account info for session creation.
// PRE: Valid email and password provided
// POST: Returns account info on success; failed attempts are counted and
// lock the account for account.LockoutDuration after account.MaxFailedLogins
// INVARIANT: A locked account cannot log in even with the right password
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	email := account.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}
	now := nowFrom(deps.Now)

	acct, err := deps.AccountStore.GetByEmail(ctx, email)
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "email", email, "reason", "not_found")
		count(deps.Counter, EventLoginFailed, 1)
		return LoginResult{}, ErrInvalidCredentials
	}

	dirty, authErr := acct.Authenticate(input.Password, now)
	if dirty {
		if err := deps.AccountStore.Save(ctx, acct); err != nil {
			slog.Error("auth_event", "event", "login_state_save_failed", "email", email, "error", err)
		}
	}
	switch {
	case errors.Is(authErr, account.ErrLocked):
		slog.Info("auth_event", "event", "login_blocked", "email", email, "reason", "locked")
		return LoginResult{}, ErrAccountLocked
	case authErr != nil:
		count(deps.Counter, EventLoginFailed, 1)
		slog.Info("auth_event", "event", "login_failed", "email", email, "reason", "wrong_password", "failed_logins", acct.FailedLogins)
		if acct.IsLocked(now) {
			count(deps.Counter, EventLoginLocked, 1)
			actor := Actor{ID: acct.ID, Email: acct.Email, Role: acct.Role, IP: input.IP}
			recordAudit(ctx, deps.Audit, actor.event(now, audit.CategorySecurity, audit.ActionLogin).
				WithSeverity(audit.SeverityWarning).
				WithBranch(acct.BranchID).
				WithResource("account", acct.ID).
				WithDescription("Account locked after repeated failed logins"))
		}
		return LoginResult{}, ErrInvalidCredentials
	}

	slog.Info("auth_event", "event", "login_success", "email", acct.Email, "role", acct.Role, "branch_id", acct.BranchID)
	actor := Actor{ID: acct.ID, Email: acct.Email, Role: acct.Role, IP: input.IP}
	recordAudit(ctx, deps.Audit, actor.event(now, audit.CategorySecurity, audit.ActionLogin).
		WithBranch(acct.BranchID).
		WithResource("account", acct.ID))

	return LoginResult{
		AccountID:  acct.ID,
		Name:       acct.Name,
		Email:      acct.Email,
		Role:       acct.Role,
		BranchID:   acct.BranchID,
		BranchName: acct.BranchName,
	}, nil
}
