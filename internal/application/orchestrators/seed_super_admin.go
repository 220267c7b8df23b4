package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"gymhub/internal/domain/account"
)

// AccountStoreForSeed defines the store interface needed by SeedSuperAdmin.
type AccountStoreForSeed interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
	Count(ctx context.Context, role string) (int, error)
}

// SeedSuperAdminInput carries the bootstrap credentials.
type SeedSuperAdminInput struct {
	Name     string
	Email    string
	Password string
}

// SeedSuperAdminDeps holds dependencies for SeedSuperAdmin.
type SeedSuperAdminDeps struct {
	AccountStore AccountStoreForSeed
	GenerateID   func() string
	Now          func() time.Time
}

// ExecuteSeedSuperAdmin creates the first super admin when none exists.
// PRE: Email and Password are configured
// POST: Returns true if an account was created; an existing super admin or
// an existing account with the same email leaves the store unchanged
func ExecuteSeedSuperAdmin(ctx context.Context, input SeedSuperAdminInput, deps SeedSuperAdminDeps) (bool, error) {
	email := account.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return false, nil
	}

	n, err := deps.AccountStore.Count(ctx, account.RoleSuperAdmin)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if _, err := deps.AccountStore.GetByEmail(ctx, email); err == nil {
		return false, account.ErrDuplicateEmail
	} else if !errors.Is(err, account.ErrNotFound) {
		return false, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = "Super Admin"
	}
	acct := account.Account{
		ID:        idFrom(deps.GenerateID),
		Name:      name,
		Email:     email,
		Role:      account.RoleSuperAdmin,
		CreatedAt: nowFrom(deps.Now),
	}
	if err := acct.Validate(); err != nil {
		return false, err
	}
	if err := acct.SetPassword(input.Password); err != nil {
		return false, err
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return false, err
	}

	slog.Info("auth_event", "event", "super_admin_seeded", "email", email)
	return true, nil
}
