// Package account holds the two kinds of login: the super admin who runs
// every branch, and branch admins confined to one branch.
package account

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	MaxEmailLength = 254
	MaxNameLength  = 100
	MinPassword    = 8
)

const (
	RoleSuperAdmin  = "superadmin"
	RoleBranchAdmin = "branch_admin"
)

// MaxFailedLogins consecutive wrong passwords lock an account for
// LockoutDuration.
const (
	MaxFailedLogins = 5
	LockoutDuration = 15 * time.Minute
)

var (
	ErrEmptyEmail       = errors.New("email cannot be empty")
	ErrInvalidEmail     = errors.New("email must contain '@'")
	ErrEmptyName        = errors.New("name cannot be empty")
	ErrNameTooLong      = errors.New("name cannot exceed 100 characters")
	ErrEmailTooLong     = errors.New("email cannot exceed 254 characters")
	ErrInvalidRole      = errors.New("role must be one of: superadmin, branch_admin")
	ErrMissingBranch    = errors.New("branch admins must be assigned to a branch")
	ErrUnexpectedBranch = errors.New("super admins cannot be assigned to a branch")
	ErrEmptyPassword    = errors.New("password cannot be empty")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrWrongPassword    = errors.New("incorrect password")
	ErrLocked           = errors.New("account is locked")
	ErrNotFound         = errors.New("account not found")
	ErrDuplicateEmail   = errors.New("an account with this email already exists")
)

// Account is a login for either a super admin or a branch admin.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	BranchID     string // empty for super admins
	BranchName   string // display only, filled by store reads
	CreatedAt    time.Time
	FailedLogins int
	LockedUntil  time.Time
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks the account before it is stored.
// INVARIANT: branch admins always carry a BranchID, super admins never do
func (a *Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if strings.TrimSpace(a.Email) == "" {
		return ErrEmptyEmail
	}
	if len(a.Email) > MaxEmailLength {
		return ErrEmailTooLong
	}
	if !strings.Contains(a.Email, "@") {
		return ErrInvalidEmail
	}
	switch a.Role {
	case RoleBranchAdmin:
		if a.BranchID == "" {
			return ErrMissingBranch
		}
	case RoleSuperAdmin:
		if a.BranchID != "" {
			return ErrUnexpectedBranch
		}
	default:
		return ErrInvalidRole
	}
	return nil
}

// SetPassword hashes and stores a password using bcrypt.
// PRE: plaintext is non-empty and >= MinPassword characters
// POST: PasswordHash is set to bcrypt hash
func (a *Account) SetPassword(plaintext string) error {
	if plaintext == "" {
		return ErrEmptyPassword
	}
	if len(plaintext) < MinPassword {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
// INVARIANT: Account fields are not mutated
func (a *Account) CheckPassword(plaintext string) error {
	if a.PasswordHash == "" {
		return ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(plaintext)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// IsLocked reports whether the account is locked at now.
func (a *Account) IsLocked(now time.Time) bool {
	return !a.LockedUntil.IsZero() && now.Before(a.LockedUntil)
}

// Authenticate checks plaintext at now and moves the lockout state along:
// a wrong password counts toward MaxFailedLogins, a right one clears the
// count. dirty reports whether the account changed and must be saved.
// POST: ErrLocked while locked, without checking the password;
// ErrWrongPassword on mismatch
func (a *Account) Authenticate(plaintext string, now time.Time) (dirty bool, err error) {
	if a.IsLocked(now) {
		return false, ErrLocked
	}
	if err := a.CheckPassword(plaintext); err != nil {
		a.FailedLogins++
		if a.FailedLogins >= MaxFailedLogins {
			a.LockedUntil = now.Add(LockoutDuration)
		}
		return true, err
	}
	if a.FailedLogins == 0 && a.LockedUntil.IsZero() {
		return false, nil
	}
	a.FailedLogins = 0
	a.LockedUntil = time.Time{}
	return true, nil
}

func (a *Account) IsSuperAdmin() bool {
	return a.Role == RoleSuperAdmin
}

func (a *Account) IsBranchAdmin() bool {
	return a.Role == RoleBranchAdmin
}
