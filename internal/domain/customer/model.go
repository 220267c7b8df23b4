package customer

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the storage and form format for calendar dates.
const DateLayout = "2006-01-02"

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
)

// Status constants
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Subscription types
const (
	SubscriptionMonthly   = "monthly"
	SubscriptionSixMonths = "six_months"
	SubscriptionYearly    = "yearly"
)

// Gender values (optional field)
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// ValidSubscriptions contains all valid subscription types.
var ValidSubscriptions = []string{SubscriptionMonthly, SubscriptionSixMonths, SubscriptionYearly}

// Domain errors
var (
	ErrEmptyName           = errors.New("customer name cannot be empty")
	ErrNameTooLong         = errors.New("customer name cannot exceed 100 characters")
	ErrInvalidEmail        = errors.New("customer email must be valid")
	ErrMissingBranch       = errors.New("customer must belong to a branch")
	ErrInvalidSubscription = errors.New("subscription type must be monthly, six_months or yearly")
	ErrInvalidStatus       = errors.New("status must be 'active' or 'inactive'")
	ErrInvalidJoinDate     = errors.New("join date must be YYYY-MM-DD")
	ErrInvalidGender       = errors.New("gender must be male, female or other")
	ErrNotFound            = errors.New("customer not found")
)

// Customer is a gym member. Every customer belongs to exactly one branch.
type Customer struct {
	ID               string
	BranchID         string
	Name             string
	Email            string // optional
	Phone            string
	Gender           string // optional
	SubscriptionType string
	JoinDate         string // YYYY-MM-DD
	Status           string
	CreatedAt        time.Time
}

// Validate checks if the Customer has valid data.
// PRE: Customer struct is populated
// POST: Returns nil if valid, error otherwise
func (c *Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return ErrInvalidEmail
	}
	if c.BranchID == "" {
		return ErrMissingBranch
	}
	if _, ok := subscriptionMonths[c.SubscriptionType]; !ok {
		return ErrInvalidSubscription
	}
	if c.Status != StatusActive && c.Status != StatusInactive {
		return ErrInvalidStatus
	}
	if _, err := time.Parse(DateLayout, c.JoinDate); err != nil {
		return ErrInvalidJoinDate
	}
	switch c.Gender {
	case "", GenderMale, GenderFemale, GenderOther:
	default:
		return ErrInvalidGender
	}
	return nil
}

// IsActive returns true if the customer may check in.
func (c *Customer) IsActive() bool {
	return c.Status == StatusActive
}
