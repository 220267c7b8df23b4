package customer_test

import (
	"testing"
	"time"

	"gymhub/internal/domain/customer"
)

func validCustomer() customer.Customer {
	return customer.Customer{
		ID:               "c1",
		BranchID:         "b1",
		Name:             "Ana Lima",
		Email:            "ana@example.com",
		SubscriptionType: customer.SubscriptionMonthly,
		JoinDate:         "2026-01-15",
		Status:           customer.StatusActive,
	}
}

// TestCustomer_Validate tests validation of Customer.
func TestCustomer_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *customer.Customer)
		wantErr error
	}{
		{"valid", func(c *customer.Customer) {}, nil},
		{"email optional", func(c *customer.Customer) { c.Email = "" }, nil},
		{"empty name", func(c *customer.Customer) { c.Name = "" }, customer.ErrEmptyName},
		{"bad email", func(c *customer.Customer) { c.Email = "ana" }, customer.ErrInvalidEmail},
		{"no branch", func(c *customer.Customer) { c.BranchID = "" }, customer.ErrMissingBranch},
		{"bad subscription", func(c *customer.Customer) { c.SubscriptionType = "weekly" }, customer.ErrInvalidSubscription},
		{"bad status", func(c *customer.Customer) { c.Status = "archived" }, customer.ErrInvalidStatus},
		{"bad join date", func(c *customer.Customer) { c.JoinDate = "15/01/2026" }, customer.ErrInvalidJoinDate},
		{"bad gender", func(c *customer.Customer) { c.Gender = "x" }, customer.ErrInvalidGender},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCustomer()
			tt.mutate(&c)
			if err := c.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestNewMembership tests end-date derivation per subscription type.
func TestNewMembership(t *testing.T) {
	today := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		subscription string
		start        string
		wantEnd      string
		wantStatus   string
	}{
		{customer.SubscriptionMonthly, "2026-01-15", "2026-02-15", customer.MembershipActive},
		{customer.SubscriptionSixMonths, "2026-01-15", "2026-07-15", customer.MembershipActive},
		{customer.SubscriptionYearly, "2026-01-15", "2027-01-15", customer.MembershipActive},
		{customer.SubscriptionMonthly, "2025-11-01", "2025-12-01", customer.MembershipExpired},
	}

	for _, tt := range tests {
		t.Run(tt.subscription+"_"+tt.start, func(t *testing.T) {
			m, err := customer.NewMembership("c1", tt.subscription, tt.start, today)
			if err != nil {
				t.Fatalf("NewMembership failed: %v", err)
			}
			if m.EndDate != tt.wantEnd {
				t.Errorf("EndDate = %q, want %q", m.EndDate, tt.wantEnd)
			}
			if m.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", m.Status, tt.wantStatus)
			}
		})
	}

	if _, err := customer.NewMembership("c1", "weekly", "2026-01-15", today); err != customer.ErrInvalidSubscription {
		t.Errorf("invalid subscription error = %v, want %v", err, customer.ErrInvalidSubscription)
	}
}

// TestMembership_StatusOnEndDate tests that the end date itself is still active.
func TestMembership_StatusOnEndDate(t *testing.T) {
	m := customer.Membership{EndDate: "2026-02-15"}
	if got := m.StatusOn(time.Date(2026, 2, 15, 23, 0, 0, 0, time.UTC)); got != customer.MembershipActive {
		t.Errorf("StatusOn(end date) = %q, want active", got)
	}
	if got := m.StatusOn(time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)); got != customer.MembershipExpired {
		t.Errorf("StatusOn(day after) = %q, want expired", got)
	}
}

// TestMembership_Renew tests that changing the subscription restarts the period.
func TestMembership_Renew(t *testing.T) {
	today := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	current := customer.Membership{ID: "m1", CustomerID: "c1", Type: customer.SubscriptionMonthly, StartDate: "2026-03-01", EndDate: "2026-04-01"}

	same, err := current.Renew(customer.SubscriptionMonthly, today)
	if err != nil {
		t.Fatalf("Renew failed: %v", err)
	}
	if same.StartDate != "2026-03-01" || same.ID != "m1" {
		t.Errorf("unchanged type should keep start and id, got start=%q id=%q", same.StartDate, same.ID)
	}

	upgraded, err := current.Renew(customer.SubscriptionYearly, today)
	if err != nil {
		t.Fatalf("Renew failed: %v", err)
	}
	if upgraded.StartDate != "2026-03-10" || upgraded.EndDate != "2027-03-10" {
		t.Errorf("upgraded period = %s..%s, want 2026-03-10..2027-03-10", upgraded.StartDate, upgraded.EndDate)
	}
}
