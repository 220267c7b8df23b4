package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"gymhub/internal/domain/customer"
)

// mockCustomerStore implements CustomerStoreForOrchestrator in memory.
type mockCustomerStore struct {
	profiles map[string]customer.Profile
}

func (m *mockCustomerStore) GetProfile(_ context.Context, branchID, id string) (customer.Profile, error) {
	p, ok := m.profiles[id]
	if !ok || p.Customer.BranchID != branchID {
		return customer.Profile{}, customer.ErrNotFound
	}
	return p, nil
}

func (m *mockCustomerStore) CreateWithMembership(_ context.Context, c customer.Customer, ms customer.Membership) error {
	m.profiles[c.ID] = customer.Profile{Customer: c, Membership: ms}
	return nil
}

func (m *mockCustomerStore) UpdateWithMembership(_ context.Context, c customer.Customer, ms customer.Membership) error {
	m.profiles[c.ID] = customer.Profile{Customer: c, Membership: ms}
	return nil
}

func (m *mockCustomerStore) Delete(_ context.Context, branchID, id string) error {
	if _, err := m.GetProfile(context.Background(), branchID, id); err != nil {
		return err
	}
	delete(m.profiles, id)
	return nil
}

// TestExecuteCustomer_MembershipLifecycle covers membership derivation on create and update.
func TestExecuteCustomer_MembershipLifecycle(t *testing.T) {
	store := &mockCustomerStore{profiles: map[string]customer.Profile{}}
	now := testNow
	deps := CustomerDeps{CustomerStore: store, Audit: &recordingAudit{}, GenerateID: seqIDs("cu"), Now: func() time.Time { return now }}
	ctx := context.Background()

	p, err := ExecuteCreateCustomer(ctx, CustomerInput{BranchID: "downtown", Name: "Ana", Phone: "555", SubscriptionType: customer.SubscriptionMonthly}, deps)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Customer.JoinDate != "2026-03-02" || p.Membership.StartDate != "2026-03-02" || p.Membership.EndDate != "2026-04-02" {
		t.Errorf("membership = %+v", p.Membership)
	}
	if p.Membership.Status != customer.MembershipActive {
		t.Errorf("status = %q", p.Membership.Status)
	}

	now = testNow.AddDate(0, 0, 10)
	same, err := ExecuteUpdateCustomer(ctx, CustomerInput{ID: p.Customer.ID, BranchID: "downtown", Name: "Ana B", Phone: "555", SubscriptionType: customer.SubscriptionMonthly}, deps)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if same.Membership.StartDate != "2026-03-02" || same.Membership.ID != p.Membership.ID {
		t.Errorf("unchanged subscription moved membership: %+v", same.Membership)
	}

	switched, err := ExecuteUpdateCustomer(ctx, CustomerInput{ID: p.Customer.ID, BranchID: "downtown", Name: "Ana B", Phone: "555", SubscriptionType: customer.SubscriptionYearly}, deps)
	if err != nil {
		t.Fatalf("switch: %v", err)
	}
	if switched.Membership.StartDate != "2026-03-12" || switched.Membership.EndDate != "2027-03-12" {
		t.Errorf("switched membership = %+v", switched.Membership)
	}

	now = testNow.AddDate(2, 0, 0)
	expired, err := ExecuteUpdateCustomer(ctx, CustomerInput{ID: p.Customer.ID, BranchID: "downtown", Name: "Ana B", Phone: "555", SubscriptionType: customer.SubscriptionYearly}, deps)
	if err != nil {
		t.Fatal(err)
	}
	if expired.Membership.Status != customer.MembershipExpired {
		t.Errorf("status = %q, want expired", expired.Membership.Status)
	}

	if _, err := ExecuteUpdateCustomer(ctx, CustomerInput{ID: p.Customer.ID, BranchID: "uptown", Name: "X", SubscriptionType: customer.SubscriptionYearly}, deps); !errors.Is(err, customer.ErrNotFound) {
		t.Errorf("cross-branch update = %v", err)
	}
	if err := ExecuteDeleteCustomer(ctx, CustomerInput{ID: p.Customer.ID, BranchID: "uptown"}, deps); !errors.Is(err, customer.ErrNotFound) {
		t.Errorf("cross-branch delete = %v", err)
	}
	if err := ExecuteDeleteCustomer(ctx, CustomerInput{ID: p.Customer.ID, BranchID: "downtown"}, deps); err != nil {
		t.Errorf("delete = %v", err)
	}
}

// TestExecuteCreateCustomer_Invalid verifies validation stops the write.
func TestExecuteCreateCustomer_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		in      CustomerInput
		wantErr error
	}{
		{"no name", CustomerInput{BranchID: "downtown", SubscriptionType: customer.SubscriptionMonthly}, customer.ErrEmptyName},
		{"bad subscription", CustomerInput{BranchID: "downtown", Name: "Ana", SubscriptionType: "weekly"}, customer.ErrInvalidSubscription},
		{"bad join date", CustomerInput{BranchID: "downtown", Name: "Ana", SubscriptionType: customer.SubscriptionMonthly, JoinDate: "02/03/2026"}, customer.ErrInvalidJoinDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockCustomerStore{profiles: map[string]customer.Profile{}}
			_, err := ExecuteCreateCustomer(context.Background(), tt.in, CustomerDeps{CustomerStore: store, Now: clockAt(testNow)})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if len(store.profiles) != 0 {
				t.Error("customer written despite error")
			}
		})
	}
}
