package customer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"gymhub/internal/adapters/storage/storagetest"
	domain "gymhub/internal/domain/customer"
)

var today = time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)

func create(t *testing.T, store *SQLiteStore, branchID, name, sub string) domain.Customer {
	t.Helper()
	c := domain.Customer{
		ID:               uuid.NewString(),
		BranchID:         branchID,
		Name:             name,
		Phone:            "555-0100",
		SubscriptionType: sub,
		JoinDate:         "2026-03-01",
		Status:           domain.StatusActive,
		CreatedAt:        today,
	}
	m, err := domain.NewMembership(c.ID, sub, c.JoinDate, today)
	if err != nil {
		t.Fatalf("NewMembership: %v", err)
	}
	m.ID = uuid.NewString()
	if err := store.CreateWithMembership(context.Background(), c, m); err != nil {
		t.Fatalf("CreateWithMembership: %v", err)
	}
	return c
}

// TestSQLiteStore_CreateAndProfile verifies the membership is stored with
// the customer and the profile is branch scoped.
func TestSQLiteStore_CreateAndProfile(t *testing.T) {
	db := storagetest.Open(t)
	store := NewSQLiteStore(db)
	ctx := context.Background()
	downtown := storagetest.SeedBranch(t, db, "Downtown")
	uptown := storagetest.SeedBranch(t, db, "Uptown")

	c := create(t, store, downtown, "Ana", domain.SubscriptionSixMonths)

	p, err := store.GetProfile(ctx, downtown, c.ID)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p.Membership.EndDate != "2026-09-01" || p.Membership.Status != domain.MembershipActive {
		t.Errorf("membership = %+v", p.Membership)
	}
	if _, err := store.GetProfile(ctx, uptown, c.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("cross-branch GetProfile = %v, want %v", err, domain.ErrNotFound)
	}
	if _, err := store.GetByID(ctx, uptown, c.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("cross-branch GetByID = %v, want %v", err, domain.ErrNotFound)
	}
}

// TestSQLiteStore_UpdateWithMembership verifies a subscription change
// replaces the single membership row.
func TestSQLiteStore_UpdateWithMembership(t *testing.T) {
	db := storagetest.Open(t)
	store := NewSQLiteStore(db)
	ctx := context.Background()
	branchID := storagetest.SeedBranch(t, db, "Downtown")
	c := create(t, store, branchID, "Ana", domain.SubscriptionMonthly)

	p, _ := store.GetProfile(ctx, branchID, c.ID)
	next, err := p.Membership.Renew(domain.SubscriptionYearly, today)
	if err != nil {
		t.Fatalf("Renew: %v", err)
	}
	c.SubscriptionType = domain.SubscriptionYearly
	if err := store.UpdateWithMembership(ctx, c, next); err != nil {
		t.Fatalf("UpdateWithMembership: %v", err)
	}

	p, _ = store.GetProfile(ctx, branchID, c.ID)
	if p.Customer.SubscriptionType != domain.SubscriptionYearly || p.Membership.EndDate != "2027-03-02" {
		t.Errorf("profile after update = %+v", p)
	}
	if n := storagetest.Count(t, db, "SELECT COUNT(*) FROM memberships WHERE customer_id = ?", c.ID); n != 1 {
		t.Errorf("membership rows = %d, want 1", n)
	}

	c.BranchID = "other"
	if err := store.UpdateWithMembership(ctx, c, next); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("cross-branch update = %v, want %v", err, domain.ErrNotFound)
	}
}

// TestSQLiteStore_ListSearch verifies search, paging and count agree.
func TestSQLiteStore_ListSearch(t *testing.T) {
	db := storagetest.Open(t)
	store := NewSQLiteStore(db)
	ctx := context.Background()
	branchID := storagetest.SeedBranch(t, db, "Downtown")
	other := storagetest.SeedBranch(t, db, "Uptown")
	for _, name := range []string{"Ana Lima", "Ben Ray", "Anabel Cruz"} {
		create(t, store, branchID, name, domain.SubscriptionMonthly)
	}
	create(t, store, other, "Ana Elsewhere", domain.SubscriptionMonthly)

	tests := []struct {
		name   string
		filter ListFilter
		want   []string
		total  int
	}{
		{"all", ListFilter{BranchID: branchID}, []string{"Ana Lima", "Anabel Cruz", "Ben Ray"}, 3},
		{"search", ListFilter{BranchID: branchID, Search: "ana"}, []string{"Ana Lima", "Anabel Cruz"}, 2},
		{"page two", ListFilter{BranchID: branchID, Limit: 2, Offset: 2}, []string{"Ben Ray"}, 3},
		{"status", ListFilter{BranchID: branchID, Status: domain.StatusInactive}, nil, 0},
		{"name desc", ListFilter{BranchID: branchID, Sort: SortName, Desc: true}, []string{"Ben Ray", "Anabel Cruz", "Ana Lima"}, 3},
		{"unknown sort falls back to name", ListFilter{BranchID: branchID, Sort: "password"}, []string{"Ana Lima", "Anabel Cruz", "Ben Ray"}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d rows, want %d", len(got), len(tt.want))
			}
			for i, p := range got {
				if p.Customer.Name != tt.want[i] {
					t.Errorf("row %d = %q, want %q", i, p.Customer.Name, tt.want[i])
				}
			}
			total, err := store.Count(ctx, tt.filter)
			if err != nil || total != tt.total {
				t.Errorf("Count = %d, %v; want %d", total, err, tt.total)
			}
		})
	}
}

// TestSQLiteStore_DeleteCascades verifies deleting a customer removes its
// membership and attendance.
func TestSQLiteStore_DeleteCascades(t *testing.T) {
	db := storagetest.Open(t)
	store := NewSQLiteStore(db)
	ctx := context.Background()
	branchID := storagetest.SeedBranch(t, db, "Downtown")
	c := create(t, store, branchID, "Ana", domain.SubscriptionMonthly)
	storagetest.SeedAttendance(t, db, branchID, c.ID, today, today.Add(time.Hour))

	if err := store.Delete(ctx, "other", c.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("cross-branch Delete = %v, want %v", err, domain.ErrNotFound)
	}
	if err := store.Delete(ctx, branchID, c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	for _, table := range []string{"memberships", "attendance"} {
		if n := storagetest.Count(t, db, "SELECT COUNT(*) FROM "+table+" WHERE customer_id = ?", c.ID); n != 0 {
			t.Errorf("%s rows left = %d, want 0", table, n)
		}
	}
}
