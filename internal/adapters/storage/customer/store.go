package customer

import (
	"context"

	domain "gymhub/internal/domain/customer"
)

// Store persists customers and their memberships. Every read and write is
// scoped to a branch.
type Store interface {
	GetByID(ctx context.Context, branchID, id string) (domain.Customer, error)
	GetProfile(ctx context.Context, branchID, id string) (domain.Profile, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Profile, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	CreateWithMembership(ctx context.Context, c domain.Customer, m domain.Membership) error
	UpdateWithMembership(ctx context.Context, c domain.Customer, m domain.Membership) error
	Delete(ctx context.Context, branchID, id string) error
}

// ListFilter carries filtering parameters for List and Count.
type ListFilter struct {
	BranchID string
	Search   string // matches name, email or phone
	Status   string
	Sort     string // one of SortColumns; empty sorts by name
	Desc     bool
	Limit    int
	Offset   int
}

// Sortable list columns.
const (
	SortName       = "name"
	SortJoinDate   = "join_date"
	SortMemberTill = "end_date"
	SortStatus     = "status"
)

// SortColumns lists the columns List can order by.
var SortColumns = []string{SortName, SortJoinDate, SortMemberTill, SortStatus}

var _ Store = (*SQLiteStore)(nil)
