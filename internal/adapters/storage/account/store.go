package account

import (
	"context"

	domain "gymhub/internal/domain/account"
	"gymhub/internal/domain/featureflag"
)

// Store persists Account state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Account, error)
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	Save(ctx context.Context, value domain.Account) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Account, error)
	Count(ctx context.Context, role string) (int, error)
	CreateWithGrants(ctx context.Context, value domain.Account, grants []featureflag.Grant) error
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit    int
	Offset   int
	Role     string
	BranchID string
}

var _ Store = (*SQLiteStore)(nil)
