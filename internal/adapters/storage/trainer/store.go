package trainer

import (
	"context"

	domain "gymhub/internal/domain/trainer"
)

// Store persists trainers, scoped to a branch.
type Store interface {
	GetByID(ctx context.Context, branchID, id string) (domain.Trainer, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Trainer, error)
	Create(ctx context.Context, value domain.Trainer) error
	Update(ctx context.Context, value domain.Trainer) error
	Delete(ctx context.Context, branchID, id string) error
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	BranchID string
	Status   string
	Search   string
}

var _ Store = (*SQLiteStore)(nil)
