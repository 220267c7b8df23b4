package featureflag

import (
	"context"

	domain "gymhub/internal/domain/featureflag"
)

// Store persists the feature catalog and per-admin grants.
type Store interface {
	ListFeatures(ctx context.Context) ([]domain.Feature, error)
	ListGrants(ctx context.Context, accountID string) ([]domain.Grant, error)
	ListAllGrants(ctx context.Context) (map[string]domain.Permissions, error)
	SetGrant(ctx context.Context, grant domain.Grant) error
}

var _ Store = (*SQLiteStore)(nil)
