package featureflag

import (
	"context"

	"gymhub/internal/adapters/storage"
	domain "gymhub/internal/domain/featureflag"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new feature permission store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// ListFeatures returns the persisted feature catalog in catalog order.
// INVARIANT: Store state is not mutated
func (s *SQLiteStore) ListFeatures(ctx context.Context) ([]domain.Feature, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, name, description FROM features")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byKey := map[string]domain.Feature{}
	for rows.Next() {
		var f domain.Feature
		if err := rows.Scan(&f.Key, &f.Name, &f.Description); err != nil {
			return nil, err
		}
		byKey[f.Key] = f
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := []domain.Feature{}
	for _, f := range domain.Catalog() {
		if stored, ok := byKey[f.Key]; ok {
			out = append(out, stored)
		}
	}
	return out, nil
}

// ListGrants returns one admin's grants.
// INVARIANT: Store state is not mutated
func (s *SQLiteStore) ListGrants(ctx context.Context, accountID string) ([]domain.Grant, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT account_id, feature_key, enabled FROM admin_features WHERE account_id = ? ORDER BY feature_key", accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Grant
	for rows.Next() {
		var g domain.Grant
		var enabled int
		if err := rows.Scan(&g.AccountID, &g.FeatureKey, &enabled); err != nil {
			return nil, err
		}
		g.Enabled = enabled == 1
		out = append(out, g)
	}
	return out, rows.Err()
}

// ListAllGrants returns every admin's permissions keyed by account ID.
func (s *SQLiteStore) ListAllGrants(ctx context.Context) (map[string]domain.Permissions, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT account_id, feature_key, enabled FROM admin_features")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]domain.Permissions{}
	for rows.Next() {
		var accountID, key string
		var enabled int
		if err := rows.Scan(&accountID, &key, &enabled); err != nil {
			return nil, err
		}
		if out[accountID] == nil {
			out[accountID] = domain.Permissions{}
		}
		out[accountID][key] = enabled == 1
	}
	return out, rows.Err()
}

// SetGrant upserts one (admin, feature) toggle.
// PRE: grant has been validated
// POST: only the named pair is modified
func (s *SQLiteStore) SetGrant(ctx context.Context, g domain.Grant) error {
	if err := g.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO admin_features (account_id, feature_key, enabled) VALUES (?, ?, ?)
		 ON CONFLICT(account_id, feature_key) DO UPDATE SET enabled = excluded.enabled`,
		g.AccountID, g.FeatureKey, storage.BoolInt(g.Enabled))
	return err
}
