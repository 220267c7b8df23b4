package featureflag

import "errors"

// Feature is an area of the branch-admin UI that a super admin can switch
// on or off per admin.
//
// Key is stable and referenced by code (routes/templates).
type Feature struct {
	Key         string
	Name        string
	Description string
}

// Grant is one admin's permission for one feature.
type Grant struct {
	AccountID  string
	FeatureKey string
	Enabled    bool
}

var (
	ErrMissingKey     = errors.New("feature key is required")
	ErrMissingAccount = errors.New("feature grant must belong to an account")
	ErrUnknownFeature = errors.New("unknown feature")
)

// Validate checks required fields for a Feature.
// PRE: Feature struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (f *Feature) Validate() error {
	if f.Key == "" {
		return ErrMissingKey
	}
	return nil
}

// Validate checks required fields for a Grant.
func (g *Grant) Validate() error {
	if g.AccountID == "" {
		return ErrMissingAccount
	}
	if !IsKnown(g.FeatureKey) {
		return ErrUnknownFeature
	}
	return nil
}

// Permissions is the set of enabled feature keys for one admin.
type Permissions map[string]bool

// FromGrants builds Permissions from stored grants.
func FromGrants(grants []Grant) Permissions {
	p := make(Permissions, len(grants))
	for _, g := range grants {
		p[g.FeatureKey] = g.Enabled
	}
	return p
}

// Allows returns true if the feature is enabled. Missing keys are denied.
//
// INVARIANT: p is not mutated
func (p Permissions) Allows(key string) bool {
	return p[key]
}
