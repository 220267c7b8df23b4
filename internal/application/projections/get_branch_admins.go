package projections

import (
	"context"

	"gymhub/internal/adapters/storage/account"
	domainAccount "gymhub/internal/domain/account"
	domainBranch "gymhub/internal/domain/branch"
	domainFeature "gymhub/internal/domain/featureflag"
)

// BranchAdminRow is one admin with its feature toggles in catalog order.
type BranchAdminRow struct {
	Account  domainAccount.Account
	Features []FeatureToggle
}

// FeatureToggle is the state of one feature for one admin.
type FeatureToggle struct {
	Key     string
	Name    string
	Enabled bool
}

// GetBranchAdminsQuery carries query parameters.
type GetBranchAdminsQuery struct {
	BranchID string // optional filter
}

// GetBranchAdminsResult carries the query result.
type GetBranchAdminsResult struct {
	Admins   []BranchAdminRow
	Features []domainFeature.Feature
	Branches []domainBranch.Branch // for the create form
}

// GetBranchAdminsDeps holds dependencies for GetBranchAdmins.
type GetBranchAdminsDeps struct {
	AccountStore AccountStore
	FeatureStore FeatureStore
	BranchStore  BranchStore
}

// QueryGetBranchAdmins lists branch admins with their permission toggles.
// PRE: caller is a super admin
// POST: every admin lists every catalog feature; missing grants show as disabled
func QueryGetBranchAdmins(ctx context.Context, query GetBranchAdminsQuery, deps GetBranchAdminsDeps) (GetBranchAdminsResult, error) {
	admins, err := deps.AccountStore.List(ctx, account.ListFilter{
		Role:     domainAccount.RoleBranchAdmin,
		BranchID: query.BranchID,
	})
	if err != nil {
		return GetBranchAdminsResult{}, err
	}
	features, err := deps.FeatureStore.ListFeatures(ctx)
	if err != nil {
		return GetBranchAdminsResult{}, err
	}
	grants, err := deps.FeatureStore.ListAllGrants(ctx)
	if err != nil {
		return GetBranchAdminsResult{}, err
	}
	branches, err := deps.BranchStore.List(ctx)
	if err != nil {
		return GetBranchAdminsResult{}, err
	}

	rows := make([]BranchAdminRow, 0, len(admins))
	for _, a := range admins {
		perms := grants[a.ID]
		row := BranchAdminRow{Account: a, Features: make([]FeatureToggle, 0, len(features))}
		for _, f := range features {
			row.Features = append(row.Features, FeatureToggle{Key: f.Key, Name: f.Name, Enabled: perms.Allows(f.Key)})
		}
		rows = append(rows, row)
	}
	return GetBranchAdminsResult{Admins: rows, Features: features, Branches: branches}, nil
}
