package projections

import (
	"context"
	"time"

	"gymhub/internal/adapters/storage/audit"
	domainAudit "gymhub/internal/domain/audit"
	domainBranch "gymhub/internal/domain/branch"
)

// recentAuditLimit is how many audit events the dashboard shows.
const recentAuditLimit = 10

// SuperDashboardTotals sums the per-branch counts.
type SuperDashboardTotals struct {
	Branches      int
	Customers     int
	Trainers      int
	Admins        int
	OpenCheckIns  int
	TodayCheckIns int
}

// GetSuperDashboardResult carries the query result.
type GetSuperDashboardResult struct {
	Branches    []domainBranch.Summary
	Totals      SuperDashboardTotals
	RecentAudit []domainAudit.Event
}

// GetSuperDashboardDeps holds dependencies for GetSuperDashboard.
type GetSuperDashboardDeps struct {
	BranchStore BranchStore
	AuditStore  AuditStore
	Now         func() time.Time
}

// QueryGetSuperDashboard returns per-branch counts plus the latest audit events.
// PRE: caller is a super admin
// POST: Totals equal the sums over Branches
func QueryGetSuperDashboard(ctx context.Context, deps GetSuperDashboardDeps) (GetSuperDashboardResult, error) {
	summaries, err := deps.BranchStore.Summaries(ctx, nowFrom(deps.Now))
	if err != nil {
		return GetSuperDashboardResult{}, err
	}

	result := GetSuperDashboardResult{Branches: summaries}
	result.Totals.Branches = len(summaries)
	for _, s := range summaries {
		result.Totals.Customers += s.Customers
		result.Totals.Trainers += s.Trainers
		result.Totals.Admins += s.Admins
		result.Totals.OpenCheckIns += s.OpenCheckIns
		result.Totals.TodayCheckIns += s.TodayCheckIns
	}

	if deps.AuditStore != nil {
		events, err := deps.AuditStore.List(ctx, audit.Filter{}, recentAuditLimit)
		if err != nil {
			return GetSuperDashboardResult{}, err
		}
		result.RecentAudit = events
	}
	return result, nil
}
