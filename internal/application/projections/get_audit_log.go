package projections

import (
	"context"

	"gymhub/internal/adapters/storage/audit"
	domainAudit "gymhub/internal/domain/audit"
)

// DefaultAuditLimit is the page size of the audit log view.
const DefaultAuditLimit = 200

// GetAuditLogQuery carries query parameters. Empty fields do not filter.
type GetAuditLogQuery struct {
	Category string
	BranchID string
	From     string // YYYY-MM-DD
	To       string // YYYY-MM-DD
	Limit    int
}

// GetAuditLogResult carries the query result.
type GetAuditLogResult struct {
	Events     []domainAudit.Event
	Categories []domainAudit.Category
	Query      GetAuditLogQuery
}

// GetAuditLogDeps holds dependencies for GetAuditLog.
type GetAuditLogDeps struct {
	AuditStore AuditStore
}

// QueryGetAuditLog returns audit events newest first.
// PRE: caller is a super admin
// POST: at most Limit events (DefaultAuditLimit when unset); an unknown
// category is ignored
func QueryGetAuditLog(ctx context.Context, query GetAuditLogQuery, deps GetAuditLogDeps) (GetAuditLogResult, error) {
	if query.Limit <= 0 {
		query.Limit = DefaultAuditLimit
	}
	filter := audit.Filter{BranchID: query.BranchID, From: query.From, To: query.To}
	if c, ok := domainAudit.ParseCategory(query.Category); ok {
		filter.Category = c
	} else {
		query.Category = ""
	}

	events, err := deps.AuditStore.List(ctx, filter, query.Limit)
	if err != nil {
		return GetAuditLogResult{}, err
	}
	return GetAuditLogResult{Events: events, Categories: domainAudit.Categories(), Query: query}, nil
}
