package projections

import (
	"context"
	"time"

	domainReport "gymhub/internal/domain/report"
)

// GetReportQuery carries query parameters.
type GetReportQuery struct {
	BranchID string
	Kind     string // defaults to daily
	From     string
	To       string
}

// GetReportDeps holds dependencies for GetReport.
type GetReportDeps struct {
	ReportStore ReportStore
	Now         func() time.Time
}

// QueryGetReport runs one aggregation over a date range.
// PRE: query.BranchID is the session's branch
// POST: Range defaults to the last 30 days; ErrInvalidKind for unknown kinds
func QueryGetReport(ctx context.Context, query GetReportQuery, deps GetReportDeps) (domainReport.Report, error) {
	kind := query.Kind
	if kind == "" {
		kind = domainReport.KindDaily
	}
	if !domainReport.IsValidKind(kind) {
		return domainReport.Report{}, domainReport.ErrInvalidKind
	}
	r, err := domainReport.ParseRange(query.From, query.To, nowFrom(deps.Now))
	if err != nil {
		return domainReport.Report{}, err
	}

	rep := domainReport.Report{Kind: kind, Range: r}
	if kind == domainReport.KindCustomer {
		rep.Customers, err = deps.ReportStore.Customers(ctx, query.BranchID, r)
	} else {
		rep.Periods, err = deps.ReportStore.Periods(ctx, query.BranchID, kind, r)
	}
	if err != nil {
		return domainReport.Report{}, err
	}
	return rep, nil
}
