package report

import (
	"context"

	domain "gymhub/internal/domain/report"
)

// Store runs the attendance aggregations behind the reports page.
type Store interface {
	Periods(ctx context.Context, branchID, kind string, r domain.Range) ([]domain.PeriodRow, error)
	Customers(ctx context.Context, branchID string, r domain.Range) ([]domain.CustomerRow, error)
}

var _ Store = (*SQLiteStore)(nil)
