package projections

import (
	"context"
	"time"

	"gymhub/internal/adapters/storage/account"
	"gymhub/internal/adapters/storage/attendance"
	"gymhub/internal/adapters/storage/audit"
	"gymhub/internal/adapters/storage/customer"
	"gymhub/internal/adapters/storage/schedule"
	"gymhub/internal/adapters/storage/trainer"
	domainAccount "gymhub/internal/domain/account"
	domainAttendance "gymhub/internal/domain/attendance"
	domainAudit "gymhub/internal/domain/audit"
	domainBranch "gymhub/internal/domain/branch"
	domainCustomer "gymhub/internal/domain/customer"
	domainFeature "gymhub/internal/domain/featureflag"
	domainReport "gymhub/internal/domain/report"
	domainSchedule "gymhub/internal/domain/schedule"
	domainTrainer "gymhub/internal/domain/trainer"
)

// BranchStore interface for branch queries.
type BranchStore interface {
	GetByID(ctx context.Context, id string) (domainBranch.Branch, error)
	List(ctx context.Context) ([]domainBranch.Branch, error)
	Summaries(ctx context.Context, today time.Time) ([]domainBranch.Summary, error)
}

// AccountStore interface for account queries.
type AccountStore interface {
	List(ctx context.Context, filter account.ListFilter) ([]domainAccount.Account, error)
}

// FeatureStore interface for feature catalog and grant queries.
type FeatureStore interface {
	ListFeatures(ctx context.Context) ([]domainFeature.Feature, error)
	ListAllGrants(ctx context.Context) (map[string]domainFeature.Permissions, error)
}

// AuditStore interface for audit log queries.
type AuditStore interface {
	List(ctx context.Context, filter audit.Filter, limit int) ([]domainAudit.Event, error)
}

// CustomerStore interface for customer queries.
type CustomerStore interface {
	List(ctx context.Context, filter customer.ListFilter) ([]domainCustomer.Profile, error)
	Count(ctx context.Context, filter customer.ListFilter) (int, error)
}

// TrainerStore interface for trainer queries.
type TrainerStore interface {
	List(ctx context.Context, filter trainer.ListFilter) ([]domainTrainer.Trainer, error)
}

// AttendanceStore interface for attendance queries.
type AttendanceStore interface {
	List(ctx context.Context, filter attendance.ListFilter) ([]domainAttendance.Attendance, error)
	ListOpen(ctx context.Context, branchID string) ([]domainAttendance.Attendance, error)
	GetSettings(ctx context.Context, branchID string) (domainAttendance.Settings, error)
}

// ScheduleStore interface for session and assignment queries.
type ScheduleStore interface {
	ListSessions(ctx context.Context, filter schedule.SessionFilter) ([]domainSchedule.Session, error)
	ListAssignments(ctx context.Context, filter schedule.AssignmentFilter) ([]domainSchedule.Assignment, error)
}

// ReportStore interface for attendance aggregations.
type ReportStore interface {
	Periods(ctx context.Context, branchID, kind string, r domainReport.Range) ([]domainReport.PeriodRow, error)
	Customers(ctx context.Context, branchID string, r domainReport.Range) ([]domainReport.CustomerRow, error)
}

const dateLayout = "2006-01-02"

func nowFrom(f func() time.Time) time.Time {
	if f == nil {
		return time.Now()
	}
	return f()
}
