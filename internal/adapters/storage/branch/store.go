package branch

import (
	"context"
	"time"

	"gymhub/internal/domain/attendance"
	domain "gymhub/internal/domain/branch"
)

// Store persists Branch state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Branch, error)
	List(ctx context.Context) ([]domain.Branch, error)
	Save(ctx context.Context, value domain.Branch) error
	CreateWithSettings(ctx context.Context, value domain.Branch, settings attendance.Settings) error
	Delete(ctx context.Context, id string) error
	Summaries(ctx context.Context, today time.Time) ([]domain.Summary, error)
}

var _ Store = (*SQLiteStore)(nil)
