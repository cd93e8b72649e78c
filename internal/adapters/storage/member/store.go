package member

import (
	"context"
	"time"

	domain "gymdesk/internal/domain/member"
)

// Store persists Member state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Member, error)
	GetByAccountID(ctx context.Context, accountID string) (domain.Member, error)
	Save(ctx context.Context, value domain.Member) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Member, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	UpdateDues(ctx context.Context, id string, dues int64) error
	RefreshStatuses(ctx context.Context, today, now time.Time) (int64, error)
}

// ListFilter carries filtering parameters for List operations. Status filters
// on the stored status; callers wanting derived status should reconcile first.
type ListFilter struct {
	Limit          int
	Offset         int
	Status         string
	MembershipType string
	Search         string
	Sort           string
	Dir            string
	EndBefore      string // YYYY-MM-DD, exclusive
	// AsOf (YYYY-MM-DD) makes Status match the status derived from end_date
	// on that day instead of the stored column.
	AsOf string
}
