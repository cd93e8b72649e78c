package bill

import (
	"context"
	"errors"
	"time"

	domain "gymdesk/internal/domain/billing"
)

// ErrBillNumberTaken is returned by Save when bill_number collides.
var ErrBillNumberTaken = errors.New("bill number already used")

// Store persists Bill state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Bill, error)
	Save(ctx context.Context, value domain.Bill) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Bill, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	SumUnpaidForMember(ctx context.Context, memberID string) (int64, error)
	SumUnpaid(ctx context.Context) (int64, error)
	SumPaidBetween(ctx context.Context, from, to time.Time) (int64, error)
	MarkOverdue(ctx context.Context, today time.Time, now time.Time) (int64, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit      int
	Offset     int
	MemberID   string
	Status     string
	UnpaidOnly bool
	DueFrom    time.Time // inclusive
	DueTo      time.Time // inclusive
	Search     string
	// AsOf makes Status match the status derived on that day: pending bills
	// due before AsOf count as Overdue.
	AsOf time.Time
}
