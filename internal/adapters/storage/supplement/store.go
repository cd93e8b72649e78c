package supplement

import (
	"context"
	"time"

	domain "gymdesk/internal/domain/supplement"
)

// Store persists Supplement state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Supplement, error)
	Save(ctx context.Context, value domain.Supplement) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Supplement, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	UpdateStock(ctx context.Context, id string, stock int, now time.Time) error
}

// OrderStore persists Order state including line items.
type OrderStore interface {
	GetByID(ctx context.Context, id string) (domain.Order, error)
	Save(ctx context.Context, value domain.Order) error
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, error)
	Count(ctx context.Context, filter OrderFilter) (int, error)
	SumCompletedBetween(ctx context.Context, from, to time.Time) (int64, error)
}

// ListFilter carries filtering parameters for supplement List operations.
type ListFilter struct {
	Limit       int
	Offset      int
	Search      string
	Category    string
	InStockOnly bool
	MaxStock    *int // low stock: stock <= *MaxStock
	ExpiresBy   time.Time
}

// OrderFilter carries filtering parameters for order List operations.
type OrderFilter struct {
	Limit    int
	Offset   int
	MemberID string
	PlacedBy string
	Status   string
	From     time.Time
	To       time.Time
}
