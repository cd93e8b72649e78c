package dietplan

import (
	"context"

	domain "gymdesk/internal/domain/dietplan"
)

// Store persists DietPlan state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.DietPlan, error)
	Save(ctx context.Context, value domain.DietPlan) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.DietPlan, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit    int
	Offset   int
	MemberID string
	Status   string
	Goal     string
}
