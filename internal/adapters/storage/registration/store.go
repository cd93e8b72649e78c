package registration

import (
	"context"

	domain "gymdesk/internal/domain/registration"
)

// Store persists registration requests.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Request, error)
	// GetPendingByEmail returns the pending request for email, if any.
	// POST: error wraps sql.ErrNoRows when none is pending
	GetPendingByEmail(ctx context.Context, email string) (domain.Request, error)
	Save(ctx context.Context, value domain.Request) error
	List(ctx context.Context, filter ListFilter) ([]domain.Request, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit  int
	Offset int
	Status string
}
