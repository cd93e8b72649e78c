package account

import (
	"context"
	"errors"

	domain "gymdesk/internal/domain/account"
)

// Store errors. Save maps UNIQUE violations to these so callers can tell an
// email collision from an account id collision.
var (
	ErrEmailTaken     = errors.New("email already registered")
	ErrAccountIDTaken = errors.New("account id already assigned")
)

// Store persists Account state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Account, error)
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	GetByAccountID(ctx context.Context, accountID string) (domain.Account, error)
	Save(ctx context.Context, value domain.Account) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Account, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit  int
	Offset int
	Role   string
	Search string
}
