package outbox

import (
	"context"

	domain "gymdesk/internal/domain/outbox"
)

// Store defines the interface for queued email deliveries.
type Store interface {
	// GetByID retrieves an entry by its ID.
	// PRE: id is non-empty
	// POST: Returns the entry or an error wrapping sql.ErrNoRows
	GetByID(ctx context.Context, id string) (domain.Entry, error)

	// Save persists an entry (insert or update).
	// PRE: entry has been validated
	Save(ctx context.Context, e domain.Entry) error

	// ListRetryable returns pending, retrying and failed entries with
	// attempts left, oldest first.
	// PRE: limit > 0
	ListRetryable(ctx context.Context, limit int) ([]domain.Entry, error)

	// ListExhausted returns failed entries whose attempt budget is spent.
	ListExhausted(ctx context.Context, limit int) ([]domain.Entry, error)

	// CountByStatus groups entry counts by status.
	CountByStatus(ctx context.Context) (map[string]int, error)

	// Delete removes an entry.
	Delete(ctx context.Context, id string) error
}
