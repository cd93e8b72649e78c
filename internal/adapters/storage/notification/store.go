package notification

import (
	"context"
	"time"

	domain "gymdesk/internal/domain/notification"
)

// Store persists Notification state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Notification, error)
	Save(ctx context.Context, value domain.Notification) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Notification, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	ListScheduledUntil(ctx context.Context, date time.Time) ([]domain.Notification, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit      int
	Offset     int
	Status     string
	Type       string
	TargetType string
	MemberID   string
	// Audience lists notifications that reach a member: "all", the member's
	// status bucket, or addressed to MemberID directly.
	Audience []string
}
