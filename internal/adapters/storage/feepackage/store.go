package feepackage

import (
	"context"
	"time"

	domain "gymdesk/internal/domain/feepackage"
)

// Store persists FeePackage state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.FeePackage, error)
	Save(ctx context.Context, value domain.FeePackage) error
	List(ctx context.Context, filter ListFilter) ([]domain.FeePackage, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	LatestForMember(ctx context.Context, memberID string) (domain.FeePackage, error)
	ExpireLapsed(ctx context.Context, today time.Time, now time.Time) (int64, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit       int
	Offset      int
	MemberID    string
	Status      string
	PackageType string
}
