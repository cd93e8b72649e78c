package projections

import (
	"context"
	"time"

	accountStore "gymdesk/internal/adapters/storage/account"
	billStore "gymdesk/internal/adapters/storage/bill"
	dietPlanStore "gymdesk/internal/adapters/storage/dietplan"
	packageStore "gymdesk/internal/adapters/storage/feepackage"
	memberStore "gymdesk/internal/adapters/storage/member"
	notificationStore "gymdesk/internal/adapters/storage/notification"
	registrationStore "gymdesk/internal/adapters/storage/registration"
	supplementStore "gymdesk/internal/adapters/storage/supplement"
	"gymdesk/internal/domain/account"
	"gymdesk/internal/domain/billing"
	"gymdesk/internal/domain/dietplan"
	"gymdesk/internal/domain/feepackage"
	"gymdesk/internal/domain/member"
	"gymdesk/internal/domain/notification"
	"gymdesk/internal/domain/registration"
	"gymdesk/internal/domain/supplement"
)

// MemberReader interface for member queries.
type MemberReader interface {
	GetByID(ctx context.Context, id string) (member.Member, error)
	GetByAccountID(ctx context.Context, accountID string) (member.Member, error)
	List(ctx context.Context, filter memberStore.ListFilter) ([]member.Member, error)
	Count(ctx context.Context, filter memberStore.ListFilter) (int, error)
}

// BillReader interface for bill queries.
type BillReader interface {
	GetByID(ctx context.Context, id string) (billing.Bill, error)
	List(ctx context.Context, filter billStore.ListFilter) ([]billing.Bill, error)
	Count(ctx context.Context, filter billStore.ListFilter) (int, error)
	SumUnpaid(ctx context.Context) (int64, error)
	SumPaidBetween(ctx context.Context, from, to time.Time) (int64, error)
}

// PackageReader interface for fee package queries.
type PackageReader interface {
	List(ctx context.Context, filter packageStore.ListFilter) ([]feepackage.FeePackage, error)
	Count(ctx context.Context, filter packageStore.ListFilter) (int, error)
	LatestForMember(ctx context.Context, memberID string) (feepackage.FeePackage, error)
}

// NotificationReader interface for notification queries.
type NotificationReader interface {
	List(ctx context.Context, filter notificationStore.ListFilter) ([]notification.Notification, error)
	Count(ctx context.Context, filter notificationStore.ListFilter) (int, error)
}

// SupplementReader interface for catalog queries.
type SupplementReader interface {
	List(ctx context.Context, filter supplementStore.ListFilter) ([]supplement.Supplement, error)
	Count(ctx context.Context, filter supplementStore.ListFilter) (int, error)
}

// OrderReader interface for order queries.
type OrderReader interface {
	List(ctx context.Context, filter supplementStore.OrderFilter) ([]supplement.Order, error)
	Count(ctx context.Context, filter supplementStore.OrderFilter) (int, error)
	SumCompletedBetween(ctx context.Context, from, to time.Time) (int64, error)
}

// RegistrationReader interface for registration request queries.
type RegistrationReader interface {
	List(ctx context.Context, filter registrationStore.ListFilter) ([]registration.Request, error)
	Count(ctx context.Context, filter registrationStore.ListFilter) (int, error)
}

// AccountReader interface for account queries.
type AccountReader interface {
	List(ctx context.Context, filter accountStore.ListFilter) ([]account.Account, error)
	Count(ctx context.Context, filter accountStore.ListFilter) (int, error)
}

// DietPlanReader interface for diet plan queries.
type DietPlanReader interface {
	GetByID(ctx context.Context, id string) (dietplan.DietPlan, error)
	List(ctx context.Context, filter dietPlanStore.ListFilter) ([]dietplan.DietPlan, error)
	Count(ctx context.Context, filter dietPlanStore.ListFilter) (int, error)
}
