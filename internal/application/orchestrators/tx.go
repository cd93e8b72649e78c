package orchestrators

import (
	"context"
	"math/rand/v2"
	"time"

	"gymdesk/internal/adapters/storage/bill"
	"gymdesk/internal/adapters/storage/feepackage"
	"gymdesk/internal/adapters/storage/registration"
	"gymdesk/internal/adapters/storage/supplement"
	"gymdesk/internal/domain/account"
	"gymdesk/internal/domain/billing"
	"gymdesk/internal/domain/dietplan"
	domainPackage "gymdesk/internal/domain/feepackage"
	"gymdesk/internal/domain/member"
	"gymdesk/internal/domain/membership"
	"gymdesk/internal/domain/notification"
	domainOutbox "gymdesk/internal/domain/outbox"
	domainRegistration "gymdesk/internal/domain/registration"
	domainSupplement "gymdesk/internal/domain/supplement"
)

// AccountStore is the account persistence needed by orchestrators.
type AccountStore interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
	Delete(ctx context.Context, id string) error
}

// MemberStore is the member persistence needed by orchestrators.
type MemberStore interface {
	GetByID(ctx context.Context, id string) (member.Member, error)
	// Save leaves the dues of an existing member untouched.
	Save(ctx context.Context, m member.Member) error
	Delete(ctx context.Context, id string) error
	UpdateDues(ctx context.Context, id string, dues int64) error
	RefreshStatuses(ctx context.Context, today, now time.Time) (int64, error)
}

// BillStore is the bill persistence needed by orchestrators.
type BillStore interface {
	GetByID(ctx context.Context, id string) (billing.Bill, error)
	Save(ctx context.Context, b billing.Bill) error
	Delete(ctx context.Context, id string) error
	SumUnpaidForMember(ctx context.Context, memberID string) (int64, error)
	MarkOverdue(ctx context.Context, today, now time.Time) (int64, error)
	List(ctx context.Context, filter bill.ListFilter) ([]billing.Bill, error)
}

// PackageStore is the fee package persistence needed by orchestrators.
type PackageStore interface {
	GetByID(ctx context.Context, id string) (domainPackage.FeePackage, error)
	Save(ctx context.Context, p domainPackage.FeePackage) error
	ExpireLapsed(ctx context.Context, today, now time.Time) (int64, error)
	List(ctx context.Context, filter feepackage.ListFilter) ([]domainPackage.FeePackage, error)
}

// NotificationStore is the notification persistence needed by orchestrators.
type NotificationStore interface {
	GetByID(ctx context.Context, id string) (notification.Notification, error)
	Save(ctx context.Context, n notification.Notification) error
	Delete(ctx context.Context, id string) error
	ListScheduledUntil(ctx context.Context, date time.Time) ([]notification.Notification, error)
}

// SupplementStore is the supplement persistence needed by orchestrators.
type SupplementStore interface {
	GetByID(ctx context.Context, id string) (domainSupplement.Supplement, error)
	Save(ctx context.Context, s domainSupplement.Supplement) error
	Delete(ctx context.Context, id string) error
	UpdateStock(ctx context.Context, id string, stock int, now time.Time) error
}

// OrderStore is the order persistence needed by orchestrators.
type OrderStore interface {
	GetByID(ctx context.Context, id string) (domainSupplement.Order, error)
	Save(ctx context.Context, o domainSupplement.Order) error
	List(ctx context.Context, filter supplement.OrderFilter) ([]domainSupplement.Order, error)
}

// RegistrationStore is the registration persistence needed by orchestrators.
type RegistrationStore interface {
	GetByID(ctx context.Context, id string) (domainRegistration.Request, error)
	GetPendingByEmail(ctx context.Context, email string) (domainRegistration.Request, error)
	Save(ctx context.Context, r domainRegistration.Request) error
	List(ctx context.Context, filter registration.ListFilter) ([]domainRegistration.Request, error)
}

// DietPlanStore is the diet plan persistence needed by orchestrators.
type DietPlanStore interface {
	GetByID(ctx context.Context, id string) (dietplan.DietPlan, error)
	Save(ctx context.Context, p dietplan.DietPlan) error
	Delete(ctx context.Context, id string) error
}

// OutboxStore is the outbox persistence needed by orchestrators.
type OutboxStore interface {
	Save(ctx context.Context, e domainOutbox.Entry) error
}

// TxStores is one set of stores bound to a single transaction.
type TxStores struct {
	Accounts      AccountStore
	Members       MemberStore
	Bills         BillStore
	Packages      PackageStore
	Notifications NotificationStore
	Supplements   SupplementStore
	Orders        OrderStore
	Registrations RegistrationStore
	Outbox        OutboxStore
}

// AtomicFunc runs fn with stores that share one transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type AtomicFunc func(ctx context.Context, fn func(ctx context.Context, s TxStores) error) error

// Clock supplies the current instant and the gym timezone.
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

// Today is the civil date in the gym timezone.
func (c Clock) Today() time.Time {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return membership.Today(c.now(), loc)
}

func (c Clock) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c Clock) loc() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// RandomInt returns a non-negative pseudo-random int below n.
func RandomInt(n int) int {
	return rand.IntN(n)
}

// maxIDAttempts bounds regeneration of random human-readable identifiers.
const maxIDAttempts = 5
