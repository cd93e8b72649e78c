package projections

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"gymdesk/internal/adapters/storage"
	accountStore "gymdesk/internal/adapters/storage/account"
	billStore "gymdesk/internal/adapters/storage/bill"
	packageStore "gymdesk/internal/adapters/storage/feepackage"
	memberStore "gymdesk/internal/adapters/storage/member"
	notificationStore "gymdesk/internal/adapters/storage/notification"
	registrationStore "gymdesk/internal/adapters/storage/registration"
	supplementStore "gymdesk/internal/adapters/storage/supplement"
	"gymdesk/internal/domain/account"
	"gymdesk/internal/domain/billing"
	"gymdesk/internal/domain/feepackage"
	"gymdesk/internal/domain/member"
	"gymdesk/internal/domain/notification"
	"gymdesk/internal/domain/registration"
	"gymdesk/internal/domain/supplement"
)

// today is the civil date every fixture is relative to.
var today = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

var now = time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// gym bundles real SQLite stores over one in-memory database.
type gym struct {
	db            *sql.DB
	accounts      *accountStore.SQLiteStore
	members       *memberStore.SQLiteStore
	bills         *billStore.SQLiteStore
	packages      *packageStore.SQLiteStore
	notifications *notificationStore.SQLiteStore
	supplements   *supplementStore.SQLiteStore
	orders        *supplementStore.SQLiteOrderStore
	registrations *registrationStore.SQLiteStore
}

func newGym(t *testing.T) *gym {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return &gym{
		db:            db,
		accounts:      accountStore.NewSQLiteStore(db),
		members:       memberStore.NewSQLiteStore(db),
		bills:         billStore.NewSQLiteStore(db),
		packages:      packageStore.NewSQLiteStore(db),
		notifications: notificationStore.NewSQLiteStore(db),
		supplements:   supplementStore.NewSQLiteStore(db),
		orders:        supplementStore.NewSQLiteOrderStore(db),
		registrations: registrationStore.NewSQLiteStore(db),
	}
}

func (g *gym) dashboardDeps() DashboardDeps {
	return DashboardDeps{
		Members:       g.members,
		Bills:         g.bills,
		Packages:      g.packages,
		Notifications: g.notifications,
		Supplements:   g.supplements,
		Orders:        g.orders,
		Registrations: g.registrations,
	}
}

func (g *gym) reportDeps() ReportDeps {
	return ReportDeps{
		Members:     g.members,
		Bills:       g.bills,
		Packages:    g.packages,
		Orders:      g.orders,
		Supplements: g.supplements,
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

// seedGym loads a small gym as of today (2026-03-01):
//
//	m1 Asha   Active, ends 2026-06-30, account acc-m1
//	m2 Ravi   stored Active but ended 2026-02-15, so Expired today
//	m3 Meera  Inactive
//	m4 Kiran  Active, ends 2026-03-20 (within the expiry window)
//	m5 Dev    Expired, no end date
func seedGym(t *testing.T, g *gym) {
	t.Helper()
	ctx := context.Background()
	created := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	members := []member.Member{
		{ID: "m1", AccountID: "acc-m1", FirstName: "Asha", LastName: "Rao", MembershipType: member.TypeGold,
			StartDate: day(2026, 1, 1), EndDate: day(2026, 6, 30), Status: member.StatusActive, Dues: 50000},
		{ID: "m2", FirstName: "Ravi", LastName: "Kumar", MembershipType: member.TypeBasic,
			StartDate: day(2026, 1, 15), EndDate: day(2026, 2, 15), Status: member.StatusActive, Dues: 10000},
		{ID: "m3", FirstName: "Meera", LastName: "Iyer", MembershipType: member.TypePremium,
			StartDate: day(2026, 1, 1), EndDate: day(2026, 12, 31), Status: member.StatusInactive},
		{ID: "m4", FirstName: "Kiran", LastName: "Das", MembershipType: member.TypeBasic,
			StartDate: day(2026, 2, 20), EndDate: day(2026, 3, 20), Status: member.StatusActive},
		{ID: "m5", FirstName: "Dev", LastName: "Shah", Status: member.StatusExpired},
	}
	for i, m := range members {
		m.Email = m.FirstName + "@gym.in"
		m.CreatedAt = created.Add(time.Duration(i) * time.Hour)
		m.UpdatedAt = m.CreatedAt
		must(t, g.members.Save(ctx, m))
	}

	paid := bill("b3", "m2", "BILL-20260201-0003", 40000, day(2026, 2, 1), billing.StatusPaid)
	paid.PaymentDate = today
	paid.PaymentMethod = billing.MethodUPI
	for i, b := range []billing.Bill{
		bill("b1", "m1", "BILL-20260201-0001", 30000, day(2026, 2, 20), billing.StatusPending),
		bill("b2", "m1", "BILL-20260201-0002", 20000, day(2026, 3, 10), billing.StatusPending),
		paid,
		bill("b4", "m2", "BILL-20260101-0004", 10000, day(2026, 1, 15), billing.StatusOverdue),
	} {
		b.CreatedAt = created.Add(time.Duration(i) * time.Hour)
		b.UpdatedAt = b.CreatedAt
		must(t, g.bills.Save(ctx, b))
	}

	must(t, g.packages.Save(ctx, feepackage.FeePackage{
		ID: "p1", MemberID: "m1", MemberName: "Asha Rao", PackageType: "gold", PackageName: "Gold",
		Amount: 1200000, Duration: 6, StartDate: day(2026, 1, 1), EndDate: day(2026, 6, 30),
		Status: feepackage.StatusActive, CreatedAt: created, UpdatedAt: created,
	}))
	must(t, g.packages.Save(ctx, feepackage.FeePackage{
		ID: "p2", MemberID: "m1", MemberName: "Asha Rao", PackageType: "basic", PackageName: "Basic",
		Amount: 150000, Duration: 1, StartDate: day(2026, 2, 1), EndDate: day(2026, 3, 1),
		Status: feepackage.StatusCancelled, CreatedAt: created.Add(time.Hour), UpdatedAt: created.Add(time.Hour),
	}))

	for _, s := range []supplement.Supplement{
		{ID: "s1", Name: "Whey", Brand: "MuscleBlaze", Category: "protein", Price: 249900, Stock: 2},
		{ID: "s2", Name: "BCAA", Brand: "Optimum", Category: "amino", Price: 99900, Stock: 50, ExpiryDate: day(2026, 3, 15)},
		{ID: "s3", Name: "Creatine", Brand: "Optimum", Category: "performance", Price: 79900, Stock: 0},
	} {
		s.CreatedAt, s.UpdatedAt = created, created
		must(t, g.supplements.Save(ctx, s))
	}

	for i, o := range []supplement.Order{
		{ID: "o1", MemberID: "m1", MemberName: "Asha Rao", Status: supplement.OrderCompleted, OrderDate: today,
			Items: []supplement.OrderItem{{SupplementID: "s1", Name: "Whey", Quantity: 2, UnitPrice: 2500}}},
		{ID: "o2", MemberID: "m1", MemberName: "Asha Rao", Status: supplement.OrderCancelled, OrderDate: today,
			Items: []supplement.OrderItem{{SupplementID: "s2", Name: "BCAA", Quantity: 7, UnitPrice: 1000}}},
		{ID: "o3", PlacedBy: "acc-u1", Status: supplement.OrderCompleted, OrderDate: day(2026, 2, 10),
			Items: []supplement.OrderItem{{SupplementID: "s3", Name: "Creatine", Quantity: 1, UnitPrice: 3000}}},
	} {
		o.ComputeTotal()
		o.CreatedAt = created.Add(time.Duration(i) * time.Hour)
		o.UpdatedAt = o.CreatedAt
		must(t, g.orders.Save(ctx, o))
	}

	for _, r := range []registration.Request{
		{ID: "r1", FirstName: "Neha", Email: "neha@gym.in", Role: account.RoleMember, Status: registration.StatusPending, RequestedAt: now},
		{ID: "r2", FirstName: "Arjun", Email: "arjun@gym.in", Role: account.RoleUser, Status: registration.StatusRejected, RequestedAt: now},
	} {
		must(t, g.registrations.Save(ctx, r))
	}

	for i, n := range []notification.Notification{
		{ID: "n1", Title: "Holi hours", TargetType: notification.TargetAll, Status: notification.StatusScheduled},
		{ID: "n2", Title: "Renew early", TargetType: notification.TargetActive, Status: notification.StatusSent},
		{ID: "n3", Title: "Come back", TargetType: notification.TargetExpired, Status: notification.StatusSent},
		{ID: "n4", Title: "Your locker", TargetType: notification.TargetSpecific, MemberID: "m1", Status: notification.StatusSent},
		{ID: "n5", Title: "Ravi dues", TargetType: notification.TargetSpecific, MemberID: "m2", Status: notification.StatusSent},
		{ID: "n6", Title: "New rack", TargetType: notification.TargetAll, Status: notification.StatusSent},
	} {
		n.Message = "body"
		n.Type = notification.TypeGeneral
		n.ScheduledDate = today
		n.CreatedAt = created.Add(time.Duration(i) * time.Hour)
		n.UpdatedAt = n.CreatedAt
		must(t, g.notifications.Save(ctx, n))
	}
}

func bill(id, memberID, number string, amount int64, due time.Time, status string) billing.Bill {
	return billing.Bill{
		ID:          id,
		MemberID:    memberID,
		MemberName:  memberID + " name",
		BillNumber:  number,
		Amount:      amount,
		Description: "Monthly fee",
		DueDate:     due,
		Status:      status,
	}
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, id(it))
	}
	return out
}

func sameIDs(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
