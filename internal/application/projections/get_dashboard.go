package projections

import (
	"context"
	"database/sql"
	"errors"
	"time"

	billStore "gymdesk/internal/adapters/storage/bill"
	memberStore "gymdesk/internal/adapters/storage/member"
	notificationStore "gymdesk/internal/adapters/storage/notification"
	registrationStore "gymdesk/internal/adapters/storage/registration"
	supplementStore "gymdesk/internal/adapters/storage/supplement"
	"gymdesk/internal/domain/account"
	"gymdesk/internal/domain/billing"
	"gymdesk/internal/domain/member"
	"gymdesk/internal/domain/membership"
	"gymdesk/internal/domain/notification"
	"gymdesk/internal/domain/registration"
)

// Dashboard defaults.
const (
	DefaultLowStockThreshold = 10
	DefaultExpiryWindowDays  = 30
	dashboardListLimit       = 5
)

// DashboardQuery selects whose dashboard to build.
type DashboardQuery struct {
	Role              string
	AccountID         string
	Today             time.Time
	LowStockThreshold int
	ExpiryWindowDays  int
}

// DashboardDeps holds dependencies for dashboard queries.
type DashboardDeps struct {
	Members       MemberReader
	Bills         BillReader
	Packages      PackageReader
	Notifications NotificationReader
	Supplements   SupplementReader
	Orders        OrderReader
	Registrations RegistrationReader
}

// MemberCounts buckets members by status derived for today.
type MemberCounts struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Expired  int `json:"expired"`
	Inactive int `json:"inactive"`
}

// AdminDashboard is the staff overview.
type AdminDashboard struct {
	Members              MemberCounts       `json:"members"`
	OutstandingDues      int64              `json:"outstandingDues"`
	OverdueBills         int                `json:"overdueBills"`
	BillRevenueMonth     int64              `json:"billRevenueMonth"`
	OrderRevenueMonth    int64              `json:"orderRevenueMonth"`
	RevenueMonth         int64              `json:"revenueMonth"`
	ExpiringMembers      []MemberView       `json:"expiringMembers"`
	LowStock             []SupplementView   `json:"lowStock"`
	ExpiringSupplements  []SupplementView   `json:"expiringSupplements"`
	PendingRegistrations int                `json:"pendingRegistrations"`
	UpcomingNotices      []NotificationView `json:"upcomingNotifications"`
}

// MemberDashboard is what a member sees about themselves.
type MemberDashboard struct {
	Profile       *MemberProfile     `json:"profile,omitempty"`
	Notifications []NotificationView `json:"notifications"`
}

// UserDashboard is the catalog view for walk-in customers.
type UserDashboard struct {
	Catalog []SupplementView `json:"catalog"`
	Orders  []OrderView      `json:"orders"`
}

// Dashboard holds the one dashboard matching the caller's role.
type Dashboard struct {
	Role   string           `json:"role"`
	Admin  *AdminDashboard  `json:"admin,omitempty"`
	Member *MemberDashboard `json:"member,omitempty"`
	User   *UserDashboard   `json:"user,omitempty"`
}

// QueryDashboard builds the dashboard for query.Role.
// PRE: Role is admin, member or user
// POST: exactly one of Admin, Member, User is set
func QueryDashboard(ctx context.Context, query DashboardQuery, deps DashboardDeps) (Dashboard, error) {
	if query.LowStockThreshold <= 0 {
		query.LowStockThreshold = DefaultLowStockThreshold
	}
	if query.ExpiryWindowDays <= 0 {
		query.ExpiryWindowDays = DefaultExpiryWindowDays
	}
	switch query.Role {
	case account.RoleAdmin:
		d, err := queryAdminDashboard(ctx, query, deps)
		if err != nil {
			return Dashboard{}, err
		}
		return Dashboard{Role: query.Role, Admin: &d}, nil
	case account.RoleMember:
		d, err := queryMemberDashboard(ctx, query, deps)
		if err != nil {
			return Dashboard{}, err
		}
		return Dashboard{Role: query.Role, Member: &d}, nil
	case account.RoleUser:
		d, err := queryUserDashboard(ctx, query, deps)
		if err != nil {
			return Dashboard{}, err
		}
		return Dashboard{Role: query.Role, User: &d}, nil
	}
	return Dashboard{}, account.ErrInvalidRole
}

func queryAdminDashboard(ctx context.Context, query DashboardQuery, deps DashboardDeps) (AdminDashboard, error) {
	today := query.Today
	asOf := membership.FormatDate(today)
	var d AdminDashboard
	var err error

	if d.Members.Total, err = deps.Members.Count(ctx, memberStore.ListFilter{}); err != nil {
		return AdminDashboard{}, err
	}
	counts := map[string]*int{
		member.StatusActive:   &d.Members.Active,
		member.StatusExpired:  &d.Members.Expired,
		member.StatusInactive: &d.Members.Inactive,
	}
	for status, dst := range counts {
		if *dst, err = deps.Members.Count(ctx, memberStore.ListFilter{Status: status, AsOf: asOf}); err != nil {
			return AdminDashboard{}, err
		}
	}

	if d.OutstandingDues, err = deps.Bills.SumUnpaid(ctx); err != nil {
		return AdminDashboard{}, err
	}
	if d.OverdueBills, err = deps.Bills.Count(ctx, billStore.ListFilter{Status: billing.StatusOverdue, AsOf: today}); err != nil {
		return AdminDashboard{}, err
	}

	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	if d.BillRevenueMonth, err = deps.Bills.SumPaidBetween(ctx, monthStart, today); err != nil {
		return AdminDashboard{}, err
	}
	if d.OrderRevenueMonth, err = deps.Orders.SumCompletedBetween(ctx, monthStart, today); err != nil {
		return AdminDashboard{}, err
	}
	d.RevenueMonth = d.BillRevenueMonth + d.OrderRevenueMonth

	// Active members whose membership ends within the window.
	expiring, err := deps.Members.List(ctx, memberStore.ListFilter{
		Status:    member.StatusActive,
		AsOf:      asOf,
		EndBefore: membership.FormatDate(today.AddDate(0, 0, query.ExpiryWindowDays+1)),
		Sort:      "endDate",
		Dir:       "asc",
		Limit:     dashboardListLimit,
	})
	if err != nil {
		return AdminDashboard{}, err
	}
	d.ExpiringMembers = memberViews(expiring, today)

	threshold := query.LowStockThreshold
	low, err := deps.Supplements.List(ctx, supplementStore.ListFilter{MaxStock: &threshold})
	if err != nil {
		return AdminDashboard{}, err
	}
	d.LowStock = supplementViews(low)
	soon, err := deps.Supplements.List(ctx, supplementStore.ListFilter{ExpiresBy: today.AddDate(0, 0, query.ExpiryWindowDays)})
	if err != nil {
		return AdminDashboard{}, err
	}
	d.ExpiringSupplements = supplementViews(soon)

	if d.PendingRegistrations, err = deps.Registrations.Count(ctx, registrationStore.ListFilter{Status: registration.StatusPending}); err != nil {
		return AdminDashboard{}, err
	}
	upcoming, err := deps.Notifications.List(ctx, notificationStore.ListFilter{Status: notification.StatusScheduled, Limit: dashboardListLimit})
	if err != nil {
		return AdminDashboard{}, err
	}
	d.UpcomingNotices = notificationViews(upcoming)
	return d, nil
}

// queryMemberDashboard tolerates an account with no member record yet: the
// profile is omitted rather than failing the page.
func queryMemberDashboard(ctx context.Context, query DashboardQuery, deps DashboardDeps) (MemberDashboard, error) {
	d := MemberDashboard{Notifications: []NotificationView{}}
	m, err := deps.Members.GetByAccountID(ctx, query.AccountID)
	if errors.Is(err, sql.ErrNoRows) {
		return d, nil
	}
	if err != nil {
		return MemberDashboard{}, err
	}
	profile, err := QueryMemberProfile(ctx, MemberProfileQuery{MemberID: m.ID, Today: query.Today}, MemberProfileDeps{
		Members:  deps.Members,
		Bills:    deps.Bills,
		Packages: deps.Packages,
		Orders:   deps.Orders,
	})
	if err != nil {
		return MemberDashboard{}, err
	}
	d.Profile = &profile
	d.Notifications, err = QueryMemberNotifications(ctx, m, query.Today, 20, NotificationListDeps{Notifications: deps.Notifications})
	if err != nil {
		return MemberDashboard{}, err
	}
	return d, nil
}

func queryUserDashboard(ctx context.Context, query DashboardQuery, deps DashboardDeps) (UserDashboard, error) {
	catalog, err := deps.Supplements.List(ctx, supplementStore.ListFilter{InStockOnly: true})
	if err != nil {
		return UserDashboard{}, err
	}
	d := UserDashboard{Catalog: supplementViews(catalog), Orders: []OrderView{}}
	if query.AccountID == "" {
		return d, nil
	}
	orders, err := deps.Orders.List(ctx, supplementStore.OrderFilter{PlacedBy: query.AccountID, Limit: 20})
	if err != nil {
		return UserDashboard{}, err
	}
	for _, o := range orders {
		d.Orders = append(d.Orders, NewOrderView(o))
	}
	return d, nil
}
