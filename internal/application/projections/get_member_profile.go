package projections

import (
	"context"
	"database/sql"
	"errors"
	"time"

	billStore "gymdesk/internal/adapters/storage/bill"
	dietPlanStore "gymdesk/internal/adapters/storage/dietplan"
	packageStore "gymdesk/internal/adapters/storage/feepackage"
	supplementStore "gymdesk/internal/adapters/storage/supplement"
	"gymdesk/internal/domain/billing"
	"gymdesk/internal/domain/dietplan"
	"gymdesk/internal/domain/member"
	"gymdesk/internal/domain/supplement"
)

// MemberProfileQuery selects a member by id or by linked account id.
type MemberProfileQuery struct {
	MemberID  string
	AccountID string
	Today     time.Time
}

// MemberProfile is a member with their bills, packages, orders and the diet
// plan that applies today.
type MemberProfile struct {
	Member         MemberView    `json:"member"`
	Bills          []BillView    `json:"bills"`
	Packages       []PackageView `json:"packages"`
	CurrentPackage *PackageView  `json:"currentPackage,omitempty"`
	Orders         []OrderView   `json:"orders"`
	DietPlan       *DietPlanView `json:"dietPlan,omitempty"`
	UnpaidTotal    int64         `json:"unpaidTotal"`
}

// MemberProfileDeps holds dependencies for the member profile. Orders and
// DietPlans are optional.
type MemberProfileDeps struct {
	Members   MemberReader
	Bills     BillReader
	Packages  PackageReader
	Orders    OrderReader
	DietPlans DietPlanReader
}

// QueryMemberProfile loads a member and everything attached to them.
// PRE: MemberID or AccountID is set
// POST: returns an error wrapping sql.ErrNoRows if no member matches
// INVARIANT: UnpaidTotal is summed from the bills, not read from Dues
func QueryMemberProfile(ctx context.Context, query MemberProfileQuery, deps MemberProfileDeps) (MemberProfile, error) {
	m, err := loadMember(ctx, deps.Members, query.MemberID, query.AccountID)
	if err != nil {
		return MemberProfile{}, err
	}

	bills, err := deps.Bills.List(ctx, billStore.ListFilter{MemberID: m.ID})
	if err != nil {
		return MemberProfile{}, err
	}
	packages, err := deps.Packages.List(ctx, packageStore.ListFilter{MemberID: m.ID})
	if err != nil {
		return MemberProfile{}, err
	}
	var orders []supplement.Order
	if deps.Orders != nil {
		orders, err = deps.Orders.List(ctx, supplementStore.OrderFilter{MemberID: m.ID})
		if err != nil {
			return MemberProfile{}, err
		}
	}

	profile := MemberProfile{
		Member:      NewMemberView(m, query.Today),
		Bills:       make([]BillView, 0, len(bills)),
		Packages:    make([]PackageView, 0, len(packages)),
		Orders:      make([]OrderView, 0, len(orders)),
		UnpaidTotal: billing.SumUnpaid(bills),
	}
	for _, b := range bills {
		profile.Bills = append(profile.Bills, NewBillView(b, query.Today))
	}
	for _, p := range packages {
		profile.Packages = append(profile.Packages, NewPackageView(p, query.Today))
	}
	for _, o := range orders {
		profile.Orders = append(profile.Orders, NewOrderView(o))
	}

	latest, err := deps.Packages.LatestForMember(ctx, m.ID)
	switch {
	case err == nil:
		v := NewPackageView(latest, query.Today)
		profile.CurrentPackage = &v
	case !errors.Is(err, sql.ErrNoRows):
		return MemberProfile{}, err
	}

	if deps.DietPlans != nil {
		plans, err := deps.DietPlans.List(ctx, dietPlanStore.ListFilter{MemberID: m.ID, Status: dietplan.StatusActive})
		if err != nil {
			return MemberProfile{}, err
		}
		// newest start first, so the first current plan wins
		for _, p := range plans {
			if p.IsCurrent(query.Today) {
				v := NewDietPlanView(p, query.Today)
				profile.DietPlan = &v
				break
			}
		}
	}
	return profile, nil
}

func loadMember(ctx context.Context, members MemberReader, memberID, accountID string) (member.Member, error) {
	if memberID != "" {
		return members.GetByID(ctx, memberID)
	}
	return members.GetByAccountID(ctx, accountID)
}
