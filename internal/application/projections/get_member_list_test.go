package projections

import (
	"context"
	"net/url"
	"testing"

	"gymdesk/internal/application/listutil"
	"gymdesk/internal/domain/member"
)

func memberIDs(views []MemberView) []string {
	return ids(views, func(v MemberView) string { return v.ID })
}

func listParams(q url.Values) listutil.ListParams {
	return listutil.ParseListParams(q, MemberListSortColumns, MemberListFilterKeys)
}

// TestQueryMemberList_DerivedStatus verifies the status filter matches the status derived for today.
func TestQueryMemberList_DerivedStatus(t *testing.T) {
	g := newGym(t)
	seedGym(t, g)
	deps := MemberListDeps{Members: g.members}
	tests := []struct {
		status string
		want   []string
	}{
		{member.StatusActive, []string{"m1", "m4"}},
		{member.StatusExpired, []string{"m2", "m5"}},
		{member.StatusInactive, []string{"m3"}},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			q := url.Values{"status": {tt.status}, "sort": {"created"}}
			res, err := QueryMemberList(context.Background(), MemberListQuery{Params: listParams(q), Today: today}, deps)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := memberIDs(res.Members); !sameIDs(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			for _, v := range res.Members {
				if v.Status != tt.status {
					t.Errorf("member %s shown as %s", v.ID, v.Status)
				}
			}
			if res.Page.Total != len(tt.want) {
				t.Errorf("Total = %d, want %d", res.Page.Total, len(tt.want))
			}
		})
	}
}

// TestQueryMemberList_PagingAndSearch verifies pagination, sorting and search.
func TestQueryMemberList_PagingAndSearch(t *testing.T) {
	g := newGym(t)
	seedGym(t, g)
	deps := MemberListDeps{Members: g.members}
	ctx := context.Background()

	q := url.Values{"sort": {"name"}, "dir": {"asc"}, "per_page": {"2"}, "page": {"2"}}
	res, err := QueryMemberList(ctx, MemberListQuery{Params: listParams(q), Today: today}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Asha, Dev | Kiran, Meera | Ravi
	if got := memberIDs(res.Members); !sameIDs(got, []string{"m4", "m3"}) {
		t.Errorf("page 2 = %v, want [m4 m3]", got)
	}
	if res.Page.Total != 5 || res.Page.TotalPages != 3 {
		t.Errorf("unexpected page info %+v", res.Page)
	}

	res, err = QueryMemberList(ctx, MemberListQuery{Params: listParams(url.Values{"search": {"kumar"}}), Today: today}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := memberIDs(res.Members); !sameIDs(got, []string{"m2"}) {
		t.Errorf("search = %v, want [m2]", got)
	}
	if res.Members[0].Status != member.StatusExpired {
		t.Errorf("lapsed member shown as %s", res.Members[0].Status)
	}
	if res.Members[0].DuesDisplay != "100.00" {
		t.Errorf("DuesDisplay = %s, want 100.00", res.Members[0].DuesDisplay)
	}
}

// TestQueryMemberProfile verifies bills, packages and orders are attached.
func TestQueryMemberProfile(t *testing.T) {
	g := newGym(t)
	seedGym(t, g)
	deps := MemberProfileDeps{Members: g.members, Bills: g.bills, Packages: g.packages, Orders: g.orders}

	p, err := QueryMemberProfile(context.Background(), MemberProfileQuery{AccountID: "acc-m1", Today: today}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Member.ID != "m1" {
		t.Fatalf("loaded %s, want m1", p.Member.ID)
	}
	if len(p.Bills) != 2 || p.UnpaidTotal != 50000 {
		t.Errorf("bills=%d unpaid=%d, want 2 and 50000", len(p.Bills), p.UnpaidTotal)
	}
	overdue := 0
	for _, b := range p.Bills {
		if b.Status == "Overdue" {
			overdue++
		}
	}
	if overdue != 1 {
		t.Errorf("expected the bill due 2026-02-20 to show Overdue, got %d overdue", overdue)
	}
	if p.CurrentPackage == nil || p.CurrentPackage.ID != "p1" {
		t.Errorf("CurrentPackage = %+v, want p1", p.CurrentPackage)
	}
	if len(p.Packages) != 2 || len(p.Orders) != 2 {
		t.Errorf("packages=%d orders=%d, want 2 and 2", len(p.Packages), len(p.Orders))
	}

	p, err = QueryMemberProfile(context.Background(), MemberProfileQuery{MemberID: "m5", Today: today}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.CurrentPackage != nil {
		t.Error("member without packages should have no current package")
	}
	if p.Bills == nil || p.Orders == nil {
		t.Error("empty collections should encode as [] not null")
	}
}

// TestQueryMemberProfile_NotFound verifies a missing member is an error.
func TestQueryMemberProfile_NotFound(t *testing.T) {
	g := newGym(t)
	deps := MemberProfileDeps{Members: g.members, Bills: g.bills, Packages: g.packages}
	if _, err := QueryMemberProfile(context.Background(), MemberProfileQuery{MemberID: "ghost", Today: today}, deps); err == nil {
		t.Error("expected error for missing member")
	}
}
