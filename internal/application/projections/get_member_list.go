package projections

import (
	"context"
	"time"

	memberStore "gymdesk/internal/adapters/storage/member"
	"gymdesk/internal/application/listutil"
	"gymdesk/internal/domain/member"
	"gymdesk/internal/domain/membership"
)

// MemberListSortColumns are the accepted sort keys for the member list.
var MemberListSortColumns = []string{"name", "email", "status", "endDate", "dues", "created"}

// MemberListFilterKeys are the accepted filter keys for the member list.
var MemberListFilterKeys = []string{"status", "type"}

// MemberListQuery is the input for the member list.
type MemberListQuery struct {
	Params listutil.ListParams
	Today  time.Time
}

// MemberListResult is a page of members.
type MemberListResult struct {
	Members []MemberView      `json:"members"`
	Page    listutil.PageInfo `json:"page"`
}

// MemberListDeps holds dependencies for the member list.
type MemberListDeps struct {
	Members MemberReader
}

// QueryMemberList returns one page of members. The status filter matches the
// status derived for Today, so lapsed members show as Expired even before the
// nightly refresh has run.
// PRE: Today is a civil date
// POST: Members has at most PerPage entries; every Status is derived for Today
func QueryMemberList(ctx context.Context, query MemberListQuery, deps MemberListDeps) (MemberListResult, error) {
	p := query.Params
	filter := memberStore.ListFilter{
		Status:         p.Filters["status"],
		MembershipType: p.Filters["type"],
		Search:         p.Search,
		Sort:           p.Sort,
		Dir:            p.Dir,
		AsOf:           membership.FormatDate(query.Today),
	}
	total, err := deps.Members.Count(ctx, filter)
	if err != nil {
		return MemberListResult{}, err
	}
	page := listutil.NewPageInfo(p.Page, p.PerPage, total)
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()

	members, err := deps.Members.List(ctx, filter)
	if err != nil {
		return MemberListResult{}, err
	}
	return MemberListResult{Members: memberViews(members, query.Today), Page: page}, nil
}

func memberViews(members []member.Member, today time.Time) []MemberView {
	views := make([]MemberView, 0, len(members))
	for _, m := range members {
		views = append(views, NewMemberView(m, today))
	}
	return views
}
