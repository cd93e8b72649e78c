package projections

import (
	"context"
	"time"

	dietPlanStore "gymdesk/internal/adapters/storage/dietplan"
	"gymdesk/internal/application/listutil"
)

// DietPlanListFilterKeys are the accepted filter keys for the diet plan list.
var DietPlanListFilterKeys = []string{"status", "goal", "memberId"}

// DietPlanListQuery is the input for the diet plan list. MemberID, when set,
// overrides any memberId filter.
type DietPlanListQuery struct {
	Params   listutil.ListParams
	MemberID string
	Today    time.Time
}

// DietPlanListResult is a page of diet plans.
type DietPlanListResult struct {
	Plans []DietPlanView    `json:"plans"`
	Page  listutil.PageInfo `json:"page"`
}

// DietPlanListDeps holds dependencies for the diet plan list.
type DietPlanListDeps struct {
	Plans DietPlanReader
}

// QueryDietPlanList returns one page of diet plans, latest start first.
func QueryDietPlanList(ctx context.Context, query DietPlanListQuery, deps DietPlanListDeps) (DietPlanListResult, error) {
	p := query.Params
	filter := dietPlanStore.ListFilter{
		MemberID: p.Filters["memberId"],
		Status:   p.Filters["status"],
		Goal:     p.Filters["goal"],
	}
	if query.MemberID != "" {
		filter.MemberID = query.MemberID
	}
	total, err := deps.Plans.Count(ctx, filter)
	if err != nil {
		return DietPlanListResult{}, err
	}
	page := listutil.NewPageInfo(p.Page, p.PerPage, total)
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()

	plans, err := deps.Plans.List(ctx, filter)
	if err != nil {
		return DietPlanListResult{}, err
	}
	views := make([]DietPlanView, 0, len(plans))
	for _, dp := range plans {
		views = append(views, NewDietPlanView(dp, query.Today))
	}
	return DietPlanListResult{Plans: views, Page: page}, nil
}
