package projections

import (
	"context"
	"time"

	billStore "gymdesk/internal/adapters/storage/bill"
	"gymdesk/internal/application/listutil"
)

// BillListFilterKeys are the accepted filter keys for the bill list.
var BillListFilterKeys = []string{"status", "memberId"}

// BillListQuery is the input for the bill list. MemberID, when set, wins over
// the memberId filter so members only ever see their own bills.
type BillListQuery struct {
	Params   listutil.ListParams
	Due      listutil.DateRange
	MemberID string
	Today    time.Time
}

// BillListResult is a page of bills.
type BillListResult struct {
	Bills []BillView        `json:"bills"`
	Page  listutil.PageInfo `json:"page"`
}

// BillListDeps holds dependencies for the bill list.
type BillListDeps struct {
	Bills BillReader
}

// QueryBillList returns one page of bills, newest first.
// POST: a status filter of Overdue includes pending bills already past due
func QueryBillList(ctx context.Context, query BillListQuery, deps BillListDeps) (BillListResult, error) {
	p := query.Params
	filter := billStore.ListFilter{
		MemberID: p.Filters["memberId"],
		Status:   p.Filters["status"],
		DueFrom:  query.Due.From,
		DueTo:    query.Due.To,
		Search:   p.Search,
		AsOf:     query.Today,
	}
	if query.MemberID != "" {
		filter.MemberID = query.MemberID
	}
	total, err := deps.Bills.Count(ctx, filter)
	if err != nil {
		return BillListResult{}, err
	}
	page := listutil.NewPageInfo(p.Page, p.PerPage, total)
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()

	bills, err := deps.Bills.List(ctx, filter)
	if err != nil {
		return BillListResult{}, err
	}
	views := make([]BillView, 0, len(bills))
	for _, b := range bills {
		views = append(views, NewBillView(b, query.Today))
	}
	return BillListResult{Bills: views, Page: page}, nil
}
