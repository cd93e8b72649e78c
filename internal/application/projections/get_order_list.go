package projections

import (
	"context"

	supplementStore "gymdesk/internal/adapters/storage/supplement"
	"gymdesk/internal/application/listutil"
)

// OrderListFilterKeys are the accepted filter keys for the order list.
var OrderListFilterKeys = []string{"status", "memberId"}

// OrderListQuery is the input for the order list. MemberID or PlacedBy, when
// set, pins the list to one customer.
type OrderListQuery struct {
	Params   listutil.ListParams
	Dates    listutil.DateRange
	MemberID string
	PlacedBy string
}

// OrderListResult is a page of orders.
type OrderListResult struct {
	Orders []OrderView        `json:"orders"`
	Page   listutil.PageInfo `json:"page"`
}

// OrderListDeps holds dependencies for the order list.
type OrderListDeps struct {
	Orders OrderReader
}

// QueryOrderList returns one page of orders, newest first.
func QueryOrderList(ctx context.Context, query OrderListQuery, deps OrderListDeps) (OrderListResult, error) {
	p := query.Params
	filter := supplementStore.OrderFilter{
		MemberID: p.Filters["memberId"],
		Status:   p.Filters["status"],
		From:     query.Dates.From,
		To:       query.Dates.To,
	}
	if query.MemberID != "" {
		filter.MemberID = query.MemberID
	}
	if query.PlacedBy != "" {
		filter.PlacedBy = query.PlacedBy
	}
	total, err := deps.Orders.Count(ctx, filter)
	if err != nil {
		return OrderListResult{}, err
	}
	page := listutil.NewPageInfo(p.Page, p.PerPage, total)
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()

	orders, err := deps.Orders.List(ctx, filter)
	if err != nil {
		return OrderListResult{}, err
	}
	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, NewOrderView(o))
	}
	return OrderListResult{Orders: views, Page: page}, nil
}
