package projections

import (
	"context"

	supplementStore "gymdesk/internal/adapters/storage/supplement"
	"gymdesk/internal/application/listutil"
	"gymdesk/internal/domain/supplement"
)

// SupplementListFilterKeys are the accepted filter keys for the catalog.
var SupplementListFilterKeys = []string{"category", "inStock"}

// SupplementListQuery is the input for the supplement catalog.
type SupplementListQuery struct {
	Params listutil.ListParams
	// InStockOnly hides sold-out products regardless of the inStock filter.
	InStockOnly bool
}

// SupplementListResult is a page of catalog entries.
type SupplementListResult struct {
	Supplements []SupplementView  `json:"supplements"`
	Page        listutil.PageInfo `json:"page"`
}

// SupplementListDeps holds dependencies for the catalog.
type SupplementListDeps struct {
	Supplements SupplementReader
}

// QuerySupplementList returns one page of the catalog, by name.
func QuerySupplementList(ctx context.Context, query SupplementListQuery, deps SupplementListDeps) (SupplementListResult, error) {
	p := query.Params
	filter := supplementStore.ListFilter{
		Search:      p.Search,
		Category:    p.Filters["category"],
		InStockOnly: query.InStockOnly || p.Filters["inStock"] == "true",
	}
	total, err := deps.Supplements.Count(ctx, filter)
	if err != nil {
		return SupplementListResult{}, err
	}
	page := listutil.NewPageInfo(p.Page, p.PerPage, total)
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()

	list, err := deps.Supplements.List(ctx, filter)
	if err != nil {
		return SupplementListResult{}, err
	}
	return SupplementListResult{Supplements: supplementViews(list), Page: page}, nil
}

func supplementViews(list []supplement.Supplement) []SupplementView {
	views := make([]SupplementView, 0, len(list))
	for _, s := range list {
		views = append(views, NewSupplementView(s))
	}
	return views
}
