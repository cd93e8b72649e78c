package projections

import (
	"context"
	"time"

	packageStore "gymdesk/internal/adapters/storage/feepackage"
	"gymdesk/internal/application/listutil"
)

// PackageListFilterKeys are the accepted filter keys for the package list.
var PackageListFilterKeys = []string{"status", "type", "memberId"}

// PackageListQuery is the input for the fee package list.
type PackageListQuery struct {
	Params   listutil.ListParams
	MemberID string
	Today    time.Time
}

// PackageListResult is a page of fee packages.
type PackageListResult struct {
	Packages []PackageView    `json:"packages"`
	Page     listutil.PageInfo `json:"page"`
}

// PackageListDeps holds dependencies for the package list.
type PackageListDeps struct {
	Packages PackageReader
}

// QueryPackageList returns one page of fee packages, newest first.
func QueryPackageList(ctx context.Context, query PackageListQuery, deps PackageListDeps) (PackageListResult, error) {
	p := query.Params
	filter := packageStore.ListFilter{
		MemberID:    p.Filters["memberId"],
		Status:      p.Filters["status"],
		PackageType: p.Filters["type"],
	}
	if query.MemberID != "" {
		filter.MemberID = query.MemberID
	}
	total, err := deps.Packages.Count(ctx, filter)
	if err != nil {
		return PackageListResult{}, err
	}
	page := listutil.NewPageInfo(p.Page, p.PerPage, total)
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()

	packages, err := deps.Packages.List(ctx, filter)
	if err != nil {
		return PackageListResult{}, err
	}
	views := make([]PackageView, 0, len(packages))
	for _, fp := range packages {
		views = append(views, NewPackageView(fp, query.Today))
	}
	return PackageListResult{Packages: views, Page: page}, nil
}
