package projections

import (
	"context"
	"time"

	accountStore "gymdesk/internal/adapters/storage/account"
	registrationStore "gymdesk/internal/adapters/storage/registration"
	"gymdesk/internal/application/listutil"
)

// AccountListQuery is the input for the account directory.
type AccountListQuery struct {
	Params listutil.ListParams
	Now    time.Time
}

// AccountListResult is a page of accounts.
type AccountListResult struct {
	Accounts []AccountView    `json:"accounts"`
	Page     listutil.PageInfo `json:"page"`
}

// RegistrationListResult is a page of sign-up requests.
type RegistrationListResult struct {
	Requests []RegistrationView `json:"requests"`
	Page     listutil.PageInfo  `json:"page"`
}

// DirectoryDeps holds dependencies for account and registration queries.
type DirectoryDeps struct {
	Accounts      AccountReader
	Registrations RegistrationReader
}

// QueryAccountList returns one page of accounts, filtered by role.
// INVARIANT: password hashes never leave this function
func QueryAccountList(ctx context.Context, query AccountListQuery, deps DirectoryDeps) (AccountListResult, error) {
	p := query.Params
	filter := accountStore.ListFilter{Role: p.Filters["role"], Search: p.Search}
	total, err := deps.Accounts.Count(ctx, filter)
	if err != nil {
		return AccountListResult{}, err
	}
	page := listutil.NewPageInfo(p.Page, p.PerPage, total)
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()

	list, err := deps.Accounts.List(ctx, filter)
	if err != nil {
		return AccountListResult{}, err
	}
	views := make([]AccountView, 0, len(list))
	for _, a := range list {
		views = append(views, NewAccountView(a, query.Now))
	}
	return AccountListResult{Accounts: views, Page: page}, nil
}

// QueryRegistrationList returns one page of sign-up requests by status.
func QueryRegistrationList(ctx context.Context, params listutil.ListParams, deps DirectoryDeps) (RegistrationListResult, error) {
	filter := registrationStore.ListFilter{Status: params.Filters["status"]}
	total, err := deps.Registrations.Count(ctx, filter)
	if err != nil {
		return RegistrationListResult{}, err
	}
	page := listutil.NewPageInfo(params.Page, params.PerPage, total)
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()

	list, err := deps.Registrations.List(ctx, filter)
	if err != nil {
		return RegistrationListResult{}, err
	}
	views := make([]RegistrationView, 0, len(list))
	for _, r := range list {
		views = append(views, NewRegistrationView(r))
	}
	return RegistrationListResult{Requests: views, Page: page}, nil
}
