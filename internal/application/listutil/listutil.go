package listutil

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gymdesk/internal/domain/membership"
)

// PageParams carries pagination parameters parsed from a request.
type PageParams struct {
	Page    int // 1-indexed page number
	PerPage int
}

// SortParams carries sorting parameters parsed from a request.
type SortParams struct {
	Sort string // API column name, e.g. endDate
	Dir  string // "asc" or "desc"
}

// FilterParams carries search and filter parameters.
type FilterParams struct {
	Search  string
	Filters map[string]string // exact-match filters (e.g. status=Expired)
}

// PageInfo is the pagination block returned alongside list results.
type PageInfo struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ListParams combines all list parameters.
type ListParams struct {
	PageParams
	SortParams
	FilterParams
}

// DateRange is an inclusive civil date window; zero ends are open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// DefaultPerPage is the default number of rows per page.
const DefaultPerPage = 20

// MaxPerPage caps per_page so one request cannot pull the whole table.
const MaxPerPage = 500

// ErrDateRangeOrder is returned when from is after to.
var ErrDateRangeOrder = errors.New("from date cannot be after to date")

// ParsePageParams extracts page and per_page from URL query values.
// PRE: none
// POST: returns valid PageParams with defaults applied
func ParsePageParams(q url.Values) PageParams {
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return PageParams{Page: page, PerPage: perPage}
}

// ParseSortParams extracts sort and dir from URL query values.
// PRE: none
// POST: returns SortParams; Dir is always "asc" or "desc"
func ParseSortParams(q url.Values, allowedColumns []string) SortParams {
	sort := q.Get("sort")
	dir := strings.ToLower(q.Get("dir"))

	if !isAllowedColumn(sort, allowedColumns) {
		sort = ""
	}
	if dir != "asc" && dir != "desc" {
		dir = "asc"
	}
	return SortParams{Sort: sort, Dir: dir}
}

// ParseFilterParams extracts the search term and named filters. The search
// term is read from "search", falling back to "q".
// PRE: filterKeys lists the allowed filter parameter names
// POST: returns FilterParams with only recognised keys; "all" means no filter
func ParseFilterParams(q url.Values, filterKeys []string) FilterParams {
	search := q.Get("search")
	if search == "" {
		search = q.Get("q")
	}
	fp := FilterParams{
		Search:  strings.TrimSpace(search),
		Filters: make(map[string]string),
	}
	for _, key := range filterKeys {
		if v := strings.TrimSpace(q.Get(key)); v != "" && !strings.EqualFold(v, "all") {
			fp.Filters[key] = v
		}
	}
	return fp
}

// ParseListParams parses all list parameters from URL query values.
func ParseListParams(q url.Values, allowedSortCols []string, filterKeys []string) ListParams {
	return ListParams{
		PageParams:   ParsePageParams(q),
		SortParams:   ParseSortParams(q, allowedSortCols),
		FilterParams: ParseFilterParams(q, filterKeys),
	}
}

// ParseDateRange reads YYYY-MM-DD values from the from and to keys.
// POST: returns ErrDateRangeOrder if both are set and from > to
func ParseDateRange(q url.Values, fromKey, toKey string) (DateRange, error) {
	var r DateRange
	var err error
	if v := q.Get(fromKey); v != "" {
		if r.From, err = membership.ParseDate(v); err != nil {
			return DateRange{}, err
		}
	}
	if v := q.Get(toKey); v != "" {
		if r.To, err = membership.ParseDate(v); err != nil {
			return DateRange{}, err
		}
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.From.After(r.To) {
		return DateRange{}, ErrDateRangeOrder
	}
	return r, nil
}

// NewPageInfo computes pagination metadata.
// PRE: total >= 0
// POST: returns PageInfo with TotalPages computed; Page clamped to valid range
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return PageInfo{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Offset returns the SQL OFFSET for the current page.
// POST: Returns (Page-1) * PerPage
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// HasNext reports whether a later page exists.
func (p PageInfo) HasNext() bool {
	return p.Page < p.TotalPages
}

func isAllowedColumn(col string, allowed []string) bool {
	for _, a := range allowed {
		if col == a {
			return true
		}
	}
	return false
}
