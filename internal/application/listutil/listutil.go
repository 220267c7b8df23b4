// Package listutil turns list-view query strings (search, filters, sort
// and paging) into validated parameters, and back into links.
package listutil

import (
	"maps"
	"net/url"
	"slices"
	"strconv"
)

// DefaultPerPage is the page size used when the request names none.
const DefaultPerPage = 20

// PerPageOptions are the page sizes a request may ask for.
var PerPageOptions = []int{10, 20, 50, 100}

// pageWindow is how many page links are shown around the current page.
const pageWindow = 5

// Spec describes what one list view accepts.
type Spec struct {
	SortColumns []string // allowed sort keys; anything else falls back to ""
	FilterKeys  []string // allowed exact-match filters
}

// Params is a parsed list request.
// INVARIANT: Dir is "asc" or "desc"; Page >= 1; PerPage is one of PerPageOptions
type Params struct {
	Search  string
	Filters map[string]string
	Sort    string
	Dir     string
	Page    int
	PerPage int
}

// Parse reads q against spec. Unknown sort columns, filters and page sizes
// are dropped rather than rejected.
func Parse(q url.Values, spec Spec) Params {
	p := Params{
		Search:  q.Get("q"),
		Filters: make(map[string]string),
		Dir:     "asc",
		Page:    1,
		PerPage: DefaultPerPage,
	}
	if s := q.Get("sort"); slices.Contains(spec.SortColumns, s) {
		p.Sort = s
	}
	if q.Get("dir") == "desc" {
		p.Dir = "desc"
	}
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 1 {
		p.Page = n
	}
	if n, err := strconv.Atoi(q.Get("per_page")); err == nil && slices.Contains(PerPageOptions, n) {
		p.PerPage = n
	}
	for _, key := range spec.FilterKeys {
		if v := q.Get(key); v != "" {
			p.Filters[key] = v
		}
	}
	return p
}

// Desc reports whether the list sorts descending.
func (p Params) Desc() bool {
	return p.Dir == "desc"
}

// Filter returns one filter value, "" when unset.
func (p Params) Filter(key string) string {
	return p.Filters[key]
}

// Values encodes p, leaving out defaults so links stay short.
func (p Params) Values() url.Values {
	q := url.Values{}
	if p.Search != "" {
		q.Set("q", p.Search)
	}
	for _, k := range slices.Sorted(maps.Keys(p.Filters)) {
		q.Set(k, p.Filters[k])
	}
	if p.Sort != "" {
		q.Set("sort", p.Sort)
		q.Set("dir", p.Dir)
	}
	if p.Page > 1 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage != DefaultPerPage && p.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(p.PerPage))
	}
	return q
}

// AtPage returns the query string for page n of the same list.
func (p Params) AtPage(n int) string {
	p.Page = n
	return p.Values().Encode()
}

// SortedBy returns the query string for the list sorted by col. Choosing
// the current column flips the direction; paging restarts at 1.
func (p Params) SortedBy(col string) string {
	dir := "asc"
	if p.Sort == col && p.Dir == "asc" {
		dir = "desc"
	}
	p.Sort, p.Dir, p.Page = col, dir, 1
	return p.Values().Encode()
}

// Unpaged returns the query string for every row of the list, as used by exports.
func (p Params) Unpaged() string {
	p.Page, p.PerPage = 1, DefaultPerPage
	return p.Values().Encode()
}

// PageInfo is pagination metadata for one rendered page.
type PageInfo struct {
	Page       int // 1-indexed, clamped to [1, TotalPages]
	PerPage    int
	Total      int
	TotalPages int // at least 1
}

// NewPageInfo clamps page into range for total rows.
// POST: 1 <= Page <= TotalPages
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	pages := max(1, (total+perPage-1)/perPage)
	return PageInfo{
		Page:       min(max(page, 1), pages),
		PerPage:    perPage,
		Total:      total,
		TotalPages: pages,
	}
}

// Offset is the SQL OFFSET of the page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// StartRow is the 1-indexed first row shown, 0 for an empty list.
func (p PageInfo) StartRow() int {
	if p.Total == 0 {
		return 0
	}
	return p.Offset() + 1
}

// EndRow is the 1-indexed last row shown.
func (p PageInfo) EndRow() int {
	return min(p.Offset()+p.PerPage, p.Total)
}

// PageNumbers returns up to five page numbers around the current page.
func (p PageInfo) PageNumbers() []int {
	start := max(1, p.Page-pageWindow/2)
	end := min(p.TotalPages, start+pageWindow-1)
	start = max(1, end-pageWindow+1)
	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}

// ShowPagination reports whether there is more than one page.
func (p PageInfo) ShowPagination() bool {
	return p.TotalPages > 1
}
