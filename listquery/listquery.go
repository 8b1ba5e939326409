// Package listquery implements the filter, sort and paginate pipeline shared
// by every listing in tenancy.
//
// A Query carries what a listing screen submits (the current filter, new
// search text, a sort key and a 1-based page). Backends either run the query
// in memory with Apply or translate it into a Plan and push filtering,
// ordering and paging down to the database.
package listquery

import (
	"math"
	"strings"
)

// PageSize is the fixed number of items per page for every listing.
const PageSize = 50

// Query is the input of a listing.
type Query struct {
	// CurrentFilter is the filter carried over from the previous page.
	CurrentFilter string `json:"current_filter,omitempty"`

	// SearchText is newly submitted search text. It takes precedence over
	// CurrentFilter when non-empty.
	SearchText string `json:"search_text,omitempty"`

	// SortOrder names a sort key of the listed entity. Empty or unknown
	// keys fall back to the entity's default order.
	SortOrder string `json:"sort_order,omitempty"`

	// Page is the 1-based page number. Nil or values below 1 mean page 1.
	Page *int `json:"page,omitempty"`
}

// Filter returns the raw filter text in effect: SearchText when set,
// otherwise CurrentFilter.
func (q Query) Filter() string {
	if strings.TrimSpace(q.SearchText) != "" {
		return strings.TrimSpace(q.SearchText)
	}
	return strings.TrimSpace(q.CurrentFilter)
}

// EffectiveFilter returns the normalized filter matched against search
// indexes.
func (q Query) EffectiveFilter() string {
	return strings.ToLower(q.Filter())
}

// PageIndex returns the 1-based page to load.
func (q Query) PageIndex() int {
	if q.Page == nil || *q.Page < 1 {
		return 1
	}
	return *q.Page
}

// Offset returns the number of items preceding the requested page. Pages
// whose offset does not fit an int saturate at math.MaxInt.
func (q Query) Offset() int {
	p := q.PageIndex() - 1
	if p > math.MaxInt/PageSize {
		return math.MaxInt
	}
	return p * PageSize
}

// WithPage returns a copy of q pointing at page p.
func (q Query) WithPage(p int) Query {
	q.Page = &p
	return q
}

// Matches reports whether a search index contains the filter. An empty
// filter matches everything.
func Matches(index, filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(index), filter)
}

// SearchIndex joins the given fields into a lowercase search index.
// Empty fields are skipped.
func SearchIndex(fields ...string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		parts = append(parts, strings.ToLower(f))
	}
	return strings.Join(parts, "~")
}
