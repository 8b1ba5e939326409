package listquery

// PaginatedList is one page of a listing plus the metadata needed to render
// page links.
type PaginatedList[T any] struct {
	Items           []T   `json:"items"`
	PageIndex       int   `json:"page_index"`
	TotalPages      int   `json:"total_pages"`
	TotalCount      int64 `json:"total_count"`
	HasPreviousPage bool  `json:"has_previous_page"`
	HasNextPage     bool  `json:"has_next_page"`
}

// NewPaginatedList builds a page from its items, the total number of matches
// and the 1-based page index.
func NewPaginatedList[T any](items []T, total int64, pageIndex int) PaginatedList[T] {
	if pageIndex < 1 {
		pageIndex = 1
	}
	if items == nil {
		items = []T{}
	}
	pages := int((total + PageSize - 1) / PageSize)
	return PaginatedList[T]{
		Items:           items,
		PageIndex:       pageIndex,
		TotalPages:      pages,
		TotalCount:      total,
		HasPreviousPage: pageIndex > 1,
		HasNextPage:     pageIndex < pages,
	}
}

// Result is the output of a listing. The filter fields echo the query so
// the caller can carry them into the next request.
type Result[T any] struct {
	CurrentFilter string           `json:"current_filter"`
	SearchText    string           `json:"search_text"`
	SortOrder     string           `json:"sort_order"`
	Results       PaginatedList[T] `json:"results"`
}

// NewResult wraps a page with the echoed query fields.
func NewResult[T any](q Query, list PaginatedList[T]) Result[T] {
	f := q.Filter()
	return Result[T]{
		CurrentFilter: f,
		SearchText:    f,
		SortOrder:     q.SortOrder,
		Results:       list,
	}
}

// Map projects every item of a result into a view type.
func Map[T, V any](r Result[T], fn func(T) V) Result[V] {
	items := make([]V, len(r.Results.Items))
	for i, it := range r.Results.Items {
		items[i] = fn(it)
	}
	return Result[V]{
		CurrentFilter: r.CurrentFilter,
		SearchText:    r.SearchText,
		SortOrder:     r.SortOrder,
		Results: PaginatedList[V]{
			Items:           items,
			PageIndex:       r.Results.PageIndex,
			TotalPages:      r.Results.TotalPages,
			TotalCount:      r.Results.TotalCount,
			HasPreviousPage: r.Results.HasPreviousPage,
			HasNextPage:     r.Results.HasNextPage,
		},
	}
}
