package listquery

import (
	"slices"
	"strings"
)

// SortKey is one allowed ordering of an entity. Compare drives in-memory
// sorting; Column names the database column used by SQL and document
// backends. Ordering is always ascending.
type SortKey[T any] struct {
	Name    string
	Column  string
	Compare func(a, b T) int
}

// SortTable is the whitelist of sort keys for an entity type. Sort orders
// are never resolved against struct fields or columns dynamically.
type SortTable[T any] struct {
	def  SortKey[T]
	keys map[string]SortKey[T]
}

// NewSortTable creates a table whose default key is def.
func NewSortTable[T any](def SortKey[T], more ...SortKey[T]) *SortTable[T] {
	t := &SortTable[T]{def: def, keys: make(map[string]SortKey[T], len(more)+1)}
	t.keys[strings.ToLower(def.Name)] = def
	for _, k := range more {
		t.keys[strings.ToLower(k.Name)] = k
	}
	return t
}

// Resolve returns the key named by order, or the default key when order is
// empty or not in the table.
func (t *SortTable[T]) Resolve(order string) SortKey[T] {
	if k, ok := t.keys[strings.ToLower(strings.TrimSpace(order))]; ok {
		return k
	}
	return t.def
}

// ByColumn returns the key bound to a column, or the default key.
func (t *SortTable[T]) ByColumn(column string) SortKey[T] {
	for _, k := range t.keys {
		if k.Column == column {
			return k
		}
	}
	return t.def
}

// HasColumn reports whether column belongs to a key of the table.
func (t *SortTable[T]) HasColumn(column string) bool {
	for _, k := range t.keys {
		if k.Column == column {
			return true
		}
	}
	return false
}

// Default returns the default key.
func (t *SortTable[T]) Default() SortKey[T] { return t.def }

// Keys returns the allowed key names in sorted order.
func (t *SortTable[T]) Keys() []string {
	names := make([]string, 0, len(t.keys))
	for n := range t.keys {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Plan is a query resolved against a sort table, ready to be pushed down
// into a store.
type Plan struct {
	Search string
	Column string
	Limit  int
	Offset int
}

// Resolve turns q into a Plan using the table's column names.
func Resolve[T any](q Query, table *SortTable[T]) Plan {
	return Plan{
		Search: q.EffectiveFilter(),
		Column: table.Resolve(q.SortOrder).Column,
		Limit:  PageSize,
		Offset: q.Offset(),
	}
}

// Apply runs the whole pipeline over an in-memory slice. index returns the
// search index of an item. The input slice is not modified.
func Apply[T any](items []T, q Query, index func(T) string, table *SortTable[T]) Result[T] {
	filter := q.EffectiveFilter()
	matched := make([]T, 0, len(items))
	for _, it := range items {
		if Matches(index(it), filter) {
			matched = append(matched, it)
		}
	}

	key := table.Resolve(q.SortOrder)
	slices.SortStableFunc(matched, key.Compare)

	total := int64(len(matched))
	page := Page(matched, q.Offset(), PageSize)
	return NewResult(q, NewPaginatedList(page, total, q.PageIndex()))
}

// Page returns the window [offset, offset+limit) of items, or an empty
// slice when offset is past the end.
func Page[T any](items []T, offset, limit int) []T {
	if offset < 0 || offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if limit <= 0 || limit > len(items)-offset {
		end = len(items)
	}
	return items[offset:end]
}
