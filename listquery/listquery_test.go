package listquery_test

import (
	"cmp"
	"fmt"
	"math"
	"testing"

	gocmp "github.com/google/go-cmp/cmp"

	"github.com/xraph/tenancy/listquery"
)

type item struct {
	Name  string
	Code  string
	Index string
}

var items = listquery.NewSortTable(
	listquery.SortKey[item]{Name: "name", Column: "name", Compare: func(a, b item) int { return cmp.Compare(a.Name, b.Name) }},
	listquery.SortKey[item]{Name: "code", Column: "code", Compare: func(a, b item) int { return cmp.Compare(a.Code, b.Code) }},
)

func index(i item) string { return i.Index }

func makeItems(n int) []item {
	out := make([]item, n)
	for i := range out {
		name := fmt.Sprintf("Item %03d", i)
		code := fmt.Sprintf("C%03d", n-i)
		out[i] = item{Name: name, Code: code, Index: listquery.SearchIndex(name, code)}
	}
	return out
}

func page(p int) *int { return &p }

func TestApplyPagination(t *testing.T) {
	all := makeItems(120)

	tests := []struct {
		page     *int
		want     int
		index    int
		hasPrev  bool
		hasNext  bool
		firstKey string
	}{
		{nil, 50, 1, false, true, "Item 000"},
		{page(0), 50, 1, false, true, "Item 000"},
		{page(-3), 50, 1, false, true, "Item 000"},
		{page(2), 50, 2, true, true, "Item 050"},
		{page(3), 20, 3, true, false, "Item 100"},
		{page(4), 0, 4, true, false, ""},
		{page(math.MaxInt/listquery.PageSize + 2), 0, math.MaxInt/listquery.PageSize + 2, true, false, ""},
		{page(math.MaxInt), 0, math.MaxInt, true, false, ""},
	}

	for _, tt := range tests {
		res := listquery.Apply(all, listquery.Query{Page: tt.page}, index, items)
		got := res.Results
		if len(got.Items) != tt.want {
			t.Fatalf("page %v: expected %d items, got %d", tt.page, tt.want, len(got.Items))
		}
		if got.PageIndex != tt.index {
			t.Errorf("page %v: expected index %d, got %d", tt.page, tt.index, got.PageIndex)
		}
		if got.TotalCount != 120 || got.TotalPages != 3 {
			t.Errorf("page %v: expected 120 items over 3 pages, got %d over %d", tt.page, got.TotalCount, got.TotalPages)
		}
		if got.HasPreviousPage != tt.hasPrev || got.HasNextPage != tt.hasNext {
			t.Errorf("page %v: prev/next = %v/%v", tt.page, got.HasPreviousPage, got.HasNextPage)
		}
		if tt.firstKey != "" && got.Items[0].Name != tt.firstKey {
			t.Errorf("page %v: expected first item %q, got %q", tt.page, tt.firstKey, got.Items[0].Name)
		}
	}
}

func TestOffsetSaturates(t *testing.T) {
	tests := []struct {
		page int
		want int
	}{
		{1, 0},
		{3, 100},
		{math.MaxInt/listquery.PageSize + 1, math.MaxInt / listquery.PageSize * listquery.PageSize},
		{math.MaxInt/listquery.PageSize + 2, math.MaxInt},
		{math.MaxInt, math.MaxInt},
	}
	for _, tt := range tests {
		if got := (listquery.Query{Page: page(tt.page)}).Offset(); got != tt.want {
			t.Errorf("Offset(page %d) = %d, want %d", tt.page, got, tt.want)
		}
	}
}

func TestPageOutOfRange(t *testing.T) {
	all := makeItems(10)
	if got := listquery.Page(all, -50, 50); len(got) != 0 {
		t.Fatalf("negative offset: expected no items, got %d", len(got))
	}
	if got := listquery.Page(all, 5, math.MaxInt); len(got) != 5 {
		t.Fatalf("huge limit: expected 5 items, got %d", len(got))
	}
	if got := listquery.Page(all, math.MaxInt, 50); len(got) != 0 {
		t.Fatalf("huge offset: expected no items, got %d", len(got))
	}
}

func TestApplyFilter(t *testing.T) {
	all := makeItems(120)

	res := listquery.Apply(all, listquery.Query{SearchText: "ITEM 01"}, index, items)
	if res.Results.TotalCount != 10 {
		t.Fatalf("expected 10 matches, got %d", res.Results.TotalCount)
	}

	res = listquery.Apply(all, listquery.Query{SearchText: "nothing like this"}, index, items)
	if len(res.Results.Items) != 0 || res.Results.TotalCount != 0 {
		t.Fatalf("expected no matches, got %d", res.Results.TotalCount)
	}
	if res.Results.PageIndex != 1 {
		t.Errorf("expected page 1, got %d", res.Results.PageIndex)
	}
	if res.Results.Items == nil {
		t.Error("expected empty, non-nil items")
	}
}

func TestSearchTextOverridesCurrentFilter(t *testing.T) {
	all := makeItems(120)

	q := listquery.Query{CurrentFilter: "item 00", SearchText: "item 11"}
	res := listquery.Apply(all, q, index, items)
	if res.Results.TotalCount != 10 {
		t.Fatalf("expected search text to win, got %d matches", res.Results.TotalCount)
	}
	if res.CurrentFilter != "item 11" || res.SearchText != "item 11" {
		t.Errorf("expected echoed filter %q, got %q/%q", "item 11", res.CurrentFilter, res.SearchText)
	}

	q = listquery.Query{CurrentFilter: "item 00"}
	res = listquery.Apply(all, q, index, items)
	if res.Results.TotalCount != 10 {
		t.Fatalf("expected current filter to apply, got %d matches", res.Results.TotalCount)
	}
}

func TestApplySortOrder(t *testing.T) {
	all := makeItems(5)

	res := listquery.Apply(all, listquery.Query{SortOrder: "code"}, index, items)
	var got []string
	for _, it := range res.Results.Items {
		got = append(got, it.Code)
	}
	want := []string{"C001", "C002", "C003", "C004", "C005"}
	if diff := gocmp.Diff(want, got); diff != "" {
		t.Fatalf("sort by code mismatch (-want +got):\n%s", diff)
	}
	if res.SortOrder != "code" {
		t.Errorf("expected sort order echoed, got %q", res.SortOrder)
	}

	// Unknown keys fall back to the default order.
	res = listquery.Apply(all, listquery.Query{SortOrder: "name; DROP TABLE tenants"}, index, items)
	if res.Results.Items[0].Name != "Item 000" {
		t.Fatalf("expected default order, got %q first", res.Results.Items[0].Name)
	}
}

func TestResolvePlan(t *testing.T) {
	q := listquery.Query{SearchText: "  Acme ", SortOrder: "CODE", Page: page(3)}
	got := listquery.Resolve(q, items)
	want := listquery.Plan{Search: "acme", Column: "code", Limit: 50, Offset: 100}
	if diff := gocmp.Diff(want, got); diff != "" {
		t.Fatalf("plan mismatch (-want +got):\n%s", diff)
	}

	got = listquery.Resolve(listquery.Query{SortOrder: "missing"}, items)
	if got.Column != "name" || got.Offset != 0 {
		t.Fatalf("expected default column at offset 0, got %+v", got)
	}
}

func TestMap(t *testing.T) {
	res := listquery.Apply(makeItems(3), listquery.Query{SearchText: "item"}, index, items)
	names := listquery.Map(res, func(i item) string { return i.Name })

	if names.SearchText != "item" || names.Results.TotalCount != 3 {
		t.Fatalf("unexpected projected result: %+v", names)
	}
	if diff := gocmp.Diff([]string{"Item 000", "Item 001", "Item 002"}, names.Results.Items); diff != "" {
		t.Fatalf("projection mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchIndex(t *testing.T) {
	if got := listquery.SearchIndex(" Acme ", "", "Big CORP"); got != "acme~big corp" {
		t.Fatalf("unexpected index %q", got)
	}
}

func TestKeys(t *testing.T) {
	if diff := gocmp.Diff([]string{"code", "name"}, items.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}
