package memory

import (
	"context"
	"math"
	"testing"

	"github.com/xraph/tenancy/store"
	"github.com/xraph/tenancy/store/storetest"
	"github.com/xraph/tenancy/tenant"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(*testing.T) store.Store { return New() })
}

func TestReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()

	tn := &tenant.Tenant{ID: "acme", Name: "Acme", State: tenant.StateNew, Picture: []byte{1}}
	if err := s.CreateTenant(ctx, tn); err != nil {
		t.Fatal(err)
	}
	tn.Name = "Mutated"
	tn.Picture[0] = 9

	got, err := s.GetTenant(ctx, "acme")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Acme" || got.Picture[0] != 1 {
		t.Fatalf("store shares memory with caller: %+v", got)
	}

	got.State = tenant.StateRemoved
	again, _ := s.GetTenant(ctx, "acme")
	if again.State != tenant.StateNew {
		t.Fatal("returned tenant aliases stored tenant")
	}
}

func TestEmptyStore(t *testing.T) {
	ctx := context.Background()
	s := New()

	list, err := s.ListTenants(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", list)
	}
	n, err := s.CountMemberships(ctx, nil)
	if err != nil || n != 0 {
		t.Fatalf("expected 0, got %d, %v", n, err)
	}
}

func TestApplyPagination(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	tests := []struct {
		limit, offset int
		want          int
	}{
		{0, 0, 5},
		{2, 0, 2},
		{2, 4, 1},
		{2, 5, 0},
		{50, math.MaxInt, 0},
		{50, -50, 0},
		{math.MaxInt, 1, 4},
	}
	for _, tt := range tests {
		got := applyPagination(items, limitOffsetOpts{limit: tt.limit, offset: tt.offset})
		if len(got) != tt.want {
			t.Errorf("limit %d offset %d: expected %d items, got %d", tt.limit, tt.offset, tt.want, len(got))
		}
	}
}
