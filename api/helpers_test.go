package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/xraph/tenancy"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{tenancy.ErrTenantNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: %w", tenancy.ErrMembershipNotFound, errors.New("store")), http.StatusNotFound},
		{tenancy.ErrValidation, http.StatusBadRequest},
		{tenancy.ErrNotMember, http.StatusForbidden},
		{tenancy.ErrConcurrencyConflict, http.StatusConflict},
		{tenancy.ErrTransitionNotAllowed, http.StatusConflict},
		{tenancy.ErrDuplicateUser, http.StatusConflict},
		{tenancy.ErrLastOwner, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusOf(tt.err); got != tt.want {
			t.Errorf("statusOf(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestListRequestQuery(t *testing.T) {
	q := ListRequest{CurrentFilter: "old", SearchText: "New", SortOrder: "id", PageIndex: 3}.query()
	if q.EffectiveFilter() != "new" {
		t.Errorf("filter = %q", q.EffectiveFilter())
	}
	if q.PageIndex() != 3 || q.Offset() != 100 {
		t.Errorf("page = %d offset = %d", q.PageIndex(), q.Offset())
	}

	if q := (ListRequest{}).query(); q.PageIndex() != 1 || q.Page != nil {
		t.Errorf("zero request should load page 1, got %+v", q)
	}
}
