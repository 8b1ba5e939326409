// Package tenant defines the Tenant entity, its lifecycle states and the
// guard predicates that decide which state transitions are allowed.
package tenant

import (
	"cmp"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/xraph/tenancy/listquery"
)

// Tenant is an isolated customer workspace. All tenant-scoped data is
// partitioned by its ID.
type Tenant struct {
	ID               string    `json:"id" db:"id"`
	State            State     `json:"state" db:"state"`
	Name             string    `json:"name" db:"name"`
	Description      string    `json:"description,omitempty" db:"description"`
	Remark           string    `json:"remark,omitempty" db:"remark"`
	Picture          []byte    `json:"picture,omitempty" db:"picture"`
	DatabaseProvider string    `json:"database_provider,omitempty" db:"database_provider"`
	ConnectionString string    `json:"connection_string,omitempty" db:"connection_string"`
	ConcurrencyStamp string    `json:"concurrency_stamp" db:"concurrency_stamp"`
	SearchIndex      string    `json:"-" db:"search_index"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// BuildSearchIndex recomputes the search index from the searchable fields.
func (t *Tenant) BuildSearchIndex() {
	t.SearchIndex = listquery.SearchIndex(t.ID, t.Name, t.Description)
}

// ErrInvalidID is returned when a tenant identifier is malformed.
var ErrInvalidID = errors.New("tenant: id must be 2-24 lowercase letters or digits")

var idPattern = regexp.MustCompile(`^[a-z0-9]{2,24}$`)

// NormalizeID trims and lowercases a tenant identifier.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// ValidateID checks that id matches ^[a-z0-9]+$ with a length of 2 to 24.
// The id is checked as given; callers normalize first when accepting input.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// ListFilter contains filters for listing tenants.
type ListFilter struct {
	States []State `json:"states,omitempty"`
	Search string  `json:"search,omitempty"`
	SortBy string  `json:"sort_by,omitempty"`
	Limit  int     `json:"limit,omitempty"`
	Offset int     `json:"offset,omitempty"`
}

// HasState reports whether the filter admits s.
func (f *ListFilter) HasState(s State) bool {
	if f == nil || len(f.States) == 0 {
		return true
	}
	for _, v := range f.States {
		if v == s {
			return true
		}
	}
	return false
}

// SortKeys is the whitelist of sort orders for tenant listings. The
// default orders by name.
var SortKeys = listquery.NewSortTable(
	listquery.SortKey[*Tenant]{Name: "name", Column: "name", Compare: func(a, b *Tenant) int {
		return cmp.Or(strings.Compare(a.Name, b.Name), strings.Compare(a.ID, b.ID))
	}},
	listquery.SortKey[*Tenant]{Name: "id", Column: "id", Compare: func(a, b *Tenant) int {
		return strings.Compare(a.ID, b.ID)
	}},
	listquery.SortKey[*Tenant]{Name: "state", Column: "state", Compare: func(a, b *Tenant) int {
		return cmp.Or(cmp.Compare(a.State, b.State), strings.Compare(a.ID, b.ID))
	}},
	listquery.SortKey[*Tenant]{Name: "created", Column: "created_at", Compare: func(a, b *Tenant) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID, b.ID))
	}},
)
