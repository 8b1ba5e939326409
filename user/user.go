// Package user defines the User entity and its store interface.
//
// Credentials, cookies and claims belong to the host's identity framework;
// a User here only carries what tenancy needs to list and relate users.
package user

import (
	"cmp"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/xraph/tenancy/id"
	"github.com/xraph/tenancy/listquery"
)

// User is an application user.
type User struct {
	ID               id.UserID `json:"id" db:"id"`
	Email            string    `json:"email" db:"email"`
	UserName         string    `json:"user_name" db:"user_name"`
	GivenName        string    `json:"given_name,omitempty" db:"given_name"`
	Surname          string    `json:"surname,omitempty" db:"surname"`
	ProfilePicture   []byte    `json:"profile_picture,omitempty" db:"profile_picture"`
	ConcurrencyStamp string    `json:"concurrency_stamp" db:"concurrency_stamp"`
	SearchIndex      string    `json:"-" db:"search_index"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// DisplayName returns "GivenName Surname", falling back to the user name.
func (u *User) DisplayName() string {
	if n := strings.TrimSpace(u.GivenName + " " + u.Surname); n != "" {
		return n
	}
	return u.UserName
}

// BuildSearchIndex recomputes the search index from the searchable fields.
func (u *User) BuildSearchIndex() {
	u.SearchIndex = listquery.SearchIndex(u.Email, u.UserName, u.GivenName, u.Surname)
}

// ErrInvalidEmail is returned when an e-mail address cannot be parsed.
var ErrInvalidEmail = errors.New("user: invalid e-mail address")

// NormalizeEmail validates an address and returns its lowercase form.
func NormalizeEmail(email string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Name != "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return strings.ToLower(addr.Address), nil
}

// ListFilter contains filters for listing users.
type ListFilter struct {
	IDs    []id.UserID `json:"ids,omitempty"`
	Search string      `json:"search,omitempty"`
	SortBy string      `json:"sort_by,omitempty"`
	Limit  int         `json:"limit,omitempty"`
	Offset int         `json:"offset,omitempty"`
}

// SortKeys is the whitelist of sort orders for user listings. The default
// orders by e-mail.
var SortKeys = listquery.NewSortTable(
	listquery.SortKey[*User]{Name: "email", Column: "email", Compare: func(a, b *User) int {
		return strings.Compare(a.Email, b.Email)
	}},
	listquery.SortKey[*User]{Name: "name", Column: "surname", Compare: func(a, b *User) int {
		return cmp.Or(strings.Compare(a.Surname, b.Surname), strings.Compare(a.Email, b.Email))
	}},
	listquery.SortKey[*User]{Name: "created", Column: "created_at", Compare: func(a, b *User) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.Email, b.Email))
	}},
)
