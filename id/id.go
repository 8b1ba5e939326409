// Package id holds the TypeID identifiers of users ("usr") and membership
// rows ("mbr"). Tenants and roles are keyed by natural names, a tenant slug
// and a composite role name, and do not use this package.
package id

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

const (
	PrefixUser       Prefix = "usr"
	PrefixMembership Prefix = "mbr"
)

// ID is a prefixed, K-sortable identifier such as
// "usr_01h2xcejqtf2nbrexx3vqjhp41". The zero value is Nil.
//
//nolint:recvcheck // UnmarshalText and Scan need pointer receivers.
type ID struct {
	tid typeid.TypeID
	set bool
}

// UserID identifies an application user.
type UserID = ID

// MembershipID identifies a user-tenant membership row.
type MembershipID = ID

// Nil is the zero-value ID.
var Nil ID

func generate(p Prefix) ID {
	tid, err := typeid.Generate(string(p))
	if err != nil {
		panic(fmt.Sprintf("id: generate %q: %v", p, err))
	}
	return ID{tid: tid, set: true}
}

// NewUserID generates a user ID.
func NewUserID() UserID { return generate(PrefixUser) }

// NewMembershipID generates a membership ID.
func NewMembershipID() MembershipID { return generate(PrefixMembership) }

// Parse parses any TypeID string.
func Parse(s string) (ID, error) {
	if strings.TrimSpace(s) == "" {
		return Nil, fmt.Errorf("id: empty identifier")
	}
	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}
	return ID{tid: tid, set: true}, nil
}

func parseAs(s string, want Prefix) (ID, error) {
	i, err := Parse(s)
	if err != nil {
		return Nil, err
	}
	if got := i.Prefix(); got != want {
		return Nil, fmt.Errorf("id: %q is a %q id, want %q", s, got, want)
	}
	return i, nil
}

// ParseUserID parses a user ID, rejecting other prefixes.
func ParseUserID(s string) (UserID, error) { return parseAs(s, PrefixUser) }

// ParseMembershipID parses a membership ID, rejecting other prefixes.
func ParseMembershipID(s string) (MembershipID, error) { return parseAs(s, PrefixMembership) }

// String returns "prefix_suffix", or "" for Nil.
func (i ID) String() string {
	if !i.set {
		return ""
	}
	return i.tid.String()
}

// Prefix returns the entity prefix, or "" for Nil.
func (i ID) Prefix() Prefix {
	if !i.set {
		return ""
	}
	return Prefix(i.tid.Prefix())
}

// IsNil reports whether i is the zero value.
func (i ID) IsNil() bool { return !i.set }

// MarshalText implements encoding.TextMarshaler. Nil marshals to "".
func (i ID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler. Empty text yields Nil.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Value implements driver.Valuer. Nil is stored as NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.set {
		return nil, nil //nolint:nilnil // NULL
	}
	return i.String(), nil
}

// Scan implements sql.Scanner for string, []byte and NULL columns.
func (i *ID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*i = Nil
		return nil
	case string:
		return i.UnmarshalText([]byte(v))
	case []byte:
		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T", src)
	}
}
