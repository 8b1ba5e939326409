// Package role defines the Role entity, the codec that maps tenant-scoped
// roles onto a single string key, and the role store interface.
//
// A system role is stored under its bare label ("Administrator"). A tenant
// role is stored under "tenant#label" ("acme#Owner"). The label and tenant
// of a role are always derived from that name.
package role

import (
	"cmp"
	"strings"
	"time"

	"github.com/xraph/tenancy/listquery"
)

// Role is a system role or a role scoped to one tenant.
type Role struct {
	Name        string    `json:"name" db:"name"`
	Label       string    `json:"label" db:"label"`
	TenantID    string    `json:"tenant_id,omitempty" db:"tenant_id"`
	Description string    `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// NewSystem builds a system role.
func NewSystem(label, description string) (*Role, error) {
	name, err := EncodeSystemRole(label)
	if err != nil {
		return nil, err
	}
	return &Role{Name: name, Label: DecodeLabel(name), Description: description}, nil
}

// NewTenant builds a role scoped to a tenant.
func NewTenant(tenantID, label, description string) (*Role, error) {
	name, err := EncodeTenantRole(tenantID, label)
	if err != nil {
		return nil, err
	}
	return &Role{
		Name:        name,
		Label:       DecodeLabel(name),
		TenantID:    DecodeTenant(name),
		Description: description,
	}, nil
}

// FromName builds a role from its composite name.
func FromName(name, description string) (*Role, error) {
	if tenantID := DecodeTenant(name); tenantID != "" {
		return NewTenant(tenantID, DecodeLabel(name), description)
	}
	return NewSystem(name, description)
}

// IsSystem reports whether the role has no tenant scope.
func (r *Role) IsSystem() bool { return r.TenantID == "" }

// ListFilter contains filters for listing roles.
type ListFilter struct {
	// TenantID limits the listing to one tenant's roles.
	TenantID string `json:"tenant_id,omitempty"`

	// SystemOnly limits the listing to system roles. Ignored when TenantID
	// is set.
	SystemOnly bool `json:"system_only,omitempty"`

	// Names limits the listing to the given role names.
	Names []string `json:"names,omitempty"`

	Search string `json:"search,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Compare orders roles by tenant, then label.
func Compare(a, b *Role) int {
	return cmp.Or(strings.Compare(a.TenantID, b.TenantID), strings.Compare(a.Label, b.Label))
}

// SearchIndex returns the search index of a role.
func (r *Role) SearchIndex() string {
	return listquery.SearchIndex(r.Name, r.Description)
}
