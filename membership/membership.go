// Package membership defines the join entities that relate users to
// tenants (UserTenant) and to roles (UserRole), and their store interface.
package membership

import (
	"time"

	"github.com/xraph/tenancy/id"
	"github.com/xraph/tenancy/role"
)

// UserTenant records that a user belongs to a tenant, independently of the
// roles the user holds there. (UserID, TenantID) is unique.
type UserTenant struct {
	ID               id.MembershipID `json:"id" db:"id"`
	UserID           id.UserID       `json:"user_id" db:"user_id"`
	TenantID         string          `json:"tenant_id" db:"tenant_id"`
	Remark           string          `json:"remark,omitempty" db:"remark"`
	ConcurrencyStamp string          `json:"concurrency_stamp" db:"concurrency_stamp"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// UserRole grants a role to a user. TenantID and Label are derived from
// RoleName; build values with NewUserRole.
type UserRole struct {
	UserID    id.UserID `json:"user_id" db:"user_id"`
	RoleName  string    `json:"role_name" db:"role_name"`
	TenantID  string    `json:"tenant_id,omitempty" db:"tenant_id"`
	Label     string    `json:"label" db:"label"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NewUserRole builds a grant of roleName to userID with the tenant and
// label derived from the name.
func NewUserRole(userID id.UserID, roleName string) (*UserRole, error) {
	r, err := role.FromName(roleName, "")
	if err != nil {
		return nil, err
	}
	return &UserRole{
		UserID:   userID,
		RoleName: r.Name,
		TenantID: r.TenantID,
		Label:    r.Label,
	}, nil
}

// Consistent reports whether TenantID and Label match RoleName.
func (ur *UserRole) Consistent() bool {
	return ur.TenantID == role.DecodeTenant(ur.RoleName) && ur.Label == role.DecodeLabel(ur.RoleName)
}

// ListFilter contains filters for listing memberships. At least one of
// UserID and TenantID is normally set.
type ListFilter struct {
	UserID   id.UserID `json:"user_id,omitempty"`
	TenantID string    `json:"tenant_id,omitempty"`
	Limit    int       `json:"limit,omitempty"`
	Offset   int       `json:"offset,omitempty"`
}

// RoleFilter contains filters for listing user roles.
type RoleFilter struct {
	UserID   id.UserID `json:"user_id,omitempty"`
	TenantID string    `json:"tenant_id,omitempty"`
	RoleName string    `json:"role_name,omitempty"`
}
