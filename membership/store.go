package membership

import (
	"context"

	"github.com/xraph/tenancy/id"
)

// Store defines persistence operations for memberships and user roles.
type Store interface {
	// CreateMembership persists a new membership.
	CreateMembership(ctx context.Context, m *UserTenant) error

	// GetMembership retrieves the membership of a user in a tenant.
	GetMembership(ctx context.Context, userID id.UserID, tenantID string) (*UserTenant, error)

	// UpdateMembership persists changes to a membership when the stored
	// concurrency stamp equals expectedStamp.
	UpdateMembership(ctx context.Context, m *UserTenant, expectedStamp string) error

	// DeleteMembership removes the membership of a user in a tenant together
	// with every role the user holds in that tenant, atomically.
	DeleteMembership(ctx context.Context, userID id.UserID, tenantID string) error

	// ListMemberships returns memberships matching the filter, oldest first.
	ListMemberships(ctx context.Context, filter *ListFilter) ([]*UserTenant, error)

	// CountMemberships returns the number of memberships matching the filter.
	CountMemberships(ctx context.Context, filter *ListFilter) (int64, error)

	// AddUserRole persists a role grant.
	AddUserRole(ctx context.Context, ur *UserRole) error

	// RemoveUserRole removes a role grant.
	RemoveUserRole(ctx context.Context, userID id.UserID, roleName string) error

	// ListUserRoles returns role grants matching the filter.
	ListUserRoles(ctx context.Context, filter *RoleFilter) ([]*UserRole, error)
}
