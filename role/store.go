package role

import "context"

// Store defines persistence operations for roles.
type Store interface {
	// CreateRole persists a new role.
	CreateRole(ctx context.Context, r *Role) error

	// GetRole retrieves a role by its composite name.
	GetRole(ctx context.Context, name string) (*Role, error)

	// DeleteRole removes a role by name.
	DeleteRole(ctx context.Context, name string) error

	// ListRoles returns roles matching the filter, ordered by tenant and
	// label.
	ListRoles(ctx context.Context, filter *ListFilter) ([]*Role, error)
}
