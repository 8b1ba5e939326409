package tenancy

import (
	"context"

	"github.com/xraph/tenancy/id"
)

// Cache caches the tenant memberships of users. It backs IsUserInTenant
// and TenantsForUser, and is invalidated on every membership change.
type Cache interface {
	// GetMemberships returns the cached tenant IDs of a user, if available.
	GetMemberships(ctx context.Context, userID id.UserID) ([]string, bool)

	// SetMemberships stores the tenant IDs of a user.
	SetMemberships(ctx context.Context, userID id.UserID, tenantIDs []string)

	// InvalidateUser removes the cached memberships of a user.
	InvalidateUser(ctx context.Context, userID id.UserID)
}
