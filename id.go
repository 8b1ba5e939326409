package tenancy

import "github.com/xraph/tenancy/id"

// ID is the identifier type for users and memberships.
type ID = id.ID

// UserID identifies an application user.
type UserID = id.UserID
