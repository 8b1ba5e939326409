package tenancy

import "errors"

var (
	// ErrNoStore is returned when a Manager is built without a store.
	ErrNoStore = errors.New("tenancy: store is required")

	// ErrTenantNotFound is returned when a tenant cannot be found.
	ErrTenantNotFound = errors.New("tenancy: tenant not found")

	// ErrUserNotFound is returned when a user cannot be found.
	ErrUserNotFound = errors.New("tenancy: user not found")

	// ErrRoleNotFound is returned when a role cannot be found.
	ErrRoleNotFound = errors.New("tenancy: role not found")

	// ErrMembershipNotFound is returned when a user is not a member of a tenant
	// and the operation needs the membership row.
	ErrMembershipNotFound = errors.New("tenancy: membership not found")

	// ErrValidation is returned for malformed input such as a bad tenant id,
	// a role label containing '#', or a missing required field.
	ErrValidation = errors.New("tenancy: validation failed")

	// ErrConcurrencyConflict is returned when an update carries a stale
	// concurrency stamp. Reload and retry.
	ErrConcurrencyConflict = errors.New("tenancy: concurrency conflict")

	// ErrTransitionNotAllowed is returned when a tenant lifecycle transition
	// is not allowed from the tenant's current state. The tenant is not
	// modified.
	ErrTransitionNotAllowed = errors.New("tenancy: transition not allowed")

	// ErrDuplicateTenant is returned when a tenant id is already taken.
	ErrDuplicateTenant = errors.New("tenancy: tenant already exists")

	// ErrDuplicateUser is returned when an e-mail address is already taken.
	ErrDuplicateUser = errors.New("tenancy: user already exists")

	// ErrDuplicateRole is returned when a role name is already taken.
	ErrDuplicateRole = errors.New("tenancy: role already exists")

	// ErrLastOwner is returned when removing a user would leave a tenant
	// without an owner.
	ErrLastOwner = errors.New("tenancy: cannot remove the last owner of a tenant")

	// ErrNotMember is returned when a tenant role is granted to a user who is
	// not a member of the role's tenant.
	ErrNotMember = errors.New("tenancy: user is not a member of the tenant")
)

// IsNotFound reports whether err belongs to the not-found family.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTenantNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrRoleNotFound) ||
		errors.Is(err, ErrMembershipNotFound)
}
