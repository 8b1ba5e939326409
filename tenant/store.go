package tenant

import "context"

// Store defines persistence operations for tenants.
type Store interface {
	// CreateTenant persists a new tenant.
	CreateTenant(ctx context.Context, t *Tenant) error

	// GetTenant retrieves a tenant by ID.
	GetTenant(ctx context.Context, tenantID string) (*Tenant, error)

	// UpdateTenant persists changes to a tenant. The update only applies
	// when the stored concurrency stamp equals expectedStamp; t carries the
	// new stamp.
	UpdateTenant(ctx context.Context, t *Tenant, expectedStamp string) error

	// ListTenants returns tenants matching the filter.
	ListTenants(ctx context.Context, filter *ListFilter) ([]*Tenant, error)

	// CountTenants returns the number of tenants matching the filter.
	CountTenants(ctx context.Context, filter *ListFilter) (int64, error)
}
