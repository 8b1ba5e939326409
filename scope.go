package tenancy

import (
	"context"

	"github.com/xraph/forge"

	"github.com/xraph/tenancy/tenant"
)

// TenantFromContext returns the active tenant ID. The Forge scope's
// organization takes precedence; standalone callers use WithTenant.
// The returned ID is normalized; ok is false when no tenant is set.
func TenantFromContext(ctx context.Context) (string, bool) {
	if s, ok := forge.ScopeFrom(ctx); ok && s.OrgID() != "" {
		return tenant.NormalizeID(s.OrgID()), true
	}
	if t := tenantIDFromContext(ctx); t != "" {
		return tenant.NormalizeID(t), true
	}
	return "", false
}
