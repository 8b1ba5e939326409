package tenancy

import (
	"context"

	"github.com/xraph/tenancy/id"
)

type contextKey int

const (
	ctxKeyTenantID contextKey = iota
	ctxKeyUserID
)

// WithTenant returns a context carrying the active tenant.
// Use this for standalone mode (without Forge).
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, ctxKeyTenantID, tenantID)
}

// WithUser returns a context carrying the acting user.
func WithUser(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, ctxKeyUserID, userID)
}

func tenantIDFromContext(ctx context.Context) string {
	v, ok := ctx.Value(ctxKeyTenantID).(string)
	if !ok {
		return ""
	}
	return v
}

// UserFromContext returns the acting user set with WithUser.
func UserFromContext(ctx context.Context) (id.UserID, bool) {
	v, ok := ctx.Value(ctxKeyUserID).(id.UserID)
	if !ok || v.IsNil() {
		return id.Nil, false
	}
	return v, true
}
