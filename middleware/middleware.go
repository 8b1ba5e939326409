// Package middleware resolves the active tenant of a request and gates
// routes on tenant membership.
package middleware

import (
	"context"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/tenancy"
	"github.com/xraph/tenancy/id"
	"github.com/xraph/tenancy/tenant"
)

// Request locations the tenant is read from, in order of precedence.
const (
	ParamTenantID  = "tenantId"
	HeaderTenantID = "X-Tenant-ID"
	CookieTenantID = "TenantID"
)

// TenantFrom returns the normalized tenant ID named by the request. ok is
// false when the request names no tenant. A malformed path parameter or
// header is an error; a malformed cookie is ignored, since cookies outlive
// the tenant they were set for.
func TenantFrom(ctx forge.Context) (tenantID string, ok bool, err error) {
	for _, raw := range []string{ctx.Param(ParamTenantID), ctx.Header(HeaderTenantID)} {
		if raw == "" {
			continue
		}
		tid := tenant.NormalizeID(raw)
		if err := tenant.ValidateID(tid); err != nil {
			return "", false, err
		}
		return tid, true, nil
	}

	raw, cerr := ctx.Cookie(CookieTenantID)
	if cerr != nil || raw == "" {
		return "", false, nil
	}
	tid := tenant.NormalizeID(raw)
	if tenant.ValidateID(tid) != nil {
		return "", false, nil
	}
	return tid, true, nil
}

// ResolveTenant puts the request's tenant on the request context, where
// tenancy.TenantFromContext finds it. Requests naming a malformed tenant
// are answered with 400; requests naming none pass through unchanged.
func ResolveTenant() forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			tid, ok, err := TenantFrom(ctx)
			if err != nil {
				return deny(ctx, http.StatusBadRequest, err.Error())
			}
			if ok {
				ctx.WithContext(tenancy.WithTenant(ctx.Context(), tid))
			}
			return next(ctx)
		}
	}
}

// RequireMember allows the request only when the authenticated user is a
// member of the active tenant.
func RequireMember(mgr *tenancy.Manager) forge.Middleware {
	return gate(mgr.IsUserInTenant)
}

// RequireOwner allows the request only when the authenticated user holds
// the Owner role of the active tenant.
func RequireOwner(mgr *tenancy.Manager) forge.Middleware {
	return gate(mgr.IsTenantOwner)
}

// gate allows the request when allowed reports true for the acting user
// and the active tenant.
func gate(allowed func(context.Context, id.UserID, string) (bool, error)) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			tid, uid, status := resolve(ctx)
			if status != 0 {
				return deny(ctx, status, http.StatusText(status))
			}
			ok, err := allowed(ctx.Context(), uid, tid)
			if err != nil {
				return err
			}
			if !ok {
				return deny(ctx, http.StatusForbidden, http.StatusText(http.StatusForbidden))
			}
			return next(ctx)
		}
	}
}

// resolve extracts the active tenant and the acting user. A non-zero status
// reports why the request cannot proceed.
func resolve(ctx forge.Context) (string, id.UserID, int) {
	tid, ok := tenancy.TenantFromContext(ctx.Context())
	if !ok {
		var err error
		tid, ok, err = TenantFrom(ctx)
		if err != nil || !ok {
			return "", id.Nil, http.StatusBadRequest
		}
	}
	uid, ok := resolveUser(ctx)
	if !ok {
		return "", id.Nil, http.StatusUnauthorized
	}
	return tid, uid, 0
}

// resolveUser returns the acting user.
// Priority: standalone context user → Forge user ID (from Authsome).
func resolveUser(ctx forge.Context) (id.UserID, bool) {
	if uid, ok := tenancy.UserFromContext(ctx.Context()); ok {
		return uid, true
	}
	if raw := forge.UserIDFromContext(ctx.Context()); raw != "" {
		if uid, err := id.ParseUserID(raw); err == nil {
			return uid, true
		}
	}
	return id.Nil, false
}

func deny(ctx forge.Context, status int, msg string) error {
	return ctx.JSON(status, map[string]string{"error": msg})
}
