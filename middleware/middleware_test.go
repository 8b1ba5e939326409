package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xraph/forge"

	"github.com/xraph/tenancy"
	"github.com/xraph/tenancy/id"
	"github.com/xraph/tenancy/middleware"
	"github.com/xraph/tenancy/role"
	"github.com/xraph/tenancy/store/memory"
	"github.com/xraph/tenancy/tenant"
	"github.com/xraph/tenancy/user"
)

// recorder captures the tenant seen by the final handler.
type recorder struct {
	called bool
	tenant string
}

func (r *recorder) handle(ctx forge.Context) error {
	r.called = true
	r.tenant, _ = tenancy.TenantFromContext(ctx.Context())
	return ctx.NoContent(http.StatusNoContent)
}

func newRouter(t *testing.T, path string, rec *recorder, mw ...forge.Middleware) forge.Router {
	t.Helper()
	router := forge.NewRouter()
	require.NoError(t, router.GET(path, rec.handle, forge.WithMiddleware(mw...)))
	return router
}

func do(router forge.Router, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestResolveTenantFromPath(t *testing.T) {
	var rec recorder
	router := newRouter(t, "/t/:tenantId/items", &rec, middleware.ResolveTenant())

	req := httptest.NewRequest(http.MethodGet, "/t/ACME/items", nil)
	req.Header.Set(middleware.HeaderTenantID, "other")
	w := do(router, req)

	require.True(t, rec.called)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "acme", rec.tenant, "path parameter wins over the header")
}

func TestResolveTenantFromHeaderAndCookie(t *testing.T) {
	var rec recorder
	router := newRouter(t, "/items", &rec, middleware.ResolveTenant())

	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	req.Header.Set(middleware.HeaderTenantID, " Beta ")
	do(router, req)
	assert.Equal(t, "beta", rec.tenant)

	req = httptest.NewRequest(http.MethodGet, "/items", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CookieTenantID, Value: "gamma"})
	do(router, req)
	assert.Equal(t, "gamma", rec.tenant)
}

func TestResolveTenantRejectsMalformedHeader(t *testing.T) {
	for _, bad := range []string{"a", "ac-me", "acme#owner", "x123456789012345678901234"} {
		var rec recorder
		router := newRouter(t, "/items", &rec, middleware.ResolveTenant())

		req := httptest.NewRequest(http.MethodGet, "/items", nil)
		req.Header.Set(middleware.HeaderTenantID, bad)
		w := do(router, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
		assert.False(t, rec.called, bad)
	}
}

func TestResolveTenantIgnoresStaleCookie(t *testing.T) {
	var rec recorder
	router := newRouter(t, "/items", &rec, middleware.ResolveTenant())

	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CookieTenantID, Value: "not-a-tenant"})
	w := do(router, req)

	require.True(t, rec.called)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, rec.tenant)
}

func TestResolveTenantAbsent(t *testing.T) {
	var rec recorder
	router := newRouter(t, "/items", &rec, middleware.ResolveTenant())

	w := do(router, httptest.NewRequest(http.MethodGet, "/items", nil))
	assert.True(t, rec.called)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, rec.tenant)
}

// actingAs puts uid on the request context the way an auth layer would.
func actingAs(uid id.UserID) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			ctx.WithContext(tenancy.WithUser(ctx.Context(), uid))
			return next(ctx)
		}
	}
}

type fixture struct {
	mgr      *tenancy.Manager
	owner    *user.User
	member   *user.User
	outsider *user.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	mgr, err := tenancy.NewManager(tenancy.WithStore(memory.New()))
	require.NoError(t, err)

	_, err = mgr.CreateTenant(ctx, &tenant.Tenant{ID: "acme", Name: "Acme"})
	require.NoError(t, err)
	_, err = mgr.SubmitTenant(ctx, "acme")
	require.NoError(t, err)
	_, err = mgr.EnableTenant(ctx, "acme")
	require.NoError(t, err)
	_, err = mgr.CreateDefaultRoles(ctx, "acme")
	require.NoError(t, err)

	f := fixture{mgr: mgr}
	for email, u := range map[string]**user.User{
		"owner@example.com":    &f.owner,
		"member@example.com":   &f.member,
		"outsider@example.com": &f.outsider,
	} {
		*u, err = mgr.CreateUser(ctx, &user.User{Email: email})
		require.NoError(t, err)
	}
	for _, u := range []*user.User{f.owner, f.member} {
		_, err = mgr.AddUserToTenant(ctx, u.ID, "acme")
		require.NoError(t, err)
	}
	_, err = mgr.AssignRole(ctx, f.owner.ID, role.MustEncodeTenantRole("acme", role.LabelOwner))
	require.NoError(t, err)
	return f
}

func TestRequireMember(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		as     *user.User
		want   int
		called bool
	}{
		{"owner", f.owner, http.StatusNoContent, true},
		{"member", f.member, http.StatusNoContent, true},
		{"outsider", f.outsider, http.StatusForbidden, false},
		{"anonymous", nil, http.StatusUnauthorized, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec recorder
			mw := []forge.Middleware{middleware.ResolveTenant()}
			if tt.as != nil {
				mw = append(mw, actingAs(tt.as.ID))
			}
			mw = append(mw, middleware.RequireMember(f.mgr))
			router := newRouter(t, "/t/:tenantId/items", &rec, mw...)

			w := do(router, httptest.NewRequest(http.MethodGet, "/t/acme/items", nil))
			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, tt.called, rec.called)
		})
	}
}

func TestRequireOwner(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		as   *user.User
		want int
	}{
		{"owner", f.owner, http.StatusNoContent},
		{"member", f.member, http.StatusForbidden},
		{"outsider", f.outsider, http.StatusForbidden},
		{"anonymous", nil, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec recorder
			var mw []forge.Middleware
			if tt.as != nil {
				mw = append(mw, actingAs(tt.as.ID))
			}
			mw = append(mw, middleware.RequireOwner(f.mgr))
			router := newRouter(t, "/t/:tenantId/items", &rec, mw...)

			w := do(router, httptest.NewRequest(http.MethodGet, "/t/acme/items", nil))
			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, tt.want == http.StatusNoContent, rec.called)
		})
	}
}

func TestRequireMemberWithoutTenant(t *testing.T) {
	f := newFixture(t)
	var rec recorder
	router := newRouter(t, "/items", &rec, actingAs(f.member.ID), middleware.RequireMember(f.mgr))

	w := do(router, httptest.NewRequest(http.MethodGet, "/items", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, rec.called)
}
