package extension_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xraph/forge"

	"github.com/xraph/tenancy"
	"github.com/xraph/tenancy/extension"
	"github.com/xraph/tenancy/role"
	"github.com/xraph/tenancy/store/memory"
)

func startApp(t *testing.T, opts ...extension.ExtOption) (forge.App, *extension.Extension) {
	t.Helper()
	opts = append([]extension.ExtOption{
		extension.WithStore(memory.New()),
		extension.WithLogger(slog.New(slog.DiscardHandler)),
	}, opts...)
	ext := extension.New(opts...)

	app := forge.New(
		forge.WithAppName("tenancy-test"),
		forge.WithAppLogger(forge.NewNoopLogger()),
		forge.WithEnableConfigAutoDiscovery(false),
		forge.WithEnableEnvConfig(false),
		forge.WithExtensions(ext),
	)
	ctx := context.Background()
	require.NoError(t, app.Start(ctx))
	t.Cleanup(func() { _ = app.Stop(context.Background()) })
	return app, ext
}

func call(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestExtensionLifecycle(t *testing.T) {
	app, ext := startApp(t)
	ctx := context.Background()

	require.NotNil(t, ext.Manager())
	require.NoError(t, ext.Health(ctx))

	mgr, err := forge.Inject[*tenancy.Manager](app.Container())
	require.NoError(t, err)
	assert.Same(t, ext.Manager(), mgr)

	r, err := mgr.GetRole(ctx, role.LabelAdministrator)
	require.NoError(t, err, "system roles are seeded on start")
	assert.True(t, r.IsSystem())
}

func TestExtensionServesRoutes(t *testing.T) {
	app, _ := startApp(t)
	h := app.Router()

	w := call(h, http.MethodPost, "/v1/tenants", `{"id":"acme","name":"Acme"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = call(h, http.MethodGet, "/v1/tenants/acme", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		ID    string `json:"id"`
		State string `json:"state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "acme", got.ID)
	assert.Equal(t, "new", got.State)

	w = call(h, http.MethodGet, "/v1/lookup/countries", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExtensionBasePathAndLookupSwitch(t *testing.T) {
	cfg := extension.DefaultConfig()
	cfg.BasePath = "/tenancy"
	cfg.DisableLookup = true
	app, _ := startApp(t, extension.WithConfig(cfg))
	h := app.Router()

	w := call(h, http.MethodPost, "/tenancy/v1/tenants", `{"id":"beta","name":"Beta"}`)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = call(h, http.MethodGet, "/tenancy/v1/lookup/countries", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExtensionMembershipGates(t *testing.T) {
	app, _ := startApp(t, extension.WithMembershipGates())
	h := app.Router()

	w := call(h, http.MethodPost, "/v1/tenants", `{"id":"acme","name":"Acme"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = call(h, http.MethodGet, "/v1/tenants/acme/members", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestExtensionNotRegistered(t *testing.T) {
	ext := extension.New()
	assert.Error(t, ext.Health(context.Background()))
	assert.Error(t, ext.Start(context.Background()))
	assert.NoError(t, ext.Stop(context.Background()))
}
