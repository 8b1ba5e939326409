package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/tenancy/listquery"
	"github.com/xraph/tenancy/role"
	"github.com/xraph/tenancy/tenant"
)

func (a *API) registerTenantRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("tenants"))

	if err := g.POST("/tenants", a.createTenant,
		forge.WithSummary("Create tenant"),
		forge.WithDescription("Creates a tenant in the new state."),
		forge.WithOperationID("createTenant"),
		forge.WithRequestSchema(CreateTenantRequest{}),
		forge.WithCreatedResponse(&tenant.Tenant{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/tenants", a.listTenants,
		forge.WithSummary("List tenants"),
		forge.WithDescription("Lists tenants one page at a time."),
		forge.WithOperationID("listTenants"),
		forge.WithRequestSchema(ListTenantsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Tenant page", &listquery.Result[*tenant.Tenant]{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/tenants/:tenantId", a.getTenant,
		forge.WithSummary("Get tenant"),
		forge.WithDescription("Returns details of a specific tenant."),
		forge.WithOperationID("getTenant"),
		forge.WithResponseSchema(http.StatusOK, "Tenant details", &tenant.Tenant{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/tenants/:tenantId", a.updateTenant,
		forge.WithSummary("Update tenant"),
		forge.WithDescription("Updates the descriptive fields of a tenant."),
		forge.WithOperationID("updateTenant"),
		forge.WithRequestSchema(UpdateTenantRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated tenant", &tenant.Tenant{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	transitions := []struct {
		path string
		tr   tenant.Transition
		op   string
	}{
		{"submit", tenant.TransitionSubmit, "submitTenant"},
		{"enable", tenant.TransitionEnable, "enableTenant"},
		{"disable", tenant.TransitionDisable, "disableTenant"},
		{"begin-removal", tenant.TransitionBeginRemoval, "beginTenantRemoval"},
		{"remove", tenant.TransitionRemove, "removeTenant"},
	}
	for _, t := range transitions {
		if err := g.POST("/tenants/:tenantId/"+t.path, a.transition(t.tr),
			forge.WithSummary("Tenant transition: "+t.path),
			forge.WithDescription("Applies a lifecycle transition; refused transitions return 409."),
			forge.WithOperationID(t.op),
			forge.WithResponseSchema(http.StatusOK, "Tenant after the transition", &tenant.Tenant{}),
			forge.WithErrorResponses(),
		); err != nil {
			return err
		}
	}

	return g.POST("/tenants/:tenantId/defaults", a.createDefaultRoles,
		forge.WithSummary("Create default roles"),
		forge.WithDescription("Creates the default tenant roles of an active tenant."),
		forge.WithOperationID("createDefaultRoles"),
		forge.WithResponseSchema(http.StatusOK, "Tenant roles", []*role.Role{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) createTenant(ctx forge.Context, req *CreateTenantRequest) (*tenant.Tenant, error) {
	if req.Name == "" {
		return nil, forge.BadRequest("name is required")
	}

	t, err := a.mgr.CreateTenant(ctx.Context(), &tenant.Tenant{
		ID:               req.ID,
		Name:             req.Name,
		Description:      req.Description,
		Remark:           req.Remark,
		DatabaseProvider: req.DatabaseProvider,
		ConnectionString: req.ConnectionString,
	})
	if err != nil {
		return nil, respondError(ctx, err)
	}

	return nil, ctx.JSON(http.StatusCreated, t)
}

func (a *API) getTenant(ctx forge.Context, _ *GetTenantRequest) (*tenant.Tenant, error) {
	tid, err := tenantParam(ctx)
	if err != nil {
		return nil, err
	}

	t, err := a.mgr.GetTenant(ctx.Context(), tid)
	if err != nil {
		return nil, respondError(ctx, err)
	}

	return nil, ctx.JSON(http.StatusOK, t)
}

func (a *API) updateTenant(ctx forge.Context, req *UpdateTenantRequest) (*tenant.Tenant, error) {
	tid, err := tenantParam(ctx)
	if err != nil {
		return nil, err
	}
	if req.ConcurrencyStamp == "" {
		return nil, forge.BadRequest("concurrency_stamp is required")
	}

	t, err := a.mgr.GetTenant(ctx.Context(), tid)
	if err != nil {
		return nil, respondError(ctx, err)
	}

	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Remark != nil {
		t.Remark = *req.Remark
	}
	if req.DatabaseProvider != nil {
		t.DatabaseProvider = *req.DatabaseProvider
	}
	if req.ConnectionString != nil {
		t.ConnectionString = *req.ConnectionString
	}
	t.ConcurrencyStamp = req.ConcurrencyStamp

	updated, err := a.mgr.UpdateTenant(ctx.Context(), t)
	if err != nil {
		return nil, respondError(ctx, err)
	}

	return nil, ctx.JSON(http.StatusOK, updated)
}

func (a *API) listTenants(ctx forge.Context, req *ListTenantsRequest) (*listquery.Result[*tenant.Tenant], error) {
	var states []tenant.State
	if req.State != "" {
		s, err := tenant.ParseState(req.State)
		if err != nil {
			return nil, forge.BadRequest(err.Error())
		}
		states = append(states, s)
	}

	res, err := a.mgr.ListTenants(ctx.Context(), req.query(), states...)
	if err != nil {
		return nil, respondError(ctx, err)
	}

	return nil, ctx.JSON(http.StatusOK, res)
}

func (a *API) transition(tr tenant.Transition) func(forge.Context, *GetTenantRequest) (*tenant.Tenant, error) {
	return func(ctx forge.Context, _ *GetTenantRequest) (*tenant.Tenant, error) {
		tid, err := tenantParam(ctx)
		if err != nil {
			return nil, err
		}

		t, err := a.mgr.Transition(ctx.Context(), tid, tr)
		if err != nil {
			return nil, respondError(ctx, err)
		}

		return nil, ctx.JSON(http.StatusOK, t)
	}
}

func (a *API) createDefaultRoles(ctx forge.Context, _ *GetTenantRequest) ([]*role.Role, error) {
	tid, err := tenantParam(ctx)
	if err != nil {
		return nil, err
	}

	roles, err := a.mgr.CreateDefaultRoles(ctx.Context(), tid)
	if err != nil {
		return nil, respondError(ctx, err)
	}

	return nil, ctx.JSON(http.StatusOK, roles)
}
