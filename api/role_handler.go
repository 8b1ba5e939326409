package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/tenancy/role"
	"github.com/xraph/tenancy/tenant"
)

func (a *API) registerRoleRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("roles"))

	if err := g.POST("/roles", a.createRole,
		forge.WithSummary("Create role"),
		forge.WithDescription("Creates a system role or a role scoped to a tenant."),
		forge.WithOperationID("createRole"),
		forge.WithRequestSchema(CreateRoleRequest{}),
		forge.WithCreatedResponse(&role.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/roles", a.listRoles,
		forge.WithSummary("List roles"),
		forge.WithDescription("Lists the roles of a tenant, or the system roles."),
		forge.WithOperationID("listRoles"),
		forge.WithRequestSchema(ListRolesRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Role list", []*role.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/roles/:roleName", a.getRole,
		forge.WithSummary("Get role"),
		forge.WithDescription("Returns a role by name; tenant role names are percent-encoded."),
		forge.WithOperationID("getRole"),
		forge.WithResponseSchema(http.StatusOK, "Role details", &role.Role{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) createRole(ctx forge.Context, req *CreateRoleRequest) (*role.Role, error) {
	var (
		r   *role.Role
		err error
	)
	switch {
	case req.Name != "":
		r, err = role.FromName(req.Name, req.Description)
	case req.Label == "":
		return nil, forge.BadRequest("name or label is required")
	case req.TenantID != "":
		r, err = role.NewTenant(req.TenantID, req.Label, req.Description)
	default:
		r, err = role.NewSystem(req.Label, req.Description)
	}
	if err != nil {
		return nil, forge.BadRequest(err.Error())
	}

	created, err := a.mgr.CreateRole(ctx.Context(), r)
	if err != nil {
		return nil, respondError(ctx, err)
	}

	return nil, ctx.JSON(http.StatusCreated, created)
}

func (a *API) getRole(ctx forge.Context, _ *struct{}) (*role.Role, error) {
	name, err := roleParam(ctx)
	if err != nil {
		return nil, err
	}

	r, err := a.mgr.GetRole(ctx.Context(), name)
	if err != nil {
		return nil, respondError(ctx, err)
	}

	return nil, ctx.JSON(http.StatusOK, r)
}

func (a *API) listRoles(ctx forge.Context, req *ListRolesRequest) ([]*role.Role, error) {
	tid := tenant.NormalizeID(req.Tenant)
	if tid != "" {
		if err := tenant.ValidateID(tid); err != nil {
			return nil, forge.BadRequest(err.Error())
		}
	}

	roles, err := a.mgr.ListRoles(ctx.Context(), tid)
	if err != nil {
		return nil, respondError(ctx, err)
	}

	return nil, ctx.JSON(http.StatusOK, roles)
}
