package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/tenancy"
	"github.com/xraph/tenancy/listquery"
	"github.com/xraph/tenancy/membership"
	"github.com/xraph/tenancy/role"
	"github.com/xraph/tenancy/tenant"
	"github.com/xraph/tenancy/user"
)

func (a *API) registerUserRoutes(router forge.Router) error {
	g := router.Group("/v1", a.tenantGroup("users", nil)...)

	if err := g.POST("/users", a.createUser,
		forge.WithSummary("Create user"),
		forge.WithDescription("Creates an application user."),
		forge.WithOperationID("createUser"),
		forge.WithRequestSchema(CreateUserRequest{}),
		forge.WithCreatedResponse(&user.User{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/users", a.listUsers,
		forge.WithSummary("List users"),
		forge.WithDescription("Lists users one page at a time."),
		forge.WithOperationID("listUsers"),
		forge.WithRequestSchema(ListRequest{}),
		forge.WithResponseSchema(http.StatusOK, "User page", &listquery.Result[*user.User]{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/users/:userId", a.getUser,
		forge.WithSummary("Get user"),
		forge.WithDescription("Returns details of a specific user."),
		forge.WithOperationID("getUser"),
		forge.WithResponseSchema(http.StatusOK, "User details", &user.User{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/users/:userId", a.updateUser,
		forge.WithSummary("Update user"),
		forge.WithDescription("Updates the profile of a user."),
		forge.WithOperationID("updateUser"),
		forge.WithRequestSchema(UpdateUserRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated user", &user.User{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/users/:userId/tenants", a.userTenants,
		forge.WithSummary("List user tenants"),
		forge.WithDescription("Lists the tenants a user belongs to, excluding removed tenants."),
		forge.WithOperationID("listUserTenants"),
		forge.WithResponseSchema(http.StatusOK, "Tenants", []*tenant.Tenant{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/users/:userId/roles", a.userRoles,
		forge.WithSummary("List user roles"),
		forge.WithDescription("Lists the roles of a user, optionally limited to one tenant."),
		forge.WithOperationID("listUserRoles"),
		forge.WithRequestSchema(UserRolesRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Roles", []*role.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/users/:userId/roles", a.assignRole,
		forge.WithSummary("Assign role"),
		forge.WithDescription("Grants a role to a user. Tenant roles need a membership."),
		forge.WithOperationID("assignRole"),
		forge.WithRequestSchema(AssignRoleRequest{}),
		forge.WithCreatedResponse(&membership.UserRole{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/users/:userId/roles/:roleName", a.unassignRole,
		forge.WithSummary("Unassign role"),
		forge.WithDescription("Revokes a role from a user."),
		forge.WithOperationID("unassignRole"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

func (a *API) createUser(ctx forge.Context, req *CreateUserRequest) (*user.User, error) {
	if req.Email == "" {
		return nil, forge.BadRequest("email is required")
	}

	u, err := a.mgr.CreateUser(ctx.Context(), &user.User{
		Email:     req.Email,
		UserName:  req.UserName,
		GivenName: req.GivenName,
		Surname:   req.Surname,
	})
	if err != nil {
		return nil, respondError(ctx, err)
	}

	return nil, ctx.JSON(http.StatusCreated, u)
}

func (a *API) listUsers(ctx forge.Context, req *ListRequest) (*listquery.Result[*user.User], error) {
	res, err := a.mgr.ListUsers(ctx.Context(), req.query())
	if err != nil {
		return nil, respondError(ctx, err)
	}

	return nil, ctx.JSON(http.StatusOK, res)
}

func (a *API) getUser(ctx forge.Context, _ *GetUserRequest) (*user.User, error) {
	uid, err := userParam(ctx)
	if err != nil {
		return nil, err
	}

	u, err := a.mgr.GetUser(ctx.Context(), uid)
	if err != nil {
		return nil, respondError(ctx, err)
	}

	return nil, ctx.JSON(http.StatusOK, u)
}

func (a *API) updateUser(ctx forge.Context, req *UpdateUserRequest) (*user.User, error) {
	uid, err := userParam(ctx)
	if err != nil {
		return nil, err
	}
	if req.ConcurrencyStamp == "" {
		return nil, forge.BadRequest("concurrency_stamp is required")
	}

	cur, err := a.mgr.GetUser(ctx.Context(), uid)
	if err != nil {
		return nil, respondError(ctx, err)
	}

	u, err := a.mgr.UpdateUser(ctx.Context(), &user.User{
		ID:               uid,
		Email:            req.Email,
		UserName:         req.UserName,
		GivenName:        req.GivenName,
		Surname:          req.Surname,
		ProfilePicture:   cur.ProfilePicture,
		ConcurrencyStamp: req.ConcurrencyStamp,
	})
	if err != nil {
		return nil, respondError(ctx, err)
	}

	return nil, ctx.JSON(http.StatusOK, u)
}

func (a *API) userTenants(ctx forge.Context, _ *GetUserRequest) ([]*tenant.Tenant, error) {
	uid, err := userParam(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := a.mgr.GetUser(ctx.Context(), uid); err != nil {
		return nil, respondError(ctx, err)
	}

	tenants, err := a.mgr.ApplicationTenantsForUser(ctx.Context(), uid)
	if err != nil {
		return nil, respondError(ctx, err)
	}

	return nil, ctx.JSON(http.StatusOK, tenants)
}

func (a *API) userRoles(ctx forge.Context, req *UserRolesRequest) ([]*role.Role, error) {
	uid, err := userParam(ctx)
	if err != nil {
		return nil, err
	}

	tid, scoped := tenant.NormalizeID(req.Tenant), req.Tenant != ""
	if scoped {
		if err := tenant.ValidateID(tid); err != nil {
			return nil, forge.BadRequest(err.Error())
		}
	} else {
		tid, scoped = tenancy.TenantFromContext(ctx.Context())
	}

	var roles []*role.Role
	if scoped {
		roles, err = a.mgr.RolesForUserInTenant(ctx.Context(), uid, tid)
	} else {
		roles, err = a.mgr.RolesForUser(ctx.Context(), uid)
	}
	if err != nil {
		return nil, respondError(ctx, err)
	}

	return nil, ctx.JSON(http.StatusOK, roles)
}

func (a *API) assignRole(ctx forge.Context, req *AssignRoleRequest) (*membership.UserRole, error) {
	uid, err := userParam(ctx)
	if err != nil {
		return nil, err
	}
	if req.RoleName == "" {
		return nil, forge.BadRequest("role_name is required")
	}

	ur, err := a.mgr.AssignRole(ctx.Context(), uid, req.RoleName)
	if err != nil {
		return nil, respondError(ctx, err)
	}

	return nil, ctx.JSON(http.StatusCreated, ur)
}

func (a *API) unassignRole(ctx forge.Context, _ *GetUserRequest) (*struct{}, error) {
	uid, err := userParam(ctx)
	if err != nil {
		return nil, err
	}
	name, err := roleParam(ctx)
	if err != nil {
		return nil, err
	}

	if err := a.mgr.UnassignRole(ctx.Context(), uid, name); err != nil {
		return nil, respondError(ctx, err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}
