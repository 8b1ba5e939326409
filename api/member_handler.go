package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/tenancy/id"
	"github.com/xraph/tenancy/listquery"
	"github.com/xraph/tenancy/membership"
	"github.com/xraph/tenancy/middleware"
	"github.com/xraph/tenancy/user"
)

func (a *API) registerMemberRoutes(router forge.Router) error {
	read := router.Group("/v1", a.tenantGroup("members", middleware.RequireMember)...)
	write := router.Group("/v1", a.tenantGroup("members", middleware.RequireOwner)...)

	if err := read.GET("/tenants/:tenantId/members", a.listMembers,
		forge.WithSummary("List members"),
		forge.WithDescription("Lists the users of a tenant one page at a time."),
		forge.WithOperationID("listMembers"),
		forge.WithRequestSchema(ListRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Member page", &listquery.Result[*user.User]{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := write.POST("/tenants/:tenantId/members", a.addMember,
		forge.WithSummary("Add member"),
		forge.WithDescription("Adds a user to a tenant, optionally granting a tenant role."),
		forge.WithOperationID("addMember"),
		forge.WithRequestSchema(AddMemberRequest{}),
		forge.WithCreatedResponse(&MemberResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := write.POST("/tenants/:tenantId/members/batch", a.addMembers,
		forge.WithSummary("Add members in bulk"),
		forge.WithDescription("Adds existing users by e-mail and reports an outcome per address."),
		forge.WithOperationID("addMembers"),
		forge.WithRequestSchema(AddMembersRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Per-user outcomes", &AddMembersResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := read.GET("/tenants/:tenantId/members/:userId", a.getMember,
		forge.WithSummary("Get member"),
		forge.WithDescription("Returns a membership and the member's roles in the tenant."),
		forge.WithOperationID("getMember"),
		forge.WithResponseSchema(http.StatusOK, "Membership", &MemberResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := write.PUT("/tenants/:tenantId/members/:userId", a.updateMember,
		forge.WithSummary("Update member"),
		forge.WithDescription("Updates the remark of a membership."),
		forge.WithOperationID("updateMember"),
		forge.WithRequestSchema(UpdateMemberRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Membership", &membership.UserTenant{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := write.PUT("/tenants/:tenantId/members/:userId/role", a.setMemberRole,
		forge.WithSummary("Set member role"),
		forge.WithDescription("Replaces the member's tenant roles, keeping Owner."),
		forge.WithOperationID("setMemberRole"),
		forge.WithRequestSchema(SetMemberRoleRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Granted role", &membership.UserRole{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return write.DELETE("/tenants/:tenantId/members/:userId", a.removeMember,
		forge.WithSummary("Remove member"),
		forge.WithDescription("Removes a user and their tenant roles from a tenant."),
		forge.WithOperationID("removeMember"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

func memberParams(ctx forge.Context) (string, id.UserID, error) {
	tid, err := tenantParam(ctx)
	if err != nil {
		return "", id.Nil, err
	}
	uid, err := userParam(ctx)
	if err != nil {
		return "", id.Nil, err
	}
	return tid, uid, nil
}

func (a *API) listMembers(ctx forge.Context, req *ListRequest) (*listquery.Result[*user.User], error) {
	tid, err := tenantParam(ctx)
	if err != nil {
		return nil, err
	}

	res, err := a.mgr.ListMembers(ctx.Context(), tid, req.query())
	if err != nil {
		return nil, respondError(ctx, err)
	}

	return nil, ctx.JSON(http.StatusOK, res)
}

func (a *API) addMember(ctx forge.Context, req *AddMemberRequest) (*MemberResponse, error) {
	tid, err := tenantParam(ctx)
	if err != nil {
		return nil, err
	}
	uid, err := id.ParseUserID(req.UserID)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid user_id: %v", err))
	}

	m, err := a.mgr.AddUserToTenant(ctx.Context(), uid, tid)
	if err != nil {
		return nil, respondError(ctx, err)
	}
	if req.Role != "" {
		if _, err := a.mgr.SetMemberRole(ctx.Context(), uid, tid, req.Role); err != nil {
			return nil, respondError(ctx, err)
		}
	}

	resp, err := a.memberResponse(ctx.Context(), m)
	if err != nil {
		return nil, respondError(ctx, err)
	}

	return nil, ctx.JSON(http.StatusCreated, resp)
}

func (a *API) addMembers(ctx forge.Context, req *AddMembersRequest) (*AddMembersResponse, error) {
	tid, err := tenantParam(ctx)
	if err != nil {
		return nil, err
	}
	if len(req.Emails) == 0 {
		return nil, forge.BadRequest("emails is required")
	}

	outcomes, err := a.mgr.AddUsersToTenant(ctx.Context(), tid, req.Emails, req.Role)
	if err != nil {
		return nil, respondError(ctx, err)
	}

	resp := &AddMembersResponse{Results: make([]MemberResult, len(outcomes))}
	for i, o := range outcomes {
		resp.Results[i] = MemberResult{Email: o.Email, UserID: o.UserID, Membership: o.Membership}
		if o.OK() {
			resp.Added++
		} else {
			resp.Results[i].Error = o.Err.Error()
		}
	}

	return nil, ctx.JSON(http.StatusOK, resp)
}

func (a *API) getMember(ctx forge.Context, _ *MemberPathRequest) (*MemberResponse, error) {
	tid, uid, err := memberParams(ctx)
	if err != nil {
		return nil, err
	}

	m, err := a.mgr.GetMembership(ctx.Context(), uid, tid)
	if err != nil {
		return nil, respondError(ctx, err)
	}
	resp, err := a.memberResponse(ctx.Context(), m)
	if err != nil {
		return nil, respondError(ctx, err)
	}

	return nil, ctx.JSON(http.StatusOK, resp)
}

func (a *API) updateMember(ctx forge.Context, req *UpdateMemberRequest) (*membership.UserTenant, error) {
	tid, uid, err := memberParams(ctx)
	if err != nil {
		return nil, err
	}
	if req.ConcurrencyStamp == "" {
		return nil, forge.BadRequest("concurrency_stamp is required")
	}

	m, err := a.mgr.UpdateMemberRemark(ctx.Context(), uid, tid, req.Remark, req.ConcurrencyStamp)
	if err != nil {
		return nil, respondError(ctx, err)
	}

	return nil, ctx.JSON(http.StatusOK, m)
}

func (a *API) setMemberRole(ctx forge.Context, req *SetMemberRoleRequest) (*membership.UserRole, error) {
	tid, uid, err := memberParams(ctx)
	if err != nil {
		return nil, err
	}
	if req.Role == "" {
		return nil, forge.BadRequest("role is required")
	}

	ur, err := a.mgr.SetMemberRole(ctx.Context(), uid, tid, req.Role)
	if err != nil {
		return nil, respondError(ctx, err)
	}

	return nil, ctx.JSON(http.StatusOK, ur)
}

func (a *API) removeMember(ctx forge.Context, _ *MemberPathRequest) (*struct{}, error) {
	tid, uid, err := memberParams(ctx)
	if err != nil {
		return nil, err
	}

	if err := a.mgr.RemoveUserFromTenant(ctx.Context(), uid, tid); err != nil {
		return nil, respondError(ctx, err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) memberResponse(ctx context.Context, m *membership.UserTenant) (*MemberResponse, error) {
	roles, err := a.mgr.RolesForUserInTenant(ctx, m.UserID, m.TenantID)
	if err != nil {
		return nil, err
	}
	resp := &MemberResponse{UserTenant: m, Roles: []string{}}
	for _, r := range roles {
		if r.TenantID == m.TenantID {
			resp.Roles = append(resp.Roles, r.Name)
		}
	}
	return resp, nil
}
