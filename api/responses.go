package api

import (
	"github.com/xraph/tenancy/id"
	"github.com/xraph/tenancy/membership"
)

// ErrorResponse is the body of a conflict response.
type ErrorResponse struct {
	Error string `json:"error" description:"Error message"`
	Code  string `json:"code" description:"Machine-readable error code"`
}

// MemberResult is the outcome for one e-mail of a bulk add.
type MemberResult struct {
	Email      string                 `json:"email" description:"E-mail address"`
	UserID     id.UserID              `json:"user_id,omitempty" description:"User ID when found"`
	Membership *membership.UserTenant `json:"membership,omitempty" description:"Membership when added"`
	Error      string                 `json:"error,omitempty" description:"Failure reason"`
}

// AddMembersResponse contains the outcomes of a bulk add in request order.
type AddMembersResponse struct {
	Added   int            `json:"added" description:"Number of users added"`
	Results []MemberResult `json:"results" description:"Per-user outcomes"`
}

// MemberResponse is a membership with the member's roles in the tenant.
type MemberResponse struct {
	*membership.UserTenant
	Roles []string `json:"roles" description:"Role names held in the tenant"`
}
