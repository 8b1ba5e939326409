package api

// ListRequest holds the query parameters shared by every listing.
type ListRequest struct {
	CurrentFilter string `query:"currentFilter" description:"Filter carried over from the previous page"`
	SearchText    string `query:"searchText" description:"New search text; replaces currentFilter"`
	SortOrder     string `query:"sortOrder" description:"Sort key"`
	PageIndex     int    `query:"pageIndex" description:"1-based page number (default: 1)"`
}

// ──────────────────────────────────────────────────
// Tenant requests
// ──────────────────────────────────────────────────

// CreateTenantRequest is the body for creating a tenant.
type CreateTenantRequest struct {
	ID               string `json:"id" description:"Tenant ID (2-24 lowercase letters or digits)"`
	Name             string `json:"name" description:"Display name"`
	Description      string `json:"description,omitempty" description:"Human-readable description"`
	Remark           string `json:"remark,omitempty" description:"Internal remark"`
	DatabaseProvider string `json:"database_provider,omitempty" description:"Tenant database provider"`
	ConnectionString string `json:"connection_string,omitempty" description:"Tenant database connection string"`
}

// UpdateTenantRequest is the body for updating a tenant. Omitted fields keep
// their current value.
type UpdateTenantRequest struct {
	Name             *string `json:"name,omitempty" description:"Display name"`
	Description      *string `json:"description,omitempty" description:"Human-readable description"`
	Remark           *string `json:"remark,omitempty" description:"Internal remark"`
	DatabaseProvider *string `json:"database_provider,omitempty" description:"Tenant database provider"`
	ConnectionString *string `json:"connection_string,omitempty" description:"Tenant database connection string"`
	ConcurrencyStamp string  `json:"concurrency_stamp" description:"Stamp of the version being updated"`
}

// GetTenantRequest is the path parameter for a tenant.
type GetTenantRequest struct {
	TenantID string `path:"tenantId" description:"Tenant ID"`
}

// ListTenantsRequest holds query parameters for listing tenants.
type ListTenantsRequest struct {
	CurrentFilter string `query:"currentFilter" description:"Filter carried over from the previous page"`
	SearchText    string `query:"searchText" description:"New search text; replaces currentFilter"`
	SortOrder     string `query:"sortOrder" description:"Sort key (name, id, state, created)"`
	PageIndex     int    `query:"pageIndex" description:"1-based page number (default: 1)"`
	State         string `query:"state" description:"Only tenants in this state"`
}

// ──────────────────────────────────────────────────
// Member requests
// ──────────────────────────────────────────────────

// AddMemberRequest is the body for adding a user to a tenant.
type AddMemberRequest struct {
	UserID string `json:"user_id" description:"User ID"`
	Role   string `json:"role,omitempty" description:"Tenant role label to grant"`
}

// AddMembersRequest is the body for adding users in bulk by e-mail.
type AddMembersRequest struct {
	Emails []string `json:"emails" description:"E-mail addresses of existing users"`
	Role   string   `json:"role,omitempty" description:"Tenant role label (default: Member)"`
}

// UpdateMemberRequest is the body for updating a membership.
type UpdateMemberRequest struct {
	Remark           string `json:"remark" description:"Membership remark"`
	ConcurrencyStamp string `json:"concurrency_stamp" description:"Stamp of the version being updated"`
}

// SetMemberRoleRequest is the body for replacing a member's tenant role.
type SetMemberRoleRequest struct {
	Role string `json:"role" description:"Tenant role label"`
}

// ──────────────────────────────────────────────────
// User requests
// ──────────────────────────────────────────────────

// CreateUserRequest is the body for creating a user.
type CreateUserRequest struct {
	Email     string `json:"email" description:"E-mail address"`
	UserName  string `json:"user_name,omitempty" description:"User name (default: e-mail)"`
	GivenName string `json:"given_name,omitempty" description:"Given name"`
	Surname   string `json:"surname,omitempty" description:"Surname"`
}

// UpdateUserRequest is the body for updating a user.
type UpdateUserRequest struct {
	Email            string `json:"email,omitempty" description:"E-mail address"`
	UserName         string `json:"user_name,omitempty" description:"User name"`
	GivenName        string `json:"given_name" description:"Given name"`
	Surname          string `json:"surname" description:"Surname"`
	ConcurrencyStamp string `json:"concurrency_stamp" description:"Stamp of the version being updated"`
}

// GetUserRequest is the path parameter for a user.
type GetUserRequest struct {
	UserID string `path:"userId" description:"User ID"`
}

// UserRolesRequest holds query parameters for listing a user's roles.
type UserRolesRequest struct {
	Tenant string `query:"tenant" description:"Limit to system roles and this tenant's roles (default: the X-Tenant-ID tenant)"`
}

// AssignRoleRequest is the body for granting a role.
type AssignRoleRequest struct {
	RoleName string `json:"role_name" description:"Role name (label or tenant#label)"`
}

// ──────────────────────────────────────────────────
// Role requests
// ──────────────────────────────────────────────────

// CreateRoleRequest is the body for creating a role. Either Name is given,
// or Label with an optional TenantID.
type CreateRoleRequest struct {
	Name        string `json:"name,omitempty" description:"Role name (label or tenant#label)"`
	TenantID    string `json:"tenant_id,omitempty" description:"Tenant of the role"`
	Label       string `json:"label,omitempty" description:"Role label"`
	Description string `json:"description,omitempty" description:"Human-readable description"`
}

// ListRolesRequest holds query parameters for listing roles.
type ListRolesRequest struct {
	Tenant string `query:"tenant" description:"Tenant ID; empty lists system roles"`
}

// MemberPathRequest holds the path parameters of a membership.
type MemberPathRequest struct {
	TenantID string `path:"tenantId" description:"Tenant ID"`
	UserID   string `path:"userId" description:"User ID"`
}
