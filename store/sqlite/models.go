package sqlite

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/tenancy/id"
	"github.com/xraph/tenancy/membership"
	"github.com/xraph/tenancy/role"
	"github.com/xraph/tenancy/tenant"
	"github.com/xraph/tenancy/user"
)

type tenantModel struct {
	grove.BaseModel  `grove:"table:tenancy_tenants"`
	ID               string    `grove:"id,pk"`
	State            int       `grove:"state,notnull"`
	Name             string    `grove:"name,notnull"`
	Description      string    `grove:"description"`
	Remark           string    `grove:"remark"`
	Picture          []byte    `grove:"picture"`
	DatabaseProvider string    `grove:"database_provider"`
	ConnectionString string    `grove:"connection_string"`
	ConcurrencyStamp string    `grove:"concurrency_stamp,notnull"`
	SearchIndex      string    `grove:"search_index"`
	CreatedAt        time.Time `grove:"created_at,notnull"`
	UpdatedAt        time.Time `grove:"updated_at,notnull"`
}

func tenantToModel(t *tenant.Tenant) *tenantModel {
	return &tenantModel{
		ID:               t.ID,
		State:            int(t.State),
		Name:             t.Name,
		Description:      t.Description,
		Remark:           t.Remark,
		Picture:          t.Picture,
		DatabaseProvider: t.DatabaseProvider,
		ConnectionString: t.ConnectionString,
		ConcurrencyStamp: t.ConcurrencyStamp,
		SearchIndex:      t.SearchIndex,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func tenantFromModel(m *tenantModel) *tenant.Tenant {
	return &tenant.Tenant{
		ID:               m.ID,
		State:            tenant.State(m.State),
		Name:             m.Name,
		Description:      m.Description,
		Remark:           m.Remark,
		Picture:          m.Picture,
		DatabaseProvider: m.DatabaseProvider,
		ConnectionString: m.ConnectionString,
		ConcurrencyStamp: m.ConcurrencyStamp,
		SearchIndex:      m.SearchIndex,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

type roleModel struct {
	grove.BaseModel `grove:"table:tenancy_roles"`
	Name            string    `grove:"name,pk"`
	Label           string    `grove:"label,notnull"`
	TenantID        string    `grove:"tenant_id,notnull"`
	Description     string    `grove:"description"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func roleToModel(r *role.Role) *roleModel {
	return &roleModel{
		Name:        r.Name,
		Label:       r.Label,
		TenantID:    r.TenantID,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}
}

func roleFromModel(m *roleModel) *role.Role {
	return &role.Role{
		Name:        m.Name,
		Label:       m.Label,
		TenantID:    m.TenantID,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
	}
}

type userModel struct {
	grove.BaseModel  `grove:"table:tenancy_users"`
	ID               string    `grove:"id,pk"`
	Email            string    `grove:"email,notnull"`
	UserName         string    `grove:"user_name,notnull"`
	GivenName        string    `grove:"given_name"`
	Surname          string    `grove:"surname"`
	ProfilePicture   []byte    `grove:"profile_picture"`
	ConcurrencyStamp string    `grove:"concurrency_stamp,notnull"`
	SearchIndex      string    `grove:"search_index"`
	CreatedAt        time.Time `grove:"created_at,notnull"`
	UpdatedAt        time.Time `grove:"updated_at,notnull"`
}

func userToModel(u *user.User) *userModel {
	return &userModel{
		ID:               u.ID.String(),
		Email:            u.Email,
		UserName:         u.UserName,
		GivenName:        u.GivenName,
		Surname:          u.Surname,
		ProfilePicture:   u.ProfilePicture,
		ConcurrencyStamp: u.ConcurrencyStamp,
		SearchIndex:      u.SearchIndex,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func userFromModel(m *userModel) *user.User {
	uid, _ := id.ParseUserID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &user.User{
		ID:               uid,
		Email:            m.Email,
		UserName:         m.UserName,
		GivenName:        m.GivenName,
		Surname:          m.Surname,
		ProfilePicture:   m.ProfilePicture,
		ConcurrencyStamp: m.ConcurrencyStamp,
		SearchIndex:      m.SearchIndex,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

type userTenantModel struct {
	grove.BaseModel  `grove:"table:tenancy_user_tenants"`
	ID               string    `grove:"id,pk"`
	UserID           string    `grove:"user_id,notnull"`
	TenantID         string    `grove:"tenant_id,notnull"`
	Remark           string    `grove:"remark"`
	ConcurrencyStamp string    `grove:"concurrency_stamp,notnull"`
	CreatedAt        time.Time `grove:"created_at,notnull"`
	UpdatedAt        time.Time `grove:"updated_at,notnull"`
}

func userTenantToModel(m *membership.UserTenant) *userTenantModel {
	return &userTenantModel{
		ID:               m.ID.String(),
		UserID:           m.UserID.String(),
		TenantID:         m.TenantID,
		Remark:           m.Remark,
		ConcurrencyStamp: m.ConcurrencyStamp,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func userTenantFromModel(m *userTenantModel) *membership.UserTenant {
	mid, _ := id.ParseMembershipID(m.ID) //nolint:errcheck // stored IDs are always valid
	uid, _ := id.ParseUserID(m.UserID)   //nolint:errcheck // stored IDs are always valid
	return &membership.UserTenant{
		ID:               mid,
		UserID:           uid,
		TenantID:         m.TenantID,
		Remark:           m.Remark,
		ConcurrencyStamp: m.ConcurrencyStamp,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

type userRoleModel struct {
	grove.BaseModel `grove:"table:tenancy_user_roles"`
	UserID          string    `grove:"user_id,pk"`
	RoleName        string    `grove:"role_name,pk"`
	TenantID        string    `grove:"tenant_id,notnull"`
	Label           string    `grove:"label,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func userRoleToModel(ur *membership.UserRole) *userRoleModel {
	return &userRoleModel{
		UserID:    ur.UserID.String(),
		RoleName:  ur.RoleName,
		TenantID:  ur.TenantID,
		Label:     ur.Label,
		CreatedAt: ur.CreatedAt,
	}
}

func userRoleFromModel(m *userRoleModel) *membership.UserRole {
	uid, _ := id.ParseUserID(m.UserID) //nolint:errcheck // stored IDs are always valid
	return &membership.UserRole{
		UserID:    uid,
		RoleName:  m.RoleName,
		TenantID:  m.TenantID,
		Label:     m.Label,
		CreatedAt: m.CreatedAt,
	}
}
