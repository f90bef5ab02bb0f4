package models

import (
	"time"

	"github.com/uptrace/bun"
)

type StaffRole string

// Roles in ascending privilege order. Each role implies all capabilities
// of lower roles unless narrowed by an explicit Permissions override.
const (
	RoleViewer      StaffRole = "viewer"
	RoleEditor      StaffRole = "editor"
	RoleTenantAdmin StaffRole = "tenantAdmin"
	RoleSuperAdmin  StaffRole = "superAdmin"
)

type Staff struct {
	bun.BaseModel `bun:"table:staff,alias:st"`

	UID         string    `bun:"uid,pk" json:"uid"`
	Email       string    `bun:"email,notnull,unique" json:"email"`
	DisplayName string    `bun:"display_name" json:"display_name"`
	Role        StaffRole `bun:"role,notnull" json:"role"`
	// Permissions overrides role defaults field-by-field when non-nil.
	Permissions map[string]bool `bun:"permissions,type:jsonb" json:"permissions,omitempty"`
	// AdminTenant scopes tenantAdmin accounts to one tenant.
	AdminTenant string    `bun:"admin_tenant" json:"admin_tenant,omitempty"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}
