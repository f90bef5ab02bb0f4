// Package staff implements the access-control policy for CRM accounts:
// pure functions mapping a staff role to a permission set. No I/O.
package staff

import (
	"github.com/memoralabs/memora/memora/database/models"
)

// Permission keys. An explicit Staff.Permissions entry for one of these
// overrides the role default for that key only.
const (
	PermViewOrders   = "view_orders"
	PermEditMemories = "edit_memories"
	PermWriteTags    = "write_tags"
	PermManageStaff  = "manage_staff"
	PermManageTenant = "manage_tenant"
)

var allPermissions = []string{
	PermViewOrders,
	PermEditMemories,
	PermWriteTags,
	PermManageStaff,
	PermManageTenant,
}

// RolePriority gives the total privilege order used for "at least this
// role" checks. Unknown roles rank below viewer.
func RolePriority(role models.StaffRole) int {
	switch role {
	case models.RoleViewer:
		return 1
	case models.RoleEditor:
		return 2
	case models.RoleTenantAdmin:
		return 3
	case models.RoleSuperAdmin:
		return 4
	default:
		return 0
	}
}

// HasAtLeast reports whether s holds role or a higher one.
func HasAtLeast(s *models.Staff, role models.StaffRole) bool {
	if s == nil {
		return false
	}
	return RolePriority(s.Role) >= RolePriority(role)
}

func defaultsForRole(role models.StaffRole) map[string]bool {
	perms := map[string]bool{
		PermViewOrders:   false,
		PermEditMemories: false,
		PermWriteTags:    false,
		PermManageStaff:  false,
		PermManageTenant: false,
	}

	// Each role implies everything below it.
	priority := RolePriority(role)
	if priority >= RolePriority(models.RoleViewer) {
		perms[PermViewOrders] = true
	}
	if priority >= RolePriority(models.RoleEditor) {
		perms[PermEditMemories] = true
		perms[PermWriteTags] = true
	}
	if priority >= RolePriority(models.RoleTenantAdmin) {
		perms[PermManageTenant] = true
	}
	if priority >= RolePriority(models.RoleSuperAdmin) {
		perms[PermManageStaff] = true
	}

	return perms
}

// PermissionsFor resolves the effective permission set: role defaults,
// then per-staff overrides applied field-by-field.
func PermissionsFor(s *models.Staff) map[string]bool {
	if s == nil {
		return defaultsForRole("")
	}

	perms := defaultsForRole(s.Role)
	for _, key := range allPermissions {
		if override, ok := s.Permissions[key]; ok {
			perms[key] = override
		}
	}
	return perms
}

func has(s *models.Staff, perm string) bool {
	return PermissionsFor(s)[perm]
}

func CanViewOrders(s *models.Staff) bool   { return has(s, PermViewOrders) }
func CanEditMemories(s *models.Staff) bool { return has(s, PermEditMemories) }
func CanWriteTags(s *models.Staff) bool    { return has(s, PermWriteTags) }
func CanManageStaff(s *models.Staff) bool  { return has(s, PermManageStaff) }
func CanManageTenant(s *models.Staff) bool { return has(s, PermManageTenant) }
