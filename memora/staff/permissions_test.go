package staff

import (
	"testing"

	"github.com/memoralabs/memora/memora/database/models"
)

var rolesAscending = []models.StaffRole{
	models.RoleViewer,
	models.RoleEditor,
	models.RoleTenantAdmin,
	models.RoleSuperAdmin,
}

func TestRolePriority_TotalOrder(t *testing.T) {
	for i := 1; i < len(rolesAscending); i++ {
		lower, higher := rolesAscending[i-1], rolesAscending[i]
		if RolePriority(lower) >= RolePriority(higher) {
			t.Errorf("RolePriority(%s) = %d should be below RolePriority(%s) = %d",
				lower, RolePriority(lower), higher, RolePriority(higher))
		}
	}

	if RolePriority("intern") >= RolePriority(models.RoleViewer) {
		t.Error("unknown roles must rank below viewer")
	}
}

func TestPermissions_Monotonic(t *testing.T) {
	// Every capability granted to a role must also be granted to all
	// higher roles.
	for i := 1; i < len(rolesAscending); i++ {
		lower := PermissionsFor(&models.Staff{Role: rolesAscending[i-1]})
		higher := PermissionsFor(&models.Staff{Role: rolesAscending[i]})

		for perm, granted := range lower {
			if granted && !higher[perm] {
				t.Errorf("%s grants %s but %s does not",
					rolesAscending[i-1], perm, rolesAscending[i])
			}
		}
	}
}

func TestPermissions_RoleDefaults(t *testing.T) {
	tests := []struct {
		role models.StaffRole
		perm string
		want bool
	}{
		{models.RoleViewer, PermViewOrders, true},
		{models.RoleViewer, PermEditMemories, false},
		{models.RoleViewer, PermManageStaff, false},
		{models.RoleEditor, PermEditMemories, true},
		{models.RoleEditor, PermWriteTags, true},
		{models.RoleEditor, PermManageTenant, false},
		{models.RoleTenantAdmin, PermManageTenant, true},
		{models.RoleTenantAdmin, PermManageStaff, false},
		{models.RoleSuperAdmin, PermManageStaff, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+tt.perm, func(t *testing.T) {
			got := PermissionsFor(&models.Staff{Role: tt.role})[tt.perm]
			if got != tt.want {
				t.Errorf("PermissionsFor(%s)[%s] = %v, want %v", tt.role, tt.perm, got, tt.want)
			}
		})
	}
}

func TestPermissions_OverrideNarrows(t *testing.T) {
	s := &models.Staff{
		Role: models.RoleEditor,
		Permissions: map[string]bool{
			PermWriteTags: false,
		},
	}

	if CanWriteTags(s) {
		t.Error("explicit override should revoke write_tags from an editor")
	}
	if !CanEditMemories(s) {
		t.Error("override must not touch other permissions")
	}
}

func TestPermissions_OverrideWidens(t *testing.T) {
	s := &models.Staff{
		Role: models.RoleViewer,
		Permissions: map[string]bool{
			PermWriteTags: true,
		},
	}

	if !CanWriteTags(s) {
		t.Error("explicit override should grant write_tags to a viewer")
	}
	if CanManageStaff(s) {
		t.Error("ungranted permissions stay revoked")
	}
}

func TestPermissions_NilStaff(t *testing.T) {
	if CanViewOrders(nil) {
		t.Error("nil staff has no permissions")
	}
	if HasAtLeast(nil, models.RoleViewer) {
		t.Error("nil staff holds no role")
	}
}
