// Copyright (c) 2026 Sentra Labs. All rights reserved.
// Author: platform@sentra-labs.io

package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentra-labs/sentra/internal/access"
	"github.com/sentra-labs/sentra/internal/platform/apperr"
)

func requireForbidden(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "FORBIDDEN", ae.Code)
}

/*
TestCanDeleteUser verifies the self-delete block and the delete matrix,
including the SUPER_ADMIN-on-SUPER_ADMIN denial.
*/
func TestCanDeleteUser(t *testing.T) {
	super := access.CallerIdentity{ID: "u-super", Role: access.RoleSuperAdmin}

	t.Run("self_delete_always_forbidden", func(t *testing.T) {
		target := access.UserTarget{ID: "u-super", Role: access.RoleSuperAdmin}
		requireForbidden(t, access.CanDeleteUser(super, target))
	})

	t.Run("super_cannot_delete_peer", func(t *testing.T) {
		target := access.UserTarget{ID: "u-other", Role: access.RoleSuperAdmin}
		requireForbidden(t, access.CanDeleteUser(super, target))
	})

	t.Run("super_deletes_admin", func(t *testing.T) {
		target := access.UserTarget{ID: "u-other", Role: access.RoleAdmin}
		assert.NoError(t, access.CanDeleteUser(super, target))
	})

	t.Run("admin_deletes_manager", func(t *testing.T) {
		admin := access.CallerIdentity{ID: "u-admin", Role: access.RoleAdmin}
		target := access.UserTarget{ID: "u-other", Role: access.RoleManager}
		assert.NoError(t, access.CanDeleteUser(admin, target))
	})

	t.Run("manager_cannot_delete_manager", func(t *testing.T) {
		manager := access.CallerIdentity{ID: "u-mgr", Role: access.RoleManager}
		target := access.UserTarget{ID: "u-other", Role: access.RoleManager}
		requireForbidden(t, access.CanDeleteUser(manager, target))
	})
}

/*
TestCanUpdateUser verifies both matrix consultations: the target's current
role and a requested role change.
*/
func TestCanUpdateUser(t *testing.T) {
	admin := access.CallerIdentity{ID: "u-admin", Role: access.RoleAdmin}

	t.Run("admin_updates_viewer", func(t *testing.T) {
		target := access.UserTarget{ID: "u-v", Role: access.RoleViewer}
		assert.NoError(t, access.CanUpdateUser(admin, target, ""))
	})

	t.Run("admin_promotes_viewer_to_manager", func(t *testing.T) {
		target := access.UserTarget{ID: "u-v", Role: access.RoleViewer}
		assert.NoError(t, access.CanUpdateUser(admin, target, access.RoleManager))
	})

	t.Run("admin_cannot_promote_to_admin", func(t *testing.T) {
		target := access.UserTarget{ID: "u-m", Role: access.RoleManager}
		requireForbidden(t, access.CanUpdateUser(admin, target, access.RoleAdmin))
	})

	t.Run("admin_cannot_touch_admin", func(t *testing.T) {
		target := access.UserTarget{ID: "u-a2", Role: access.RoleAdmin}
		requireForbidden(t, access.CanUpdateUser(admin, target, ""))
	})

	t.Run("super_demotes_super_to_admin", func(t *testing.T) {
		super := access.CallerIdentity{ID: "u-s", Role: access.RoleSuperAdmin}
		target := access.UserTarget{ID: "u-s2", Role: access.RoleSuperAdmin}
		assert.NoError(t, access.CanUpdateUser(super, target, access.RoleAdmin))
	})
}

/*
TestCanViewUser verifies self-view, the viewer lockdown, and shared-company
visibility.
*/
func TestCanViewUser(t *testing.T) {
	tests := []struct {
		name   string
		actor  access.CallerIdentity
		target access.UserTarget
		allow  bool
	}{
		{
			name:   "self_always_allowed",
			actor:  access.CallerIdentity{ID: "u-1", Role: access.RoleViewer},
			target: access.UserTarget{ID: "u-1", Role: access.RoleViewer},
			allow:  true,
		},
		{
			name:   "viewer_cannot_view_others",
			actor:  access.CallerIdentity{ID: "u-1", Role: access.RoleViewer, CompanyIDs: []string{companyA}},
			target: access.UserTarget{ID: "u-2", Role: access.RoleViewer, CompanyIDs: []string{companyA}},
			allow:  false,
		},
		{
			name:   "super_views_anyone",
			actor:  access.CallerIdentity{ID: "u-1", Role: access.RoleSuperAdmin},
			target: access.UserTarget{ID: "u-2", Role: access.RoleAdmin},
			allow:  true,
		},
		{
			name:   "shared_company_allows",
			actor:  access.CallerIdentity{ID: "u-1", Role: access.RoleManager, CompanyIDs: []string{companyA, companyB}},
			target: access.UserTarget{ID: "u-2", Role: access.RoleViewer, CompanyIDs: []string{companyB, companyC}},
			allow:  true,
		},
		{
			name:   "disjoint_companies_forbidden",
			actor:  access.CallerIdentity{ID: "u-1", Role: access.RoleAdmin, CompanyIDs: []string{companyA}},
			target: access.UserTarget{ID: "u-2", Role: access.RoleViewer, CompanyIDs: []string{companyC}},
			allow:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := access.CanViewUser(tt.actor, tt.target)
			if tt.allow {
				assert.NoError(t, err)
			} else {
				requireForbidden(t, err)
			}
		})
	}
}

/*
TestCompanyGuards verifies company create, manage, and list gating.
*/
func TestCompanyGuards(t *testing.T) {
	t.Run("create_requires_admin", func(t *testing.T) {
		assert.NoError(t, access.CanCreateCompany(access.CallerIdentity{Role: access.RoleAdmin}))
		assert.NoError(t, access.CanCreateCompany(access.CallerIdentity{Role: access.RoleSuperAdmin}))
		requireForbidden(t, access.CanCreateCompany(access.CallerIdentity{Role: access.RoleManager}))
		requireForbidden(t, access.CanCreateCompany(access.CallerIdentity{Role: access.RoleViewer}))
	})

	t.Run("manage_super_unconditional", func(t *testing.T) {
		super := access.CallerIdentity{ID: "u-s", Role: access.RoleSuperAdmin}
		err := access.CanManageCompany(super, access.CompanyTarget{ID: companyA})
		assert.NoError(t, err)
	})

	t.Run("manage_admin_requires_membership", func(t *testing.T) {
		admin := access.CallerIdentity{ID: "u-a", Role: access.RoleAdmin}

		member := access.CompanyTarget{ID: companyA, UserIDs: []string{"u-x", "u-a"}}
		assert.NoError(t, access.CanManageCompany(admin, member))

		stranger := access.CompanyTarget{ID: companyA, UserIDs: []string{"u-x"}}
		requireForbidden(t, access.CanManageCompany(admin, stranger))
	})

	t.Run("manage_below_admin_forbidden", func(t *testing.T) {
		manager := access.CallerIdentity{ID: "u-m", Role: access.RoleManager}
		target := access.CompanyTarget{ID: companyA, UserIDs: []string{"u-m"}}
		requireForbidden(t, access.CanManageCompany(manager, target))
	})

	t.Run("list_requires_admin", func(t *testing.T) {
		assert.NoError(t, access.CanListCompanies(access.CallerIdentity{Role: access.RoleAdmin}))
		requireForbidden(t, access.CanListCompanies(access.CallerIdentity{Role: access.RoleManager}))
	})
}

/*
TestCanWriteDevice verifies role gating and the admin active-scope lock.
*/
func TestCanWriteDevice(t *testing.T) {
	t.Run("super_writes_anywhere", func(t *testing.T) {
		super := access.CallerIdentity{ID: "u-s", Role: access.RoleSuperAdmin}
		err := access.CanWriteDevice(super, access.Scope{AllCompanies: true}, companyC)
		assert.NoError(t, err)
	})

	t.Run("admin_locked_to_active_scope", func(t *testing.T) {
		admin := access.CallerIdentity{
			ID:         "u-a",
			Role:       access.RoleAdmin,
			CompanyIDs: []string{companyA, companyB},
		}
		scope := access.Scope{CompanyID: companyA}

		assert.NoError(t, access.CanWriteDevice(admin, scope, companyA))

		// companyB is assigned, but it is not the active scope.
		requireForbidden(t, access.CanWriteDevice(admin, scope, companyB))
	})

	t.Run("below_admin_forbidden", func(t *testing.T) {
		manager := access.CallerIdentity{ID: "u-m", Role: access.RoleManager, CompanyIDs: []string{companyA}}
		requireForbidden(t, access.CanWriteDevice(manager, access.Scope{CompanyID: companyA}, companyA))
	})
}

/*
TestCanViewDevice verifies per-role device visibility, including the viewer
assignment requirement.
*/
func TestCanViewDevice(t *testing.T) {
	device := access.DeviceTarget{ID: "d-1", CompanyID: companyA}

	tests := []struct {
		name          string
		actor         access.CallerIdentity
		hasAssignment bool
		allow         bool
	}{
		{
			name:  "super_sees_everything",
			actor: access.CallerIdentity{Role: access.RoleSuperAdmin},
			allow: true,
		},
		{
			name:  "admin_member_sees",
			actor: access.CallerIdentity{Role: access.RoleAdmin, CompanyIDs: []string{companyA}},
			allow: true,
		},
		{
			name:  "manager_nonmember_forbidden",
			actor: access.CallerIdentity{Role: access.RoleManager, CompanyIDs: []string{companyB}},
			allow: false,
		},
		{
			name:          "viewer_with_assignment_sees",
			actor:         access.CallerIdentity{Role: access.RoleViewer, CompanyIDs: []string{companyA}},
			hasAssignment: true,
			allow:         true,
		},
		{
			name: "viewer_company_membership_not_enough",
			actor: access.CallerIdentity{
				Role:       access.RoleViewer,
				CompanyIDs: []string{companyA},
			},
			hasAssignment: false,
			allow:         false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := access.CanViewDevice(tt.actor, device, tt.hasAssignment)
			if tt.allow {
				assert.NoError(t, err)
			} else {
				requireForbidden(t, err)
			}
		})
	}
}

/*
TestCanTouchSession verifies sessions are strictly self-scoped.
*/
func TestCanTouchSession(t *testing.T) {
	owner := access.CallerIdentity{ID: "u-1", Role: access.RoleViewer}
	assert.NoError(t, access.CanTouchSession(owner, "u-1"))

	super := access.CallerIdentity{ID: "u-s", Role: access.RoleSuperAdmin}
	requireForbidden(t, access.CanTouchSession(super, "u-1"))
}
