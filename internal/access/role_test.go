// Copyright (c) 2026 Sentra Labs. All rights reserved.
// Author: platform@sentra-labs.io

package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentra-labs/sentra/internal/access"
)

var allRoles = []access.Role{
	access.RoleViewer,
	access.RoleManager,
	access.RoleAdmin,
	access.RoleSuperAdmin,
}

/*
TestRole_Valid verifies role value recognition.
*/
func TestRole_Valid(t *testing.T) {
	for _, role := range allRoles {
		assert.True(t, role.Valid(), string(role))
	}

	assert.False(t, access.Role("").Valid())
	assert.False(t, access.Role("admin").Valid(), "roles are case-sensitive")
	assert.False(t, access.Role("ROOT").Valid())
}

/*
TestRole_AtLeast verifies the total ordering used for coarse gating.
*/
func TestRole_AtLeast(t *testing.T) {
	tests := []struct {
		name  string
		role  access.Role
		floor access.Role
		want  bool
	}{
		{"viewer_meets_viewer", access.RoleViewer, access.RoleViewer, true},
		{"viewer_below_manager", access.RoleViewer, access.RoleManager, false},
		{"manager_below_admin", access.RoleManager, access.RoleAdmin, false},
		{"admin_meets_admin", access.RoleAdmin, access.RoleAdmin, true},
		{"admin_below_super", access.RoleAdmin, access.RoleSuperAdmin, false},
		{"super_meets_everything", access.RoleSuperAdmin, access.RoleViewer, true},
		{"unknown_below_viewer", access.Role("GHOST"), access.RoleViewer, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.AtLeast(tt.floor))
		})
	}
}

/*
TestCanPerform_Matrix exercises every cell of the permission matrix for all
three actions.
*/
func TestCanPerform_Matrix(t *testing.T) {
	type cell struct {
		actor  access.Role
		target access.Role
		want   bool
	}

	createAndUpdate := []cell{
		{access.RoleSuperAdmin, access.RoleSuperAdmin, true},
		{access.RoleSuperAdmin, access.RoleAdmin, true},
		{access.RoleSuperAdmin, access.RoleManager, true},
		{access.RoleSuperAdmin, access.RoleViewer, true},
		{access.RoleAdmin, access.RoleSuperAdmin, false},
		{access.RoleAdmin, access.RoleAdmin, false},
		{access.RoleAdmin, access.RoleManager, true},
		{access.RoleAdmin, access.RoleViewer, true},
		{access.RoleManager, access.RoleSuperAdmin, false},
		{access.RoleManager, access.RoleAdmin, false},
		{access.RoleManager, access.RoleManager, false},
		{access.RoleManager, access.RoleViewer, true},
		{access.RoleViewer, access.RoleSuperAdmin, false},
		{access.RoleViewer, access.RoleAdmin, false},
		{access.RoleViewer, access.RoleManager, false},
		{access.RoleViewer, access.RoleViewer, false},
	}

	for _, action := range []access.Action{access.ActionCreate, access.ActionUpdate} {
		for _, c := range createAndUpdate {
			got := access.CanPerform(c.actor, c.target, action)
			assert.Equal(t, c.want, got, "%s: %s on %s", action, c.actor, c.target)
		}
	}

	// The delete column matches create/update everywhere except the single
	// SUPER_ADMIN-on-SUPER_ADMIN cell.
	for _, c := range createAndUpdate {
		want := c.want
		if c.actor == access.RoleSuperAdmin && c.target == access.RoleSuperAdmin {
			want = false
		}
		got := access.CanPerform(c.actor, c.target, access.ActionDelete)
		assert.Equal(t, want, got, "delete: %s on %s", c.actor, c.target)
	}
}

/*
TestCanPerform_UnknownInputs verifies unknown roles and actions never match.
*/
func TestCanPerform_UnknownInputs(t *testing.T) {
	assert.False(t, access.CanPerform(access.Role("GHOST"), access.RoleViewer, access.ActionCreate))
	assert.False(t, access.CanPerform(access.RoleSuperAdmin, access.Role("GHOST"), access.ActionCreate))
	assert.False(t, access.CanPerform(access.RoleSuperAdmin, access.RoleViewer, access.Action("drop")))
}

/*
TestMaxCreatableRole verifies the UI-hint helper stays consistent with the
matrix.
*/
func TestMaxCreatableRole(t *testing.T) {
	tests := []struct {
		name  string
		actor access.Role
		want  access.Role
		ok    bool
	}{
		{"super_admin", access.RoleSuperAdmin, access.RoleSuperAdmin, true},
		{"admin", access.RoleAdmin, access.RoleManager, true},
		{"manager", access.RoleManager, access.RoleViewer, true},
		{"viewer", access.RoleViewer, "", false},
		{"unknown", access.Role("GHOST"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := access.MaxCreatableRole(tt.actor)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
