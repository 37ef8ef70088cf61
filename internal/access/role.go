// Copyright (c) 2026 Sentra Labs. All rights reserved.
// Author: platform@sentra-labs.io

package access

// # Role Hierarchy

// Role represents the authorization level granted to an account.
type Role string

const (
	// Read-only access to explicitly assigned devices
	RoleViewer Role = "VIEWER"

	// Can manage VIEWER accounts within their companies
	RoleManager Role = "MANAGER"

	// Can manage companies, devices, MANAGER and VIEWER accounts
	RoleAdmin Role = "ADMIN"

	// Unrestricted system access across all companies
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// Valid reports whether the role is one of the four known values.
func (r Role) Valid() bool {
	switch r {
	case RoleViewer, RoleManager, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// AtLeast checks if the role meets or exceeds the required floor role.
//
// This total-order comparison is used only for coarse gating (e.g. "must be
// ADMIN or above to list companies"). Role-on-role enforcement always goes
// through [CanPerform] and the permission matrix, which is NOT derivable
// from this ordering alone.
func (r Role) AtLeast(floor Role) bool {
	return r.level() >= floor.level()
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r Role) level() int {

	// Linear scale (10-40) allows for future intermediate roles
	switch r {
	case RoleSuperAdmin:
		return 40
	case RoleAdmin:
		return 30
	case RoleManager:
		return 20
	case RoleViewer:
		return 10
	default:
		return 0
	}
}

// # Role-on-Role Permission Matrix

// Action is a role-gated mutation kind on user accounts.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// permissionMatrix is the single source of truth for which actor role may
// perform which action on which target role.
//
// It deliberately is NOT derived from the role ordering: SUPER_ADMIN may
// create or update a fellow SUPER_ADMIN but may never delete one. Collapsing
// this table into an ">=" rule would silently lose that asymmetry.
var permissionMatrix = map[Action]map[Role][]Role{
	ActionCreate: {
		RoleSuperAdmin: {RoleViewer, RoleManager, RoleAdmin, RoleSuperAdmin},
		RoleAdmin:      {RoleViewer, RoleManager},
		RoleManager:    {RoleViewer},
		RoleViewer:     {},
	},
	ActionUpdate: {
		RoleSuperAdmin: {RoleViewer, RoleManager, RoleAdmin, RoleSuperAdmin},
		RoleAdmin:      {RoleViewer, RoleManager},
		RoleManager:    {RoleViewer},
		RoleViewer:     {},
	},
	ActionDelete: {
		RoleSuperAdmin: {RoleViewer, RoleManager, RoleAdmin},
		RoleAdmin:      {RoleViewer, RoleManager},
		RoleManager:    {RoleViewer},
		RoleViewer:     {},
	},
}

/*
CanPerform reports whether an actor role may perform the given action against
a target role.

Description: Pure lookup into the fixed permission matrix. Unknown roles or
actions never match.

Parameters:
  - actor: Role of the caller
  - target: Role of the account being acted upon
  - action: One of create / update / delete

Returns:
  - bool: true when the matrix allows the combination
*/
func CanPerform(actor, target Role, action Action) bool {
	allowed, ok := permissionMatrix[action][actor]
	if !ok {
		return false
	}

	for _, role := range allowed {
		if role == target {
			return true
		}
	}

	return false
}

// MaxCreatableRole returns the highest role the actor may create.
//
// # Scope
//
// This is a UI hint only (e.g. populating a role dropdown). Enforcement
// always goes through [CanPerform]; the two must never diverge, which is why
// this function reads the same matrix instead of carrying its own table.
func MaxCreatableRole(actor Role) (Role, bool) {
	allowed := permissionMatrix[ActionCreate][actor]
	if len(allowed) == 0 {
		return "", false
	}

	highest := allowed[0]
	for _, role := range allowed[1:] {
		if role.AtLeast(highest) {
			highest = role
		}
	}

	return highest, true
}
