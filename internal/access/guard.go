// Copyright (c) 2026 Sentra Labs. All rights reserved.
// Author: platform@sentra-labs.io

package access

import (
	"github.com/sentra-labs/sentra/internal/platform/apperr"
)

// # Target Descriptors
//
// Guards never load data themselves. Services project the target entity's
// current state into one of these minimal descriptors before asking for a
// decision, keeping this package free of storage concerns.

// UserTarget is the authorization-relevant state of a user being acted upon.
type UserTarget struct {
	ID         string
	Role       Role
	CompanyIDs []string
}

// CompanyTarget is the authorization-relevant state of a company being acted upon.
type CompanyTarget struct {
	ID      string
	UserIDs []string
}

// DeviceTarget is the authorization-relevant state of a device being acted upon.
type DeviceTarget struct {
	ID        string
	CompanyID string
}

// # User Decisions

/*
CanCreateUser decides whether the actor may create an account with the given role.

Parameters:
  - actor: CallerIdentity
  - newRole: Role requested for the new account

Returns:
  - error: apperr.Forbidden when the permission matrix denies the pairing
*/
func CanCreateUser(actor CallerIdentity, newRole Role) error {
	if !CanPerform(actor.Role, newRole, ActionCreate) {
		return apperr.Forbidden("Your role cannot create accounts with role " + string(newRole))
	}
	return nil
}

/*
CanUpdateUser decides whether the actor may update the target account.

Description: The matrix is consulted against the target's current role, and,
when the mutation changes the role, against the new role as well — an ADMIN
must not promote a MANAGER into an ADMIN by routing around the create rule.

Parameters:
  - actor: CallerIdentity
  - target: UserTarget (current state)
  - newRole: the role after the mutation; empty when the role is unchanged

Returns:
  - error: apperr.Forbidden on either matrix denial
*/
func CanUpdateUser(actor CallerIdentity, target UserTarget, newRole Role) error {
	if !CanPerform(actor.Role, target.Role, ActionUpdate) {
		return apperr.Forbidden("Your role cannot update accounts with role " + string(target.Role))
	}

	if newRole != "" && newRole != target.Role {
		if !CanPerform(actor.Role, newRole, ActionUpdate) {
			return apperr.Forbidden("Your role cannot assign role " + string(newRole))
		}
	}

	return nil
}

/*
CanDeleteUser decides whether the actor may soft-delete the target account.

Description: Self-deletion is always forbidden regardless of role; beyond
that the delete column of the permission matrix applies, which notably denies
SUPER_ADMIN-on-SUPER_ADMIN.

Parameters:
  - actor: CallerIdentity
  - target: UserTarget

Returns:
  - error: apperr.Forbidden
*/
func CanDeleteUser(actor CallerIdentity, target UserTarget) error {
	if actor.ID == target.ID {
		return apperr.Forbidden("You cannot delete your own account")
	}

	if !CanPerform(actor.Role, target.Role, ActionDelete) {
		return apperr.Forbidden("Your role cannot delete accounts with role " + string(target.Role))
	}

	return nil
}

/*
CanViewUser decides whether the actor may view the target account.

Description: A caller may always view themself. A VIEWER may view nobody
else. SUPER_ADMIN may view anyone. Every other pairing requires at least one
company shared between the two accounts.

Parameters:
  - actor: CallerIdentity
  - target: UserTarget

Returns:
  - error: apperr.Forbidden
*/
func CanViewUser(actor CallerIdentity, target UserTarget) error {
	if actor.ID == target.ID {
		return nil
	}

	if actor.Role == RoleViewer {
		return apperr.Forbidden("Viewers may only view their own account")
	}

	if actor.IsSuperAdmin() {
		return nil
	}

	for _, companyID := range target.CompanyIDs {
		if actor.AssignedTo(companyID) {
			return nil
		}
	}

	return apperr.Forbidden("You do not share a company with this account")
}

// # Company Decisions

// CanCreateCompany decides whether the actor may create a company.
//
// ADMIN and SUPER_ADMIN only. The caller-side effect (auto-assignment of a
// creating ADMIN, first-company-primary) is the user service's concern.
func CanCreateCompany(actor CallerIdentity) error {
	if !actor.Role.AtLeast(RoleAdmin) {
		return apperr.Forbidden("Only admins can create companies")
	}
	return nil
}

/*
CanManageCompany decides whether the actor may update or soft-delete a company.

Description: SUPER_ADMIN unconditionally; ADMIN only when they are a member
of the company's assigned-user set. Managers and viewers never qualify.

Parameters:
  - actor: CallerIdentity
  - target: CompanyTarget (must carry the assigned user ids)

Returns:
  - error: apperr.Forbidden
*/
func CanManageCompany(actor CallerIdentity, target CompanyTarget) error {
	if actor.IsSuperAdmin() {
		return nil
	}

	if actor.Role == RoleAdmin {
		for _, userID := range target.UserIDs {
			if userID == actor.ID {
				return nil
			}
		}
		return apperr.Forbidden("You are not a member of this company")
	}

	return apperr.Forbidden("Only admins can manage companies")
}

// CanListCompanies decides whether the actor may enumerate companies.
//
// Forbidden entirely below ADMIN; the company listing is an administrative
// surface, not a discovery feature.
func CanListCompanies(actor CallerIdentity) error {
	if !actor.Role.AtLeast(RoleAdmin) {
		return apperr.Forbidden("Only admins can list companies")
	}
	return nil
}

// # Device Decisions

/*
CanWriteDevice decides whether the actor may create, update, or soft-delete a
device owned by the given company.

Description: ADMIN and SUPER_ADMIN only. For an ADMIN the device's company
must equal the resolved active scope — an ADMIN may not write a device into a
company that is not their current active company, even one they are assigned
to. SUPER_ADMIN writes into any company.

Parameters:
  - actor: CallerIdentity
  - scope: the resolved tenancy scope for this request
  - companyID: the device's owning company (target for relocations)

Returns:
  - error: apperr.Forbidden
*/
func CanWriteDevice(actor CallerIdentity, scope Scope, companyID string) error {
	if actor.IsSuperAdmin() {
		return nil
	}

	if actor.Role != RoleAdmin {
		return apperr.Forbidden("Only admins can manage devices")
	}

	if scope.CompanyID == "" || scope.CompanyID != companyID {
		return apperr.Forbidden("Devices can only be managed within your active company")
	}

	return nil
}

/*
CanViewDevice decides whether the actor may view a single device.

Description: SUPER_ADMIN unconditionally. ADMIN and MANAGER require the
device's company to be in their assigned set. VIEWER requires an explicit
user-device assignment row for that exact device; assignment to the owning
company is not enough.

Parameters:
  - actor: CallerIdentity
  - target: DeviceTarget
  - hasAssignment: whether a user-device assignment row exists for the actor

Returns:
  - error: apperr.Forbidden
*/
func CanViewDevice(actor CallerIdentity, target DeviceTarget, hasAssignment bool) error {
	switch actor.Role {
	case RoleSuperAdmin:
		return nil

	case RoleAdmin, RoleManager:
		if actor.AssignedTo(target.CompanyID) {
			return nil
		}
		return apperr.Forbidden("This device belongs to a company you are not assigned to")

	case RoleViewer:
		if hasAssignment {
			return nil
		}
		return apperr.Forbidden("This device is not assigned to you")
	}

	return apperr.Forbidden("Unknown role")
}

// # Session Decisions

// CanTouchSession decides whether the actor may list or revoke a session.
//
// Sessions are strictly self-scoped: no cross-user session management exists
// for any role, SUPER_ADMIN included. This is a deliberate boundary.
func CanTouchSession(actor CallerIdentity, ownerUserID string) error {
	if actor.ID != ownerUserID {
		return apperr.Forbidden("Sessions can only be managed by their owner")
	}
	return nil
}
