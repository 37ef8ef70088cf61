// Copyright (c) 2026 Sentra Labs. All rights reserved.
// Author: platform@sentra-labs.io

package access

import (
	"github.com/sentra-labs/sentra/internal/platform/apperr"
)

// # Resource Preconditions
//
// Structural invariants that sit below authorization: the caller may be
// allowed to perform the operation in principle, yet the current shape of the
// data forbids it. Like the guards, these functions are pure; services load
// the counts and ids, this file only judges them.

/*
CheckViewerDevices enforces that a VIEWER account always carries at least one
device assignment.

Description: Applied on user create and on any update that touches the role
or the device set. Non-viewer roles are exempt; their device set may be empty.

Parameters:
  - role: the role the account will hold after the mutation
  - deviceCount: the number of device assignments after the mutation

Returns:
  - error: apperr.ValidationError when a VIEWER would end up with zero devices
*/
func CheckViewerDevices(role Role, deviceCount int) error {
	if role == RoleViewer && deviceCount == 0 {
		return apperr.ValidationError("A viewer account requires at least one assigned device")
	}
	return nil
}

/*
CheckDeviceParent validates a parent reference on device create or update.

Description: A device may not be its own parent, and the parent must belong
to the same company as the device. Cycle detection over the full ancestor
chain is a separate walk ([CheckDeviceAncestry]) because it needs loaded
chain data.

Parameters:
  - deviceID: id of the device being written, empty on create
  - parentID: requested parent id
  - deviceCompanyID: owning company of the device after the mutation
  - parentCompanyID: owning company of the parent

Returns:
  - error: apperr.ValidationError
*/
func CheckDeviceParent(deviceID, parentID, deviceCompanyID, parentCompanyID string) error {
	if parentID == "" {
		return nil
	}

	if deviceID != "" && parentID == deviceID {
		return apperr.ValidationError("A device cannot be its own parent")
	}

	if parentCompanyID != deviceCompanyID {
		return apperr.ValidationError("Parent device must belong to the same company")
	}

	return nil
}

/*
CheckDeviceAncestry rejects a parent assignment that would close a cycle.

Description: ancestorIDs is the chain walked upward from the requested
parent (parent, grandparent, ...). If the device being updated appears
anywhere in that chain, attaching it would make the hierarchy circular.

Parameters:
  - deviceID: id of the device being updated
  - ancestorIDs: the parent's ancestor chain, nearest first

Returns:
  - error: apperr.ValidationError
*/
func CheckDeviceAncestry(deviceID string, ancestorIDs []string) error {
	for _, ancestorID := range ancestorIDs {
		if ancestorID == deviceID {
			return apperr.ValidationError("Parent assignment would create a device cycle")
		}
	}
	return nil
}

// CheckDeviceDeletable blocks soft-deleting a device that still has
// non-deleted children. Children must be deleted or re-parented first.
func CheckDeviceDeletable(activeChildren int) error {
	if activeChildren > 0 {
		return apperr.ValidationError("Device still has child devices")
	}
	return nil
}

/*
CheckCompanyDeletable enforces the emptiness rules for company soft-delete.

Description: A company with non-deleted devices can never be deleted. A
company with users can be deleted only in the single permitted case: exactly
one remaining user, and that user is the deleting actor, and the actor is an
ADMIN (a SUPER_ADMIN is never a member, and nothing below ADMIN reaches this
path). This lets the last admin dissolve their own empty company.

Parameters:
  - actor: CallerIdentity performing the delete
  - activeDevices: non-deleted devices owned by the company
  - activeUsers: non-deleted users assigned to the company
  - soleUserID: the single remaining user's id when activeUsers is 1

Returns:
  - error: apperr.ValidationError
*/
func CheckCompanyDeletable(actor CallerIdentity, activeDevices, activeUsers int, soleUserID string) error {
	if activeDevices > 0 {
		return apperr.ValidationError("Company still has devices")
	}

	if activeUsers == 0 {
		return nil
	}

	if activeUsers == 1 && soleUserID == actor.ID && actor.Role == RoleAdmin {
		return nil
	}

	return apperr.ValidationError("Company still has assigned users")
}

/*
CheckDeviceCompanyBinding validates that every device assigned to a user
belongs to one of the user's companies.

Description: Applied whenever a user's device set or company set changes.
deviceCompanies maps each assigned device id to its owning company; the
mutation is valid only when every owning company is in companyIDs.

Parameters:
  - deviceCompanies: device id to owning company id, for the assigned set
  - companyIDs: the user's company set after the mutation

Returns:
  - error: apperr.ValidationError naming the first offending device
*/
func CheckDeviceCompanyBinding(deviceCompanies map[string]string, companyIDs []string) error {
	member := make(map[string]struct{}, len(companyIDs))
	for _, id := range companyIDs {
		member[id] = struct{}{}
	}

	for deviceID, companyID := range deviceCompanies {
		if _, ok := member[companyID]; !ok {
			return apperr.ValidationError("Device " + deviceID + " does not belong to any of the user's companies")
		}
	}

	return nil
}

/*
CheckDeviceCompanyAccess verifies the actor can reach every company owning a
device they are assigning.

Description: An ADMIN or MANAGER may only hand out devices from companies
they are themselves assigned to. SUPER_ADMIN is exempt.

Parameters:
  - actor: CallerIdentity performing the assignment
  - deviceCompanies: device id to owning company id, for the assigned set

Returns:
  - error: apperr.Forbidden
*/
func CheckDeviceCompanyAccess(actor CallerIdentity, deviceCompanies map[string]string) error {
	if actor.IsSuperAdmin() {
		return nil
	}

	for _, companyID := range deviceCompanies {
		if !actor.AssignedTo(companyID) {
			return apperr.Forbidden("You cannot assign devices from a company you are not a member of")
		}
	}

	return nil
}

/*
DerivePrimaryCompany computes the primary company after a company-set change.

Description: With exactly one company the primary is forced to it. With none
the primary clears. With several, an existing primary survives only when it
is still a member of the new set; otherwise the primary clears and must be
re-chosen explicitly.

Parameters:
  - previous: the primary company before the mutation, may be empty
  - companyIDs: the company set after the mutation

Returns:
  - string: the derived primary company id, empty when none applies
*/
func DerivePrimaryCompany(previous string, companyIDs []string) string {
	switch len(companyIDs) {
	case 0:
		return ""
	case 1:
		return companyIDs[0]
	}

	for _, id := range companyIDs {
		if id == previous {
			return previous
		}
	}

	return ""
}
