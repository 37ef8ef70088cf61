// Copyright (c) 2026 Sentra Labs. All rights reserved.
// Author: platform@sentra-labs.io

/*
Package access implements the authorization and tenancy-resolution core.

It is the single authority for three questions every mutating request must
answer before touching storage:

  - May this role act on that role? ([CanPerform], the role hierarchy table)
  - Which company's data governs this request? ([ResolveActiveCompany])
  - May this caller act on that specific entity? (the per-entity guards)

Architecture:

  - Purity: The package holds no state and performs no I/O. Every decision is
    a function of the caller identity, the resolved scope, and a minimal
    descriptor of the target entity. Services fetch the descriptors; this
    package only judges them.
  - Errors: Decisions fail with typed [apperr.AppError] values (Forbidden,
    ValidationError) that the transport layer maps to HTTP statuses.

The rule set is a small, fixed, hard-coded hierarchy by design. There is no
runtime-configurable permission matrix.
*/
package access

// CallerIdentity is the authenticated actor of a request.
//
// It is reconstructed fresh on every request from verified JWT claims and is
// never persisted by this package.
//
// # Invariants
//
// CompanyIDs preserves the insertion order of the assignment relation; the
// tenancy fallback chain depends on "first assigned company" being stable.
// PrimaryCompanyID, when set, is a member of CompanyIDs — established at
// user-update time, not re-validated here.
type CallerIdentity struct {
	// ID is the opaque user identifier.
	ID string

	// Role is the caller's role in the fixed hierarchy.
	Role Role

	// CompanyIDs are the companies the caller is assigned to, in assignment order.
	CompanyIDs []string

	// PrimaryCompanyID is the caller's default company, empty when unset.
	PrimaryCompanyID string
}

// AssignedTo reports whether the caller is assigned to the given company.
func (c CallerIdentity) AssignedTo(companyID string) bool {
	for _, id := range c.CompanyIDs {
		if id == companyID {
			return true
		}
	}
	return false
}

// IsSuperAdmin reports whether the caller holds the SUPER_ADMIN role.
//
// SUPER_ADMIN is the only role whose tenancy scope may span all companies,
// so several decision paths branch on it explicitly.
func (c CallerIdentity) IsSuperAdmin() bool {
	return c.Role == RoleSuperAdmin
}
