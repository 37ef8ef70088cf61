// Copyright (c) 2026 Sentra Labs. All rights reserved.
// Author: platform@sentra-labs.io

package access

import (
	"regexp"
	"strings"

	"github.com/sentra-labs/sentra/internal/platform/apperr"
)

// # Tenancy Scope

// Scope is the resolved tenancy boundary of a single request.
//
// Exactly one of three states is possible:
//
//   - A concrete company: CompanyID is set, AllCompanies is false.
//   - All companies: AllCompanies is true (SUPER_ADMIN without a hint only).
//   - No scope: both zero. Produced only by [ResolveOptional]; read paths
//     must treat it as "no additional company filter", never as "all data".
type Scope struct {
	// CompanyID is the single company governing the request, empty when unscoped.
	CompanyID string

	// AllCompanies marks an unrestricted SUPER_ADMIN scope.
	AllCompanies bool
}

// IsNone reports whether no scope could be resolved (optional mode only).
func (s Scope) IsNone() bool {
	return s.CompanyID == "" && !s.AllCompanies
}

// uuidPattern matches the canonical RFC 4122 textual form. The client hint is
// untrusted input; shape validation happens before any membership check.
var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

/*
ResolveActiveCompany computes the single company governing a request.

Description: Applies the fallback chain in fixed precedence. SUPER_ADMIN is
the deliberate exception: without an explicit hint it resolves to all
companies, where every other role resolves to exactly one company or fails.

Precedence:
 1. SUPER_ADMIN: the hint if present (shape-validated, never
    membership-checked), otherwise all companies.
 2. Explicit hint: shape-validated, then membership-checked against the
    caller's assigned companies.
 3. The caller's primary company.
 4. The caller's first assigned company (assignment order).
 5. Forbidden — no active company.

Parameters:
  - caller: CallerIdentity
  - requestedCompanyID: untrusted client hint (X-Active-Company), may be empty

Returns:
  - Scope: Concrete company or the SUPER_ADMIN all-companies scope
  - error: apperr.ValidationError (malformed hint) or apperr.Forbidden
*/
func ResolveActiveCompany(caller CallerIdentity, requestedCompanyID string) (Scope, error) {
	return resolveScope(caller, requestedCompanyID, true)
}

/*
ResolveOptional is the permissive variant used by read paths that do not
strictly require a scope.

Description: Performs the same hint validation and membership checks as
[ResolveActiveCompany], but when no scope can be resolved it returns the
empty scope rather than failing. Callers must treat the empty scope as "no
additional company filter".

Parameters:
  - caller: CallerIdentity
  - requestedCompanyID: untrusted client hint, may be empty

Returns:
  - Scope: Concrete company, all-companies, or the empty scope
  - error: apperr.ValidationError or apperr.Forbidden for explicit bad hints
*/
func ResolveOptional(caller CallerIdentity, requestedCompanyID string) (Scope, error) {
	return resolveScope(caller, requestedCompanyID, false)
}

// resolveScope implements the shared fallback chain. When required is false,
// an unresolvable scope yields Scope{} instead of Forbidden; explicit hint
// errors are surfaced in both modes.
func resolveScope(caller CallerIdentity, requestedCompanyID string, required bool) (Scope, error) {
	requestedCompanyID = strings.TrimSpace(requestedCompanyID)

	// ── 1. SUPER_ADMIN Special Case ───────────────────────────────────────
	// Shape-validated but never membership-checked: a SUPER_ADMIN may pivot
	// into any company, and without a hint sees all of them.
	if caller.IsSuperAdmin() {
		if requestedCompanyID == "" {
			return Scope{AllCompanies: true}, nil
		}

		if err := validateCompanyID(requestedCompanyID); err != nil {
			return Scope{}, err
		}

		return Scope{CompanyID: requestedCompanyID}, nil
	}

	// ── 2. Explicit Hint ──────────────────────────────────────────────────
	if requestedCompanyID != "" {
		if err := validateCompanyID(requestedCompanyID); err != nil {
			return Scope{}, err
		}

		if !caller.AssignedTo(requestedCompanyID) {
			return Scope{}, apperr.Forbidden("You are not assigned to the requested company")
		}

		return Scope{CompanyID: requestedCompanyID}, nil
	}

	// ── 3. Primary Company ────────────────────────────────────────────────
	if caller.PrimaryCompanyID != "" {
		return Scope{CompanyID: caller.PrimaryCompanyID}, nil
	}

	// ── 4. First Assigned Company ─────────────────────────────────────────
	if len(caller.CompanyIDs) > 0 {
		return Scope{CompanyID: caller.CompanyIDs[0]}, nil
	}

	// ── 5. Nothing To Resolve ─────────────────────────────────────────────
	if required {
		return Scope{}, apperr.Forbidden("No active company could be resolved for this account")
	}

	return Scope{}, nil
}

// validateCompanyID rejects hints that are not canonical lowercase UUIDs.
func validateCompanyID(id string) error {
	if !uuidPattern.MatchString(strings.ToLower(id)) {
		return apperr.ValidationError("Active company must be a valid UUID")
	}
	return nil
}
