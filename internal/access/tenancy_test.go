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

const (
	companyA = "0198c0de-0000-7000-8000-00000000000a"
	companyB = "0198c0de-0000-7000-8000-00000000000b"
	companyC = "0198c0de-0000-7000-8000-00000000000c"
)

/*
TestResolveActiveCompany_SuperAdmin verifies the SUPER_ADMIN special case:
no hint resolves to all companies, a hint pivots without a membership check.
*/
func TestResolveActiveCompany_SuperAdmin(t *testing.T) {
	super := access.CallerIdentity{ID: "u-1", Role: access.RoleSuperAdmin}

	t.Run("no_hint_all_companies", func(t *testing.T) {
		scope, err := access.ResolveActiveCompany(super, "")
		require.NoError(t, err)
		assert.True(t, scope.AllCompanies)
		assert.Empty(t, scope.CompanyID)
	})

	t.Run("hint_pivots_without_membership", func(t *testing.T) {
		// companyA is not in the super admin's (empty) assignment set.
		scope, err := access.ResolveActiveCompany(super, companyA)
		require.NoError(t, err)
		assert.Equal(t, companyA, scope.CompanyID)
		assert.False(t, scope.AllCompanies)
	})

	t.Run("malformed_hint_still_rejected", func(t *testing.T) {
		_, err := access.ResolveActiveCompany(super, "not-a-uuid")
		require.Error(t, err)
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "VALIDATION_ERROR", ae.Code)
	})
}

/*
TestResolveActiveCompany_Hint verifies explicit-hint handling for regular
roles: shape validation first, membership second.
*/
func TestResolveActiveCompany_Hint(t *testing.T) {
	admin := access.CallerIdentity{
		ID:         "u-2",
		Role:       access.RoleAdmin,
		CompanyIDs: []string{companyA, companyB},
	}

	tests := []struct {
		name     string
		hint     string
		wantID   string
		wantCode string
	}{
		{"member_hint_wins", companyB, companyB, ""},
		{"whitespace_trimmed", "  " + companyB + "  ", companyB, ""},
		{"malformed_hint", "definitely-not-a-uuid", "", "VALIDATION_ERROR"},
		{"non_member_hint", companyC, "", "FORBIDDEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope, err := access.ResolveActiveCompany(admin, tt.hint)

			if tt.wantCode != "" {
				require.Error(t, err)
				ae := apperr.As(err)
				require.NotNil(t, ae)
				assert.Equal(t, tt.wantCode, ae.Code)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantID, scope.CompanyID)
			assert.False(t, scope.AllCompanies)
		})
	}
}

/*
TestResolveActiveCompany_Fallbacks verifies the primary-company and
first-assigned-company fallbacks, and the terminal Forbidden.
*/
func TestResolveActiveCompany_Fallbacks(t *testing.T) {
	tests := []struct {
		name     string
		caller   access.CallerIdentity
		wantID   string
		wantCode string
	}{
		{
			name: "primary_company_preferred",
			caller: access.CallerIdentity{
				ID:               "u-3",
				Role:             access.RoleManager,
				CompanyIDs:       []string{companyA, companyB},
				PrimaryCompanyID: companyB,
			},
			wantID: companyB,
		},
		{
			name: "first_assigned_when_no_primary",
			caller: access.CallerIdentity{
				ID:         "u-4",
				Role:       access.RoleManager,
				CompanyIDs: []string{companyA, companyB},
			},
			wantID: companyA,
		},
		{
			name:     "no_companies_forbidden",
			caller:   access.CallerIdentity{ID: "u-5", Role: access.RoleViewer},
			wantCode: "FORBIDDEN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope, err := access.ResolveActiveCompany(tt.caller, "")

			if tt.wantCode != "" {
				require.Error(t, err)
				ae := apperr.As(err)
				require.NotNil(t, ae)
				assert.Equal(t, tt.wantCode, ae.Code)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantID, scope.CompanyID)
		})
	}
}

/*
TestResolveOptional verifies the permissive variant: an unresolvable scope
yields the empty scope, but explicit bad hints still fail.
*/
func TestResolveOptional(t *testing.T) {
	orphan := access.CallerIdentity{ID: "u-6", Role: access.RoleViewer}

	t.Run("unresolvable_yields_empty_scope", func(t *testing.T) {
		scope, err := access.ResolveOptional(orphan, "")
		require.NoError(t, err)
		assert.True(t, scope.IsNone())
	})

	t.Run("malformed_hint_still_fails", func(t *testing.T) {
		_, err := access.ResolveOptional(orphan, "not-a-uuid")
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("non_member_hint_still_fails", func(t *testing.T) {
		_, err := access.ResolveOptional(orphan, companyA)
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
	})

	t.Run("member_hint_resolves", func(t *testing.T) {
		member := access.CallerIdentity{
			ID:         "u-7",
			Role:       access.RoleManager,
			CompanyIDs: []string{companyA},
		}
		scope, err := access.ResolveOptional(member, companyA)
		require.NoError(t, err)
		assert.Equal(t, companyA, scope.CompanyID)
	})
}
