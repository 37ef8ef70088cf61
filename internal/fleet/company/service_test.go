// Copyright (c) 2026 Sentra Labs. All rights reserved.
// Author: platform@sentra-labs.io

package company_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentra-labs/sentra/internal/access"
	"github.com/sentra-labs/sentra/internal/fleet/company"
	"github.com/sentra-labs/sentra/internal/platform/apperr"
	"github.com/sentra-labs/sentra/pkg/pagination"
	"github.com/sentra-labs/sentra/pkg/pointer"
)

const companyID = "c0000000-0000-0000-0000-00000000000a"

// # Test Doubles

type stubRepository struct {
	companies map[string]*company.Company
	members   map[string][]string
	stats     map[string]company.DeletionStats

	created      *company.Company
	assignedUser string
	madePrimary  bool
	updated      *company.Company
	deletedIDs   []string
	listFilter   *company.ListFilter
}

func newStubRepository() *stubRepository {
	return &stubRepository{
		companies: map[string]*company.Company{},
		members:   map[string][]string{},
		stats:     map[string]company.DeletionStats{},
	}
}

func (r *stubRepository) add(c *company.Company) *company.Company {
	r.companies[c.ID] = c
	return c
}

func (r *stubRepository) FindByID(_ context.Context, id string) (*company.Company, error) {
	if c, ok := r.companies[id]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, apperr.NotFound("Company")
}

func (r *stubRepository) Create(_ context.Context, c *company.Company, assignUserID string, makePrimary bool) error {
	r.created = c
	r.assignedUser = assignUserID
	r.madePrimary = makePrimary
	return nil
}

func (r *stubRepository) Update(_ context.Context, c *company.Company) error {
	r.updated = c
	return nil
}

func (r *stubRepository) SoftDelete(_ context.Context, id string) error {
	r.deletedIDs = append(r.deletedIDs, id)
	return nil
}

func (r *stubRepository) List(_ context.Context, filter company.ListFilter) ([]company.Company, int, error) {
	r.listFilter = &filter
	return []company.Company{}, 0, nil
}

func (r *stubRepository) MemberIDs(_ context.Context, id string) ([]string, error) {
	return r.members[id], nil
}

func (r *stubRepository) Stats(_ context.Context, id string) (company.DeletionStats, error) {
	return r.stats[id], nil
}

// # Fixtures

func adminCaller(companies ...string) access.CallerIdentity {
	return access.CallerIdentity{
		ID:         "a0000000-0000-0000-0000-000000000001",
		Role:       access.RoleAdmin,
		CompanyIDs: companies,
	}
}

func superCaller() access.CallerIdentity {
	return access.CallerIdentity{
		ID:   "a0000000-0000-0000-0000-000000000099",
		Role: access.RoleSuperAdmin,
	}
}

func newService(repo *stubRepository) *company.Service {
	return company.NewService(repo, slog.Default())
}

// # Tests

/*
TestService_Create covers tenant provisioning and creator auto-assignment.
*/
func TestService_Create(t *testing.T) {
	t.Run("admin_first_company_becomes_primary", func(t *testing.T) {
		repo := newStubRepository()
		service := newService(repo)
		caller := adminCaller() // no assignments yet

		created, err := service.Create(context.Background(), caller, company.CreateCompanyInput{
			Name: "Northwind Facilities",
		})
		require.NoError(t, err)

		assert.Equal(t, "northwind-facilities", created.Slug)
		assert.Equal(t, caller.ID, repo.assignedUser)
		assert.True(t, repo.madePrimary)
	})

	t.Run("admin_with_existing_companies_not_primary", func(t *testing.T) {
		repo := newStubRepository()
		service := newService(repo)

		_, err := service.Create(context.Background(), adminCaller(companyID), company.CreateCompanyInput{
			Name: "Second Venture",
		})
		require.NoError(t, err)

		assert.False(t, repo.madePrimary)
	})

	t.Run("super_admin_not_auto_assigned", func(t *testing.T) {
		repo := newStubRepository()
		service := newService(repo)

		_, err := service.Create(context.Background(), superCaller(), company.CreateCompanyInput{
			Name: "Platform Wide",
		})
		require.NoError(t, err)

		assert.Empty(t, repo.assignedUser)
	})

	t.Run("manager_forbidden", func(t *testing.T) {
		service := newService(newStubRepository())
		manager := access.CallerIdentity{ID: "m-1", Role: access.RoleManager}

		_, err := service.Create(context.Background(), manager, company.CreateCompanyInput{Name: "Nope"})
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
	})
}

/*
TestService_Update covers management rights and the slug refresh.
*/
func TestService_Update(t *testing.T) {
	t.Run("member_admin_renames_and_reslugs", func(t *testing.T) {
		repo := newStubRepository()
		repo.add(&company.Company{ID: companyID, Name: "Old Name", Slug: "old-name"})
		caller := adminCaller(companyID)
		repo.members[companyID] = []string{caller.ID}
		service := newService(repo)

		updated, err := service.Update(context.Background(), caller, companyID, company.UpdateCompanyInput{
			Name: pointer.To("Fresh Name"),
		})
		require.NoError(t, err)

		assert.Equal(t, "Fresh Name", updated.Name)
		assert.Equal(t, "fresh-name", updated.Slug)
	})

	t.Run("non_member_admin_forbidden", func(t *testing.T) {
		repo := newStubRepository()
		repo.add(&company.Company{ID: companyID, Name: "Old Name"})
		repo.members[companyID] = []string{"someone-else"}
		service := newService(repo)

		_, err := service.Update(context.Background(), adminCaller(companyID), companyID, company.UpdateCompanyInput{
			Name: pointer.To("Fresh Name"),
		})
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
	})
}

/*
TestService_Delete covers the company deletion precondition.
*/
func TestService_Delete(t *testing.T) {
	t.Run("company_with_devices_rejected", func(t *testing.T) {
		repo := newStubRepository()
		repo.add(&company.Company{ID: companyID, Name: "Busy"})
		caller := adminCaller(companyID)
		repo.members[companyID] = []string{caller.ID}
		repo.stats[companyID] = company.DeletionStats{ActiveDevices: 3}
		service := newService(repo)

		err := service.Delete(context.Background(), caller, companyID)
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
		assert.Empty(t, repo.deletedIDs)
	})

	t.Run("sole_admin_dissolves_own_company", func(t *testing.T) {
		repo := newStubRepository()
		repo.add(&company.Company{ID: companyID, Name: "Winding Down"})
		caller := adminCaller(companyID)
		repo.members[companyID] = []string{caller.ID}
		repo.stats[companyID] = company.DeletionStats{ActiveUsers: 1, SoleUserID: caller.ID}
		service := newService(repo)

		require.NoError(t, service.Delete(context.Background(), caller, companyID))
		assert.Equal(t, []string{companyID}, repo.deletedIDs)
	})

	t.Run("other_remaining_user_blocks", func(t *testing.T) {
		repo := newStubRepository()
		repo.add(&company.Company{ID: companyID, Name: "Occupied"})
		caller := adminCaller(companyID)
		repo.members[companyID] = []string{caller.ID}
		repo.stats[companyID] = company.DeletionStats{ActiveUsers: 1, SoleUserID: "someone-else"}
		service := newService(repo)

		err := service.Delete(context.Background(), caller, companyID)
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("super_admin_deletes_empty_company", func(t *testing.T) {
		repo := newStubRepository()
		repo.add(&company.Company{ID: companyID, Name: "Empty"})
		service := newService(repo)

		require.NoError(t, service.Delete(context.Background(), superCaller(), companyID))
		assert.Equal(t, []string{companyID}, repo.deletedIDs)
	})
}

/*
TestService_Get covers membership-gated retrieval.
*/
func TestService_Get(t *testing.T) {
	t.Run("assigned_manager_ok", func(t *testing.T) {
		repo := newStubRepository()
		repo.add(&company.Company{ID: companyID, Name: "Mine"})
		manager := access.CallerIdentity{ID: "m-1", Role: access.RoleManager, CompanyIDs: []string{companyID}}
		service := newService(repo)

		found, err := service.Get(context.Background(), manager, companyID)
		require.NoError(t, err)
		assert.Equal(t, companyID, found.ID)
	})

	t.Run("unassigned_caller_forbidden", func(t *testing.T) {
		repo := newStubRepository()
		repo.add(&company.Company{ID: companyID, Name: "Not Yours"})
		outsider := access.CallerIdentity{ID: "m-1", Role: access.RoleAdmin}
		service := newService(repo)

		_, err := service.Get(context.Background(), outsider, companyID)
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
	})
}

/*
TestService_List covers listing visibility per role.
*/
func TestService_List(t *testing.T) {
	page := pagination.Params{Page: 1, Limit: 20}

	t.Run("manager_forbidden", func(t *testing.T) {
		service := newService(newStubRepository())
		manager := access.CallerIdentity{ID: "m-1", Role: access.RoleManager, CompanyIDs: []string{companyID}}

		_, _, err := service.List(context.Background(), manager, "", page)
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
	})

	t.Run("admin_restricted_to_assignments", func(t *testing.T) {
		repo := newStubRepository()
		service := newService(repo)

		_, _, err := service.List(context.Background(), adminCaller(companyID), "", page)
		require.NoError(t, err)

		require.NotNil(t, repo.listFilter)
		assert.Equal(t, []string{companyID}, repo.listFilter.CompanyIDs)
	})

	t.Run("admin_without_assignments_empty_page", func(t *testing.T) {
		repo := newStubRepository()
		service := newService(repo)

		companies, total, err := service.List(context.Background(), adminCaller(), "", page)
		require.NoError(t, err)

		assert.Empty(t, companies)
		assert.Zero(t, total)
		assert.Nil(t, repo.listFilter) // repository is never consulted
	})

	t.Run("super_admin_unrestricted", func(t *testing.T) {
		repo := newStubRepository()
		service := newService(repo)

		_, _, err := service.List(context.Background(), superCaller(), "", page)
		require.NoError(t, err)

		require.NotNil(t, repo.listFilter)
		assert.Nil(t, repo.listFilter.CompanyIDs)
	})
}
