// Copyright (c) 2026 Sentra Labs. All rights reserved.
// Author: platform@sentra-labs.io

package directory_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentra-labs/sentra/internal/access"
	"github.com/sentra-labs/sentra/internal/platform/apperr"
	"github.com/sentra-labs/sentra/internal/users/auth"
	"github.com/sentra-labs/sentra/internal/users/directory"
	"github.com/sentra-labs/sentra/pkg/pagination"
)

const (
	companyA = "c0000000-0000-0000-0000-00000000000a"
	companyB = "c0000000-0000-0000-0000-00000000000b"
	deviceA  = "d0000000-0000-0000-0000-00000000000a"
	deviceB  = "d0000000-0000-0000-0000-00000000000b"
)

// # Test Doubles

type stubRepository struct {
	usersByID       map[string]*auth.User
	deviceCompanies map[string]string

	created    *auth.User
	updated    *auth.User
	deletedIDs []string
	listFilter *directory.ListFilter
}

func newStubRepository(users ...*auth.User) *stubRepository {
	repo := &stubRepository{
		usersByID:       map[string]*auth.User{},
		deviceCompanies: map[string]string{},
	}
	for _, user := range users {
		repo.usersByID[user.ID] = user
	}
	return repo
}

func (r *stubRepository) FindByID(_ context.Context, id string) (*auth.User, error) {
	if user, ok := r.usersByID[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, apperr.NotFound("User")
}

func (r *stubRepository) Create(_ context.Context, user *auth.User) error {
	r.created = user
	return nil
}

func (r *stubRepository) Update(_ context.Context, user *auth.User) error {
	r.updated = user
	return nil
}

func (r *stubRepository) SoftDelete(_ context.Context, id string) error {
	r.deletedIDs = append(r.deletedIDs, id)
	return nil
}

func (r *stubRepository) List(_ context.Context, filter directory.ListFilter) ([]auth.User, int, error) {
	r.listFilter = &filter
	return []auth.User{}, 0, nil
}

func (r *stubRepository) DeviceCompanies(_ context.Context, deviceIDs []string) (map[string]string, error) {
	found := map[string]string{}
	for _, deviceID := range deviceIDs {
		if companyID, ok := r.deviceCompanies[deviceID]; ok {
			found[deviceID] = companyID
		}
	}
	return found, nil
}

type stubSessionRevoker struct {
	revokedFor []string
	failWith   error
}

func (r *stubSessionRevoker) RevokeAll(_ context.Context, userID string) error {
	if r.failWith != nil {
		return r.failWith
	}
	r.revokedFor = append(r.revokedFor, userID)
	return nil
}

// # Fixtures

func adminCaller() access.CallerIdentity {
	return access.CallerIdentity{
		ID:         "a0000000-0000-0000-0000-000000000001",
		Role:       access.RoleAdmin,
		CompanyIDs: []string{companyA},
	}
}

func superCaller() access.CallerIdentity {
	return access.CallerIdentity{
		ID:   "a0000000-0000-0000-0000-000000000099",
		Role: access.RoleSuperAdmin,
	}
}

func newService(repo *stubRepository, revoker *stubSessionRevoker) *directory.Service {
	return directory.NewService(repo, revoker, slog.Default())
}

func firstPage() pagination.Params {
	return pagination.Params{Page: 1, Limit: 20}
}

// # Tests

/*
TestService_Create covers account provisioning and its guard pipeline.
*/
func TestService_Create(t *testing.T) {
	t.Run("admin_creates_manager_in_own_company", func(t *testing.T) {
		repo := newStubRepository()
		service := newService(repo, &stubSessionRevoker{})

		user, err := service.Create(context.Background(), adminCaller(), directory.CreateUserInput{
			Email:      "new.manager@example.com",
			Password:   "a long password",
			FirstName:  "Noor",
			LastName:   "Haddad",
			Role:       access.RoleManager,
			CompanyIDs: []string{companyA},
		})
		require.NoError(t, err)

		assert.Equal(t, auth.StatusAdded, user.Status)
		assert.Equal(t, companyA, user.PrimaryCompanyID) // sole company forces primary
		assert.NotEmpty(t, user.PasswordHash)
		assert.NotEqual(t, "a long password", user.PasswordHash)
		require.NotNil(t, repo.created)
	})

	t.Run("admin_cannot_create_admin", func(t *testing.T) {
		service := newService(newStubRepository(), &stubSessionRevoker{})

		_, err := service.Create(context.Background(), adminCaller(), directory.CreateUserInput{
			Email:    "peer@example.com",
			Password: "a long password",
			Role:     access.RoleAdmin,
		})
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
	})

	t.Run("granting_unassigned_company_forbidden", func(t *testing.T) {
		service := newService(newStubRepository(), &stubSessionRevoker{})

		_, err := service.Create(context.Background(), adminCaller(), directory.CreateUserInput{
			Email:      "new@example.com",
			Password:   "a long password",
			Role:       access.RoleManager,
			CompanyIDs: []string{companyB},
		})
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
	})

	t.Run("viewer_without_devices_rejected", func(t *testing.T) {
		service := newService(newStubRepository(), &stubSessionRevoker{})

		_, err := service.Create(context.Background(), adminCaller(), directory.CreateUserInput{
			Email:      "watcher@example.com",
			Password:   "a long password",
			Role:       access.RoleViewer,
			CompanyIDs: []string{companyA},
		})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("viewer_with_device_in_granted_company_ok", func(t *testing.T) {
		repo := newStubRepository()
		repo.deviceCompanies[deviceA] = companyA
		service := newService(repo, &stubSessionRevoker{})

		user, err := service.Create(context.Background(), adminCaller(), directory.CreateUserInput{
			Email:      "watcher@example.com",
			Password:   "a long password",
			Role:       access.RoleViewer,
			CompanyIDs: []string{companyA},
			DeviceIDs:  []string{deviceA},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{deviceA}, user.DeviceIDs)
	})

	t.Run("device_outside_granted_companies_rejected", func(t *testing.T) {
		repo := newStubRepository()
		repo.deviceCompanies[deviceB] = companyB
		service := newService(repo, &stubSessionRevoker{})

		// SUPER_ADMIN passes the grant and access checks, so the failure
		// isolates the device-company binding invariant.
		_, err := service.Create(context.Background(), superCaller(), directory.CreateUserInput{
			Email:      "watcher@example.com",
			Password:   "a long password",
			Role:       access.RoleViewer,
			CompanyIDs: []string{companyA},
			DeviceIDs:  []string{deviceB},
		})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("unknown_device_reference_not_found", func(t *testing.T) {
		service := newService(newStubRepository(), &stubSessionRevoker{})

		_, err := service.Create(context.Background(), superCaller(), directory.CreateUserInput{
			Email:      "watcher@example.com",
			Password:   "a long password",
			Role:       access.RoleViewer,
			CompanyIDs: []string{companyA},
			DeviceIDs:  []string{deviceA},
		})
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
	})

	t.Run("explicit_primary_outside_set_rejected", func(t *testing.T) {
		service := newService(newStubRepository(), &stubSessionRevoker{})

		_, err := service.Create(context.Background(), superCaller(), directory.CreateUserInput{
			Email:            "new@example.com",
			Password:         "a long password",
			Role:             access.RoleManager,
			CompanyIDs:       []string{companyA},
			PrimaryCompanyID: companyB,
		})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})
}

/*
TestService_Update covers the administrative update pipeline.
*/
func TestService_Update(t *testing.T) {
	managerID := "10000000-0000-0000-0000-000000000002"

	existingManager := func() *auth.User {
		return &auth.User{
			ID:               managerID,
			Email:            "noor@example.com",
			Role:             access.RoleManager,
			Status:           auth.StatusValidated,
			CompanyIDs:       []string{companyA},
			PrimaryCompanyID: companyA,
		}
	}

	t.Run("admin_cannot_promote_manager_to_admin", func(t *testing.T) {
		repo := newStubRepository(existingManager())
		service := newService(repo, &stubSessionRevoker{})

		newRole := access.RoleAdmin
		_, err := service.Update(context.Background(), adminCaller(), managerID, directory.UpdateUserInput{
			Role: &newRole,
		})
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
	})

	t.Run("suspension_revokes_all_sessions", func(t *testing.T) {
		repo := newStubRepository(existingManager())
		revoker := &stubSessionRevoker{}
		service := newService(repo, revoker)

		suspended := auth.StatusSuspended
		user, err := service.Update(context.Background(), adminCaller(), managerID, directory.UpdateUserInput{
			Status: &suspended,
		})
		require.NoError(t, err)

		assert.Equal(t, auth.StatusSuspended, user.Status)
		assert.Equal(t, []string{managerID}, revoker.revokedFor)
	})

	t.Run("company_change_rederives_primary", func(t *testing.T) {
		repo := newStubRepository(existingManager())
		service := newService(repo, &stubSessionRevoker{})

		companies := []string{companyB}
		user, err := service.Update(context.Background(), superCaller(), managerID, directory.UpdateUserInput{
			CompanyIDs: &companies,
		})
		require.NoError(t, err)

		// The sole remaining company forces the primary over to it.
		assert.Equal(t, []string{companyB}, user.CompanyIDs)
		assert.Equal(t, companyB, user.PrimaryCompanyID)
	})

	t.Run("demotion_to_viewer_requires_devices", func(t *testing.T) {
		repo := newStubRepository(existingManager())
		service := newService(repo, &stubSessionRevoker{})

		newRole := access.RoleViewer
		_, err := service.Update(context.Background(), adminCaller(), managerID, directory.UpdateUserInput{
			Role: &newRole,
		})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})
}

/*
TestService_Delete covers account removal and session cleanup.
*/
func TestService_Delete(t *testing.T) {
	managerID := "10000000-0000-0000-0000-000000000002"
	manager := &auth.User{
		ID:         managerID,
		Role:       access.RoleManager,
		CompanyIDs: []string{companyA},
	}

	t.Run("delete_revokes_sessions", func(t *testing.T) {
		repo := newStubRepository(manager)
		revoker := &stubSessionRevoker{}
		service := newService(repo, revoker)

		require.NoError(t, service.Delete(context.Background(), adminCaller(), managerID))
		assert.Equal(t, []string{managerID}, repo.deletedIDs)
		assert.Equal(t, []string{managerID}, revoker.revokedFor)
	})

	t.Run("revocation_failure_surfaces", func(t *testing.T) {
		repo := newStubRepository(manager)
		revoker := &stubSessionRevoker{failWith: errors.New("session store down")}
		service := newService(repo, revoker)

		err := service.Delete(context.Background(), adminCaller(), managerID)
		require.Error(t, err)
		assert.ErrorContains(t, err, "session store down")
	})

	t.Run("self_deletion_forbidden", func(t *testing.T) {
		caller := adminCaller()
		self := &auth.User{ID: caller.ID, Role: access.RoleAdmin, CompanyIDs: []string{companyA}}
		service := newService(newStubRepository(self), &stubSessionRevoker{})

		err := service.Delete(context.Background(), caller, caller.ID)
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
	})

	t.Run("no_one_deletes_a_super_admin", func(t *testing.T) {
		otherSuper := &auth.User{ID: "a0000000-0000-0000-0000-000000000098", Role: access.RoleSuperAdmin}
		service := newService(newStubRepository(otherSuper), &stubSessionRevoker{})

		err := service.Delete(context.Background(), superCaller(), otherSuper.ID)
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
	})
}

/*
TestService_List covers scope resolution in the directory listing.
*/
func TestService_List(t *testing.T) {
	page := firstPage()

	t.Run("viewer_cannot_browse", func(t *testing.T) {
		service := newService(newStubRepository(), &stubSessionRevoker{})
		viewer := access.CallerIdentity{ID: "v-1", Role: access.RoleViewer}

		_, _, err := service.List(context.Background(), viewer, "", "", "", page)
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
	})

	t.Run("unknown_role_filter_rejected", func(t *testing.T) {
		service := newService(newStubRepository(), &stubSessionRevoker{})

		_, _, err := service.List(context.Background(), adminCaller(), "", "", access.Role("OVERLORD"), page)
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("admin_scope_narrows_to_company", func(t *testing.T) {
		repo := newStubRepository()
		service := newService(repo, &stubSessionRevoker{})

		_, _, err := service.List(context.Background(), adminCaller(), "", "", "", page)
		require.NoError(t, err)

		require.NotNil(t, repo.listFilter)
		assert.Equal(t, companyA, repo.listFilter.Scope.CompanyID)
		assert.False(t, repo.listFilter.Scope.AllCompanies)
	})

	t.Run("super_admin_without_hint_sees_all", func(t *testing.T) {
		repo := newStubRepository()
		service := newService(repo, &stubSessionRevoker{})

		_, _, err := service.List(context.Background(), superCaller(), "", "", "", page)
		require.NoError(t, err)

		require.NotNil(t, repo.listFilter)
		assert.True(t, repo.listFilter.Scope.AllCompanies)
	})
}
