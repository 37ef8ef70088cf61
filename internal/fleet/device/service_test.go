// Copyright (c) 2026 Sentra Labs. All rights reserved.
// Author: platform@sentra-labs.io

package device_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentra-labs/sentra/internal/access"
	"github.com/sentra-labs/sentra/internal/fleet/device"
	"github.com/sentra-labs/sentra/internal/platform/apperr"
	"github.com/sentra-labs/sentra/pkg/pagination"
)

const (
	companyA = "c0000000-0000-0000-0000-00000000000a"
	companyB = "c0000000-0000-0000-0000-00000000000b"
)

// # Test Doubles

type stubRepository struct {
	devices     map[string]*device.Device
	companies   map[string]bool
	children    map[string]int
	ancestors   map[string][]string
	assignments map[string]bool // "userID:deviceID"

	created    *device.Device
	updated    *device.Device
	deletedIDs []string
	listFilter *device.ListFilter
}

func newStubRepository() *stubRepository {
	return &stubRepository{
		devices:     map[string]*device.Device{},
		companies:   map[string]bool{companyA: true, companyB: true},
		children:    map[string]int{},
		ancestors:   map[string][]string{},
		assignments: map[string]bool{},
	}
}

func (r *stubRepository) add(d *device.Device) *device.Device {
	r.devices[d.ID] = d
	return d
}

func (r *stubRepository) FindByID(_ context.Context, id string) (*device.Device, error) {
	if d, ok := r.devices[id]; ok {
		clone := *d
		return &clone, nil
	}
	return nil, apperr.NotFound("Device")
}

func (r *stubRepository) Create(_ context.Context, d *device.Device) error {
	r.created = d
	return nil
}

func (r *stubRepository) Update(_ context.Context, d *device.Device) error {
	r.updated = d
	return nil
}

func (r *stubRepository) SoftDelete(_ context.Context, id string) error {
	r.deletedIDs = append(r.deletedIDs, id)
	return nil
}

func (r *stubRepository) List(_ context.Context, filter device.ListFilter) ([]device.Device, int, error) {
	r.listFilter = &filter
	return []device.Device{}, 0, nil
}

func (r *stubRepository) ActiveChildCount(_ context.Context, deviceID string) (int, error) {
	return r.children[deviceID], nil
}

func (r *stubRepository) AncestorIDs(_ context.Context, deviceID string) ([]string, error) {
	return r.ancestors[deviceID], nil
}

func (r *stubRepository) HasAssignment(_ context.Context, userID, deviceID string) (bool, error) {
	return r.assignments[userID+":"+deviceID], nil
}

func (r *stubRepository) CompanyExists(_ context.Context, companyID string) (bool, error) {
	return r.companies[companyID], nil
}

// # Fixtures

func adminOf(companyID string) access.CallerIdentity {
	return access.CallerIdentity{
		ID:               "a0000000-0000-0000-0000-000000000001",
		Role:             access.RoleAdmin,
		CompanyIDs:       []string{companyID},
		PrimaryCompanyID: companyID,
	}
}

func superCaller() access.CallerIdentity {
	return access.CallerIdentity{
		ID:   "a0000000-0000-0000-0000-000000000099",
		Role: access.RoleSuperAdmin,
	}
}

func gateway(id, companyID string) *device.Device {
	return &device.Device{
		ID:           id,
		Name:         "edge gateway",
		SerialNumber: "SN-" + id[:8],
		Type:         device.TypeGateway,
		CompanyID:    companyID,
	}
}

func newService(repo *stubRepository) *device.Service {
	return device.NewService(repo, slog.Default())
}

// # Tests

/*
TestService_Create covers device provisioning under tenancy scoping.
*/
func TestService_Create(t *testing.T) {
	t.Run("admin_creates_into_active_company", func(t *testing.T) {
		repo := newStubRepository()
		service := newService(repo)

		created, err := service.Create(context.Background(), adminOf(companyA), "", device.CreateDeviceInput{
			Name:         "hall sensor",
			SerialNumber: "SN-001",
			Type:         device.TypeSensor,
		})
		require.NoError(t, err)

		// Owning company defaults to the resolved active company.
		assert.Equal(t, companyA, created.CompanyID)
		require.NotNil(t, repo.created)
	})

	t.Run("admin_cannot_create_into_other_company", func(t *testing.T) {
		service := newService(newStubRepository())

		// The admin is only assigned to company A, so the explicit target is
		// outside their active scope.
		_, err := service.Create(context.Background(), adminOf(companyA), "", device.CreateDeviceInput{
			Name:         "hall sensor",
			SerialNumber: "SN-001",
			Type:         device.TypeSensor,
			CompanyID:    companyB,
		})
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
	})

	t.Run("manager_cannot_create", func(t *testing.T) {
		service := newService(newStubRepository())
		manager := access.CallerIdentity{
			ID:         "m-1",
			Role:       access.RoleManager,
			CompanyIDs: []string{companyA},
		}

		_, err := service.Create(context.Background(), manager, "", device.CreateDeviceInput{
			Name:         "hall sensor",
			SerialNumber: "SN-001",
			Type:         device.TypeSensor,
		})
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
	})

	t.Run("super_admin_without_company_rejected", func(t *testing.T) {
		service := newService(newStubRepository())

		_, err := service.Create(context.Background(), superCaller(), "", device.CreateDeviceInput{
			Name:         "hall sensor",
			SerialNumber: "SN-001",
			Type:         device.TypeSensor,
		})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("unknown_company_not_found", func(t *testing.T) {
		repo := newStubRepository()
		repo.companies = map[string]bool{}
		service := newService(repo)

		_, err := service.Create(context.Background(), superCaller(), "", device.CreateDeviceInput{
			Name:         "hall sensor",
			SerialNumber: "SN-001",
			Type:         device.TypeSensor,
			CompanyID:    companyA,
		})
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
	})

	t.Run("cross_company_parent_rejected", func(t *testing.T) {
		repo := newStubRepository()
		parent := repo.add(gateway("d0000000-0000-0000-0000-000000000001", companyB))
		service := newService(repo)

		_, err := service.Create(context.Background(), adminOf(companyA), "", device.CreateDeviceInput{
			Name:         "hall sensor",
			SerialNumber: "SN-001",
			Type:         device.TypeSensor,
			ParentID:     parent.ID,
		})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})
}

/*
TestService_Update covers relocation and parent-change validation.
*/
func TestService_Update(t *testing.T) {
	deviceID := "d0000000-0000-0000-0000-000000000001"

	t.Run("relocation_with_children_rejected", func(t *testing.T) {
		repo := newStubRepository()
		repo.add(gateway(deviceID, companyA))
		repo.children[deviceID] = 2
		service := newService(repo)

		target := companyB
		_, err := service.Update(context.Background(), superCaller(), "", deviceID, device.UpdateDeviceInput{
			CompanyID: &target,
		})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("relocation_severs_parent_link", func(t *testing.T) {
		repo := newStubRepository()
		parent := repo.add(gateway("d0000000-0000-0000-0000-000000000009", companyA))
		child := repo.add(gateway(deviceID, companyA))
		child.ParentID = parent.ID
		service := newService(repo)

		target := companyB
		updated, err := service.Update(context.Background(), superCaller(), "", deviceID, device.UpdateDeviceInput{
			CompanyID: &target,
		})
		require.NoError(t, err)

		assert.Equal(t, companyB, updated.CompanyID)
		assert.Empty(t, updated.ParentID)
	})

	t.Run("cyclic_parent_rejected", func(t *testing.T) {
		repo := newStubRepository()
		repo.add(gateway(deviceID, companyA))
		parent := repo.add(gateway("d0000000-0000-0000-0000-000000000002", companyA))
		// The requested parent descends from the device being updated.
		repo.ancestors[parent.ID] = []string{deviceID}
		service := newService(repo)

		parentID := parent.ID
		_, err := service.Update(context.Background(), superCaller(), "", deviceID, device.UpdateDeviceInput{
			ParentID: &parentID,
		})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("self_parent_rejected", func(t *testing.T) {
		repo := newStubRepository()
		repo.add(gateway(deviceID, companyA))
		service := newService(repo)

		parentID := deviceID
		_, err := service.Update(context.Background(), superCaller(), "", deviceID, device.UpdateDeviceInput{
			ParentID: &parentID,
		})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("admin_updates_within_active_company", func(t *testing.T) {
		repo := newStubRepository()
		repo.add(gateway(deviceID, companyA))
		service := newService(repo)

		name := "renamed gateway"
		updated, err := service.Update(context.Background(), adminOf(companyA), "", deviceID, device.UpdateDeviceInput{
			Name: &name,
		})
		require.NoError(t, err)
		assert.Equal(t, "renamed gateway", updated.Name)
	})
}

/*
TestService_Delete covers the child-device precondition.
*/
func TestService_Delete(t *testing.T) {
	deviceID := "d0000000-0000-0000-0000-000000000001"

	t.Run("device_with_children_rejected", func(t *testing.T) {
		repo := newStubRepository()
		repo.add(gateway(deviceID, companyA))
		repo.children[deviceID] = 1
		service := newService(repo)

		err := service.Delete(context.Background(), adminOf(companyA), "", deviceID)
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
		assert.Empty(t, repo.deletedIDs)
	})

	t.Run("leaf_device_deleted", func(t *testing.T) {
		repo := newStubRepository()
		repo.add(gateway(deviceID, companyA))
		service := newService(repo)

		require.NoError(t, service.Delete(context.Background(), adminOf(companyA), "", deviceID))
		assert.Equal(t, []string{deviceID}, repo.deletedIDs)
	})
}

/*
TestService_Get covers the per-role view rules.
*/
func TestService_Get(t *testing.T) {
	deviceID := "d0000000-0000-0000-0000-000000000001"

	t.Run("viewer_with_assignment_ok", func(t *testing.T) {
		repo := newStubRepository()
		repo.add(gateway(deviceID, companyA))
		viewer := access.CallerIdentity{ID: "v-1", Role: access.RoleViewer, CompanyIDs: []string{companyA}}
		repo.assignments[viewer.ID+":"+deviceID] = true
		service := newService(repo)

		found, err := service.Get(context.Background(), viewer, deviceID)
		require.NoError(t, err)
		assert.Equal(t, deviceID, found.ID)
	})

	t.Run("viewer_without_assignment_forbidden", func(t *testing.T) {
		repo := newStubRepository()
		repo.add(gateway(deviceID, companyA))
		// Company membership alone is not enough for a viewer.
		viewer := access.CallerIdentity{ID: "v-1", Role: access.RoleViewer, CompanyIDs: []string{companyA}}
		service := newService(repo)

		_, err := service.Get(context.Background(), viewer, deviceID)
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
	})

	t.Run("manager_of_other_company_forbidden", func(t *testing.T) {
		repo := newStubRepository()
		repo.add(gateway(deviceID, companyA))
		manager := access.CallerIdentity{ID: "m-1", Role: access.RoleManager, CompanyIDs: []string{companyB}}
		service := newService(repo)

		_, err := service.Get(context.Background(), manager, deviceID)
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
	})
}

/*
TestService_List covers listing scope per role.
*/
func TestService_List(t *testing.T) {
	page := pagination.Params{Page: 1, Limit: 20}

	t.Run("viewer_filtered_by_assignment", func(t *testing.T) {
		repo := newStubRepository()
		service := newService(repo)
		viewer := access.CallerIdentity{ID: "v-1", Role: access.RoleViewer}

		_, _, err := service.List(context.Background(), viewer, "", "", nil, page)
		require.NoError(t, err)

		require.NotNil(t, repo.listFilter)
		assert.Equal(t, "v-1", repo.listFilter.AssignedUserID)
		assert.Empty(t, repo.listFilter.CompanyID)
	})

	t.Run("admin_filtered_by_active_company", func(t *testing.T) {
		repo := newStubRepository()
		service := newService(repo)

		_, _, err := service.List(context.Background(), adminOf(companyA), "", "", nil, page)
		require.NoError(t, err)

		require.NotNil(t, repo.listFilter)
		assert.Equal(t, companyA, repo.listFilter.CompanyID)
	})

	t.Run("admin_without_companies_empty_page", func(t *testing.T) {
		repo := newStubRepository()
		service := newService(repo)
		unassigned := access.CallerIdentity{ID: "a-0", Role: access.RoleAdmin}

		devices, total, err := service.List(context.Background(), unassigned, "", "", nil, page)
		require.NoError(t, err)

		assert.Empty(t, devices)
		assert.Zero(t, total)
		assert.Nil(t, repo.listFilter) // repository is never consulted
	})

	t.Run("super_admin_without_hint_unfiltered", func(t *testing.T) {
		repo := newStubRepository()
		service := newService(repo)

		_, _, err := service.List(context.Background(), superCaller(), "", "", nil, page)
		require.NoError(t, err)

		require.NotNil(t, repo.listFilter)
		assert.Empty(t, repo.listFilter.CompanyID)
		assert.Empty(t, repo.listFilter.AssignedUserID)
	})

	t.Run("unknown_type_filter_rejected", func(t *testing.T) {
		service := newService(newStubRepository())

		_, _, err := service.List(context.Background(), superCaller(), "", "", []device.DeviceType{"DRONE"}, page)
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})
}
