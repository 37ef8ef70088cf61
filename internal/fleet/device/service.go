// Copyright (c) 2026 Sentra Labs. All rights reserved.
// Author: platform@sentra-labs.io

package device

import (
	"context"
	"log/slog"

	"github.com/sentra-labs/sentra/internal/access"
	"github.com/sentra-labs/sentra/internal/platform/apperr"
	"github.com/sentra-labs/sentra/pkg/pagination"
	"github.com/sentra-labs/sentra/pkg/pointer"
	"github.com/sentra-labs/sentra/pkg/uuid"
)

// # Service Layer

// Service orchestrates business logic for the device fleet.
type Service struct {
	repository Repository
	logger     *slog.Logger
}

// NewService constructs a new [Service] with its repository dependency.
func NewService(repository Repository, logger *slog.Logger) *Service {
	return &Service{repository: repository, logger: logger}
}

// CreateDeviceInput carries the description of a new device.
type CreateDeviceInput struct {
	Name         string
	SerialNumber string
	RegNumber    string
	Type         DeviceType
	MaxValue     *float64
	MinValue     *float64
	Precision    *float64
	Location     string
	Manufacturer string
	Price        float64
	CompanyID    string
	ParentID     string
}

// UpdateDeviceInput carries a partial device update. Nil fields are untouched;
// a non-nil empty ParentID detaches the device from its parent.
type UpdateDeviceInput struct {
	Name         *string
	SerialNumber *string
	RegNumber    *string
	Type         *DeviceType
	MaxValue     *float64
	MinValue     *float64
	Precision    *float64
	Location     *string
	Manufacturer *string
	Price        *float64
	CompanyID    *string
	ParentID     *string
}

/*
Create provisions a new device.

Description: The owning company defaults to the caller's resolved active
company when the input leaves it empty. An ADMIN may only create into their
active company; a SUPER_ADMIN may create into any live company but must name
one explicitly when unscoped. A parent reference must point at a live device
in the same company.

Parameters:
  - context: context.Context
  - caller: access.CallerIdentity
  - companyHint: untrusted X-Active-Company header value, may be empty
  - input: CreateDeviceInput

Returns:
  - *Device: The persisted device
  - error: apperr.Forbidden, apperr.NotFound, apperr.ValidationError,
    apperr.Conflict (serial), or persistence failures
*/
func (service *Service) Create(context context.Context, caller access.CallerIdentity, companyHint string, input CreateDeviceInput) (*Device, error) {

	scope, err := access.ResolveActiveCompany(caller, companyHint)
	if err != nil {
		return nil, err
	}

	companyID := input.CompanyID
	if companyID == "" {
		if scope.CompanyID == "" {
			return nil, apperr.ValidationError("An owning company is required")
		}
		companyID = scope.CompanyID
	}

	if err := access.CanWriteDevice(caller, scope, companyID); err != nil {
		return nil, err
	}

	exists, err := service.repository.CompanyExists(context, companyID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFound("Company")
	}

	if input.ParentID != "" {
		parent, err := service.repository.FindByID(context, input.ParentID)
		if err != nil {
			return nil, err
		}
		if err := access.CheckDeviceParent("", input.ParentID, companyID, parent.CompanyID); err != nil {
			return nil, err
		}
	}

	device := &Device{
		ID:           uuid.New(),
		Name:         input.Name,
		SerialNumber: input.SerialNumber,
		RegNumber:    input.RegNumber,
		Type:         input.Type,
		MaxValue:     input.MaxValue,
		MinValue:     input.MinValue,
		Precision:    input.Precision,
		Location:     input.Location,
		Manufacturer: input.Manufacturer,
		Price:        input.Price,
		CompanyID:    companyID,
		ParentID:     input.ParentID,
	}

	if err := service.repository.Create(context, device); err != nil {
		return nil, err
	}

	service.logger.Info("device_created",
		slog.String("device_id", device.ID),
		slog.String("company_id", device.CompanyID),
		slog.String("created_by", caller.ID),
	)

	return device, nil
}

/*
Update modifies an existing device.

Description: The write guard is applied against the device's current company
and, on relocation, against the target company as well — for an ADMIN both
must equal the active scope, which makes cross-company relocation a
SUPER_ADMIN-only operation. A relocation is rejected while the device still
has live children, and any parent change re-runs the full parent and
ancestry validation.

Parameters:
  - context: context.Context
  - caller: access.CallerIdentity
  - companyHint: untrusted X-Active-Company header value, may be empty
  - deviceID: string
  - input: UpdateDeviceInput

Returns:
  - *Device: The updated device
  - error: apperr.NotFound, apperr.Forbidden, apperr.ValidationError,
    apperr.Conflict, or persistence failures
*/
func (service *Service) Update(context context.Context, caller access.CallerIdentity, companyHint, deviceID string, input UpdateDeviceInput) (*Device, error) {

	device, err := service.repository.FindByID(context, deviceID)
	if err != nil {
		return nil, err
	}

	scope, err := access.ResolveActiveCompany(caller, companyHint)
	if err != nil {
		return nil, err
	}

	if err := access.CanWriteDevice(caller, scope, device.CompanyID); err != nil {
		return nil, err
	}

	// ── 1. Relocation ─────────────────────────────────────────────────────
	targetCompanyID := device.CompanyID
	if input.CompanyID != nil && *input.CompanyID != device.CompanyID {
		targetCompanyID = *input.CompanyID

		if err := access.CanWriteDevice(caller, scope, targetCompanyID); err != nil {
			return nil, err
		}

		exists, err := service.repository.CompanyExists(context, targetCompanyID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, apperr.NotFound("Company")
		}

		children, err := service.repository.ActiveChildCount(context, device.ID)
		if err != nil {
			return nil, err
		}
		if children > 0 {
			return nil, apperr.ValidationError("Cannot relocate a device that still has child devices")
		}

		// Moving companies severs the parent link unless the update names a
		// new parent in the target company.
		if input.ParentID == nil {
			input.ParentID = pointer.To("")
		}
	}

	// ── 2. Parent Change ──────────────────────────────────────────────────
	newParentID := device.ParentID
	if input.ParentID != nil {
		newParentID = *input.ParentID
	}

	if newParentID != "" && (input.ParentID != nil || targetCompanyID != device.CompanyID) {
		parent, err := service.repository.FindByID(context, newParentID)
		if err != nil {
			return nil, err
		}

		if err := access.CheckDeviceParent(device.ID, newParentID, targetCompanyID, parent.CompanyID); err != nil {
			return nil, err
		}

		ancestors, err := service.repository.AncestorIDs(context, newParentID)
		if err != nil {
			return nil, err
		}
		chain := append([]string{newParentID}, ancestors...)
		if err := access.CheckDeviceAncestry(device.ID, chain); err != nil {
			return nil, err
		}
	}

	// ── 3. Apply ──────────────────────────────────────────────────────────
	device.CompanyID = targetCompanyID
	device.ParentID = newParentID

	if input.Name != nil {
		device.Name = *input.Name
	}
	if input.SerialNumber != nil {
		device.SerialNumber = *input.SerialNumber
	}
	if input.RegNumber != nil {
		device.RegNumber = *input.RegNumber
	}
	if input.Type != nil {
		device.Type = *input.Type
	}
	if input.MaxValue != nil {
		device.MaxValue = input.MaxValue
	}
	if input.MinValue != nil {
		device.MinValue = input.MinValue
	}
	if input.Precision != nil {
		device.Precision = input.Precision
	}
	if input.Location != nil {
		device.Location = *input.Location
	}
	if input.Manufacturer != nil {
		device.Manufacturer = *input.Manufacturer
	}
	if input.Price != nil {
		device.Price = *input.Price
	}

	if err := service.repository.Update(context, device); err != nil {
		return nil, err
	}

	service.logger.Info("device_updated",
		slog.String("device_id", device.ID),
		slog.String("updated_by", caller.ID),
	)

	return device, nil
}

/*
Delete soft-deletes a device.

Description: Beyond the write guard, the device must have no live children;
they must be deleted or re-parented first. User assignment rows for the
device are cleared alongside the flag.

Parameters:
  - context: context.Context
  - caller: access.CallerIdentity
  - companyHint: untrusted X-Active-Company header value, may be empty
  - deviceID: string

Returns:
  - error: apperr.NotFound, apperr.Forbidden, apperr.ValidationError, or persistence failures
*/
func (service *Service) Delete(context context.Context, caller access.CallerIdentity, companyHint, deviceID string) error {

	device, err := service.repository.FindByID(context, deviceID)
	if err != nil {
		return err
	}

	scope, err := access.ResolveActiveCompany(caller, companyHint)
	if err != nil {
		return err
	}

	if err := access.CanWriteDevice(caller, scope, device.CompanyID); err != nil {
		return err
	}

	children, err := service.repository.ActiveChildCount(context, device.ID)
	if err != nil {
		return err
	}
	if err := access.CheckDeviceDeletable(children); err != nil {
		return err
	}

	if err := service.repository.SoftDelete(context, device.ID); err != nil {
		return err
	}

	service.logger.Warn("device_deleted",
		slog.String("device_id", device.ID),
		slog.String("company_id", device.CompanyID),
		slog.String("deleted_by", caller.ID),
	)

	return nil
}

/*
Get retrieves a single device.

Description: SUPER_ADMIN may fetch any device; ADMIN and MANAGER require
membership in the owning company; VIEWER requires a direct device assignment.

Parameters:
  - context: context.Context
  - caller: access.CallerIdentity
  - deviceID: string

Returns:
  - *Device: Hydrated entity
  - error: apperr.NotFound, apperr.Forbidden, or retrieval failures
*/
func (service *Service) Get(context context.Context, caller access.CallerIdentity, deviceID string) (*Device, error) {

	device, err := service.repository.FindByID(context, deviceID)
	if err != nil {
		return nil, err
	}

	hasAssignment := false
	if caller.Role == access.RoleViewer {
		hasAssignment, err = service.repository.HasAssignment(context, caller.ID, device.ID)
		if err != nil {
			return nil, err
		}
	}

	target := access.DeviceTarget{ID: device.ID, CompanyID: device.CompanyID}
	if err := access.CanViewDevice(caller, target, hasAssignment); err != nil {
		return nil, err
	}

	return device, nil
}

/*
List returns a page of devices visible to the caller.

Description: A VIEWER sees only the devices directly assigned to them. Every
other role lists within their resolved active company; a SUPER_ADMIN without
a hint sees the whole fleet. A caller with no company to resolve receives an
empty page rather than an error.

Parameters:
  - context: context.Context
  - caller: access.CallerIdentity
  - companyHint: untrusted X-Active-Company header value, may be empty
  - search: string
  - deviceTypes: DeviceType filter set, empty for all
  - page: pagination.Params

Returns:
  - []Device: Page of devices
  - int: Total matching rows
  - error: apperr.Forbidden, apperr.ValidationError, or retrieval failures
*/
func (service *Service) List(context context.Context, caller access.CallerIdentity, companyHint, search string, deviceTypes []DeviceType, page pagination.Params) ([]Device, int, error) {

	for _, deviceType := range deviceTypes {
		if !deviceType.Valid() {
			return nil, 0, apperr.ValidationError("Unknown device type")
		}
	}

	filter := ListFilter{Search: search, Types: deviceTypes, Pagination: page}

	if caller.Role == access.RoleViewer {
		filter.AssignedUserID = caller.ID
	} else {
		scope, err := access.ResolveOptional(caller, companyHint)
		if err != nil {
			return nil, 0, err
		}

		// An unresolvable scope never widens visibility: a caller without
		// any company assignment has an empty fleet.
		if scope.IsNone() {
			return []Device{}, 0, nil
		}

		if !scope.AllCompanies {
			filter.CompanyID = scope.CompanyID
		}
	}

	return service.repository.List(context, filter)
}
