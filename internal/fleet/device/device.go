// Copyright (c) 2026 Sentra Labs. All rights reserved.
// Author: platform@sentra-labs.io

/*
Package device manages the hierarchical device fleet.

Every device belongs to exactly one company and may reference a parent device
in the same company, forming a tree (gateways aggregating sensors). Writes are
an ADMIN surface scoped to the caller's active company; reads widen per role
down to the per-device assignments a VIEWER holds.

# Architecture

  - Entities: Device.
  - Security: Create/update/delete require ADMIN within the active company, or
    SUPER_ADMIN. Viewing requires company membership, or a direct device
    assignment for VIEWER callers.
*/
package device

import (
	"context"
	"time"

	"github.com/sentra-labs/sentra/pkg/pagination"
)

// # Domain Entities

// DeviceType classifies a device's position in the fleet hierarchy.
type DeviceType string

const (
	// TypeGateway is an aggregation point; sensors typically parent to one.
	TypeGateway DeviceType = "GATEWAY"

	// TypeSensor is a leaf measurement device.
	TypeSensor DeviceType = "SENSOR"
)

// Valid reports whether the value is a known device type.
func (t DeviceType) Valid() bool {
	return t == TypeGateway || t == TypeSensor
}

// Device represents a single fleet device.
//
// # Invariants
//
// SerialNumber is unique within the owning company among non-deleted devices;
// the database constraint is the authoritative enforcement. ParentID, when
// set, references a non-deleted device in the same company and never closes a
// cycle.
type Device struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	SerialNumber string     `json:"serial_number"`
	RegNumber    string     `json:"reg_number,omitempty"`
	Type         DeviceType `json:"type"`

	// Calibration bounds. All optional; a nil field means "not calibrated".
	MaxValue  *float64 `json:"max_value,omitempty"`
	MinValue  *float64 `json:"min_value,omitempty"`
	Precision *float64 `json:"precision,omitempty"`

	Location     string  `json:"location,omitempty"`
	Manufacturer string  `json:"manufacturer,omitempty"`
	Price        float64 `json:"price,omitempty"`

	CompanyID string `json:"company_id"`
	ParentID  string `json:"parent_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListFilter bounds a device listing.
type ListFilter struct {
	// CompanyID restricts the result to a single company when non-empty.
	CompanyID string

	// AssignedUserID restricts the result to devices directly assigned to the
	// user (VIEWER listings).
	AssignedUserID string

	// Search matches against name, serial number, and registration number.
	Search string

	// Types narrows to the given device types when non-empty.
	Types []DeviceType

	Pagination pagination.Params
}

// # Repository Contract

// Repository defines the persistence contract for devices.
type Repository interface {

	/*
		FindByID returns the non-deleted device with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Device: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindByID(context context.Context, id string) (*Device, error)

	/*
		Create persists a new device.

		Description: A duplicate serial number within the owning company
		surfaces as apperr.Conflict.

		Parameters:
		  - context: context.Context
		  - device: *Device

		Returns:
		  - error: apperr.Conflict or persistence failures
	*/
	Create(context context.Context, device *Device) error

	/*
		Update rewrites the mutable fields of a device.

		Parameters:
		  - context: context.Context
		  - device: *Device

		Returns:
		  - error: apperr.Conflict (duplicate serial), apperr.NotFound, or persistence failures
	*/
	Update(context context.Context, device *Device) error

	/*
		SoftDelete flags a device as removed and clears its user assignment rows.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: apperr.NotFound or persistence failures
	*/
	SoftDelete(context context.Context, id string) error

	/*
		List returns a page of non-deleted devices matching the filter.

		Parameters:
		  - context: context.Context
		  - filter: ListFilter

		Returns:
		  - []Device: Page of devices, newest first
		  - int: Total matching rows
		  - error: Retrieval failures
	*/
	List(context context.Context, filter ListFilter) ([]Device, int, error)

	/*
		ActiveChildCount counts the non-deleted devices parented to the given one.

		Parameters:
		  - context: context.Context
		  - deviceID: string

		Returns:
		  - int: Number of live children
		  - error: Retrieval failures
	*/
	ActiveChildCount(context context.Context, deviceID string) (int, error)

	/*
		AncestorIDs walks the parent chain upward from the given device.

		Description: Returns the chain nearest-first (parent, grandparent, ...)
		over non-deleted devices. The walk is bounded to guard against
		pre-existing cycles in legacy data.

		Parameters:
		  - context: context.Context
		  - deviceID: string

		Returns:
		  - []string: Ancestor device IDs, nearest first
		  - error: Retrieval failures
	*/
	AncestorIDs(context context.Context, deviceID string) ([]string, error)

	/*
		HasAssignment reports whether a user-device assignment row exists.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - deviceID: string

		Returns:
		  - bool: True when the user is directly assigned to the device
		  - error: Retrieval failures
	*/
	HasAssignment(context context.Context, userID, deviceID string) (bool, error)

	/*
		CompanyExists reports whether a non-deleted company with the ID exists.

		Parameters:
		  - context: context.Context
		  - companyID: string

		Returns:
		  - bool: True when the company is live
		  - error: Retrieval failures
	*/
	CompanyExists(context context.Context, companyID string) (bool, error)
}
