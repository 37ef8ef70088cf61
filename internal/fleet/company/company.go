// Copyright (c) 2026 Sentra Labs. All rights reserved.
// Author: platform@sentra-labs.io

/*
Package company manages the tenant entities of the platform.

A company is the tenancy boundary every request resolves against: devices
belong to exactly one company, and operators are assigned to companies
through the directory. Creation and management are restricted to ADMIN and
SUPER_ADMIN roles.

# Architecture

  - Entities: Company.
  - Security: Management rights require SUPER_ADMIN, or ADMIN membership in
    the target company. Listing is forbidden below ADMIN entirely.
*/
package company

import (
	"context"
	"time"

	"github.com/sentra-labs/sentra/pkg/pagination"
)

// # Domain Entities

// Company represents a tenant on the Sentra platform.
//
// # Invariants
//
// Name is unique among non-deleted companies; the database constraint is the
// authoritative enforcement. Slug is derived from Name and regenerated on
// rename.
type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Address   string    `json:"address,omitempty"`
	PinCode   string    `json:"pin_code,omitempty"`
	Status    string    `json:"status,omitempty"` // Free-text operational note, not an enum.
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeletionStats carries the live counts the deletion precondition judges.
type DeletionStats struct {
	// ActiveDevices is the number of non-deleted devices owned by the company.
	ActiveDevices int

	// ActiveUsers is the number of non-deleted accounts assigned to the company.
	ActiveUsers int

	// SoleUserID is the assigned account's ID when ActiveUsers is exactly 1.
	SoleUserID string
}

// ListFilter bounds a company listing.
type ListFilter struct {
	// CompanyIDs restricts the result to this set when non-nil. A nil slice
	// means no restriction (SUPER_ADMIN only).
	CompanyIDs []string

	// Search matches against the company name.
	Search string

	Pagination pagination.Params
}

// # Repository Contract

// Repository defines the persistence contract for companies.
type Repository interface {

	/*
		FindByID returns the non-deleted company with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Company: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindByID(context context.Context, id string) (*Company, error)

	/*
		Create persists a new company, optionally assigning a user to it in
		the same transaction.

		Description: assignUserID, when non-empty, receives an assignment row
		for the new company; makePrimary additionally records it as that
		user's primary company. A duplicate name surfaces as apperr.Conflict.

		Parameters:
		  - context: context.Context
		  - company: *Company
		  - assignUserID: string (empty to skip)
		  - makePrimary: bool

		Returns:
		  - error: apperr.Conflict or persistence failures
	*/
	Create(context context.Context, company *Company, assignUserID string, makePrimary bool) error

	/*
		Update rewrites the mutable fields of a company.

		Parameters:
		  - context: context.Context
		  - company: *Company

		Returns:
		  - error: apperr.Conflict (duplicate name), apperr.NotFound, or persistence failures
	*/
	Update(context context.Context, company *Company) error

	/*
		SoftDelete flags a company as removed and clears its assignment rows
		and primary-company references in the same transaction.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: apperr.NotFound or persistence failures
	*/
	SoftDelete(context context.Context, id string) error

	/*
		List returns a page of non-deleted companies matching the filter.

		Parameters:
		  - context: context.Context
		  - filter: ListFilter

		Returns:
		  - []Company: Page of companies, newest first
		  - int: Total matching rows
		  - error: Retrieval failures
	*/
	List(context context.Context, filter ListFilter) ([]Company, int, error)

	/*
		MemberIDs lists the IDs of non-deleted accounts assigned to a company.

		Parameters:
		  - context: context.Context
		  - companyID: string

		Returns:
		  - []string: Assigned user IDs
		  - error: Retrieval failures
	*/
	MemberIDs(context context.Context, companyID string) ([]string, error)

	/*
		Stats gathers the counts the deletion precondition evaluates.

		Parameters:
		  - context: context.Context
		  - companyID: string

		Returns:
		  - DeletionStats: Live device and user counts
		  - error: Retrieval failures
	*/
	Stats(context context.Context, companyID string) (DeletionStats, error)
}
