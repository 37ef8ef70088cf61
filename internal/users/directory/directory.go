// Copyright (c) 2026 Sentra Labs. All rights reserved.
// Author: platform@sentra-labs.io

/*
Package directory implements administrative management of operator accounts.

It is the only place accounts are provisioned, re-assigned, suspended, or
retired; there is no open self-registration on this platform. Every mutation
runs the full decision pipeline of the access core: role-hierarchy check,
tenancy resolution, and the structural invariants binding users, companies,
and devices.

# Architecture

  - Domain: This package depends on the auth package for the User entity.
  - Security: The guards in the access package are consulted before any
    persistence write; list queries are filtered by resolved tenancy scope
    at the SQL level, never post-hoc.
*/
package directory

import (
	"context"

	"github.com/sentra-labs/sentra/internal/access"
	"github.com/sentra-labs/sentra/internal/users/auth"
	"github.com/sentra-labs/sentra/pkg/pagination"
)

// # Query Types

// ListFilter bounds a directory listing to a tenancy scope plus optional criteria.
type ListFilter struct {
	// Scope is the resolved tenancy boundary. The all-companies scope and the
	// empty scope both mean "no company filter" here; only a concrete company
	// narrows the query.
	Scope access.Scope

	// Search matches against email, first name, and last name.
	Search string

	// Role narrows to a single role when non-empty.
	Role access.Role

	Pagination pagination.Params
}

// # Repository Contracts

// Repository defines the administrative persistence contract for accounts.
//
// Implementations must hydrate CompanyIDs in assignment order and DeviceIDs
// on every returned entity, and must apply each mutation atomically across
// the account row and its assignment relations.
type Repository interface {

	/*
		FindByID returns the non-deleted account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *auth.User: Hydrated entity including assignments
		  - error: apperr.NotFound or retrieval failures
	*/
	FindByID(context context.Context, id string) (*auth.User, error)

	/*
		Create persists a new account together with its company and device
		assignments in a single transaction.

		Description: Company assignment positions follow the order of
		user.CompanyIDs. A duplicate email surfaces as apperr.Conflict.

		Parameters:
		  - context: context.Context
		  - user: *auth.User (PasswordHash populated)

		Returns:
		  - error: apperr.Conflict or persistence failures
	*/
	Create(context context.Context, user *auth.User) error

	/*
		Update rewrites the account row and reconciles both assignment
		relations in a single transaction.

		Description: user.CompanyIDs is treated as the authoritative final
		ordering; positions are rewritten to match it.

		Parameters:
		  - context: context.Context
		  - user: *auth.User

		Returns:
		  - error: apperr.Conflict or persistence failures
	*/
	Update(context context.Context, user *auth.User) error

	/*
		SoftDelete flags an account as logically removed.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: Persistence failures
	*/
	SoftDelete(context context.Context, id string) error

	/*
		List returns a page of non-deleted accounts matching the filter.

		Parameters:
		  - context: context.Context
		  - filter: ListFilter

		Returns:
		  - []auth.User: Hydrated page, newest first
		  - int: Total matching rows across all pages
		  - error: Retrieval failures
	*/
	List(context context.Context, filter ListFilter) ([]auth.User, int, error)

	/*
		DeviceCompanies maps each existing, non-deleted device ID to its
		owning company ID.

		Description: IDs that do not resolve to a live device are simply
		absent from the result; callers detect missing devices by comparing
		cardinality.

		Parameters:
		  - context: context.Context
		  - deviceIDs: []string

		Returns:
		  - map[string]string: deviceID -> companyID
		  - error: Retrieval failures
	*/
	DeviceCompanies(context context.Context, deviceIDs []string) (map[string]string, error)
}

// SessionRevoker terminates every live session of an account. It is satisfied
// by the auth package's session repository.
type SessionRevoker interface {
	RevokeAll(context context.Context, userID string) error
}
