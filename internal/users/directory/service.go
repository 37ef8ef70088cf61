// Copyright (c) 2026 Sentra Labs. All rights reserved.
// Author: platform@sentra-labs.io

package directory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sentra-labs/sentra/internal/access"
	"github.com/sentra-labs/sentra/internal/platform/apperr"
	"github.com/sentra-labs/sentra/internal/platform/sec"
	"github.com/sentra-labs/sentra/internal/users/auth"
	"github.com/sentra-labs/sentra/pkg/pagination"
	"github.com/sentra-labs/sentra/pkg/slice"
	"github.com/sentra-labs/sentra/pkg/uuid"
)

// # Service Layer

// Service orchestrates administrative account management.
//
// Every mutation walks the same pipeline: role-hierarchy guard, company-grant
// check, structural invariants, then a single transactional write. All checks
// complete before the first persistence call so a rejected request never
// leaves a partial state behind.
type Service struct {
	repository     Repository
	sessionRevoker SessionRevoker
	logger         *slog.Logger
}

// NewService constructs a new [Service] with its dependencies.
func NewService(repository Repository, sessionRevoker SessionRevoker, logger *slog.Logger) *Service {
	return &Service{
		repository:     repository,
		sessionRevoker: sessionRevoker,
		logger:         logger,
	}
}

// # Account Provisioning

// CreateUserInput carries the full description of a new operator account.
type CreateUserInput struct {
	Email            string
	Password         string
	FirstName        string
	LastName         string
	PhoneNumber      string
	Position         string
	Role             access.Role
	CompanyIDs       []string
	PrimaryCompanyID string
	DeviceIDs        []string
}

/*
Create provisions a new operator account.

Description: The caller's role must permit creating the requested role, the
caller must be assigned to every company being granted (SUPER_ADMIN exempt),
and the viewer-device and device-company invariants must hold. The account
starts in the ADDED state.

Parameters:
  - context: context.Context
  - caller: access.CallerIdentity
  - input: CreateUserInput

Returns:
  - *auth.User: The persisted account
  - error: apperr.Forbidden, apperr.ValidationError, apperr.Conflict (email), or internal failures
*/
func (service *Service) Create(context context.Context, caller access.CallerIdentity, input CreateUserInput) (*auth.User, error) {

	// ── 1. Role Hierarchy ─────────────────────────────────────────────────
	if err := access.CanCreateUser(caller, input.Role); err != nil {
		return nil, err
	}

	companyIDs := dedupe(input.CompanyIDs)
	deviceIDs := dedupe(input.DeviceIDs)

	// ── 2. Company Grants ─────────────────────────────────────────────────
	if err := checkCompanyGrants(caller, companyIDs, nil); err != nil {
		return nil, err
	}

	// ── 3. Structural Invariants ──────────────────────────────────────────
	if err := access.CheckViewerDevices(input.Role, len(deviceIDs)); err != nil {
		return nil, err
	}

	if err := service.checkDeviceReferences(context, caller, deviceIDs, companyIDs); err != nil {
		return nil, err
	}

	primary, err := derivePrimary(input.PrimaryCompanyID, "", companyIDs)
	if err != nil {
		return nil, err
	}

	// ── 4. Persist ────────────────────────────────────────────────────────
	passwordHash, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("directory_service_hash_failed: %w", err)
	}

	user := &auth.User{
		ID:               uuid.New(),
		Email:            input.Email,
		PasswordHash:     passwordHash,
		FirstName:        input.FirstName,
		LastName:         input.LastName,
		PhoneNumber:      input.PhoneNumber,
		Position:         input.Position,
		Role:             input.Role,
		Status:           auth.StatusAdded,
		CompanyIDs:       companyIDs,
		PrimaryCompanyID: primary,
		DeviceIDs:        deviceIDs,
	}

	if err := service.repository.Create(context, user); err != nil {
		return nil, err
	}

	service.logger.Info("directory_user_created",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
		slog.String("created_by", caller.ID),
	)

	return user, nil
}

// # Account Updates

// UpdateUserInput carries a partial account update. Nil fields are untouched.
type UpdateUserInput struct {
	FirstName        *string
	LastName         *string
	PhoneNumber      *string
	Position         *string
	Role             *access.Role
	Status           *auth.UserStatus
	CompanyIDs       *[]string
	DeviceIDs        *[]string
	PrimaryCompanyID *string
}

/*
Update applies an administrative change to an existing account.

Description: The role-hierarchy guard judges both the target's current role
and any requested new role, so an actor can neither touch an account above
their reach nor escalate one into it. Assignment changes re-run the full set
of structural invariants against the final state before anything is written.
A transition into SUSPENDED revokes every live session of the target.

Parameters:
  - context: context.Context
  - caller: access.CallerIdentity
  - userID: string
  - input: UpdateUserInput

Returns:
  - *auth.User: The updated account
  - error: apperr.NotFound, apperr.Forbidden, apperr.ValidationError, apperr.Conflict, or internal failures
*/
func (service *Service) Update(context context.Context, caller access.CallerIdentity, userID string, input UpdateUserInput) (*auth.User, error) {

	target, err := service.repository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	// ── 1. Role Hierarchy ─────────────────────────────────────────────────
	newRole := target.Role
	if input.Role != nil {
		newRole = *input.Role
	}

	guardTarget := access.UserTarget{ID: target.ID, Role: target.Role, CompanyIDs: target.CompanyIDs}
	if err := access.CanUpdateUser(caller, guardTarget, newRole); err != nil {
		return nil, err
	}

	// ── 2. Resolve Final Assignments ──────────────────────────────────────
	finalCompanies := target.CompanyIDs
	companiesChanged := false
	if input.CompanyIDs != nil {
		requested := dedupe(*input.CompanyIDs)
		if err := checkCompanyGrants(caller, requested, target.CompanyIDs); err != nil {
			return nil, err
		}
		// Retained companies keep their assignment order; new grants append.
		finalCompanies = reorderCompanies(target.CompanyIDs, requested)
		companiesChanged = true
	}

	finalDevices := target.DeviceIDs
	devicesChanged := false
	if input.DeviceIDs != nil {
		finalDevices = dedupe(*input.DeviceIDs)
		devicesChanged = true
	}

	// ── 3. Structural Invariants ──────────────────────────────────────────
	if err := access.CheckViewerDevices(newRole, len(finalDevices)); err != nil {
		return nil, err
	}

	if companiesChanged || devicesChanged {
		if err := service.checkDeviceReferences(context, caller, finalDevices, finalCompanies); err != nil {
			return nil, err
		}
	}

	primary := target.PrimaryCompanyID
	switch {
	case input.PrimaryCompanyID != nil:
		primary, err = derivePrimary(*input.PrimaryCompanyID, target.PrimaryCompanyID, finalCompanies)
		if err != nil {
			return nil, err
		}
	case companiesChanged:
		primary = access.DerivePrimaryCompany(target.PrimaryCompanyID, finalCompanies)
	}

	// ── 4. Apply & Persist ────────────────────────────────────────────────
	if input.FirstName != nil {
		target.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		target.LastName = *input.LastName
	}
	if input.PhoneNumber != nil {
		target.PhoneNumber = *input.PhoneNumber
	}
	if input.Position != nil {
		target.Position = *input.Position
	}

	suspending := false
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, apperr.ValidationError("Unknown account status")
		}
		suspending = *input.Status == auth.StatusSuspended && target.Status != auth.StatusSuspended
		target.Status = *input.Status
	}

	target.Role = newRole
	target.CompanyIDs = finalCompanies
	target.DeviceIDs = finalDevices
	target.PrimaryCompanyID = primary

	if err := service.repository.Update(context, target); err != nil {
		return nil, err
	}

	// Suspension terminates every live session, unconditionally.
	if suspending {
		if err := service.sessionRevoker.RevokeAll(context, target.ID); err != nil {
			return nil, fmt.Errorf("directory_service_suspend_revoke_failed: %w", err)
		}
		service.logger.Warn("directory_user_suspended",
			slog.String("user_id", target.ID),
			slog.String("suspended_by", caller.ID),
		)
	}

	service.logger.Info("directory_user_updated",
		slog.String("user_id", target.ID),
		slog.String("updated_by", caller.ID),
	)

	return target, nil
}

// # Account Removal

/*
Delete soft-deletes an account and terminates its sessions.

Description: Self-deletion is always forbidden; the role-hierarchy delete
matrix governs everything else, including the rule that no one may delete a
SUPER_ADMIN.

Parameters:
  - context: context.Context
  - caller: access.CallerIdentity
  - userID: string

Returns:
  - error: apperr.NotFound, apperr.Forbidden, or persistence failures
*/
func (service *Service) Delete(context context.Context, caller access.CallerIdentity, userID string) error {

	target, err := service.repository.FindByID(context, userID)
	if err != nil {
		return err
	}

	guardTarget := access.UserTarget{ID: target.ID, Role: target.Role, CompanyIDs: target.CompanyIDs}
	if err := access.CanDeleteUser(caller, guardTarget); err != nil {
		return err
	}

	if err := service.repository.SoftDelete(context, target.ID); err != nil {
		return err
	}

	// A retired account must not keep live sessions.
	if err := service.sessionRevoker.RevokeAll(context, target.ID); err != nil {
		return fmt.Errorf("directory_service_delete_revoke_failed: %w", err)
	}

	service.logger.Warn("directory_user_deleted",
		slog.String("user_id", target.ID),
		slog.String("deleted_by", caller.ID),
	)

	return nil
}

// # Account Reads

/*
Get retrieves a single account, subject to the view guard.

Description: A caller may view themself, a SUPER_ADMIN may view anyone, and
other roles require at least one shared company; a VIEWER may only ever view
themself.

Parameters:
  - context: context.Context
  - caller: access.CallerIdentity
  - userID: string

Returns:
  - *auth.User: The hydrated account
  - error: apperr.NotFound, apperr.Forbidden, or retrieval failures
*/
func (service *Service) Get(context context.Context, caller access.CallerIdentity, userID string) (*auth.User, error) {

	target, err := service.repository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	guardTarget := access.UserTarget{ID: target.ID, Role: target.Role, CompanyIDs: target.CompanyIDs}
	if err := access.CanViewUser(caller, guardTarget); err != nil {
		return nil, err
	}

	return target, nil
}

/*
List returns a page of accounts visible within the caller's tenancy scope.

Description: The scope resolved from the active-company hint becomes a SQL
filter, never a post-hoc one. A SUPER_ADMIN without a hint lists across all
companies; every other role is bounded to exactly one resolved company.

Parameters:
  - context: context.Context
  - caller: access.CallerIdentity
  - companyHint: string (untrusted X-Active-Company value, may be empty)
  - search: string
  - role: access.Role (optional narrowing, empty for all)
  - page: pagination.Params

Returns:
  - []auth.User: Hydrated page
  - int: Total matching accounts
  - error: apperr.Forbidden, apperr.ValidationError, or retrieval failures
*/
func (service *Service) List(context context.Context, caller access.CallerIdentity, companyHint, search string, role access.Role, page pagination.Params) ([]auth.User, int, error) {

	// Directory browsing starts at MANAGER; VIEWERs only ever see themselves.
	if !caller.Role.AtLeast(access.RoleManager) {
		return nil, 0, apperr.Forbidden("You are not allowed to browse the user directory")
	}

	if role != "" && !role.Valid() {
		return nil, 0, apperr.ValidationError("Unknown role filter")
	}

	scope, err := access.ResolveActiveCompany(caller, companyHint)
	if err != nil {
		return nil, 0, err
	}

	return service.repository.List(context, ListFilter{
		Scope:      scope,
		Search:     search,
		Role:       role,
		Pagination: page,
	})
}

// # Shared Checks

// checkCompanyGrants rejects grants of companies the caller has no
// relationship to. Companies the target already holds are exempt so an
// unrelated assignment elsewhere does not block an otherwise valid update.
func checkCompanyGrants(caller access.CallerIdentity, granted, alreadyAssigned []string) error {
	if caller.IsSuperAdmin() {
		return nil
	}

	for _, companyID := range granted {
		if slice.Contains(alreadyAssigned, companyID) {
			continue
		}
		if !caller.AssignedTo(companyID) {
			return apperr.Forbidden("You can only assign companies you are assigned to yourself")
		}
	}

	return nil
}

// checkDeviceReferences validates every referenced device against the final
// company assignment and the caller's own company set.
func (service *Service) checkDeviceReferences(context context.Context, caller access.CallerIdentity, deviceIDs, companyIDs []string) error {
	if len(deviceIDs) == 0 {
		return nil
	}

	deviceCompanies, err := service.repository.DeviceCompanies(context, deviceIDs)
	if err != nil {
		return fmt.Errorf("directory_service_device_lookup_failed: %w", err)
	}

	// Missing entries mean a referenced device does not exist or is deleted.
	if len(deviceCompanies) != len(deviceIDs) {
		return apperr.NotFound("Device")
	}

	if err := access.CheckDeviceCompanyBinding(deviceCompanies, companyIDs); err != nil {
		return err
	}

	return access.CheckDeviceCompanyAccess(caller, deviceCompanies)
}

// derivePrimary resolves the primary company: an explicit request must be a
// member of the final company set; otherwise the automatic derivation applies.
func derivePrimary(explicit, previous string, companyIDs []string) (string, error) {
	if explicit != "" {
		if !slice.Contains(companyIDs, explicit) {
			return "", apperr.ValidationError("Primary company must be one of the assigned companies")
		}
		return explicit, nil
	}
	return access.DerivePrimaryCompany(previous, companyIDs), nil
}

// dedupe removes duplicates while preserving first-seen order.
func dedupe(ids []string) []string {
	var out []string
	for _, id := range ids {
		if !slice.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

// reorderCompanies builds the final assignment ordering: companies the target
// already holds keep their position, newly granted ones append in request order.
func reorderCompanies(existing, requested []string) []string {
	var out []string
	for _, id := range existing {
		if slice.Contains(requested, id) {
			out = append(out, id)
		}
	}
	for _, id := range requested {
		if !slice.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
