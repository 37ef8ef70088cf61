// Copyright (c) 2026 Sentra Labs. All rights reserved.
// Author: platform@sentra-labs.io

package company

import (
	"context"
	"log/slog"

	"github.com/sentra-labs/sentra/internal/access"
	"github.com/sentra-labs/sentra/internal/platform/apperr"
	"github.com/sentra-labs/sentra/pkg/pagination"
	"github.com/sentra-labs/sentra/pkg/slug"
	"github.com/sentra-labs/sentra/pkg/uuid"
)

// # Service Layer

// Service orchestrates business logic for tenant management.
type Service struct {
	repository Repository
	logger     *slog.Logger
}

// NewService constructs a new [Service] with its repository dependency.
func NewService(repository Repository, logger *slog.Logger) *Service {
	return &Service{repository: repository, logger: logger}
}

// CreateCompanyInput carries the description of a new tenant.
type CreateCompanyInput struct {
	Name    string
	Address string
	PinCode string
	Status  string
}

// UpdateCompanyInput carries a partial tenant update. Nil fields are untouched.
type UpdateCompanyInput struct {
	Name    *string
	Address *string
	PinCode *string
	Status  *string
}

/*
Create provisions a new company.

Description: Requires ADMIN or above. An ADMIN creator is auto-assigned to
the new company, and when it is their first assignment it becomes their
primary company. Name uniqueness is enforced by the database constraint.

Parameters:
  - context: context.Context
  - caller: access.CallerIdentity
  - input: CreateCompanyInput

Returns:
  - *Company: The persisted company
  - error: apperr.Forbidden, apperr.Conflict (name), or persistence failures
*/
func (service *Service) Create(context context.Context, caller access.CallerIdentity, input CreateCompanyInput) (*Company, error) {

	if err := access.CanCreateCompany(caller); err != nil {
		return nil, err
	}

	company := &Company{
		ID:      uuid.New(),
		Name:    input.Name,
		Slug:    slug.From(input.Name),
		Address: input.Address,
		PinCode: input.PinCode,
		Status:  input.Status,
	}

	// An ADMIN creator joins the company immediately; a SUPER_ADMIN stays
	// unassigned since their scope already spans all companies.
	assignUserID := ""
	makePrimary := false
	if caller.Role == access.RoleAdmin {
		assignUserID = caller.ID
		makePrimary = len(caller.CompanyIDs) == 0
	}

	if err := service.repository.Create(context, company, assignUserID, makePrimary); err != nil {
		return nil, err
	}

	service.logger.Info("company_created",
		slog.String("company_id", company.ID),
		slog.String("created_by", caller.ID),
	)

	return company, nil
}

/*
Update modifies an existing company.

Description: Requires SUPER_ADMIN, or ADMIN membership in the target
company. A rename regenerates the slug.

Parameters:
  - context: context.Context
  - caller: access.CallerIdentity
  - companyID: string
  - input: UpdateCompanyInput

Returns:
  - *Company: The updated company
  - error: apperr.NotFound, apperr.Forbidden, apperr.Conflict, or persistence failures
*/
func (service *Service) Update(context context.Context, caller access.CallerIdentity, companyID string, input UpdateCompanyInput) (*Company, error) {

	company, err := service.repository.FindByID(context, companyID)
	if err != nil {
		return nil, err
	}

	if err := service.guardManage(context, caller, company.ID); err != nil {
		return nil, err
	}

	if input.Name != nil {
		company.Name = *input.Name
		company.Slug = slug.From(*input.Name)
	}
	if input.Address != nil {
		company.Address = *input.Address
	}
	if input.PinCode != nil {
		company.PinCode = *input.PinCode
	}
	if input.Status != nil {
		company.Status = *input.Status
	}

	if err := service.repository.Update(context, company); err != nil {
		return nil, err
	}

	service.logger.Info("company_updated",
		slog.String("company_id", company.ID),
		slog.String("updated_by", caller.ID),
	)

	return company, nil
}

/*
Delete soft-deletes a company.

Description: Beyond management rights, the deletion precondition must hold:
the company owns no live devices, and has either no assigned users or exactly
one — the deleting ADMIN themself. Assignment rows and primary-company
references are cleared alongside the flag.

Parameters:
  - context: context.Context
  - caller: access.CallerIdentity
  - companyID: string

Returns:
  - error: apperr.NotFound, apperr.Forbidden, apperr.ValidationError, or persistence failures
*/
func (service *Service) Delete(context context.Context, caller access.CallerIdentity, companyID string) error {

	company, err := service.repository.FindByID(context, companyID)
	if err != nil {
		return err
	}

	if err := service.guardManage(context, caller, company.ID); err != nil {
		return err
	}

	stats, err := service.repository.Stats(context, company.ID)
	if err != nil {
		return err
	}

	if err := access.CheckCompanyDeletable(caller, stats.ActiveDevices, stats.ActiveUsers, stats.SoleUserID); err != nil {
		return err
	}

	if err := service.repository.SoftDelete(context, company.ID); err != nil {
		return err
	}

	service.logger.Warn("company_deleted",
		slog.String("company_id", company.ID),
		slog.String("deleted_by", caller.ID),
	)

	return nil
}

/*
Get retrieves a single company.

Description: SUPER_ADMIN may fetch any company; every other role must be
assigned to it.

Parameters:
  - context: context.Context
  - caller: access.CallerIdentity
  - companyID: string

Returns:
  - *Company: Hydrated entity
  - error: apperr.NotFound, apperr.Forbidden, or retrieval failures
*/
func (service *Service) Get(context context.Context, caller access.CallerIdentity, companyID string) (*Company, error) {

	company, err := service.repository.FindByID(context, companyID)
	if err != nil {
		return nil, err
	}

	if !caller.IsSuperAdmin() && !caller.AssignedTo(company.ID) {
		return nil, apperr.Forbidden("You are not assigned to this company")
	}

	return company, nil
}

/*
List returns a page of companies visible to the caller.

Description: Listing requires ADMIN or above. A SUPER_ADMIN sees every
company; an ADMIN sees only the companies they are assigned to.

Parameters:
  - context: context.Context
  - caller: access.CallerIdentity
  - search: string
  - page: pagination.Params

Returns:
  - []Company: Page of companies
  - int: Total matching rows
  - error: apperr.Forbidden or retrieval failures
*/
func (service *Service) List(context context.Context, caller access.CallerIdentity, search string, page pagination.Params) ([]Company, int, error) {

	if err := access.CanListCompanies(caller); err != nil {
		return nil, 0, err
	}

	filter := ListFilter{Search: search, Pagination: page}

	// Membership restriction builds the query filter; results are never
	// narrowed after the fact.
	if !caller.IsSuperAdmin() {
		filter.CompanyIDs = caller.CompanyIDs
		if len(filter.CompanyIDs) == 0 {
			return []Company{}, 0, nil
		}
	}

	return service.repository.List(context, filter)
}

// guardManage loads the membership set and applies the management guard.
func (service *Service) guardManage(context context.Context, caller access.CallerIdentity, companyID string) error {
	memberIDs, err := service.repository.MemberIDs(context, companyID)
	if err != nil {
		return err
	}

	return access.CanManageCompany(caller, access.CompanyTarget{ID: companyID, UserIDs: memberIDs})
}
