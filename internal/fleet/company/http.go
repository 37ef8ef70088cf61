// Copyright (c) 2026 Sentra Labs. All rights reserved.
// Author: platform@sentra-labs.io

package company

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/sentra-labs/sentra/internal/platform/request"
	"github.com/sentra-labs/sentra/internal/platform/respond"
	"github.com/sentra-labs/sentra/internal/platform/validate"
	"github.com/sentra-labs/sentra/pkg/pagination"
)

// Handler implements the HTTP layer for tenant management.
type Handler struct {
	companyService *Service
}

// NewHandler constructs a new company [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{companyService: service}
}

// Routes returns a [chi.Router] configured with the company endpoints.
//
// All decisions live in the service guards; no coarse role gate is applied
// here because Get is reachable for any assigned member.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.list)
	router.Post("/", handler.create)
	router.Get("/{id}", handler.get)
	router.Patch("/{id}", handler.update)
	router.Delete("/{id}", handler.delete)

	return router
}

// # Request Payloads

type createCompanyRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	PinCode string `json:"pin_code"`
	Status  string `json:"status"`
}

type updateCompanyRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	PinCode *string `json:"pin_code"`
	Status  *string `json:"status"`
}

/*
GET /api/v1/companies.

Description: Lists companies visible to the caller. Requires ADMIN or above;
an ADMIN sees only their assigned companies.

Request:
  - Query: page, limit, search

Response:
  - 200: []Company with pagination metadata
  - 403: ErrForbidden: Role below ADMIN
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.Caller(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	page := pagination.FromRequest(request)

	companies, total, err := handler.companyService.List(
		request.Context(),
		caller,
		request.URL.Query().Get("search"),
		page,
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, companies, pagination.NewMeta(page.Page, page.Limit, total))
}

/*
POST /api/v1/companies.

Description: Creates a new company. An ADMIN creator is auto-assigned and,
when it is their first company, it becomes their primary.

Request:
  - Body: createCompanyRequest

Response:
  - 201: Company: The created tenant
  - 403: ErrForbidden: Role below ADMIN
  - 409: ErrConflict: Name already in use
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.Caller(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createCompanyRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required("name", input.Name).
		MinLen("name", input.Name, 2).
		MaxLen("name", input.Name, 120).
		MaxLen("address", input.Address, 250).
		MaxLen("pin_code", input.PinCode, 20)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	company, err := handler.companyService.Create(request.Context(), caller, CreateCompanyInput{
		Name:    input.Name,
		Address: input.Address,
		PinCode: input.PinCode,
		Status:  input.Status,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, company)
}

/*
GET /api/v1/companies/{id}.

Description: Retrieves a single company. Requires membership unless the
caller is SUPER_ADMIN.

Response:
  - 200: Company
  - 403: ErrForbidden: Not assigned to the company
  - 404: ErrNotFound: Unknown or deleted company
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.Caller(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	companyID := chi.URLParam(request, "id")

	v := &validate.Validator{}
	v.Required("id", companyID).UUID("id", companyID)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	company, err := handler.companyService.Get(request.Context(), caller, companyID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, company)
}

/*
PATCH /api/v1/companies/{id}.

Description: Updates a company. Requires SUPER_ADMIN, or ADMIN membership
in the target company.

Request:
  - Body: updateCompanyRequest (partial)

Response:
  - 200: Company: The updated tenant
  - 403: ErrForbidden: Management rights missing
  - 404: ErrNotFound: Unknown or deleted company
  - 409: ErrConflict: Name already in use
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.Caller(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	companyID := chi.URLParam(request, "id")

	var input updateCompanyRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required("id", companyID).UUID("id", companyID)
	if input.Name != nil {
		v.Required("name", *input.Name).MinLen("name", *input.Name, 2).MaxLen("name", *input.Name, 120)
	}
	if input.Address != nil {
		v.MaxLen("address", *input.Address, 250)
	}
	if input.PinCode != nil {
		v.MaxLen("pin_code", *input.PinCode, 20)
	}

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	company, err := handler.companyService.Update(request.Context(), caller, companyID, UpdateCompanyInput{
		Name:    input.Name,
		Address: input.Address,
		PinCode: input.PinCode,
		Status:  input.Status,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, company)
}

/*
DELETE /api/v1/companies/{id}.

Description: Soft-deletes a company once the deletion precondition holds:
no live devices, and no assigned users beyond (at most) the deleting ADMIN.

Response:
  - 204: No Content: Company removed
  - 403: ErrForbidden: Management rights missing
  - 404: ErrNotFound: Unknown or deleted company
  - 400: ErrValidation: Devices or users still attached
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.Caller(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	companyID := chi.URLParam(request, "id")

	v := &validate.Validator{}
	v.Required("id", companyID).UUID("id", companyID)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.companyService.Delete(request.Context(), caller, companyID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
