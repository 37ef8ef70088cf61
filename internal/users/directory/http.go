// Copyright (c) 2026 Sentra Labs. All rights reserved.
// Author: platform@sentra-labs.io

package directory

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sentra-labs/sentra/internal/access"
	"github.com/sentra-labs/sentra/internal/platform/middleware"
	requestutil "github.com/sentra-labs/sentra/internal/platform/request"
	"github.com/sentra-labs/sentra/internal/platform/respond"
	"github.com/sentra-labs/sentra/internal/platform/validate"
	"github.com/sentra-labs/sentra/internal/users/auth"
	"github.com/sentra-labs/sentra/pkg/pagination"
)

// Handler implements the HTTP layer for the administrative user directory.
type Handler struct {
	directoryService *Service
}

// NewHandler constructs a new directory [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{directoryService: service}
}

// Routes returns a [chi.Router] configured with the directory endpoints.
//
// The whole surface is coarse-gated at MANAGER; the fine-grained decisions
// (which roles, which companies, which devices) live in the service's guards.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequireRole(access.RoleManager))

	router.Get("/", handler.list)
	router.Post("/", handler.create)
	router.Get("/{id}", handler.get)
	router.Patch("/{id}", handler.update)
	router.Delete("/{id}", handler.delete)

	return router
}

// # Request Payloads

type createUserRequest struct {
	Email            string   `json:"email"`
	Password         string   `json:"password"`
	FirstName        string   `json:"first_name"`
	LastName         string   `json:"last_name"`
	PhoneNumber      string   `json:"phone_number"`
	Position         string   `json:"position"`
	Role             string   `json:"role"`
	CompanyIDs       []string `json:"company_ids"`
	PrimaryCompanyID string   `json:"primary_company_id"`
	DeviceIDs        []string `json:"device_ids"`
}

type updateUserRequest struct {
	FirstName        *string   `json:"first_name"`
	LastName         *string   `json:"last_name"`
	PhoneNumber      *string   `json:"phone_number"`
	Position         *string   `json:"position"`
	Role             *string   `json:"role"`
	Status           *string   `json:"status"`
	CompanyIDs       *[]string `json:"company_ids"`
	DeviceIDs        *[]string `json:"device_ids"`
	PrimaryCompanyID *string   `json:"primary_company_id"`
}

/*
GET /api/v1/users.

Description: Lists accounts within the caller's resolved tenancy scope.
Supports search, role narrowing, and pagination.

Request:
  - Header X-Active-Company: optional company hint
  - Query: page, limit, search, role

Response:
  - 200: []User with pagination metadata
  - 403: ErrForbidden: VIEWER callers or unresolvable scope
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.Caller(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	page := pagination.FromRequest(request)
	search := request.URL.Query().Get("search")
	role := access.Role(request.URL.Query().Get("role"))

	users, total, err := handler.directoryService.List(
		request.Context(),
		caller,
		requestutil.ActiveCompanyHint(request),
		search,
		role,
		page,
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, pagination.NewMeta(page.Page, page.Limit, total))
}

/*
POST /api/v1/users.

Description: Provisions a new operator account with its company and device
assignments. The caller's role bounds the creatable role.

Request:
  - Body: createUserRequest

Response:
  - 201: User: The provisioned account
  - 400: ErrInvalidJSON/Validation: Structural invariant violation
  - 403: ErrForbidden: Role or company grant not permitted
  - 409: ErrConflict: Email already registered
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.Caller(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createUserRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(auth.FieldEmail, input.Email).
		Email(auth.FieldEmail, input.Email).
		Required(auth.FieldPassword, input.Password).
		MinLen(auth.FieldPassword, input.Password, 8).
		Required(auth.FieldFirstName, input.FirstName).
		MaxLen(auth.FieldFirstName, input.FirstName, 100).
		Required(auth.FieldLastName, input.LastName).
		MaxLen(auth.FieldLastName, input.LastName, 100).
		Custom("role", !access.Role(input.Role).Valid(), "Unknown role").
		UUIDs("company_ids", input.CompanyIDs).
		UUIDs("device_ids", input.DeviceIDs)
	if input.PrimaryCompanyID != "" {
		v.UUID("primary_company_id", input.PrimaryCompanyID)
	}

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.directoryService.Create(request.Context(), caller, CreateUserInput{
		Email:            input.Email,
		Password:         input.Password,
		FirstName:        input.FirstName,
		LastName:         input.LastName,
		PhoneNumber:      input.PhoneNumber,
		Position:         input.Position,
		Role:             access.Role(input.Role),
		CompanyIDs:       input.CompanyIDs,
		PrimaryCompanyID: input.PrimaryCompanyID,
		DeviceIDs:        input.DeviceIDs,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
GET /api/v1/users/{id}.

Description: Retrieves a single account, subject to the view guard.

Response:
  - 200: User: Hydrated account
  - 403: ErrForbidden: No shared company with the target
  - 404: ErrNotFound: Unknown or deleted account
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.Caller(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	userID := chi.URLParam(request, "id")

	v := &validate.Validator{}
	v.Required("id", userID).UUID("id", userID)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.directoryService.Get(request.Context(), caller, userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
PATCH /api/v1/users/{id}.

Description: Applies an administrative update. Assignment changes re-run the
full invariant set; a transition to SUSPENDED revokes the target's sessions.

Request:
  - Body: updateUserRequest (partial)

Response:
  - 200: User: The updated account
  - 400: ErrInvalidJSON/Validation: Structural invariant violation
  - 403: ErrForbidden: Hierarchy or grant not permitted
  - 404: ErrNotFound: Unknown or deleted account
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.Caller(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	userID := chi.URLParam(request, "id")

	var input updateUserRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required("id", userID).UUID("id", userID)
	if input.FirstName != nil {
		v.Required(auth.FieldFirstName, *input.FirstName).MaxLen(auth.FieldFirstName, *input.FirstName, 100)
	}
	if input.LastName != nil {
		v.Required(auth.FieldLastName, *input.LastName).MaxLen(auth.FieldLastName, *input.LastName, 100)
	}
	if input.Role != nil {
		v.Custom("role", !access.Role(*input.Role).Valid(), "Unknown role")
	}
	if input.Status != nil {
		v.Custom("status", !auth.UserStatus(*input.Status).Valid(), "Unknown account status")
	}
	if input.CompanyIDs != nil {
		v.UUIDs("company_ids", *input.CompanyIDs)
	}
	if input.DeviceIDs != nil {
		v.UUIDs("device_ids", *input.DeviceIDs)
	}
	if input.PrimaryCompanyID != nil && *input.PrimaryCompanyID != "" {
		v.UUID("primary_company_id", *input.PrimaryCompanyID)
	}

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	serviceInput := UpdateUserInput{
		FirstName:        input.FirstName,
		LastName:         input.LastName,
		PhoneNumber:      input.PhoneNumber,
		Position:         input.Position,
		CompanyIDs:       input.CompanyIDs,
		DeviceIDs:        input.DeviceIDs,
		PrimaryCompanyID: input.PrimaryCompanyID,
	}
	if input.Role != nil {
		role := access.Role(*input.Role)
		serviceInput.Role = &role
	}
	if input.Status != nil {
		status := auth.UserStatus(*input.Status)
		serviceInput.Status = &status
	}

	user, err := handler.directoryService.Update(request.Context(), caller, userID, serviceInput)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
DELETE /api/v1/users/{id}.

Description: Soft-deletes an account and revokes its sessions. Self-deletion
is always forbidden; no one may delete a SUPER_ADMIN.

Response:
  - 204: No Content: Account removed
  - 403: ErrForbidden: Hierarchy forbids the deletion
  - 404: ErrNotFound: Unknown or deleted account
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.Caller(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	userID := chi.URLParam(request, "id")

	v := &validate.Validator{}
	v.Required("id", userID).UUID("id", userID)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.directoryService.Delete(request.Context(), caller, userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
