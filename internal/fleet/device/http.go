// Copyright (c) 2026 Sentra Labs. All rights reserved.
// Author: platform@sentra-labs.io

package device

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/sentra-labs/sentra/internal/platform/request"
	"github.com/sentra-labs/sentra/internal/platform/respond"
	"github.com/sentra-labs/sentra/internal/platform/validate"
	"github.com/sentra-labs/sentra/pkg/pagination"
	"github.com/sentra-labs/sentra/pkg/pointer"
	"github.com/sentra-labs/sentra/pkg/query"
	"github.com/sentra-labs/sentra/pkg/slice"
)

// Handler implements the HTTP layer for fleet management.
type Handler struct {
	deviceService *Service
}

// NewHandler constructs a new device [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{deviceService: service}
}

// Routes returns a [chi.Router] configured with the device endpoints.
//
// No coarse role gate applies; a VIEWER legitimately reaches the read
// endpoints for their assigned devices, and the write guards live in the
// service.
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

type createDeviceRequest struct {
	Name         string   `json:"name"`
	SerialNumber string   `json:"serial_number"`
	RegNumber    string   `json:"reg_number"`
	Type         string   `json:"type"`
	MaxValue     *float64 `json:"max_value"`
	MinValue     *float64 `json:"min_value"`
	Precision    *float64 `json:"precision"`
	Location     string   `json:"location"`
	Manufacturer string   `json:"manufacturer"`
	Price        float64  `json:"price"`
	CompanyID    string   `json:"company_id"`
	ParentID     string   `json:"parent_id"`
}

type updateDeviceRequest struct {
	Name         *string  `json:"name"`
	SerialNumber *string  `json:"serial_number"`
	RegNumber    *string  `json:"reg_number"`
	Type         *string  `json:"type"`
	MaxValue     *float64 `json:"max_value"`
	MinValue     *float64 `json:"min_value"`
	Precision    *float64 `json:"precision"`
	Location     *string  `json:"location"`
	Manufacturer *string  `json:"manufacturer"`
	Price        *float64 `json:"price"`
	CompanyID    *string  `json:"company_id"`
	ParentID     *string  `json:"parent_id"`
}

/*
GET /api/v1/devices.

Description: Lists devices visible to the caller. Viewers receive their
assigned devices; other roles list within the resolved active company.

Request:
  - Header X-Active-Company: optional company hint
  - Query: page, limit, search, type (comma-separated device types)

Response:
  - 200: []Device with pagination metadata
  - 403: ErrForbidden: Company hint outside the caller's assignments
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.Caller(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	page := pagination.FromRequest(request)

	deviceTypes := slice.Map(query.StringSlice(request.URL.Query().Get("type")), func(name string) DeviceType {
		return DeviceType(name)
	})

	devices, total, err := handler.deviceService.List(
		request.Context(),
		caller,
		requestutil.ActiveCompanyHint(request),
		request.URL.Query().Get("search"),
		deviceTypes,
		page,
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, devices, pagination.NewMeta(page.Page, page.Limit, total))
}

/*
POST /api/v1/devices.

Description: Creates a device in the owning company. The company defaults to
the caller's active company when omitted.

Request:
  - Header X-Active-Company: optional company hint
  - Body: createDeviceRequest

Response:
  - 201: Device: The created device
  - 400: ErrInvalidJSON/Validation: Structural invariant violation
  - 403: ErrForbidden: Not an admin of the active company
  - 409: ErrConflict: Serial number already in use
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.Caller(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createDeviceRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required("name", input.Name).
		MaxLen("name", input.Name, 120).
		Required("serial_number", input.SerialNumber).
		MaxLen("serial_number", input.SerialNumber, 120).
		Custom("type", !DeviceType(input.Type).Valid(), "Unknown device type")
	if input.CompanyID != "" {
		v.UUID("company_id", input.CompanyID)
	}
	if input.ParentID != "" {
		v.UUID("parent_id", input.ParentID)
	}

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	device, err := handler.deviceService.Create(
		request.Context(),
		caller,
		requestutil.ActiveCompanyHint(request),
		CreateDeviceInput{
			Name:         input.Name,
			SerialNumber: input.SerialNumber,
			RegNumber:    input.RegNumber,
			Type:         DeviceType(input.Type),
			MaxValue:     input.MaxValue,
			MinValue:     input.MinValue,
			Precision:    input.Precision,
			Location:     input.Location,
			Manufacturer: input.Manufacturer,
			Price:        input.Price,
			CompanyID:    input.CompanyID,
			ParentID:     input.ParentID,
		},
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, device)
}

/*
GET /api/v1/devices/{id}.

Description: Retrieves a single device, subject to the view guard.

Response:
  - 200: Device: Hydrated entity
  - 403: ErrForbidden: No membership or assignment reaching the device
  - 404: ErrNotFound: Unknown or deleted device
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.Caller(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	deviceID := chi.URLParam(request, "id")

	v := &validate.Validator{}
	v.Required("id", deviceID).UUID("id", deviceID)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	device, err := handler.deviceService.Get(request.Context(), caller, deviceID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, device)
}

/*
PATCH /api/v1/devices/{id}.

Description: Updates a device. A company change relocates the device and is
rejected while it still has children; a parent change re-runs the hierarchy
validation.

Request:
  - Header X-Active-Company: optional company hint
  - Body: updateDeviceRequest (partial)

Response:
  - 200: Device: The updated device
  - 400: ErrInvalidJSON/Validation: Structural invariant violation
  - 403: ErrForbidden: Not an admin of the affected companies
  - 404: ErrNotFound: Unknown or deleted device
  - 409: ErrConflict: Serial number already in use
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.Caller(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	deviceID := chi.URLParam(request, "id")

	var input updateDeviceRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required("id", deviceID).UUID("id", deviceID)
	if input.Name != nil {
		v.Required("name", *input.Name).MaxLen("name", *input.Name, 120)
	}
	if input.SerialNumber != nil {
		v.Required("serial_number", *input.SerialNumber).MaxLen("serial_number", *input.SerialNumber, 120)
	}
	if input.Type != nil {
		v.Custom("type", !DeviceType(*input.Type).Valid(), "Unknown device type")
	}
	if input.CompanyID != nil {
		v.Required("company_id", *input.CompanyID).UUID("company_id", *input.CompanyID)
	}
	if input.ParentID != nil && *input.ParentID != "" {
		v.UUID("parent_id", *input.ParentID)
	}

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	serviceInput := UpdateDeviceInput{
		Name:         input.Name,
		SerialNumber: input.SerialNumber,
		RegNumber:    input.RegNumber,
		MaxValue:     input.MaxValue,
		MinValue:     input.MinValue,
		Precision:    input.Precision,
		Location:     input.Location,
		Manufacturer: input.Manufacturer,
		Price:        input.Price,
		CompanyID:    input.CompanyID,
		ParentID:     input.ParentID,
	}
	if input.Type != nil {
		serviceInput.Type = pointer.To(DeviceType(*input.Type))
	}

	device, err := handler.deviceService.Update(
		request.Context(),
		caller,
		requestutil.ActiveCompanyHint(request),
		deviceID,
		serviceInput,
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, device)
}

/*
DELETE /api/v1/devices/{id}.

Description: Soft-deletes a device once it has no live children.

Request:
  - Header X-Active-Company: optional company hint

Response:
  - 204: No Content: Device removed
  - 400: ErrValidation: Child devices still attached
  - 403: ErrForbidden: Not an admin of the owning company
  - 404: ErrNotFound: Unknown or deleted device
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.Caller(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	deviceID := chi.URLParam(request, "id")

	v := &validate.Validator{}
	v.Required("id", deviceID).UUID("id", deviceID)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.deviceService.Delete(
		request.Context(),
		caller,
		requestutil.ActiveCompanyHint(request),
		deviceID,
	); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
