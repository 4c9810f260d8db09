package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shop_portal_backend/internal/fleet/repository"
	"shop_portal_backend/internal/fleet/service"
	"shop_portal_backend/internal/fleet/transport"
	"shop_portal_backend/platform/httpkit"
	"shop_portal_backend/platform/validator"
)

// Handler handles HTTP requests for customers, vehicles and service history.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest    = "invalid request"
	msgValidationFailed  = "validation failed"
	msgInvalidCustomerID = "invalid customer ID"
	msgInvalidVehicleID  = "invalid vehicle ID"
)

// New creates a new fleet handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ListCustomers retrieves all customers.
// GET /api/v1/customers
func (h *Handler) ListCustomers(c *gin.Context) {
	result, err := h.svc.ListCustomers(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToCustomerResponses(result))
}

// GetCustomer retrieves a single customer by ID.
// GET /api/v1/customers/:id
func (h *Handler) GetCustomer(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidCustomerID, nil)
		return
	}

	result, err := h.svc.GetCustomerByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToCustomerResponse(result))
}

// ListCustomerVehicles retrieves all vehicles owned by a customer.
// GET /api/v1/customers/:id/vehicles
func (h *Handler) ListCustomerVehicles(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidCustomerID, nil)
		return
	}

	result, err := h.svc.ListVehiclesByCustomer(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToVehicleResponses(result))
}

// ListVehicles retrieves all vehicles with owner names.
// GET /api/v1/vehicles
func (h *Handler) ListVehicles(c *gin.Context) {
	result, err := h.svc.ListVehicles(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToVehicleResponses(result))
}

// GetVehicle retrieves a single vehicle by ID.
// GET /api/v1/vehicles/:id
func (h *Handler) GetVehicle(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidVehicleID, nil)
		return
	}

	result, err := h.svc.GetVehicleByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToVehicleResponse(result))
}

// ListServiceHistory retrieves a vehicle's service log, most recent first.
// GET /api/v1/vehicles/:id/service-history
func (h *Handler) ListServiceHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidVehicleID, nil)
		return
	}

	result, err := h.svc.ListServiceHistory(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToServiceLogEntryResponses(result))
}

// CreateServiceLogEntry records a completed service on a vehicle.
// POST /api/v1/vehicles/:id/service-history
func (h *Handler) CreateServiceLogEntry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidVehicleID, nil)
		return
	}

	var req transport.CreateServiceLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	performedAt, err := time.Parse("2006-01-02", req.PerformedAt)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "performed_at must be YYYY-MM-DD", nil)
		return
	}

	result, err := h.svc.CreateServiceLogEntry(c.Request.Context(), repository.CreateServiceLogParams{
		VehicleID:   id,
		ServiceType: req.ServiceType,
		PerformedAt: performedAt,
		Odometer:    req.Odometer,
		Notes:       req.Notes,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToServiceLogEntryResponse(result))
}

// ListExpectedServices computes upcoming, due-soon and overdue maintenance
// for a vehicle.
// GET /api/v1/vehicles/:id/expected-services
func (h *Handler) ListExpectedServices(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidVehicleID, nil)
		return
	}

	result, err := h.svc.ExpectedServices(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ExpectedServicesResponse{VehicleID: id, Services: result})
}
