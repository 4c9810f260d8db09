// Package transport defines request and response shapes for the fleet HTTP API.
package transport

import (
	"time"

	"shop_portal_backend/internal/fleet/repository"
	"shop_portal_backend/internal/maintenance"

	"github.com/google/uuid"
)

// CustomerResponse is the public shape of a customer.
type CustomerResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// VehicleResponse is the public shape of a vehicle, including the owner name
// joined from the customers table.
type VehicleResponse struct {
	ID         uuid.UUID `json:"id"`
	CustomerID uuid.UUID `json:"customer_id"`
	OwnerName  string    `json:"owner_name"`
	Make       string    `json:"make"`
	Model      string    `json:"model"`
	Year       int       `json:"year"`
	Mileage    *int      `json:"mileage"`
	CreatedAt  time.Time `json:"created_at"`
}

// ServiceLogEntryResponse is the public shape of a service history record.
type ServiceLogEntryResponse struct {
	ID          uuid.UUID `json:"id"`
	VehicleID   uuid.UUID `json:"vehicle_id"`
	ServiceType string    `json:"service_type"`
	PerformedAt time.Time `json:"performed_at"`
	Odometer    *int      `json:"odometer"`
	Notes       *string   `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateServiceLogRequest records a completed service on a vehicle.
type CreateServiceLogRequest struct {
	ServiceType string  `json:"service_type" validate:"required,min=2,max=120"`
	PerformedAt string  `json:"performed_at" validate:"required,datetime=2006-01-02"`
	Odometer    *int    `json:"odometer" validate:"omitempty,min=0"`
	Notes       *string `json:"notes" validate:"omitempty,max=2000"`
}

// ExpectedServicesResponse wraps the maintenance projection for one vehicle.
type ExpectedServicesResponse struct {
	VehicleID uuid.UUID                     `json:"vehicle_id"`
	Services  []maintenance.ExpectedService `json:"services"`
}

// ToCustomerResponse converts a repository customer.
func ToCustomerResponse(c repository.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID,
		Name:      c.FirstName + " " + c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		CreatedAt: c.CreatedAt,
	}
}

// ToCustomerResponses converts a slice of repository customers.
func ToCustomerResponses(customers []repository.Customer) []CustomerResponse {
	out := make([]CustomerResponse, len(customers))
	for i, c := range customers {
		out[i] = ToCustomerResponse(c)
	}
	return out
}

// ToVehicleResponse converts a repository vehicle.
func ToVehicleResponse(v repository.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID:         v.ID,
		CustomerID: v.CustomerID,
		OwnerName:  v.OwnerName,
		Make:       v.Make,
		Model:      v.Model,
		Year:       v.Year,
		Mileage:    v.Mileage,
		CreatedAt:  v.CreatedAt,
	}
}

// ToVehicleResponses converts a slice of repository vehicles.
func ToVehicleResponses(vehicles []repository.Vehicle) []VehicleResponse {
	out := make([]VehicleResponse, len(vehicles))
	for i, v := range vehicles {
		out[i] = ToVehicleResponse(v)
	}
	return out
}

// ToServiceLogEntryResponse converts a repository service log entry.
func ToServiceLogEntryResponse(e repository.ServiceLogEntry) ServiceLogEntryResponse {
	return ServiceLogEntryResponse{
		ID:          e.ID,
		VehicleID:   e.VehicleID,
		ServiceType: e.ServiceType,
		PerformedAt: e.PerformedAt,
		Odometer:    e.Odometer,
		Notes:       e.Notes,
		CreatedAt:   e.CreatedAt,
	}
}

// ToServiceLogEntryResponses converts a slice of repository service log entries.
func ToServiceLogEntryResponses(entries []repository.ServiceLogEntry) []ServiceLogEntryResponse {
	out := make([]ServiceLogEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = ToServiceLogEntryResponse(e)
	}
	return out
}
