package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Customer is a shop customer who owns one or more vehicles.
type Customer struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Vehicle is a customer vehicle. Mileage is the last known odometer reading
// and may be nil when no reading has been captured. OwnerName is populated on
// list queries that join the owning customer.
type Vehicle struct {
	ID         uuid.UUID `json:"id"`
	CustomerID uuid.UUID `json:"customerId"`
	Make       string    `json:"make"`
	Model      string    `json:"model"`
	Year       int       `json:"year"`
	VIN        *string   `json:"vin,omitempty"`
	Mileage    *int      `json:"mileage,omitempty"`
	OwnerName  string    `json:"ownerName,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ServiceLogEntry is one append-only record of work performed on a vehicle.
type ServiceLogEntry struct {
	ID          uuid.UUID `json:"id"`
	VehicleID   uuid.UUID `json:"vehicleId"`
	ServiceType string    `json:"serviceType"`
	PerformedAt time.Time `json:"performedAt"`
	Odometer    *int      `json:"odometer,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreateServiceLogParams contains parameters for appending a service record.
type CreateServiceLogParams struct {
	VehicleID   uuid.UUID
	ServiceType string
	PerformedAt time.Time
	Odometer    *int
	Notes       *string
}

// CustomerReader provides read operations over customers.
type CustomerReader interface {
	ListCustomers(ctx context.Context) ([]Customer, error)
	GetCustomerByID(ctx context.Context, id uuid.UUID) (Customer, error)
}

// VehicleReader provides read operations over vehicles.
type VehicleReader interface {
	ListVehicles(ctx context.Context) ([]Vehicle, error)
	GetVehicleByID(ctx context.Context, id uuid.UUID) (Vehicle, error)
	ListVehiclesByCustomer(ctx context.Context, customerID uuid.UUID) ([]Vehicle, error)
}

// ServiceHistoryReader provides read access to the service log.
type ServiceHistoryReader interface {
	// ListServiceHistory returns the vehicle's service records ordered
	// most-recent-first.
	ListServiceHistory(ctx context.Context, vehicleID uuid.UUID) ([]ServiceLogEntry, error)
}

// ServiceHistoryWriter appends to the service log.
type ServiceHistoryWriter interface {
	CreateServiceLogEntry(ctx context.Context, params CreateServiceLogParams) (ServiceLogEntry, error)
}

// FleetRepository is the full fleet data access surface.
type FleetRepository interface {
	CustomerReader
	VehicleReader
	ServiceHistoryReader
	ServiceHistoryWriter
}
