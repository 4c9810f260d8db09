// Package repository provides Postgres-backed access to the fleet data:
// customers, vehicles, and the append-only service log.
package repository

import (
	"context"
	"errors"
	"fmt"

	"shop_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opListCustomers      = "fleet.repository.list_customers"
	opGetCustomer        = "fleet.repository.get_customer"
	opListVehicles       = "fleet.repository.list_vehicles"
	opGetVehicle         = "fleet.repository.get_vehicle"
	opListByCustomer     = "fleet.repository.list_vehicles_by_customer"
	opListServiceHistory = "fleet.repository.list_service_history"
	opCreateServiceLog   = "fleet.repository.create_service_log"
)

// Repository is the pgx-backed FleetRepository implementation.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a fleet repository on the given pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ FleetRepository = (*Repository)(nil)

func (r *Repository) ListCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, first_name, last_name, email, phone, created_at, updated_at
		FROM customers
		ORDER BY last_name, first_name
	`)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list customers failed", err).WithOp(opListCustomers)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "scan customer failed", err).WithOp(opListCustomers)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "iterate customers failed", err).WithOp(opListCustomers)
	}

	return customers, nil
}

func (r *Repository) GetCustomerByID(ctx context.Context, id uuid.UUID) (Customer, error) {
	var c Customer
	err := r.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, email, phone, created_at, updated_at
		FROM customers
		WHERE id = $1
	`, id).Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, apperr.NotFound("customer not found").WithOp(opGetCustomer)
		}
		return Customer{}, apperr.Wrap(apperr.KindInternal, "get customer failed", err).WithOp(opGetCustomer)
	}
	return c, nil
}

const vehicleColumns = `
	v.id, v.customer_id, v.make, v.model, v.year, v.vin, v.mileage,
	c.first_name || ' ' || c.last_name AS owner_name,
	v.created_at, v.updated_at`

func (r *Repository) ListVehicles(ctx context.Context) ([]Vehicle, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM vehicles v
		JOIN customers c ON c.id = v.customer_id
		ORDER BY v.created_at
	`, vehicleColumns))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list vehicles failed", err).WithOp(opListVehicles)
	}
	defer rows.Close()

	return scanVehicles(rows, opListVehicles)
}

func (r *Repository) GetVehicleByID(ctx context.Context, id uuid.UUID) (Vehicle, error) {
	var v Vehicle
	err := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s
		FROM vehicles v
		JOIN customers c ON c.id = v.customer_id
		WHERE v.id = $1
	`, vehicleColumns), id).Scan(
		&v.ID, &v.CustomerID, &v.Make, &v.Model, &v.Year, &v.VIN, &v.Mileage,
		&v.OwnerName, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Vehicle{}, apperr.NotFound("vehicle not found").WithOp(opGetVehicle)
		}
		return Vehicle{}, apperr.Wrap(apperr.KindInternal, "get vehicle failed", err).WithOp(opGetVehicle)
	}
	return v, nil
}

func (r *Repository) ListVehiclesByCustomer(ctx context.Context, customerID uuid.UUID) ([]Vehicle, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM vehicles v
		JOIN customers c ON c.id = v.customer_id
		WHERE v.customer_id = $1
		ORDER BY v.created_at
	`, vehicleColumns), customerID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list vehicles by customer failed", err).WithOp(opListByCustomer)
	}
	defer rows.Close()

	return scanVehicles(rows, opListByCustomer)
}

func scanVehicles(rows pgx.Rows, op string) ([]Vehicle, error) {
	var vehicles []Vehicle
	for rows.Next() {
		var v Vehicle
		if err := rows.Scan(
			&v.ID, &v.CustomerID, &v.Make, &v.Model, &v.Year, &v.VIN, &v.Mileage,
			&v.OwnerName, &v.CreatedAt, &v.UpdatedAt,
		); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "scan vehicle failed", err).WithOp(op)
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "iterate vehicles failed", err).WithOp(op)
	}
	return vehicles, nil
}

func (r *Repository) ListServiceHistory(ctx context.Context, vehicleID uuid.UUID) ([]ServiceLogEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, vehicle_id, service_type, performed_at, odometer, notes, created_at
		FROM service_log
		WHERE vehicle_id = $1
		ORDER BY performed_at DESC, created_at DESC
	`, vehicleID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list service history failed", err).WithOp(opListServiceHistory)
	}
	defer rows.Close()

	var entries []ServiceLogEntry
	for rows.Next() {
		var e ServiceLogEntry
		if err := rows.Scan(&e.ID, &e.VehicleID, &e.ServiceType, &e.PerformedAt, &e.Odometer, &e.Notes, &e.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "scan service log entry failed", err).WithOp(opListServiceHistory)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "iterate service history failed", err).WithOp(opListServiceHistory)
	}

	return entries, nil
}

func (r *Repository) CreateServiceLogEntry(ctx context.Context, params CreateServiceLogParams) (ServiceLogEntry, error) {
	if params.VehicleID == uuid.Nil {
		return ServiceLogEntry{}, apperr.Validation("vehicleId is required").WithOp(opCreateServiceLog)
	}
	if params.ServiceType == "" {
		return ServiceLogEntry{}, apperr.Validation("serviceType is required").WithOp(opCreateServiceLog)
	}

	var e ServiceLogEntry
	err := r.pool.QueryRow(ctx, `
		INSERT INTO service_log (vehicle_id, service_type, performed_at, odometer, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, vehicle_id, service_type, performed_at, odometer, notes, created_at
	`, params.VehicleID, params.ServiceType, params.PerformedAt, params.Odometer, params.Notes).Scan(
		&e.ID, &e.VehicleID, &e.ServiceType, &e.PerformedAt, &e.Odometer, &e.Notes, &e.CreatedAt,
	)
	if err != nil {
		return ServiceLogEntry{}, apperr.Wrap(apperr.KindInternal, "create service log entry failed", err).WithOp(opCreateServiceLog)
	}

	return e, nil
}
