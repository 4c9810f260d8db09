// Package service provides the fleet read surface and the expected-service
// projection used by both the HTTP layer and the insight agent's tools.
package service

import (
	"context"

	"shop_portal_backend/internal/fleet/repository"
	"shop_portal_backend/internal/maintenance"
	"shop_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// Service exposes fleet reads and maintenance projections.
type Service struct {
	repo repository.FleetRepository
	log  *logger.Logger
}

// New creates a fleet service.
func New(repo repository.FleetRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) ListCustomers(ctx context.Context) ([]repository.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *Service) GetCustomerByID(ctx context.Context, id uuid.UUID) (repository.Customer, error) {
	return s.repo.GetCustomerByID(ctx, id)
}

func (s *Service) ListVehicles(ctx context.Context) ([]repository.Vehicle, error) {
	return s.repo.ListVehicles(ctx)
}

func (s *Service) GetVehicleByID(ctx context.Context, id uuid.UUID) (repository.Vehicle, error) {
	return s.repo.GetVehicleByID(ctx, id)
}

func (s *Service) ListVehiclesByCustomer(ctx context.Context, customerID uuid.UUID) ([]repository.Vehicle, error) {
	if _, err := s.repo.GetCustomerByID(ctx, customerID); err != nil {
		return nil, err
	}
	return s.repo.ListVehiclesByCustomer(ctx, customerID)
}

func (s *Service) ListServiceHistory(ctx context.Context, vehicleID uuid.UUID) ([]repository.ServiceLogEntry, error) {
	if _, err := s.repo.GetVehicleByID(ctx, vehicleID); err != nil {
		return nil, err
	}
	return s.repo.ListServiceHistory(ctx, vehicleID)
}

func (s *Service) CreateServiceLogEntry(ctx context.Context, params repository.CreateServiceLogParams) (repository.ServiceLogEntry, error) {
	if _, err := s.repo.GetVehicleByID(ctx, params.VehicleID); err != nil {
		return repository.ServiceLogEntry{}, err
	}
	return s.repo.CreateServiceLogEntry(ctx, params)
}

// ExpectedServices computes the maintenance projection for one vehicle,
// sorted most urgent first.
func (s *Service) ExpectedServices(ctx context.Context, vehicleID uuid.UUID) ([]maintenance.ExpectedService, error) {
	vehicle, err := s.repo.GetVehicleByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.ListServiceHistory(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	return maintenance.ComputeForVehicle(toVehicleInfo(vehicle), toServiceRecords(history)), nil
}

func toVehicleInfo(v repository.Vehicle) maintenance.VehicleInfo {
	return maintenance.VehicleInfo{
		ID:         v.ID,
		CustomerID: v.CustomerID,
		Make:       v.Make,
		Model:      v.Model,
		Year:       v.Year,
		Mileage:    v.Mileage,
	}
}

func toServiceRecords(entries []repository.ServiceLogEntry) []maintenance.ServiceRecord {
	records := make([]maintenance.ServiceRecord, len(entries))
	for i, e := range entries {
		records[i] = maintenance.ServiceRecord{
			ServiceType: e.ServiceType,
			PerformedAt: e.PerformedAt,
			Odometer:    e.Odometer,
		}
	}
	return records
}
