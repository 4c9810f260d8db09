package service

import (
	"context"
	"testing"
	"time"

	"shop_portal_backend/internal/fleet/repository"
	"shop_portal_backend/internal/maintenance"
	"shop_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeFleetRepo struct {
	customers map[uuid.UUID]repository.Customer
	vehicles  map[uuid.UUID]repository.Vehicle
	history   map[uuid.UUID][]repository.ServiceLogEntry
	appended  []repository.CreateServiceLogParams
}

func newFakeFleetRepo() *fakeFleetRepo {
	return &fakeFleetRepo{
		customers: make(map[uuid.UUID]repository.Customer),
		vehicles:  make(map[uuid.UUID]repository.Vehicle),
		history:   make(map[uuid.UUID][]repository.ServiceLogEntry),
	}
}

func (f *fakeFleetRepo) ListCustomers(ctx context.Context) ([]repository.Customer, error) {
	var out []repository.Customer
	for _, c := range f.customers {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeFleetRepo) GetCustomerByID(ctx context.Context, id uuid.UUID) (repository.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return repository.Customer{}, apperr.NotFound("customer not found")
	}
	return c, nil
}

func (f *fakeFleetRepo) ListVehicles(ctx context.Context) ([]repository.Vehicle, error) {
	var out []repository.Vehicle
	for _, v := range f.vehicles {
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeFleetRepo) GetVehicleByID(ctx context.Context, id uuid.UUID) (repository.Vehicle, error) {
	v, ok := f.vehicles[id]
	if !ok {
		return repository.Vehicle{}, apperr.NotFound("vehicle not found")
	}
	return v, nil
}

func (f *fakeFleetRepo) ListVehiclesByCustomer(ctx context.Context, customerID uuid.UUID) ([]repository.Vehicle, error) {
	var out []repository.Vehicle
	for _, v := range f.vehicles {
		if v.CustomerID == customerID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeFleetRepo) ListServiceHistory(ctx context.Context, vehicleID uuid.UUID) ([]repository.ServiceLogEntry, error) {
	return f.history[vehicleID], nil
}

func (f *fakeFleetRepo) CreateServiceLogEntry(ctx context.Context, params repository.CreateServiceLogParams) (repository.ServiceLogEntry, error) {
	f.appended = append(f.appended, params)
	return repository.ServiceLogEntry{
		ID:          uuid.New(),
		VehicleID:   params.VehicleID,
		ServiceType: params.ServiceType,
		PerformedAt: params.PerformedAt,
		Odometer:    params.Odometer,
	}, nil
}

func TestExpectedServicesProjectsFromHistory(t *testing.T) {
	repo := newFakeFleetRepo()
	mileage := 50000
	odometer := 40000
	vehicle := repository.Vehicle{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		Make:       "Honda",
		Model:      "Civic",
		Year:       2021,
		Mileage:    &mileage,
	}
	repo.vehicles[vehicle.ID] = vehicle
	repo.history[vehicle.ID] = []repository.ServiceLogEntry{
		{VehicleID: vehicle.ID, ServiceType: "Oil Change", PerformedAt: time.Now().AddDate(0, -8, 0), Odometer: &odometer},
	}

	svc := New(repo, nil)
	services, err := svc.ExpectedServices(context.Background(), vehicle.ID)
	if err != nil {
		t.Fatalf("ExpectedServices failed: %v", err)
	}
	if len(services) == 0 {
		t.Fatal("expected a non-empty projection")
	}

	// The 5,000-mile-overdue oil change must come back as the most urgent.
	if services[0].ServiceName != "Oil Change" || services[0].Status != maintenance.StatusOverdue {
		t.Errorf("head = %s/%s, want overdue Oil Change", services[0].ServiceName, services[0].Status)
	}
	for _, s := range services {
		if s.VehicleID != vehicle.ID {
			t.Errorf("projection carries wrong vehicle id: %s", s.VehicleID)
		}
	}
}

func TestExpectedServicesUnknownVehicle(t *testing.T) {
	svc := New(newFakeFleetRepo(), nil)

	_, err := svc.ExpectedServices(context.Background(), uuid.New())
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Errorf("error kind = %v, want not found", apperr.GetKind(err))
	}
}

func TestCreateServiceLogEntryValidatesVehicle(t *testing.T) {
	repo := newFakeFleetRepo()
	svc := New(repo, nil)

	_, err := svc.CreateServiceLogEntry(context.Background(), repository.CreateServiceLogParams{
		VehicleID:   uuid.New(),
		ServiceType: "Oil Change",
		PerformedAt: time.Now(),
	})
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Errorf("error kind = %v, want not found", apperr.GetKind(err))
	}
	if len(repo.appended) != 0 {
		t.Errorf("appended %d entries for unknown vehicle, want 0", len(repo.appended))
	}
}

func TestListVehiclesByCustomerValidatesCustomer(t *testing.T) {
	repo := newFakeFleetRepo()
	customer := repository.Customer{ID: uuid.New(), FirstName: "Maria", LastName: "Chen"}
	repo.customers[customer.ID] = customer
	vehicle := repository.Vehicle{ID: uuid.New(), CustomerID: customer.ID, Make: "Ford", Model: "F-150", Year: 2019}
	repo.vehicles[vehicle.ID] = vehicle

	svc := New(repo, nil)

	if _, err := svc.ListVehiclesByCustomer(context.Background(), uuid.New()); apperr.GetKind(err) != apperr.KindNotFound {
		t.Errorf("error kind = %v, want not found", apperr.GetKind(err))
	}

	vehicles, err := svc.ListVehiclesByCustomer(context.Background(), customer.ID)
	if err != nil {
		t.Fatalf("ListVehiclesByCustomer failed: %v", err)
	}
	if len(vehicles) != 1 {
		t.Errorf("vehicles = %d, want 1", len(vehicles))
	}
}
