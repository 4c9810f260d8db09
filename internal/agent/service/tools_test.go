package service

import (
	"context"
	"errors"
	"testing"

	fleetrepo "shop_portal_backend/internal/fleet/repository"
	insightsrepo "shop_portal_backend/internal/insights/repository"
	insightssvc "shop_portal_backend/internal/insights/service"
	"shop_portal_backend/internal/maintenance"

	"github.com/google/uuid"
)

type fakeFleetReader struct {
	vehicles  []fleetrepo.Vehicle
	customers []fleetrepo.Customer
	history   []fleetrepo.ServiceLogEntry
	expected  []maintenance.ExpectedService
	err       error
}

func (f *fakeFleetReader) ListVehicles(ctx context.Context) ([]fleetrepo.Vehicle, error) {
	return f.vehicles, f.err
}

func (f *fakeFleetReader) ListCustomers(ctx context.Context) ([]fleetrepo.Customer, error) {
	return f.customers, f.err
}

func (f *fakeFleetReader) ListVehiclesByCustomer(ctx context.Context, customerID uuid.UUID) ([]fleetrepo.Vehicle, error) {
	return f.vehicles, f.err
}

func (f *fakeFleetReader) ListServiceHistory(ctx context.Context, vehicleID uuid.UUID) ([]fleetrepo.ServiceLogEntry, error) {
	return f.history, f.err
}

func (f *fakeFleetReader) ExpectedServices(ctx context.Context, vehicleID uuid.UUID) ([]maintenance.ExpectedService, error) {
	return f.expected, f.err
}

type fakeInsightCreator struct {
	lastInput insightssvc.CreateInput
	created   insightsrepo.Insight
	err       error
	calls     int
}

func (f *fakeInsightCreator) Create(ctx context.Context, in insightssvc.CreateInput) (insightsrepo.Insight, error) {
	f.calls++
	f.lastInput = in
	return f.created, f.err
}

func TestExecuteUnknownToolReturnsErrorPayload(t *testing.T) {
	exec := NewExecutor(&fakeFleetReader{}, &fakeInsightCreator{}, nil)

	payload := exec.Execute(context.Background(), "delete_all_customers", nil)
	if !IsErrorPayload(payload) {
		t.Fatalf("expected error payload, got %v", payload)
	}
}

func TestExecuteListVehicles(t *testing.T) {
	fleet := &fakeFleetReader{vehicles: []fleetrepo.Vehicle{
		{ID: uuid.New(), Make: "Ford", Model: "F-150", Year: 2019},
		{ID: uuid.New(), Make: "Tesla", Model: "Model 3", Year: 2022},
	}}
	exec := NewExecutor(fleet, &fakeInsightCreator{}, nil)

	payload := exec.Execute(context.Background(), ToolGetAllVehicles, nil)
	if IsErrorPayload(payload) {
		t.Fatalf("unexpected error payload: %v", payload)
	}
	if payload["count"] != 2 {
		t.Errorf("count = %v, want 2", payload["count"])
	}
	if _, ok := payload["vehicles"].([]any); !ok {
		t.Errorf("vehicles key missing or not a plain slice: %T", payload["vehicles"])
	}
}

// A lookup failure from the underlying store comes back as an error payload
// for the model, not as a Go error or a panic.
func TestExecuteServiceHistoryStoreError(t *testing.T) {
	fleet := &fakeFleetReader{err: errors.New("vehicle not found")}
	exec := NewExecutor(fleet, &fakeInsightCreator{}, nil)

	payload := exec.Execute(context.Background(), ToolGetVehicleServiceHistory, map[string]any{
		"vehicle_id": uuid.New().String(),
	})
	if !IsErrorPayload(payload) {
		t.Fatalf("expected error payload, got %v", payload)
	}
}

func TestExecuteRejectsMissingAndMalformedIDs(t *testing.T) {
	exec := NewExecutor(&fakeFleetReader{}, &fakeInsightCreator{}, nil)

	cases := []struct {
		name string
		tool string
		args map[string]any
	}{
		{"missing vehicle_id", ToolGetExpectedServices, map[string]any{}},
		{"malformed vehicle_id", ToolGetVehicleServiceHistory, map[string]any{"vehicle_id": "not-a-uuid"}},
		{"malformed customer_id", ToolGetCustomerVehicles, map[string]any{"customer_id": "123"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := exec.Execute(context.Background(), tc.tool, tc.args)
			if !IsErrorPayload(payload) {
				t.Errorf("expected error payload, got %v", payload)
			}
		})
	}
}

func TestCreateInsightRequiresCoreFields(t *testing.T) {
	creator := &fakeInsightCreator{}
	exec := NewExecutor(&fakeFleetReader{}, creator, nil)

	payload := exec.Execute(context.Background(), ToolCreateInsight, map[string]any{
		"type":  "service_due",
		"title": "Oil change overdue",
		// priority and body missing
	})
	if !IsErrorPayload(payload) {
		t.Fatalf("expected error payload, got %v", payload)
	}
	if creator.calls != 0 {
		t.Errorf("Create called %d times, want 0", creator.calls)
	}
}

func TestCreateInsightSuccess(t *testing.T) {
	insightID := uuid.New()
	vehicleID := uuid.New()
	customerID := uuid.New()
	creator := &fakeInsightCreator{created: insightsrepo.Insight{ID: insightID}}
	exec := NewExecutor(&fakeFleetReader{}, creator, nil)

	payload := exec.Execute(context.Background(), ToolCreateInsight, map[string]any{
		"type":            "service_due",
		"priority":        "high",
		"title":           "Oil change overdue",
		"body":            "Vehicle is 5,000 miles past its oil change interval.",
		"vehicle_id":      vehicleID.String(),
		"customer_id":     customerID.String(),
		"action_type":     "schedule_service",
		"expires_in_days": float64(14),
	})

	if IsErrorPayload(payload) {
		t.Fatalf("unexpected error payload: %v", payload)
	}
	if payload["insight_id"] != insightID.String() {
		t.Errorf("insight_id = %v, want %s", payload["insight_id"], insightID)
	}
	if payload["created"] != true {
		t.Errorf("created = %v, want true", payload["created"])
	}

	in := creator.lastInput
	if in.VehicleID == nil || *in.VehicleID != vehicleID {
		t.Errorf("VehicleID = %v, want %s", in.VehicleID, vehicleID)
	}
	if in.ActionType == nil || *in.ActionType != "schedule_service" {
		t.Errorf("ActionType = %v, want schedule_service", in.ActionType)
	}
	if in.ExpiresAt == nil {
		t.Error("ExpiresAt not set from expires_in_days")
	}
	// With both references present the deep link points at the vehicle.
	if in.ActionURL == nil || *in.ActionURL != "/vehicles/"+vehicleID.String() {
		t.Errorf("ActionURL = %v, want /vehicles/%s", in.ActionURL, vehicleID)
	}
}

func TestCreateInsightCustomerLinkWithoutVehicle(t *testing.T) {
	customerID := uuid.New()
	creator := &fakeInsightCreator{created: insightsrepo.Insight{ID: uuid.New()}}
	exec := NewExecutor(&fakeFleetReader{}, creator, nil)

	payload := exec.Execute(context.Background(), ToolCreateInsight, map[string]any{
		"type":        "customer_health",
		"priority":    "medium",
		"title":       "Customer has not visited in a year",
		"body":        "Last service log entry is over twelve months old.",
		"customer_id": customerID.String(),
	})

	if IsErrorPayload(payload) {
		t.Fatalf("unexpected error payload: %v", payload)
	}
	in := creator.lastInput
	if in.ActionURL == nil || *in.ActionURL != "/customers/"+customerID.String() {
		t.Errorf("ActionURL = %v, want /customers/%s", in.ActionURL, customerID)
	}
}

func TestCreateInsightMalformedReference(t *testing.T) {
	creator := &fakeInsightCreator{}
	exec := NewExecutor(&fakeFleetReader{}, creator, nil)

	payload := exec.Execute(context.Background(), ToolCreateInsight, map[string]any{
		"type":       "anomaly",
		"priority":   "low",
		"title":      "t",
		"body":       "b",
		"vehicle_id": "garbage",
	})
	if !IsErrorPayload(payload) {
		t.Fatalf("expected error payload, got %v", payload)
	}
	if creator.calls != 0 {
		t.Errorf("Create called %d times, want 0", creator.calls)
	}
}

func TestCreateInsightStoreFailure(t *testing.T) {
	creator := &fakeInsightCreator{err: errors.New("insight type must be one of the known types")}
	exec := NewExecutor(&fakeFleetReader{}, creator, nil)

	payload := exec.Execute(context.Background(), ToolCreateInsight, map[string]any{
		"type":     "service_due",
		"priority": "high",
		"title":    "t",
		"body":     "b",
	})
	if !IsErrorPayload(payload) {
		t.Fatalf("expected error payload, got %v", payload)
	}
}

func TestIsErrorPayload(t *testing.T) {
	if !IsErrorPayload(errorPayload("boom")) {
		t.Error("errorPayload not recognized")
	}
	if IsErrorPayload(map[string]any{"vehicles": []any{}, "count": 0}) {
		t.Error("data payload misreported as error")
	}
}
