package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	fleetrepo "shop_portal_backend/internal/fleet/repository"
	insightsrepo "shop_portal_backend/internal/insights/repository"
	insightssvc "shop_portal_backend/internal/insights/service"
	"shop_portal_backend/internal/maintenance"
	"shop_portal_backend/platform/logger"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

// Tool names form a closed set. Dispatch is a total switch; an unknown name
// is an error payload, never a panic.
const (
	ToolGetAllVehicles           = "get_all_vehicles"
	ToolGetVehicleServiceHistory = "get_vehicle_service_history"
	ToolGetExpectedServices      = "get_expected_services"
	ToolGetAllCustomers          = "get_all_customers"
	ToolGetCustomerVehicles      = "get_customer_vehicles"
	ToolCreateInsight            = "create_insight"
)

// FleetReader is the fleet read surface the tools need.
type FleetReader interface {
	ListVehicles(ctx context.Context) ([]fleetrepo.Vehicle, error)
	ListCustomers(ctx context.Context) ([]fleetrepo.Customer, error)
	ListVehiclesByCustomer(ctx context.Context, customerID uuid.UUID) ([]fleetrepo.Vehicle, error)
	ListServiceHistory(ctx context.Context, vehicleID uuid.UUID) ([]fleetrepo.ServiceLogEntry, error)
	ExpectedServices(ctx context.Context, vehicleID uuid.UUID) ([]maintenance.ExpectedService, error)
}

// InsightCreator writes insights on behalf of the model.
type InsightCreator interface {
	Create(ctx context.Context, in insightssvc.CreateInput) (insightsrepo.Insight, error)
}

// Executor dispatches model-requested tool calls against the fleet read
// surface and the insight store. It is stateless and designed for one caller
// at a time; the orchestrator executes calls sequentially.
type Executor struct {
	fleet    FleetReader
	insights InsightCreator
	log      *logger.Logger
}

// NewExecutor creates a tool executor.
func NewExecutor(fleet FleetReader, insights InsightCreator, log *logger.Logger) *Executor {
	return &Executor{fleet: fleet, insights: insights, log: log}
}

// Declarations returns the function schemas advertised to the model.
func Declarations() []*genai.FunctionDeclaration {
	vehicleIDParam := map[string]*genai.Schema{
		"vehicle_id": {Type: genai.TypeString, Description: "UUID of the vehicle"},
	}
	customerIDParam := map[string]*genai.Schema{
		"customer_id": {Type: genai.TypeString, Description: "UUID of the customer"},
	}

	return []*genai.FunctionDeclaration{
		{
			Name:        ToolGetAllVehicles,
			Description: "List every vehicle in the shop's records, including owner name, year, make, model and current mileage.",
			Parameters:  &genai.Schema{Type: genai.TypeObject, Properties: map[string]*genai.Schema{}},
		},
		{
			Name:        ToolGetVehicleServiceHistory,
			Description: "List the service history for one vehicle, most recent first.",
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: vehicleIDParam,
				Required:   []string{"vehicle_id"},
			},
		},
		{
			Name:        ToolGetExpectedServices,
			Description: "Compute which maintenance services are overdue, due soon or upcoming for one vehicle, based on its class, mileage and service history.",
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: vehicleIDParam,
				Required:   []string{"vehicle_id"},
			},
		},
		{
			Name:        ToolGetAllCustomers,
			Description: "List every customer in the shop's records.",
			Parameters:  &genai.Schema{Type: genai.TypeObject, Properties: map[string]*genai.Schema{}},
		},
		{
			Name:        ToolGetCustomerVehicles,
			Description: "List the vehicles owned by one customer.",
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: customerIDParam,
				Required:   []string{"customer_id"},
			},
		},
		{
			Name:        ToolCreateInsight,
			Description: "Record an insight for the shop staff. Use this once per distinct finding worth acting on.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"type": {
						Type:        genai.TypeString,
						Description: "One of: service_due, customer_health, revenue, anomaly, digest",
						Enum:        []string{"service_due", "customer_health", "revenue", "anomaly", "digest"},
					},
					"priority": {
						Type:        genai.TypeString,
						Description: "One of: high, medium, low",
						Enum:        []string{"high", "medium", "low"},
					},
					"title":       {Type: genai.TypeString, Description: "Short headline for the insight"},
					"body":        {Type: genai.TypeString, Description: "Full explanation with the supporting numbers"},
					"customer_id": {Type: genai.TypeString, Description: "UUID of the related customer, if any"},
					"vehicle_id":  {Type: genai.TypeString, Description: "UUID of the related vehicle, if any"},
					"action_type": {Type: genai.TypeString, Description: "Suggested follow-up action, e.g. schedule_service or contact_customer"},
					"expires_in_days": {
						Type:        genai.TypeInteger,
						Description: "Days until the insight stops being relevant; omit for no expiry",
					},
				},
				Required: []string{"type", "priority", "title", "body"},
			},
		},
	}
}

// IsErrorPayload reports whether a tool result carries an error instead of
// data.
func IsErrorPayload(payload map[string]any) bool {
	_, ok := payload["error"]
	return ok
}

// Execute runs one tool call and returns a JSON-serializable payload. It
// never returns an error to its caller: every failure, including an unknown
// tool name, comes back as an {"error": ...} payload handed to the model.
func (e *Executor) Execute(ctx context.Context, name string, args map[string]any) map[string]any {
	start := time.Now()
	payload := e.dispatch(ctx, name, args)
	if e.log != nil {
		e.log.ToolCall(name, !IsErrorPayload(payload), float64(time.Since(start).Milliseconds()))
	}
	return payload
}

func (e *Executor) dispatch(ctx context.Context, name string, args map[string]any) map[string]any {
	switch name {
	case ToolGetAllVehicles:
		return e.getAllVehicles(ctx)
	case ToolGetVehicleServiceHistory:
		return e.getVehicleServiceHistory(ctx, args)
	case ToolGetExpectedServices:
		return e.getExpectedServices(ctx, args)
	case ToolGetAllCustomers:
		return e.getAllCustomers(ctx)
	case ToolGetCustomerVehicles:
		return e.getCustomerVehicles(ctx, args)
	case ToolCreateInsight:
		return e.createInsight(ctx, args)
	default:
		return errorPayload("unknown tool: " + name)
	}
}

func (e *Executor) getAllVehicles(ctx context.Context) map[string]any {
	vehicles, err := e.fleet.ListVehicles(ctx)
	if err != nil {
		return errorPayload("list vehicles failed: " + err.Error())
	}
	return listPayload("vehicles", vehicles)
}

func (e *Executor) getVehicleServiceHistory(ctx context.Context, args map[string]any) map[string]any {
	vehicleID, err := uuidArg(args, "vehicle_id")
	if err != nil {
		return errorPayload(err.Error())
	}
	history, err := e.fleet.ListServiceHistory(ctx, vehicleID)
	if err != nil {
		return errorPayload("list service history failed: " + err.Error())
	}
	return listPayload("service_history", history)
}

func (e *Executor) getExpectedServices(ctx context.Context, args map[string]any) map[string]any {
	vehicleID, err := uuidArg(args, "vehicle_id")
	if err != nil {
		return errorPayload(err.Error())
	}
	services, err := e.fleet.ExpectedServices(ctx, vehicleID)
	if err != nil {
		return errorPayload("compute expected services failed: " + err.Error())
	}
	return listPayload("expected_services", services)
}

func (e *Executor) getAllCustomers(ctx context.Context) map[string]any {
	customers, err := e.fleet.ListCustomers(ctx)
	if err != nil {
		return errorPayload("list customers failed: " + err.Error())
	}
	return listPayload("customers", customers)
}

func (e *Executor) getCustomerVehicles(ctx context.Context, args map[string]any) map[string]any {
	customerID, err := uuidArg(args, "customer_id")
	if err != nil {
		return errorPayload(err.Error())
	}
	vehicles, err := e.fleet.ListVehiclesByCustomer(ctx, customerID)
	if err != nil {
		return errorPayload("list customer vehicles failed: " + err.Error())
	}
	return listPayload("vehicles", vehicles)
}

func (e *Executor) createInsight(ctx context.Context, args map[string]any) map[string]any {
	in := insightssvc.CreateInput{
		Type:     stringArg(args, "type"),
		Priority: stringArg(args, "priority"),
		Title:    stringArg(args, "title"),
		Body:     stringArg(args, "body"),
	}
	if in.Type == "" || in.Priority == "" || in.Title == "" || in.Body == "" {
		return errorPayload("type, priority, title and body are required")
	}

	if raw := stringArg(args, "customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return errorPayload("invalid customer_id: " + raw)
		}
		in.CustomerID = &id
	}
	if raw := stringArg(args, "vehicle_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return errorPayload("invalid vehicle_id: " + raw)
		}
		in.VehicleID = &id
	}
	if raw := stringArg(args, "action_type"); raw != "" {
		in.ActionType = &raw
	}
	if days, ok := intArg(args, "expires_in_days"); ok && days > 0 {
		expires := time.Now().AddDate(0, 0, days)
		in.ExpiresAt = &expires
	}

	// Best-effort deep link for the dashboard, from whichever reference
	// is present.
	if in.VehicleID != nil {
		url := "/vehicles/" + in.VehicleID.String()
		in.ActionURL = &url
	} else if in.CustomerID != nil {
		url := "/customers/" + in.CustomerID.String()
		in.ActionURL = &url
	}

	insight, err := e.insights.Create(ctx, in)
	if err != nil {
		return errorPayload("create insight failed: " + err.Error())
	}

	return map[string]any{
		"insight_id": insight.ID.String(),
		"created":    true,
	}
}

func errorPayload(message string) map[string]any {
	return map[string]any{"error": message}
}

// listPayload wraps a slice result under a named key with a count, converted
// through JSON so the payload only contains plain types.
func listPayload(key string, v any) map[string]any {
	encoded, err := json.Marshal(v)
	if err != nil {
		return errorPayload("encode result failed: " + err.Error())
	}
	var decoded []any
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		return errorPayload("encode result failed: " + err.Error())
	}
	return map[string]any{key: decoded, "count": len(decoded)}
}

func stringArg(args map[string]any, key string) string {
	value, _ := args[key].(string)
	return value
}

func uuidArg(args map[string]any, key string) (uuid.UUID, error) {
	raw := stringArg(args, key)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%s is required", key)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %s", key, raw)
	}
	return id, nil
}

func intArg(args map[string]any, key string) (int, bool) {
	switch value := args[key].(type) {
	case float64:
		return int(value), true
	case int:
		return value, true
	case json.Number:
		parsed, err := value.Int64()
		if err != nil {
			return 0, false
		}
		return int(parsed), true
	}
	return 0, false
}
