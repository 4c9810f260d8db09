// Package fleet provides the customer and vehicle bounded context module.
// It exposes read endpoints for customers, vehicles and service history,
// plus the expected-service maintenance projection.
package fleet

import (
	"shop_portal_backend/internal/fleet/handler"
	"shop_portal_backend/internal/fleet/repository"
	"shop_portal_backend/internal/fleet/service"
	apphttp "shop_portal_backend/internal/http"
	"shop_portal_backend/platform/logger"
	"shop_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the fleet bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.FleetRepository
}

// NewModule creates and initializes the fleet module with all its dependencies.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "fleet"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() repository.FleetRepository {
	return m.repo
}

// RegisterRoutes mounts fleet routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/customers", m.handler.ListCustomers)
	ctx.Protected.GET("/customers/:id", m.handler.GetCustomer)
	ctx.Protected.GET("/customers/:id/vehicles", m.handler.ListCustomerVehicles)
	ctx.Protected.GET("/vehicles", m.handler.ListVehicles)
	ctx.Protected.GET("/vehicles/:id", m.handler.GetVehicle)
	ctx.Protected.GET("/vehicles/:id/service-history", m.handler.ListServiceHistory)
	ctx.Protected.POST("/vehicles/:id/service-history", m.handler.CreateServiceLogEntry)
	ctx.Protected.GET("/vehicles/:id/expected-services", m.handler.ListExpectedServices)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
