// Package insights provides the insight bounded context module: durable
// records of what the agent found noteworthy, with a dashboard lifecycle
// (read, actioned, dismissed).
package insights

import (
	"shop_portal_backend/internal/events"
	apphttp "shop_portal_backend/internal/http"
	"shop_portal_backend/internal/insights/handler"
	"shop_portal_backend/internal/insights/repository"
	"shop_portal_backend/internal/insights/service"
	"shop_portal_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the insights bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the insights module with all its dependencies.
func NewModule(pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)
	h := handler.New(svc)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "insights"
}

// Service returns the service layer for external use (the agent's
// create_insight tool writes through it).
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts insight routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/insights")
	group.GET("", m.handler.List)
	group.GET("/summary", m.handler.Summary)
	group.GET("/:id", m.handler.GetByID)
	group.PATCH("/:id/read", m.handler.MarkRead)
	group.PATCH("/:id/actioned", m.handler.MarkActioned)
	group.PATCH("/:id/dismiss", m.handler.Dismiss)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
