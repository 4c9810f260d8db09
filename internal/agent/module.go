// Package agent provides the autonomous insight engine bounded context
// module: the Gemini-driven reasoning loop, its tool executor, the run store
// and the trigger/query HTTP surface.
package agent

import (
	"context"

	"shop_portal_backend/internal/agent/handler"
	"shop_portal_backend/internal/agent/repository"
	"shop_portal_backend/internal/agent/service"
	"shop_portal_backend/internal/events"
	apphttp "shop_portal_backend/internal/http"
	"shop_portal_backend/platform/ai/gemini"
	"shop_portal_backend/platform/config"
	"shop_portal_backend/platform/logger"
	"shop_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the agent bounded context module implementing http.Module.
type Module struct {
	handler      *handler.Handler
	orchestrator *service.Orchestrator
	repo         *repository.Repository
}

// NewModule creates and initializes the agent module. Returns an error when
// the Gemini client cannot be constructed.
func NewModule(ctx context.Context, pool *pgxpool.Pool, fleet service.FleetReader, insights service.InsightCreator, bus events.Bus, cfg config.AIConfig, val *validator.Validator, log *logger.Logger) (*Module, error) {
	chat, err := gemini.NewClient(ctx, gemini.Config{
		APIKey: cfg.GetGeminiAPIKey(),
		Model:  cfg.GetGeminiModel(),
	})
	if err != nil {
		return nil, err
	}

	repo := repository.New(pool)
	executor := service.NewExecutor(fleet, insights, log)
	orchestrator := service.NewOrchestrator(chat, executor, repo, bus, cfg, log)
	h := handler.New(orchestrator, repo, val)

	return &Module{
		handler:      h,
		orchestrator: orchestrator,
		repo:         repo,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "agent"
}

// Orchestrator returns the reasoning loop for the scheduler worker.
func (m *Module) Orchestrator() *service.Orchestrator {
	return m.orchestrator
}

// Repository returns the run store.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts agent routes on the provided router context. The
// manual trigger sits behind the stricter trigger rate limiter.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/agent")
	group.POST("/runs", ctx.TriggerRateLimiter.RateLimit(), m.handler.Trigger)
	group.GET("/runs", m.handler.List)
	group.GET("/runs/stats", m.handler.Stats)
	group.GET("/runs/:id", m.handler.GetByID)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
