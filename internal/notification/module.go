// Package notification pushes domain events to connected operator dashboards
// over Server-Sent Events.
package notification

import (
	"context"

	"shop_portal_backend/internal/events"
	apphttp "shop_portal_backend/internal/http"
	"shop_portal_backend/internal/notification/sse"
	"shop_portal_backend/platform/httpkit"
	"shop_portal_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Module is the notification bounded context module implementing http.Module.
type Module struct {
	sse *sse.Service
	log *logger.Logger
}

// NewModule creates the notification module.
func NewModule(log *logger.Logger) *Module {
	return &Module{
		sse: sse.New(log),
		log: log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// SSE returns the SSE service.
func (m *Module) SSE() *sse.Service {
	return m.sse
}

// RegisterHandlers subscribes to the domain events pushed to dashboards.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.InsightCreated{}.EventName(), m)
	bus.Subscribe(events.AgentRunFinished{}.EventName(), m)
}

// Handle routes events to the SSE broadcast.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.InsightCreated:
		m.sse.Broadcast(sse.Event{Type: sse.EventInsightCreated, Data: e})
	case events.AgentRunFinished:
		m.sse.Broadcast(sse.Event{Type: sse.EventAgentRunFinished, Data: e})
	}
	return nil
}

// RegisterRoutes mounts the SSE stream endpoint. Auth middleware already ran
// on the protected group; the handler only needs the user ID.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/events", m.sse.Handler(func(c *gin.Context) (uuid.UUID, bool) {
		identity := httpkit.MustGetIdentity(c)
		if identity == nil {
			return uuid.Nil, false
		}
		return identity.UserID(), true
	}))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
