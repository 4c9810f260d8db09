// Package events re-exports the platform event bus and defines the domain
// events exchanged between modules.
package events

import (
	"time"

	platformevents "shop_portal_backend/platform/events"
	"shop_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// Re-exports so modules only import internal/events.
type (
	Event       = platformevents.Event
	BaseEvent   = platformevents.BaseEvent
	Handler     = platformevents.Handler
	HandlerFunc = platformevents.HandlerFunc
	Bus         = platformevents.Bus
	InMemoryBus = platformevents.InMemoryBus
)

// NewBaseEvent creates a new base event with the current timestamp.
func NewBaseEvent() BaseEvent {
	return platformevents.NewBaseEvent()
}

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}

// InsightCreated is published whenever the agent writes a new insight.
type InsightCreated struct {
	BaseEvent
	InsightID  uuid.UUID  `json:"insightId"`
	Type       string     `json:"type"`
	Priority   string     `json:"priority"`
	Title      string     `json:"title"`
	VehicleID  *uuid.UUID `json:"vehicleId,omitempty"`
	CustomerID *uuid.UUID `json:"customerId,omitempty"`
}

// EventName returns the unique event identifier.
func (InsightCreated) EventName() string { return "insights.created" }

// AgentRunFinished is published when an orchestration run reaches a terminal
// state, successful or not.
type AgentRunFinished struct {
	BaseEvent
	RunID           uuid.UUID `json:"runId"`
	AgentType       string    `json:"agentType"`
	Status          string    `json:"status"`
	InsightsCreated int       `json:"insightsCreated"`
	TokensUsed      int       `json:"tokensUsed"`
	FinishedAt      time.Time `json:"finishedAt"`
}

// EventName returns the unique event identifier.
func (AgentRunFinished) EventName() string { return "agent.run.finished" }
