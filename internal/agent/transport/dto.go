// Package transport defines request and response shapes for the agent API.
package transport

import (
	"shop_portal_backend/internal/agent/repository"
)

// TriggerRunRequest starts a manual agent run.
type TriggerRunRequest struct {
	AgentType string `json:"agent_type" validate:"omitempty,oneof=insights"`
}

// ListRunsRequest carries query filters for the run listing.
type ListRunsRequest struct {
	AgentType string `form:"agent_type"`
	Status    string `form:"status"`
	Limit     int    `form:"limit"`
	Offset    int    `form:"offset"`
}

// StatsRequest selects the trailing window for run statistics.
type StatsRequest struct {
	Days int `form:"days"`
}

// StatsResponse wraps the trailing-window aggregates.
type StatsResponse struct {
	WindowDays int              `json:"window_days"`
	Stats      repository.Stats `json:"stats"`
}
