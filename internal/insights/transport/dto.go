// Package transport defines request and response shapes for the insights API.
package transport

import (
	"encoding/json"
	"time"

	"shop_portal_backend/internal/insights/repository"

	"github.com/google/uuid"
)

// ListInsightsRequest carries query filters for the active-insight listing.
type ListInsightsRequest struct {
	Type           string `form:"type"`
	Priority       string `form:"priority"`
	UnreadOnly     bool   `form:"unread_only"`
	IncludeExpired bool   `form:"include_expired"`
	Limit          int    `form:"limit"`
	Offset         int    `form:"offset"`
}

// InsightResponse is the public shape of an insight.
type InsightResponse struct {
	ID          uuid.UUID       `json:"id"`
	Type        string          `json:"type"`
	Priority    string          `json:"priority"`
	Title       string          `json:"title"`
	Body        string          `json:"body"`
	CustomerID  *uuid.UUID      `json:"customer_id,omitempty"`
	VehicleID   *uuid.UUID      `json:"vehicle_id,omitempty"`
	ActionType  *string         `json:"action_type,omitempty"`
	ActionURL   *string         `json:"action_url,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	ReadAt      *time.Time      `json:"read_at,omitempty"`
	ActionedAt  *time.Time      `json:"actioned_at,omitempty"`
	DismissedAt *time.Time      `json:"dismissed_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
}

// ListInsightsResponse is the paginated listing payload.
type ListInsightsResponse struct {
	Items  []InsightResponse `json:"items"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// SummaryResponse carries the dashboard badge counts.
type SummaryResponse struct {
	Unread     int                       `json:"unread"`
	ByPriority repository.PriorityCounts `json:"by_priority"`
}

// ToInsightResponse converts a repository insight.
func ToInsightResponse(i repository.Insight) InsightResponse {
	return InsightResponse{
		ID:          i.ID,
		Type:        i.Type,
		Priority:    i.Priority,
		Title:       i.Title,
		Body:        i.Body,
		CustomerID:  i.CustomerID,
		VehicleID:   i.VehicleID,
		ActionType:  i.ActionType,
		ActionURL:   i.ActionURL,
		Metadata:    json.RawMessage(i.Metadata),
		ReadAt:      i.ReadAt,
		ActionedAt:  i.ActionedAt,
		DismissedAt: i.DismissedAt,
		CreatedAt:   i.CreatedAt,
		ExpiresAt:   i.ExpiresAt,
	}
}

// ToInsightResponses converts a slice of repository insights.
func ToInsightResponses(insights []repository.Insight) []InsightResponse {
	out := make([]InsightResponse, len(insights))
	for i, item := range insights {
		out[i] = ToInsightResponse(item)
	}
	return out
}
