// Package service applies insight business rules on top of the repository:
// input validation and clamping, lifecycle transitions and domain event
// publication for new insights.
package service

import (
	"context"
	"encoding/json"
	"time"

	"shop_portal_backend/internal/events"
	"shop_portal_backend/internal/insights/repository"
	"shop_portal_backend/platform/apperr"
	"shop_portal_backend/platform/logger"

	"github.com/google/uuid"
)

const opCreate = "insights.service.create"

// maxTitleLen keeps agent-authored titles presentable on the dashboard.
const maxTitleLen = 200

// Store is the subset of the repository the service needs.
type Store interface {
	Create(ctx context.Context, p repository.CreateParams) (repository.Insight, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Insight, error)
	List(ctx context.Context, f repository.ListFilter) ([]repository.Insight, int, error)
	MarkRead(ctx context.Context, id uuid.UUID) (repository.Insight, error)
	MarkActioned(ctx context.Context, id uuid.UUID) (repository.Insight, error)
	Dismiss(ctx context.Context, id uuid.UUID) (repository.Insight, error)
	CountUnread(ctx context.Context) (int, error)
	CountsByPriority(ctx context.Context) (repository.PriorityCounts, error)
}

// Service coordinates insight persistence and event publication.
type Service struct {
	store Store
	bus   events.Bus
	log   *logger.Logger
}

// New creates an insights service.
func New(store Store, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, bus: bus, log: log}
}

// CreateInput is the service-level shape for a new insight.
type CreateInput struct {
	Type       string
	Priority   string
	Title      string
	Body       string
	CustomerID *uuid.UUID
	VehicleID  *uuid.UUID
	ActionType *string
	ActionURL  *string
	Metadata   map[string]any
	ExpiresAt  *time.Time
}

// Create validates and persists an insight, then publishes InsightCreated.
func (s *Service) Create(ctx context.Context, in CreateInput) (repository.Insight, error) {
	if !repository.ValidType(in.Type) {
		return repository.Insight{}, apperr.Validation("unknown insight type: " + in.Type).WithOp(opCreate)
	}
	if !repository.ValidPriority(in.Priority) {
		return repository.Insight{}, apperr.Validation("unknown insight priority: " + in.Priority).WithOp(opCreate)
	}

	title := in.Title
	if runes := []rune(title); len(runes) > maxTitleLen {
		title = string(runes[:maxTitleLen])
	}

	var metadata []byte
	if len(in.Metadata) > 0 {
		encoded, err := json.Marshal(in.Metadata)
		if err != nil {
			return repository.Insight{}, apperr.Validation("metadata is not serializable").WithOp(opCreate)
		}
		metadata = encoded
	}

	insight, err := s.store.Create(ctx, repository.CreateParams{
		Type:       in.Type,
		Priority:   in.Priority,
		Title:      title,
		Body:       in.Body,
		CustomerID: in.CustomerID,
		VehicleID:  in.VehicleID,
		ActionType: in.ActionType,
		ActionURL:  in.ActionURL,
		Metadata:   metadata,
		ExpiresAt:  in.ExpiresAt,
	})
	if err != nil {
		return repository.Insight{}, err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.InsightCreated{
			BaseEvent:  events.NewBaseEvent(),
			InsightID:  insight.ID,
			Type:       insight.Type,
			Priority:   insight.Priority,
			Title:      insight.Title,
			VehicleID:  insight.VehicleID,
			CustomerID: insight.CustomerID,
		})
	}

	return insight, nil
}

// GetByID fetches a single insight.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (repository.Insight, error) {
	return s.store.GetByID(ctx, id)
}

// List returns active insights for the dashboard.
func (s *Service) List(ctx context.Context, f repository.ListFilter) ([]repository.Insight, int, error) {
	return s.store.List(ctx, f)
}

// MarkRead transitions an insight to read. Safe to repeat.
func (s *Service) MarkRead(ctx context.Context, id uuid.UUID) (repository.Insight, error) {
	return s.store.MarkRead(ctx, id)
}

// MarkActioned transitions an insight to actioned (implies read).
func (s *Service) MarkActioned(ctx context.Context, id uuid.UUID) (repository.Insight, error) {
	return s.store.MarkActioned(ctx, id)
}

// Dismiss removes an insight from active listings.
func (s *Service) Dismiss(ctx context.Context, id uuid.UUID) (repository.Insight, error) {
	return s.store.Dismiss(ctx, id)
}

// CountUnread returns the active unread count.
func (s *Service) CountUnread(ctx context.Context) (int, error) {
	return s.store.CountUnread(ctx)
}

// CountsByPriority returns active counts per priority.
func (s *Service) CountsByPriority(ctx context.Context) (repository.PriorityCounts, error) {
	return s.store.CountsByPriority(ctx)
}
