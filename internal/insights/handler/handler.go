package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shop_portal_backend/internal/insights/repository"
	"shop_portal_backend/internal/insights/service"
	"shop_portal_backend/internal/insights/transport"
	"shop_portal_backend/platform/httpkit"
)

// Handler handles HTTP requests for the insight dashboard.
type Handler struct {
	svc *service.Service
}

const (
	msgInvalidRequest = "invalid request"
	msgInvalidID      = "invalid insight ID"
)

// New creates a new insights handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// List retrieves active insights with optional filters.
// GET /api/v1/insights
func (h *Handler) List(c *gin.Context) {
	var req transport.ListInsightsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	items, total, err := h.svc.List(c.Request.Context(), repository.ListFilter{
		Type:           req.Type,
		Priority:       req.Priority,
		UnreadOnly:     req.UnreadOnly,
		IncludeExpired: req.IncludeExpired,
		Limit:          req.Limit,
		Offset:         req.Offset,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	limit := req.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}
	httpkit.OK(c, transport.ListInsightsResponse{
		Items:  transport.ToInsightResponses(items),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// GetByID retrieves a single insight.
// GET /api/v1/insights/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	result, err := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToInsightResponse(result))
}

// Summary returns unread and per-priority counts for dashboard badges.
// GET /api/v1/insights/summary
func (h *Handler) Summary(c *gin.Context) {
	unread, err := h.svc.CountUnread(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	byPriority, err := h.svc.CountsByPriority(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.SummaryResponse{Unread: unread, ByPriority: byPriority})
}

// MarkRead marks an insight as read. Idempotent.
// PATCH /api/v1/insights/:id/read
func (h *Handler) MarkRead(c *gin.Context) {
	h.transition(c, h.svc.MarkRead)
}

// MarkActioned marks an insight as actioned (implies read). Idempotent.
// PATCH /api/v1/insights/:id/actioned
func (h *Handler) MarkActioned(c *gin.Context) {
	h.transition(c, h.svc.MarkActioned)
}

// Dismiss removes an insight from active listings. Idempotent.
// PATCH /api/v1/insights/:id/dismiss
func (h *Handler) Dismiss(c *gin.Context) {
	h.transition(c, h.svc.Dismiss)
}

func (h *Handler) transition(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) (repository.Insight, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	result, err := fn(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToInsightResponse(result))
}
