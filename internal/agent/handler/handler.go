package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shop_portal_backend/internal/agent/repository"
	"shop_portal_backend/internal/agent/service"
	"shop_portal_backend/internal/agent/transport"
	"shop_portal_backend/platform/apperr"
	"shop_portal_backend/platform/httpkit"
	"shop_portal_backend/platform/validator"
)

// Handler handles HTTP requests for agent runs.
type Handler struct {
	orchestrator *service.Orchestrator
	repo         *repository.Repository
	val          *validator.Validator
}

const (
	msgInvalidRequest = "invalid request"
	msgInvalidRunID   = "invalid run ID"
)

// New creates a new agent handler.
func New(orchestrator *service.Orchestrator, repo *repository.Repository, val *validator.Validator) *Handler {
	return &Handler{orchestrator: orchestrator, repo: repo, val: val}
}

// Trigger starts an agent run synchronously and returns its result.
// A run already in progress yields 409 with success=false.
// POST /api/v1/agent/runs
func (h *Handler) Trigger(c *gin.Context) {
	var req transport.TriggerRunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		if err := h.val.Struct(req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
			return
		}
	}

	result, err := h.orchestrator.Run(c.Request.Context(), req.AgentType)
	if err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			httpkit.JSON(c, http.StatusConflict, result)
			return
		}
		// A failed run is still a fully recorded outcome; report it with
		// the partial counters.
		httpkit.JSON(c, http.StatusBadGateway, result)
		return
	}
	httpkit.OK(c, result)
}

// List retrieves agent runs, most recent first.
// GET /api/v1/agent/runs
func (h *Handler) List(c *gin.Context) {
	var req transport.ListRunsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	runs, err := h.repo.List(c.Request.Context(), repository.ListFilter{
		AgentType: req.AgentType,
		Status:    req.Status,
		Limit:     req.Limit,
		Offset:    req.Offset,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, runs)
}

// GetByID retrieves a single run.
// GET /api/v1/agent/runs/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRunID, nil)
		return
	}

	run, err := h.repo.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, run)
}

// Stats aggregates run outcomes over a trailing window (default 30 days).
// GET /api/v1/agent/runs/stats
func (h *Handler) Stats(c *gin.Context) {
	var req transport.StatsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	days := req.Days
	if days <= 0 || days > 365 {
		days = 30
	}

	stats, err := h.repo.StatsSince(c.Request.Context(), time.Now().AddDate(0, 0, -days))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.StatsResponse{WindowDays: days, Stats: stats})
}
