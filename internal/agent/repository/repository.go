// Package repository persists agent run records: one row per orchestration
// attempt with status, accounting and error details.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shop_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opCreate   = "agent.repository.create_run"
	opComplete = "agent.repository.complete_run"
	opFail     = "agent.repository.fail_run"
	opGetByID  = "agent.repository.get_run"
	opList     = "agent.repository.list_runs"
	opStats    = "agent.repository.run_stats"
)

// Run statuses. A run starts running and ends completed or failed.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// AgentRun is one end-to-end execution record of the orchestration loop.
type AgentRun struct {
	ID              uuid.UUID  `json:"id"`
	AgentType       string     `json:"agent_type"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	Status          string     `json:"status"`
	InsightsCreated int        `json:"insights_created"`
	TokensUsed      *int       `json:"tokens_used,omitempty"`
	Cost            *float64   `json:"cost,omitempty"`
	ErrorMessage    *string    `json:"error_message,omitempty"`
}

// ListFilter narrows the run listing.
type ListFilter struct {
	AgentType string
	Status    string
	Limit     int
	Offset    int
}

// Stats aggregates runs over a trailing window.
type Stats struct {
	Completed     int     `json:"completed"`
	Failed        int     `json:"failed"`
	Running       int     `json:"running"`
	TotalInsights int     `json:"total_insights"`
	TotalTokens   int     `json:"total_tokens"`
	TotalCost     float64 `json:"total_cost"`
}

const runColumns = `id, agent_type, started_at, completed_at, status,
	insights_created, tokens_used, cost, error_message`

// Repository persists agent runs in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates an agent run repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new run in the running state.
func (r *Repository) Create(ctx context.Context, agentType string) (AgentRun, error) {
	if strings.TrimSpace(agentType) == "" {
		return AgentRun{}, apperr.Validation("agent type is required").WithOp(opCreate)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO agent_runs (agent_type, status)
		VALUES ($1, $2)
		RETURNING `+runColumns, agentType, StatusRunning)

	run, err := scanRun(row)
	if err != nil {
		return AgentRun{}, apperr.Wrap(apperr.KindInternal, "create agent run failed", err).WithOp(opCreate)
	}
	return run, nil
}

// Complete marks a run completed with its final accounting. Always sets
// completed_at.
func (r *Repository) Complete(ctx context.Context, id uuid.UUID, insightsCreated, tokensUsed int, cost float64) (AgentRun, error) {
	return r.finish(ctx, opComplete, id, StatusCompleted, insightsCreated, tokensUsed, cost, nil)
}

// Fail marks a run failed, preserving whatever partial accounting was
// accumulated. Always sets completed_at.
func (r *Repository) Fail(ctx context.Context, id uuid.UUID, insightsCreated, tokensUsed int, cost float64, message string) (AgentRun, error) {
	return r.finish(ctx, opFail, id, StatusFailed, insightsCreated, tokensUsed, cost, &message)
}

func (r *Repository) finish(ctx context.Context, op string, id uuid.UUID, status string, insightsCreated, tokensUsed int, cost float64, message *string) (AgentRun, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE agent_runs
		SET status = $2,
			completed_at = now(),
			insights_created = $3,
			tokens_used = $4,
			cost = $5,
			error_message = $6
		WHERE id = $1
		RETURNING `+runColumns,
		id, status, insightsCreated, tokensUsed, cost, message)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AgentRun{}, apperr.NotFound("agent run not found").WithOp(op)
		}
		return AgentRun{}, apperr.Wrap(apperr.KindInternal, "finish agent run failed", err).WithOp(op)
	}
	return run, nil
}

// GetByID fetches a single run.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (AgentRun, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM agent_runs WHERE id = $1`, id)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AgentRun{}, apperr.NotFound("agent run not found").WithOp(opGetByID)
		}
		return AgentRun{}, apperr.Wrap(apperr.KindInternal, "get agent run failed", err).WithOp(opGetByID)
	}
	return run, nil
}

// List returns runs most recent first, optionally filtered by agent type
// and status.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]AgentRun, error) {
	where := []string{"TRUE"}
	args := []any{}

	if f.AgentType != "" {
		args = append(args, f.AgentType)
		where = append(where, fmt.Sprintf("agent_type = $%d", len(args)))
	}
	if f.Status != "" {
		if f.Status != StatusRunning && f.Status != StatusCompleted && f.Status != StatusFailed {
			return nil, apperr.Validation("unknown run status: " + f.Status).WithOp(opList)
		}
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT `+runColumns+`
		FROM agent_runs
		WHERE %s
		ORDER BY started_at DESC
		LIMIT $%d OFFSET $%d`, strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list agent runs failed", err).WithOp(opList)
	}
	defer rows.Close()

	runs := make([]AgentRun, 0, limit)
	for rows.Next() {
		run, scanErr := scanRun(rows)
		if scanErr != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "scan agent run failed", scanErr).WithOp(opList)
		}
		runs = append(runs, run)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "iterate agent runs failed", rowsErr).WithOp(opList)
	}

	return runs, nil
}

// StatsSince aggregates run outcomes and accounting for runs started after
// the given time.
func (r *Repository) StatsSince(ctx context.Context, since time.Time) (Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COUNT(*) FILTER (WHERE status = 'running'),
			COALESCE(SUM(insights_created), 0),
			COALESCE(SUM(tokens_used), 0),
			COALESCE(SUM(cost), 0)
		FROM agent_runs
		WHERE started_at >= $1
	`, since).Scan(&s.Completed, &s.Failed, &s.Running, &s.TotalInsights, &s.TotalTokens, &s.TotalCost)
	if err != nil {
		return Stats{}, apperr.Wrap(apperr.KindInternal, "agent run stats failed", err).WithOp(opStats)
	}
	return s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (AgentRun, error) {
	var run AgentRun
	err := row.Scan(
		&run.ID, &run.AgentType, &run.StartedAt, &run.CompletedAt, &run.Status,
		&run.InsightsCreated, &run.TokensUsed, &run.Cost, &run.ErrorMessage,
	)
	return run, err
}
