// Package repository persists insights produced by the agent and serves the
// dashboard listing queries.
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
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const (
	opCreate           = "insights.repository.create"
	opGetByID          = "insights.repository.get_by_id"
	opList             = "insights.repository.list"
	opMarkRead         = "insights.repository.mark_read"
	opMarkActioned     = "insights.repository.mark_actioned"
	opDismiss          = "insights.repository.dismiss"
	opCountUnread      = "insights.repository.count_unread"
	opCountsByPriority = "insights.repository.counts_by_priority"
)

// Insight types the agent may produce.
const (
	TypeServiceDue     = "service_due"
	TypeCustomerHealth = "customer_health"
	TypeRevenue        = "revenue"
	TypeAnomaly        = "anomaly"
	TypeDigest         = "digest"
)

// Priorities, most urgent first.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// ValidType reports whether t is a known insight type.
func ValidType(t string) bool {
	switch t {
	case TypeServiceDue, TypeCustomerHealth, TypeRevenue, TypeAnomaly, TypeDigest:
		return true
	}
	return false
}

// ValidPriority reports whether p is a known priority.
func ValidPriority(p string) bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Insight is a durable record of something the agent found noteworthy.
type Insight struct {
	ID          uuid.UUID  `json:"id"`
	Type        string     `json:"type"`
	Priority    string     `json:"priority"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	CustomerID  *uuid.UUID `json:"customer_id,omitempty"`
	VehicleID   *uuid.UUID `json:"vehicle_id,omitempty"`
	ActionType  *string    `json:"action_type,omitempty"`
	ActionURL   *string    `json:"action_url,omitempty"`
	Metadata    []byte     `json:"metadata,omitempty"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	ActionedAt  *time.Time `json:"actioned_at,omitempty"`
	DismissedAt *time.Time `json:"dismissed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// CreateParams holds the fields for a new insight. Creation is append-only;
// lifecycle timestamps start unset.
type CreateParams struct {
	Type       string
	Priority   string
	Title      string
	Body       string
	CustomerID *uuid.UUID
	VehicleID  *uuid.UUID
	ActionType *string
	ActionURL  *string
	Metadata   []byte
	ExpiresAt  *time.Time
}

// ListFilter narrows the active-insight listing.
type ListFilter struct {
	Type           string
	Priority       string
	UnreadOnly     bool
	IncludeExpired bool
	Limit          int
	Offset         int
}

// PriorityCounts are the active insight counts per priority.
type PriorityCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

const insightColumns = `id, type, priority, title, body, customer_id, vehicle_id,
	action_type, action_url, metadata, read_at, actioned_at, dismissed_at,
	created_at, expires_at`

// Repository persists insights in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates an insight repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new insight.
func (r *Repository) Create(ctx context.Context, p CreateParams) (Insight, error) {
	if !ValidType(p.Type) {
		return Insight{}, apperr.Validation("unknown insight type: " + p.Type).WithOp(opCreate)
	}
	if !ValidPriority(p.Priority) {
		return Insight{}, apperr.Validation("unknown insight priority: " + p.Priority).WithOp(opCreate)
	}
	if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Body) == "" {
		return Insight{}, apperr.Validation("title and body are required").WithOp(opCreate)
	}

	var metadata any
	if len(p.Metadata) > 0 {
		metadata = p.Metadata
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO insights (type, priority, title, body, customer_id, vehicle_id,
			action_type, action_url, metadata, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+insightColumns,
		p.Type, p.Priority, p.Title, p.Body, p.CustomerID, p.VehicleID,
		p.ActionType, p.ActionURL, metadata, p.ExpiresAt)

	insight, err := scanInsight(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return Insight{}, apperr.Validation("referenced customer or vehicle does not exist").WithOp(opCreate)
		}
		return Insight{}, apperr.Wrap(apperr.KindInternal, "create insight failed", err).WithOp(opCreate)
	}
	return insight, nil
}

// GetByID fetches a single insight.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Insight, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+insightColumns+` FROM insights WHERE id = $1`, id)
	insight, err := scanInsight(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Insight{}, apperr.NotFound("insight not found").WithOp(opGetByID)
		}
		return Insight{}, apperr.Wrap(apperr.KindInternal, "get insight failed", err).WithOp(opGetByID)
	}
	return insight, nil
}

// List returns active insights ordered by priority (high first) then recency.
// Dismissed insights are always excluded; expired ones unless requested.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]Insight, int, error) {
	where := []string{"dismissed_at IS NULL"}
	args := []any{}

	if !f.IncludeExpired {
		where = append(where, "(expires_at IS NULL OR expires_at > now())")
	}
	if f.Type != "" {
		if !ValidType(f.Type) {
			return nil, 0, apperr.Validation("unknown insight type: " + f.Type).WithOp(opList)
		}
		args = append(args, f.Type)
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	if f.Priority != "" {
		if !ValidPriority(f.Priority) {
			return nil, 0, apperr.Validation("unknown insight priority: " + f.Priority).WithOp(opList)
		}
		args = append(args, f.Priority)
		where = append(where, fmt.Sprintf("priority = $%d", len(args)))
	}
	if f.UnreadOnly {
		where = append(where, "read_at IS NULL")
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM insights WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "count insights failed", err).WithOp(opList)
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
		SELECT `+insightColumns+`
		FROM insights
		WHERE %s
		ORDER BY CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END,
			created_at DESC
		LIMIT $%d OFFSET $%d`, whereClause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "list insights failed", err).WithOp(opList)
	}
	defer rows.Close()

	items := make([]Insight, 0, limit)
	for rows.Next() {
		insight, scanErr := scanInsight(rows)
		if scanErr != nil {
			return nil, 0, apperr.Wrap(apperr.KindInternal, "scan insight failed", scanErr).WithOp(opList)
		}
		items = append(items, insight)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "iterate insights failed", rowsErr).WithOp(opList)
	}

	return items, total, nil
}

// MarkRead sets read_at if unset. Repeated calls are no-ops.
func (r *Repository) MarkRead(ctx context.Context, id uuid.UUID) (Insight, error) {
	return r.transition(ctx, opMarkRead, `
		UPDATE insights SET read_at = COALESCE(read_at, now())
		WHERE id = $1
		RETURNING `+insightColumns, id)
}

// MarkActioned sets actioned_at if unset and implies read.
func (r *Repository) MarkActioned(ctx context.Context, id uuid.UUID) (Insight, error) {
	return r.transition(ctx, opMarkActioned, `
		UPDATE insights SET
			actioned_at = COALESCE(actioned_at, now()),
			read_at = COALESCE(read_at, now())
		WHERE id = $1
		RETURNING `+insightColumns, id)
}

// Dismiss sets dismissed_at if unset, removing the insight from active
// listings. Repeated calls are no-ops.
func (r *Repository) Dismiss(ctx context.Context, id uuid.UUID) (Insight, error) {
	return r.transition(ctx, opDismiss, `
		UPDATE insights SET dismissed_at = COALESCE(dismissed_at, now())
		WHERE id = $1
		RETURNING `+insightColumns, id)
}

func (r *Repository) transition(ctx context.Context, op, query string, id uuid.UUID) (Insight, error) {
	row := r.pool.QueryRow(ctx, query, id)
	insight, err := scanInsight(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Insight{}, apperr.NotFound("insight not found").WithOp(op)
		}
		return Insight{}, apperr.Wrap(apperr.KindInternal, "insight transition failed", err).WithOp(op)
	}
	return insight, nil
}

// CountUnread returns the number of active unread insights.
func (r *Repository) CountUnread(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM insights
		WHERE dismissed_at IS NULL
		  AND read_at IS NULL
		  AND (expires_at IS NULL OR expires_at > now())
	`).Scan(&count)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, "count unread insights failed", err).WithOp(opCountUnread)
	}
	return count, nil
}

// CountsByPriority returns active insight counts per priority band. The three
// counts run concurrently on the pool.
func (r *Repository) CountsByPriority(ctx context.Context) (PriorityCounts, error) {
	var counts PriorityCounts
	g, gctx := errgroup.WithContext(ctx)

	countFor := func(priority string, dest *int) func() error {
		return func() error {
			return r.pool.QueryRow(gctx, `
				SELECT COUNT(*) FROM insights
				WHERE dismissed_at IS NULL
				  AND priority = $1
				  AND (expires_at IS NULL OR expires_at > now())
			`, priority).Scan(dest)
		}
	}

	g.Go(countFor(PriorityHigh, &counts.High))
	g.Go(countFor(PriorityMedium, &counts.Medium))
	g.Go(countFor(PriorityLow, &counts.Low))

	if err := g.Wait(); err != nil {
		return PriorityCounts{}, apperr.Wrap(apperr.KindInternal, "count insights by priority failed", err).WithOp(opCountsByPriority)
	}
	return counts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInsight(row rowScanner) (Insight, error) {
	var i Insight
	err := row.Scan(
		&i.ID, &i.Type, &i.Priority, &i.Title, &i.Body, &i.CustomerID,
		&i.VehicleID, &i.ActionType, &i.ActionURL, &i.Metadata, &i.ReadAt,
		&i.ActionedAt, &i.DismissedAt, &i.CreatedAt, &i.ExpiresAt,
	)
	return i, err
}
