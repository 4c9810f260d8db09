package service

import (
	"context"
	"testing"
	"time"

	"shop_portal_backend/internal/insights/repository"
	"shop_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

// memStore keeps insights in memory with the same lifecycle semantics the
// Postgres repository enforces: transition timestamps are set once and never
// overwritten, marking actioned implies read, and dismissed insights are
// excluded from listings and counts. Its clock only moves when a test calls
// tick, so a repeated transition that overwrote a timestamp would be visible.
type memStore struct {
	insights map[uuid.UUID]repository.Insight
	now      time.Time
}

func newMemStore() *memStore {
	return &memStore{
		insights: map[uuid.UUID]repository.Insight{},
		now:      time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) tick() { m.now = m.now.Add(time.Minute) }

func (m *memStore) Create(ctx context.Context, p repository.CreateParams) (repository.Insight, error) {
	insight := repository.Insight{
		ID:         uuid.New(),
		Type:       p.Type,
		Priority:   p.Priority,
		Title:      p.Title,
		Body:       p.Body,
		CustomerID: p.CustomerID,
		VehicleID:  p.VehicleID,
		ActionType: p.ActionType,
		ActionURL:  p.ActionURL,
		Metadata:   p.Metadata,
		CreatedAt:  m.now,
		ExpiresAt:  p.ExpiresAt,
	}
	m.insights[insight.ID] = insight
	return insight, nil
}

func (m *memStore) GetByID(ctx context.Context, id uuid.UUID) (repository.Insight, error) {
	insight, ok := m.insights[id]
	if !ok {
		return repository.Insight{}, apperr.NotFound("insight not found")
	}
	return insight, nil
}

func (m *memStore) List(ctx context.Context, f repository.ListFilter) ([]repository.Insight, int, error) {
	items := []repository.Insight{}
	for _, insight := range m.insights {
		if insight.DismissedAt != nil {
			continue
		}
		if !f.IncludeExpired && insight.ExpiresAt != nil && !insight.ExpiresAt.After(m.now) {
			continue
		}
		if f.Type != "" && insight.Type != f.Type {
			continue
		}
		if f.Priority != "" && insight.Priority != f.Priority {
			continue
		}
		if f.UnreadOnly && insight.ReadAt != nil {
			continue
		}
		items = append(items, insight)
	}
	return items, len(items), nil
}

func (m *memStore) MarkRead(ctx context.Context, id uuid.UUID) (repository.Insight, error) {
	insight, ok := m.insights[id]
	if !ok {
		return repository.Insight{}, apperr.NotFound("insight not found")
	}
	if insight.ReadAt == nil {
		at := m.now
		insight.ReadAt = &at
	}
	m.insights[id] = insight
	return insight, nil
}

func (m *memStore) MarkActioned(ctx context.Context, id uuid.UUID) (repository.Insight, error) {
	insight, ok := m.insights[id]
	if !ok {
		return repository.Insight{}, apperr.NotFound("insight not found")
	}
	if insight.ActionedAt == nil {
		at := m.now
		insight.ActionedAt = &at
	}
	if insight.ReadAt == nil {
		at := m.now
		insight.ReadAt = &at
	}
	m.insights[id] = insight
	return insight, nil
}

func (m *memStore) Dismiss(ctx context.Context, id uuid.UUID) (repository.Insight, error) {
	insight, ok := m.insights[id]
	if !ok {
		return repository.Insight{}, apperr.NotFound("insight not found")
	}
	if insight.DismissedAt == nil {
		at := m.now
		insight.DismissedAt = &at
	}
	m.insights[id] = insight
	return insight, nil
}

func (m *memStore) CountUnread(ctx context.Context) (int, error) {
	count := 0
	for _, insight := range m.insights {
		if insight.DismissedAt != nil || insight.ReadAt != nil {
			continue
		}
		if insight.ExpiresAt != nil && !insight.ExpiresAt.After(m.now) {
			continue
		}
		count++
	}
	return count, nil
}

func (m *memStore) CountsByPriority(ctx context.Context) (repository.PriorityCounts, error) {
	var counts repository.PriorityCounts
	for _, insight := range m.insights {
		if insight.DismissedAt != nil {
			continue
		}
		if insight.ExpiresAt != nil && !insight.ExpiresAt.After(m.now) {
			continue
		}
		switch insight.Priority {
		case repository.PriorityHigh:
			counts.High++
		case repository.PriorityMedium:
			counts.Medium++
		case repository.PriorityLow:
			counts.Low++
		}
	}
	return counts, nil
}

func createLifecycleInsight(t *testing.T, svc *Service, priority string) repository.Insight {
	t.Helper()
	insight, err := svc.Create(context.Background(), CreateInput{
		Type:     repository.TypeServiceDue,
		Priority: priority,
		Title:    "Oil change overdue",
		Body:     "Vehicle is 1,200 miles past its oil change interval.",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return insight
}

func TestMarkReadIsIdempotent(t *testing.T) {
	store := newMemStore()
	svc := New(store, nil, nil)
	ctx := context.Background()

	insight := createLifecycleInsight(t, svc, repository.PriorityHigh)

	first, err := svc.MarkRead(ctx, insight.ID)
	if err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if first.ReadAt == nil {
		t.Fatal("ReadAt not set after MarkRead")
	}

	store.tick()
	second, err := svc.MarkRead(ctx, insight.ID)
	if err != nil {
		t.Fatalf("repeated MarkRead failed: %v", err)
	}
	if !second.ReadAt.Equal(*first.ReadAt) {
		t.Errorf("repeated MarkRead moved ReadAt from %v to %v", first.ReadAt, second.ReadAt)
	}

	unread, err := svc.CountUnread(ctx)
	if err != nil {
		t.Fatalf("CountUnread failed: %v", err)
	}
	if unread != 0 {
		t.Errorf("unread count after MarkRead = %d, want 0", unread)
	}
}

func TestMarkActionedImpliesRead(t *testing.T) {
	store := newMemStore()
	svc := New(store, nil, nil)
	ctx := context.Background()

	insight := createLifecycleInsight(t, svc, repository.PriorityMedium)

	actioned, err := svc.MarkActioned(ctx, insight.ID)
	if err != nil {
		t.Fatalf("MarkActioned failed: %v", err)
	}
	if actioned.ActionedAt == nil {
		t.Fatal("ActionedAt not set after MarkActioned")
	}
	if actioned.ReadAt == nil {
		t.Fatal("ReadAt not set after MarkActioned")
	}

	store.tick()
	again, err := svc.MarkActioned(ctx, insight.ID)
	if err != nil {
		t.Fatalf("repeated MarkActioned failed: %v", err)
	}
	if !again.ActionedAt.Equal(*actioned.ActionedAt) {
		t.Errorf("repeated MarkActioned moved ActionedAt from %v to %v", actioned.ActionedAt, again.ActionedAt)
	}
	if !again.ReadAt.Equal(*actioned.ReadAt) {
		t.Errorf("repeated MarkActioned moved ReadAt from %v to %v", actioned.ReadAt, again.ReadAt)
	}
}

func TestMarkActionedAfterReadKeepsReadTimestamp(t *testing.T) {
	store := newMemStore()
	svc := New(store, nil, nil)
	ctx := context.Background()

	insight := createLifecycleInsight(t, svc, repository.PriorityLow)

	read, err := svc.MarkRead(ctx, insight.ID)
	if err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}

	store.tick()
	actioned, err := svc.MarkActioned(ctx, insight.ID)
	if err != nil {
		t.Fatalf("MarkActioned failed: %v", err)
	}
	if !actioned.ReadAt.Equal(*read.ReadAt) {
		t.Errorf("MarkActioned moved ReadAt from %v to %v", read.ReadAt, actioned.ReadAt)
	}
	if !actioned.ActionedAt.After(*actioned.ReadAt) {
		t.Errorf("ActionedAt %v not after ReadAt %v", actioned.ActionedAt, actioned.ReadAt)
	}
}

func TestDismissIsIdempotentAndExcludesFromListing(t *testing.T) {
	store := newMemStore()
	svc := New(store, nil, nil)
	ctx := context.Background()

	dismissed := createLifecycleInsight(t, svc, repository.PriorityHigh)
	kept := createLifecycleInsight(t, svc, repository.PriorityLow)

	first, err := svc.Dismiss(ctx, dismissed.ID)
	if err != nil {
		t.Fatalf("Dismiss failed: %v", err)
	}
	if first.DismissedAt == nil {
		t.Fatal("DismissedAt not set after Dismiss")
	}

	store.tick()
	second, err := svc.Dismiss(ctx, dismissed.ID)
	if err != nil {
		t.Fatalf("repeated Dismiss failed: %v", err)
	}
	if !second.DismissedAt.Equal(*first.DismissedAt) {
		t.Errorf("repeated Dismiss moved DismissedAt from %v to %v", first.DismissedAt, second.DismissedAt)
	}

	items, total, err := svc.List(ctx, repository.ListFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("List returned %d items (total %d), want 1", len(items), total)
	}
	if items[0].ID != kept.ID {
		t.Errorf("listed insight = %s, want %s", items[0].ID, kept.ID)
	}

	counts, err := svc.CountsByPriority(ctx)
	if err != nil {
		t.Fatalf("CountsByPriority failed: %v", err)
	}
	if counts.High != 0 || counts.Low != 1 {
		t.Errorf("priority counts after dismiss = %+v, want high 0 low 1", counts)
	}
}

func TestTransitionUnknownInsightIsNotFound(t *testing.T) {
	store := newMemStore()
	svc := New(store, nil, nil)
	ctx := context.Background()

	_, err := svc.Dismiss(ctx, uuid.New())
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Errorf("Dismiss unknown insight error kind = %v, want not found", apperr.GetKind(err))
	}
}
