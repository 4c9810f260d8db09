package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"shop_portal_backend/internal/agent/repository"
	insightsrepo "shop_portal_backend/internal/insights/repository"
	"shop_portal_backend/platform/ai/gemini"
	"shop_portal_backend/platform/apperr"
	"shop_portal_backend/platform/logger"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

type fakeAIConfig struct {
	maxIterations int
}

func (f fakeAIConfig) GetGeminiAPIKey() string { return "test-key" }

func (f fakeAIConfig) GetGeminiModel() string { return "gemini-2.5-flash" }

func (f fakeAIConfig) GetAgentMaxIterations() int { return f.maxIterations }

func (f fakeAIConfig) GetAgentMaxOutputTokens() int { return 1024 }

func (f fakeAIConfig) IsAgentEnabled() bool { return true }

// fakeChat replays a scripted sequence of turns. After the script runs out it
// keeps returning the last turn, which lets the iteration-cap test script a
// single endlessly-tool-calling response.
type fakeChat struct {
	turns []fakeTurn
	calls int

	// entered and release, when set, turn the first Chat call into a
	// rendezvous point for the concurrency test.
	entered chan struct{}
	release chan struct{}
}

type fakeTurn struct {
	resp *gemini.ChatResponse
	err  error
}

func (f *fakeChat) Chat(ctx context.Context, req *gemini.ChatRequest) (*gemini.ChatResponse, error) {
	if f.calls == 0 && f.entered != nil {
		close(f.entered)
		<-f.release
	}
	idx := f.calls
	if idx >= len(f.turns) {
		idx = len(f.turns) - 1
	}
	f.calls++
	turn := f.turns[idx]
	return turn.resp, turn.err
}

func (f *fakeChat) Model() string { return "gemini-2.5-flash" }

type fakeRunStore struct {
	mu sync.Mutex

	runID     uuid.UUID
	creates   int
	completes int
	fails     int

	completedInsights int
	completedTokens   int
	completedCost     float64
	failedMessage     string
	failedTokens      int
	failedInsights    int
}

func newFakeRunStore() *fakeRunStore {
	return &fakeRunStore{runID: uuid.New()}
}

func (f *fakeRunStore) Create(ctx context.Context, agentType string) (repository.AgentRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	return repository.AgentRun{ID: f.runID, AgentType: agentType, Status: repository.StatusRunning, StartedAt: time.Now()}, nil
}

func (f *fakeRunStore) Complete(ctx context.Context, id uuid.UUID, insightsCreated, tokensUsed int, cost float64) (repository.AgentRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completes++
	f.completedInsights = insightsCreated
	f.completedTokens = tokensUsed
	f.completedCost = cost
	return repository.AgentRun{ID: id, Status: repository.StatusCompleted}, nil
}

func (f *fakeRunStore) Fail(ctx context.Context, id uuid.UUID, insightsCreated, tokensUsed int, cost float64, message string) (repository.AgentRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fails++
	f.failedInsights = insightsCreated
	f.failedTokens = tokensUsed
	f.failedMessage = message
	return repository.AgentRun{ID: id, Status: repository.StatusFailed}, nil
}

func toolTurn(usage gemini.TokenUsage, calls ...*genai.FunctionCall) fakeTurn {
	return fakeTurn{resp: &gemini.ChatResponse{
		Content:       genai.NewContentFromText("working", genai.RoleModel),
		FunctionCalls: calls,
		Usage:         usage,
	}}
}

func textTurn(text string, usage gemini.TokenUsage) fakeTurn {
	return fakeTurn{resp: &gemini.ChatResponse{
		Content: genai.NewContentFromText(text, genai.RoleModel),
		Text:    text,
		Usage:   usage,
	}}
}

func newTestOrchestrator(chat ChatService, runs RunStore, maxIterations int) *Orchestrator {
	executor := NewExecutor(&fakeFleetReader{}, &fakeInsightCreator{created: insightsrepo.Insight{ID: uuid.New()}}, nil)
	return NewOrchestrator(chat, executor, runs, nil, fakeAIConfig{maxIterations: maxIterations}, logger.New("test"))
}

func TestRunToolLoopToCompletion(t *testing.T) {
	chat := &fakeChat{turns: []fakeTurn{
		toolTurn(gemini.TokenUsage{Prompt: 100, Output: 20},
			&genai.FunctionCall{Name: ToolGetAllVehicles, Args: map[string]any{}}),
		toolTurn(gemini.TokenUsage{Prompt: 200, Output: 50},
			&genai.FunctionCall{Name: ToolCreateInsight, Args: map[string]any{
				"type":     "service_due",
				"priority": "high",
				"title":    "Oil change overdue on the Chen F-150",
				"body":     "The truck is 5,000 miles past its interval.",
			}}),
		textTurn("Found one overdue vehicle and recorded an insight.",
			gemini.TokenUsage{Prompt: 300, Output: 30}),
	}}
	store := newFakeRunStore()
	orch := newTestOrchestrator(chat, store, 10)

	result, err := orch.Run(context.Background(), "")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !result.Success {
		t.Errorf("Success = false, want true (error: %s)", result.Error)
	}
	if result.RunID != store.runID {
		t.Errorf("RunID = %s, want %s", result.RunID, store.runID)
	}
	if result.InsightsCreated != 1 {
		t.Errorf("InsightsCreated = %d, want 1", result.InsightsCreated)
	}
	if want := 100 + 20 + 200 + 50 + 300 + 30; result.TokensUsed != want {
		t.Errorf("TokensUsed = %d, want %d", result.TokensUsed, want)
	}
	if store.creates != 1 || store.completes != 1 || store.fails != 0 {
		t.Errorf("store calls = %d/%d/%d (create/complete/fail), want 1/1/0",
			store.creates, store.completes, store.fails)
	}
	if store.completedCost <= 0 {
		t.Errorf("cost = %f, want > 0", store.completedCost)
	}
	if chat.calls != 3 {
		t.Errorf("chat calls = %d, want 3", chat.calls)
	}
}

func TestRunRejectsConcurrentTrigger(t *testing.T) {
	chat := &fakeChat{
		turns:   []fakeTurn{textTurn("done", gemini.TokenUsage{Prompt: 10, Output: 5})},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	store := newFakeRunStore()
	orch := newTestOrchestrator(chat, store, 10)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := orch.Run(context.Background(), "insights"); err != nil {
			t.Errorf("first run failed: %v", err)
		}
	}()

	<-chat.entered
	_, err := orch.Run(context.Background(), "insights")
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Errorf("second trigger error kind = %v, want conflict", apperr.GetKind(err))
	}

	close(chat.release)
	<-done

	// The rejected trigger must not have created a run row.
	if store.creates != 1 {
		t.Errorf("run rows created = %d, want 1", store.creates)
	}
}

func TestRunIterationCapFailsRun(t *testing.T) {
	chat := &fakeChat{turns: []fakeTurn{
		toolTurn(gemini.TokenUsage{Prompt: 10, Output: 5},
			&genai.FunctionCall{Name: ToolGetAllVehicles, Args: map[string]any{}}),
	}}
	store := newFakeRunStore()
	orch := newTestOrchestrator(chat, store, 3)

	result, err := orch.Run(context.Background(), "insights")
	if err == nil {
		t.Fatal("expected error after hitting the iteration cap")
	}
	if result.Success {
		t.Error("Success = true, want false")
	}
	if chat.calls != 3 {
		t.Errorf("chat calls = %d, want 3", chat.calls)
	}
	if store.fails != 1 || store.completes != 0 {
		t.Errorf("store calls = %d completes / %d fails, want 0/1", store.completes, store.fails)
	}
	if !strings.Contains(store.failedMessage, "iteration cap of 3") {
		t.Errorf("failure message = %q, want iteration cap mention", store.failedMessage)
	}
	// Tokens from every capped iteration still count.
	if want := 3 * 15; store.failedTokens != want {
		t.Errorf("failedTokens = %d, want %d", store.failedTokens, want)
	}
}

func TestRunModelErrorFailsRunWithPartialTokens(t *testing.T) {
	chat := &fakeChat{turns: []fakeTurn{
		toolTurn(gemini.TokenUsage{Prompt: 40, Output: 10},
			&genai.FunctionCall{Name: ToolGetAllCustomers, Args: map[string]any{}}),
		{
			// Usage arrives even when the call errors; it must still count.
			resp: &gemini.ChatResponse{Usage: gemini.TokenUsage{Prompt: 25, Output: 0}},
			err:  errors.New("rate limited"),
		},
	}}
	store := newFakeRunStore()
	orch := newTestOrchestrator(chat, store, 10)

	result, err := orch.Run(context.Background(), "insights")
	if err == nil {
		t.Fatal("expected error from failed model invocation")
	}
	if result.Success {
		t.Error("Success = true, want false")
	}
	if !strings.Contains(result.Error, "model invocation failed") {
		t.Errorf("Error = %q, want model invocation failure", result.Error)
	}
	if want := 40 + 10 + 25; result.TokensUsed != want {
		t.Errorf("TokensUsed = %d, want %d", result.TokensUsed, want)
	}
	if store.fails != 1 {
		t.Errorf("fails = %d, want 1", store.fails)
	}
}

func TestRunDefaultsAgentType(t *testing.T) {
	chat := &fakeChat{turns: []fakeTurn{textTurn("nothing to report", gemini.TokenUsage{Prompt: 5, Output: 2})}}
	store := newFakeRunStore()
	orch := newTestOrchestrator(chat, store, 5)

	result, err := orch.Run(context.Background(), "")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !result.Success {
		t.Error("Success = false, want true")
	}
	if result.InsightsCreated != 0 {
		t.Errorf("InsightsCreated = %d, want 0", result.InsightsCreated)
	}
}

func TestEstimateCost(t *testing.T) {
	orch := newTestOrchestrator(&fakeChat{}, newFakeRunStore(), 5)

	state := &runState{promptTokens: 1_000_000, outputTokens: 1_000_000}
	got := orch.estimateCost(state)
	want := 0.30 + 2.50
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("estimateCost = %f, want %f", got, want)
	}
}
