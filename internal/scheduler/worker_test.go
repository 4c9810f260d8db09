package scheduler

import (
	"context"
	"errors"
	"testing"

	agentsvc "shop_portal_backend/internal/agent/service"
	"shop_portal_backend/platform/apperr"
	"shop_portal_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type fakeRunner struct {
	result    agentsvc.TriggerResult
	err       error
	calls     int
	agentType string
}

func (f *fakeRunner) Run(ctx context.Context, agentType string) (agentsvc.TriggerResult, error) {
	f.calls++
	f.agentType = agentType
	return f.result, f.err
}

func newTestWorker(runner TriggerRunner) *Worker {
	return &Worker{runner: runner, log: logger.New("test")}
}

func agentRunTask(t *testing.T, agentType string) *asynq.Task {
	t.Helper()
	task, err := NewAgentRunTask(AgentRunPayload{AgentType: agentType})
	if err != nil {
		t.Fatalf("NewAgentRunTask failed: %v", err)
	}
	return task
}

func TestHandleAgentRunSuccess(t *testing.T) {
	runner := &fakeRunner{result: agentsvc.TriggerResult{Success: true, InsightsCreated: 2, TokensUsed: 1200}}
	w := newTestWorker(runner)

	if err := w.handleAgentRun(context.Background(), agentRunTask(t, "insights")); err != nil {
		t.Fatalf("handleAgentRun returned error: %v", err)
	}
	if runner.calls != 1 {
		t.Errorf("runner called %d times, want 1", runner.calls)
	}
	if runner.agentType != "insights" {
		t.Errorf("agent type = %s, want insights", runner.agentType)
	}
}

// A trigger rejected by the run guard is dropped, not retried.
func TestHandleAgentRunConflictDropsTask(t *testing.T) {
	runner := &fakeRunner{err: apperr.Conflict("an agent run is already in progress")}
	w := newTestWorker(runner)

	if err := w.handleAgentRun(context.Background(), agentRunTask(t, "insights")); err != nil {
		t.Errorf("conflict must be terminal, got error: %v", err)
	}
}

// A failed run is already recorded in the run ledger; retrying the task would
// start a second billed run for the same trigger.
func TestHandleAgentRunFailureIsTerminal(t *testing.T) {
	runner := &fakeRunner{err: errors.New("model invocation failed: rate limited")}
	w := newTestWorker(runner)

	if err := w.handleAgentRun(context.Background(), agentRunTask(t, "insights")); err != nil {
		t.Errorf("run failure must be terminal, got error: %v", err)
	}
	if runner.calls != 1 {
		t.Errorf("runner called %d times, want 1", runner.calls)
	}
}

func TestHandleAgentRunBadPayload(t *testing.T) {
	runner := &fakeRunner{}
	w := newTestWorker(runner)

	task := asynq.NewTask(TaskAgentRun, []byte("{not json"))
	if err := w.handleAgentRun(context.Background(), task); err == nil {
		t.Error("expected error for undecodable payload")
	}
	if runner.calls != 0 {
		t.Errorf("runner called %d times for bad payload, want 0", runner.calls)
	}
}

func TestParseAgentRunPayloadRoundTrip(t *testing.T) {
	task := agentRunTask(t, "insights")

	payload, err := ParseAgentRunPayload(task)
	if err != nil {
		t.Fatalf("ParseAgentRunPayload failed: %v", err)
	}
	if payload.AgentType != "insights" {
		t.Errorf("agent type = %s, want insights", payload.AgentType)
	}
}
