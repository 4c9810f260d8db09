// Package service implements the autonomous insight engine: a tool-using
// conversation loop against Gemini, guarded so at most one run is active at
// a time, with every run durably recorded.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shop_portal_backend/internal/agent/repository"
	"shop_portal_backend/internal/events"
	"shop_portal_backend/platform/ai/gemini"
	"shop_portal_backend/platform/apperr"
	"shop_portal_backend/platform/config"
	"shop_portal_backend/platform/logger"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

const opRun = "agent.orchestrator.run"

// TriggerResult is returned to whoever triggered a run: the scheduler worker
// or the manual HTTP endpoint.
type TriggerResult struct {
	Success         bool      `json:"success"`
	RunID           uuid.UUID `json:"run_id,omitempty"`
	InsightsCreated int       `json:"insights_created"`
	TokensUsed      int       `json:"tokens_used"`
	Error           string    `json:"error,omitempty"`
}

// ChatService is the reasoning boundary: one request carrying the full
// conversation, one response carrying tool calls or a final answer.
type ChatService interface {
	Chat(ctx context.Context, req *gemini.ChatRequest) (*gemini.ChatResponse, error)
	Model() string
}

// RunStore persists agent run records.
type RunStore interface {
	Create(ctx context.Context, agentType string) (repository.AgentRun, error)
	Complete(ctx context.Context, id uuid.UUID, insightsCreated, tokensUsed int, cost float64) (repository.AgentRun, error)
	Fail(ctx context.Context, id uuid.UUID, insightsCreated, tokensUsed int, cost float64, message string) (repository.AgentRun, error)
}

// Orchestrator drives the reasoning loop. The mutex is the process-wide run
// guard: TryLock rejects a second trigger instead of queueing it.
type Orchestrator struct {
	chat     ChatService
	executor *Executor
	runs     RunStore
	bus      events.Bus
	cfg      config.AIConfig
	log      *logger.Logger

	mu sync.Mutex
}

// NewOrchestrator creates the orchestrator. The bus may be nil when no one
// listens for run events (e.g. the scheduler binary).
func NewOrchestrator(chat ChatService, executor *Executor, runs RunStore, bus events.Bus, cfg config.AIConfig, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		chat:     chat,
		executor: executor,
		runs:     runs,
		bus:      bus,
		cfg:      cfg,
		log:      log,
	}
}

// Run executes one full reasoning loop for the given agent type. A trigger
// arriving while a run is active is rejected immediately with a conflict
// error and creates no run row.
func (o *Orchestrator) Run(ctx context.Context, agentType string) (TriggerResult, error) {
	if agentType == "" {
		agentType = DefaultAgentType
	}

	if !o.mu.TryLock() {
		err := apperr.Conflict("an agent run is already in progress").WithOp(opRun)
		return TriggerResult{Success: false, Error: err.Message}, err
	}
	defer o.mu.Unlock()

	run, err := o.runs.Create(ctx, agentType)
	if err != nil {
		return TriggerResult{Success: false, Error: err.Error()}, err
	}
	o.log.AgentEvent("run started", agentType, run.ID.String())

	result := o.loop(ctx, agentType, run.ID)
	return result.TriggerResult, result.err
}

// runState carries the counters accumulated across the loop.
type runState struct {
	insightsCreated int
	promptTokens    int
	outputTokens    int
}

func (s *runState) tokensUsed() int {
	return s.promptTokens + s.outputTokens
}

func (o *Orchestrator) loop(ctx context.Context, agentType string, runID uuid.UUID) loopResult {
	p := promptsFor(agentType)
	contents := []*genai.Content{
		genai.NewContentFromText(p.User, genai.RoleUser),
	}
	declarations := Declarations()

	var state runState
	maxIterations := o.cfg.GetAgentMaxIterations()

	for iteration := 1; iteration <= maxIterations; iteration++ {
		resp, err := o.chat.Chat(ctx, &gemini.ChatRequest{
			System:          p.System,
			Contents:        contents,
			Tools:           declarations,
			MaxOutputTokens: int32(o.cfg.GetAgentMaxOutputTokens()),
		})
		if resp != nil {
			state.promptTokens += resp.Usage.Prompt
			state.outputTokens += resp.Usage.Output
		}
		if err != nil {
			return o.fail(ctx, runID, agentType, &state, fmt.Sprintf("model invocation failed: %v", err))
		}

		if !resp.HasFunctionCalls() {
			return o.complete(ctx, runID, agentType, &state)
		}

		// The model's raw turn goes into the history verbatim, then every
		// requested call runs in order and all results return as one message.
		contents = append(contents, resp.Content)

		responseParts := make([]*genai.Part, 0, len(resp.FunctionCalls))
		for _, call := range resp.FunctionCalls {
			payload := o.executor.Execute(ctx, call.Name, call.Args)
			if call.Name == ToolCreateInsight && !IsErrorPayload(payload) {
				state.insightsCreated++
			}
			responseParts = append(responseParts, genai.NewPartFromFunctionResponse(call.Name, payload))
		}
		contents = append(contents, genai.NewContentFromParts(responseParts, genai.RoleUser))
	}

	return o.fail(ctx, runID, agentType, &state,
		fmt.Sprintf("iteration cap of %d reached without a final answer", maxIterations))
}

type loopResult struct {
	TriggerResult
	err error
}

func (o *Orchestrator) complete(ctx context.Context, runID uuid.UUID, agentType string, state *runState) loopResult {
	cost := o.estimateCost(state)
	if _, err := o.runs.Complete(ctx, runID, state.insightsCreated, state.tokensUsed(), cost); err != nil {
		o.log.Error("failed to record run completion", "error", err, "runId", runID)
	}
	o.log.AgentEvent("run completed", agentType, runID.String(),
		"insightsCreated", state.insightsCreated, "tokensUsed", state.tokensUsed())
	o.publishFinished(ctx, runID, agentType, repository.StatusCompleted, state)

	return loopResult{TriggerResult: TriggerResult{
		Success:         true,
		RunID:           runID,
		InsightsCreated: state.insightsCreated,
		TokensUsed:      state.tokensUsed(),
	}}
}

func (o *Orchestrator) fail(ctx context.Context, runID uuid.UUID, agentType string, state *runState, message string) loopResult {
	cost := o.estimateCost(state)
	if _, err := o.runs.Fail(ctx, runID, state.insightsCreated, state.tokensUsed(), cost, message); err != nil {
		o.log.Error("failed to record run failure", "error", err, "runId", runID)
	}
	o.log.AgentEvent("run failed", agentType, runID.String(),
		"error", message, "insightsCreated", state.insightsCreated)
	o.publishFinished(ctx, runID, agentType, repository.StatusFailed, state)

	return loopResult{
		TriggerResult: TriggerResult{
			Success:         false,
			RunID:           runID,
			InsightsCreated: state.insightsCreated,
			TokensUsed:      state.tokensUsed(),
			Error:           message,
		},
		err: apperr.Internal(message).WithOp(opRun),
	}
}

func (o *Orchestrator) publishFinished(ctx context.Context, runID uuid.UUID, agentType, status string, state *runState) {
	if o.bus == nil {
		return
	}
	o.bus.Publish(ctx, events.AgentRunFinished{
		BaseEvent:       events.NewBaseEvent(),
		RunID:           runID,
		AgentType:       agentType,
		Status:          status,
		InsightsCreated: state.insightsCreated,
		TokensUsed:      state.tokensUsed(),
		FinishedAt:      time.Now(),
	})
}

// Per-million-token USD rates for cost estimates. Unknown models fall back
// to the flash rates.
type modelRates struct {
	prompt float64
	output float64
}

var ratesByModel = map[string]modelRates{
	"gemini-2.5-flash": {prompt: 0.30, output: 2.50},
	"gemini-2.5-pro":   {prompt: 1.25, output: 10.00},
}

func (o *Orchestrator) estimateCost(state *runState) float64 {
	rates, ok := ratesByModel[o.chat.Model()]
	if !ok {
		rates = ratesByModel["gemini-2.5-flash"]
	}
	return float64(state.promptTokens)/1e6*rates.prompt +
		float64(state.outputTokens)/1e6*rates.output
}
