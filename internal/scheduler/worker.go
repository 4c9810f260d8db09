package scheduler

import (
	"context"
	"fmt"

	agentsvc "shop_portal_backend/internal/agent/service"
	"shop_portal_backend/platform/apperr"
	"shop_portal_backend/platform/config"
	"shop_portal_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// TriggerRunner is the orchestrator surface the worker drives.
type TriggerRunner interface {
	Run(ctx context.Context, agentType string) (agentsvc.TriggerResult, error)
}

// Worker consumes agent run tasks.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	runner TriggerRunner
	log    *logger.Logger
}

// NewWorker creates the consume-side asynq server.
func NewWorker(cfg config.SchedulerConfig, runner TriggerRunner, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		runner: runner,
		log:    log,
	}

	mux.HandleFunc(TaskAgentRun, w.handleAgentRun)

	return w, nil
}

// handleAgentRun executes one agent run. A trigger that loses the run guard
// is logged and dropped; it never requeues, the next cron tick tries again.
func (w *Worker) handleAgentRun(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseAgentRunPayload(task)
	if err != nil {
		return err
	}

	result, err := w.runner.Run(ctx, payload.AgentType)
	if err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			w.log.Warn("agent run trigger rejected, run already active", "agentType", payload.AgentType)
			return nil
		}
		// The run is recorded as failed; retrying the task would double-bill
		// a deliberate failure, so the error is terminal.
		w.log.Error("agent run failed", "agentType", payload.AgentType, "error", err)
		return nil
	}

	w.log.Info("agent run finished",
		"agentType", payload.AgentType,
		"insightsCreated", result.InsightsCreated,
		"tokensUsed", result.TokensUsed)
	return nil
}

// Run serves tasks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
