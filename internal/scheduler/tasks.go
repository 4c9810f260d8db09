// Package scheduler triggers the insight agent: an asynq worker consumes run
// tasks, a cron scheduler enqueues the daily one.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskAgentRun asks the worker to execute one agent run.
const TaskAgentRun = "insights.agent.run"

// AgentRunPayload identifies which orchestration configuration to run.
type AgentRunPayload struct {
	AgentType string `json:"agentType"`
}

// NewAgentRunTask builds an asynq task for an agent run.
func NewAgentRunTask(payload AgentRunPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	// A trigger that cannot start must not queue for retry; rejection
	// handling lives in the worker, but the task itself also never retries.
	return asynq.NewTask(TaskAgentRun, data, asynq.MaxRetry(0)), nil
}

// ParseAgentRunPayload decodes an agent run task payload.
func ParseAgentRunPayload(task *asynq.Task) (AgentRunPayload, error) {
	var payload AgentRunPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return AgentRunPayload{}, err
	}
	return payload, nil
}
