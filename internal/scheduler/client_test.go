package scheduler

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
)

type fakeSchedulerConfig struct {
	redisURL    string
	tlsInsecure bool
	queue       string
	concurrency int
	cronSpec    string
}

func (f fakeSchedulerConfig) GetRedisURL() string { return f.redisURL }

func (f fakeSchedulerConfig) GetRedisTLSInsecure() bool { return f.tlsInsecure }

func (f fakeSchedulerConfig) GetAsynqQueueName() string { return f.queue }

func (f fakeSchedulerConfig) GetAsynqConcurrency() int { return f.concurrency }

func (f fakeSchedulerConfig) GetAgentCronSpec() string { return f.cronSpec }

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(fakeSchedulerConfig{}); err == nil {
		t.Error("expected error with empty redis url")
	}
	if _, err := NewClient(fakeSchedulerConfig{redisURL: "://bad"}); err == nil {
		t.Error("expected error with malformed redis url")
	}
}

func TestEnqueueAgentRun(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := fakeSchedulerConfig{redisURL: "redis://" + mr.Addr(), queue: "agent"}

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	defer client.Close()

	if err := client.EnqueueAgentRun(context.Background(), "insights"); err != nil {
		t.Fatalf("EnqueueAgentRun failed: %v", err)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer inspector.Close()

	pending, err := inspector.ListPendingTasks("agent")
	if err != nil {
		t.Fatalf("ListPendingTasks failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending tasks = %d, want 1", len(pending))
	}
	if pending[0].Type != TaskAgentRun {
		t.Errorf("task type = %s, want %s", pending[0].Type, TaskAgentRun)
	}
	// The trigger never retries: a rejected run waits for the next cron tick.
	if pending[0].MaxRetry != 0 {
		t.Errorf("task MaxRetry = %d, want 0", pending[0].MaxRetry)
	}

	var payload AgentRunPayload
	if err := json.Unmarshal(pending[0].Payload, &payload); err != nil {
		t.Fatalf("payload decode failed: %v", err)
	}
	if payload.AgentType != "insights" {
		t.Errorf("payload agent type = %s, want insights", payload.AgentType)
	}
}

func TestEnqueueAgentRunDefaultsQueue(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := fakeSchedulerConfig{redisURL: "redis://" + mr.Addr()}

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	defer client.Close()

	if err := client.EnqueueAgentRun(context.Background(), "insights"); err != nil {
		t.Fatalf("EnqueueAgentRun failed: %v", err)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer inspector.Close()

	pending, err := inspector.ListPendingTasks("default")
	if err != nil {
		t.Fatalf("ListPendingTasks failed: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("pending tasks on default queue = %d, want 1", len(pending))
	}
}
