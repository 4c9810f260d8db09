package scheduler

import (
	"context"
	"fmt"

	"shop_portal_backend/platform/config"
	"shop_portal_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Cron registers the recurring agent trigger with asynq's scheduler. The
// daily task lands on the same queue the worker consumes.
type Cron struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

// NewCron creates the cron scheduler with the daily agent run entry.
func NewCron(cfg config.SchedulerConfig, log *logger.Logger) (*Cron, error) {
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

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{})

	task, err := NewAgentRunTask(AgentRunPayload{AgentType: "insights"})
	if err != nil {
		return nil, err
	}

	spec := cfg.GetAgentCronSpec()
	if spec == "" {
		spec = "0 6 * * *"
	}

	entryID, err := scheduler.Register(spec, task, asynq.Queue(queue))
	if err != nil {
		return nil, fmt.Errorf("register agent cron entry: %w", err)
	}
	log.Info("agent cron entry registered", "spec", spec, "entryId", entryID)

	return &Cron{scheduler: scheduler, log: log}, nil
}

// Run drives the cron scheduler until the context is cancelled.
func (c *Cron) Run(ctx context.Context) {
	if c == nil || c.scheduler == nil {
		return
	}

	go func() {
		<-ctx.Done()
		c.scheduler.Shutdown()
	}()

	if err := c.scheduler.Run(); err != nil {
		c.log.Error("cron scheduler stopped", "error", err)
	}
}
