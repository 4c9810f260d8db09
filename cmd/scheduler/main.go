package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	agentrepo "shop_portal_backend/internal/agent/repository"
	agentsvc "shop_portal_backend/internal/agent/service"
	"shop_portal_backend/internal/events"
	fleetrepo "shop_portal_backend/internal/fleet/repository"
	fleetsvc "shop_portal_backend/internal/fleet/service"
	insightsrepo "shop_portal_backend/internal/insights/repository"
	insightssvc "shop_portal_backend/internal/insights/service"
	"shop_portal_backend/internal/scheduler"
	"shop_portal_backend/platform/ai/gemini"
	"shop_portal_backend/platform/config"
	"shop_portal_backend/platform/db"
	"shop_portal_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	if !cfg.IsAgentEnabled() {
		log.Error("GEMINI_API_KEY not configured; scheduler has nothing to run")
		panic("GEMINI_API_KEY not configured")
	}

	eventBus := events.NewInMemoryBus(log)

	// Worker-side orchestrator wiring (no HTTP handlers required).
	chat, err := gemini.NewClient(ctx, gemini.Config{
		APIKey: cfg.GetGeminiAPIKey(),
		Model:  cfg.GetGeminiModel(),
	})
	if err != nil {
		log.Error("failed to initialize gemini client", "error", err)
		panic("failed to initialize gemini client: " + err.Error())
	}

	fleetService := fleetsvc.New(fleetrepo.New(pool), log)
	insightService := insightssvc.New(insightsrepo.New(pool), eventBus, log)
	executor := agentsvc.NewExecutor(fleetService, insightService, log)
	orchestrator := agentsvc.NewOrchestrator(chat, executor, agentrepo.New(pool), eventBus, cfg, log)

	cron, err := scheduler.NewCron(cfg, log)
	if err != nil {
		log.Error("failed to initialize cron scheduler", "error", err)
		panic("failed to initialize cron scheduler: " + err.Error())
	}
	go cron.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, orchestrator, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
