package scheduler

import (
	"context"
	"fmt"

	"citaplan_backend/platform/config"
	"citaplan_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Periodic enqueues the recurring campaign task on its cron schedule.
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

func NewPeriodic(cfg config.SchedulerConfig, log *logger.Logger) (*Periodic, error) {
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

	cron := cfg.GetCampaignCron()
	if cron == "" {
		cron = "0 9 * * *"
	}

	sched := asynq.NewScheduler(opt, &asynq.SchedulerOpts{})

	entryID, err := sched.Register(cron, NewReactivationDailyTask(), asynq.Queue(queue))
	if err != nil {
		return nil, fmt.Errorf("register campaign cron %q: %w", cron, err)
	}

	log.Info("campaign cron registered", "cron", cron, "entry_id", entryID)

	return &Periodic{scheduler: sched, log: log}, nil
}

func (p *Periodic) Run(ctx context.Context) {
	if p == nil || p.scheduler == nil {
		return
	}

	go func() {
		<-ctx.Done()
		p.scheduler.Shutdown()
	}()

	if err := p.scheduler.Run(); err != nil {
		p.log.Error("campaign scheduler stopped", "error", err)
	}
}
