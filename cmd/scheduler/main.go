package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"citaplan_backend/internal/email"
	"citaplan_backend/internal/engagement"
	"citaplan_backend/internal/engagement/dispatch"
	"citaplan_backend/internal/events"
	"citaplan_backend/internal/scheduler"
	"citaplan_backend/internal/sms"
	"citaplan_backend/internal/telegram"
	"citaplan_backend/internal/whatsapp"
	"citaplan_backend/migrations"
	"citaplan_backend/platform/config"
	"citaplan_backend/platform/db"
	"citaplan_backend/platform/logger"
	"citaplan_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting engagement scheduler", "env", cfg.Env)

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

	if err := db.RunMigrations(ctx, cfg, migrations.FS); err != nil {
		log.Error("failed to run migrations", "error", err)
		panic("failed to run migrations: " + err.Error())
	}

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	dispatcher := dispatch.New(
		whatsapp.NewClient(log),
		telegram.NewClient(log),
		sms.NewClient(log),
		cfg.GetSendRatePerSecond(),
		log,
	)

	engagementModule := engagement.New(pool, val, cfg, dispatcher, email.NewSender(cfg), log)
	engagementModule.RegisterHandlers(eventBus)

	followUps, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = followUps.Close() }()

	worker, err := scheduler.NewWorker(cfg, pool, val, followUps, eventBus, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	periodic, err := scheduler.NewPeriodic(cfg, log)
	if err != nil {
		log.Error("failed to initialize campaign scheduler", "error", err)
		panic("failed to initialize campaign scheduler: " + err.Error())
	}

	cleanupInterval := config.GetDurationEnv("CONVERSATION_CLEANUP_INTERVAL", time.Hour)
	cleanupRetention := config.GetDurationEnv("FEEDBACK_WAIT_RETENTION", 48*time.Hour)
	cleanup := scheduler.NewConversationCleanup(pool, log, cleanupInterval, cleanupRetention)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		worker.Run(gctx)
		return nil
	})
	g.Go(func() error {
		periodic.Run(gctx)
		return nil
	})
	g.Go(func() error {
		cleanup.Run(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("scheduler shut down with error", "error", err)
	}
	log.Info("engagement scheduler stopped")
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
