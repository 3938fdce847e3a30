package scheduler

import (
	"context"
	"time"

	"citaplan_backend/internal/conversations"
	"citaplan_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultConversationCleanupInterval = time.Hour
	defaultFeedbackWaitRetention       = 48 * time.Hour
)

// ConversationCleanup periodically removes stale feedback_wait markers so an
// unanswered feedback request stops capturing the customer's next message.
type ConversationCleanup struct {
	repo      *conversations.Repository
	log       *logger.Logger
	interval  time.Duration
	retention time.Duration
}

func NewConversationCleanup(pool *pgxpool.Pool, log *logger.Logger, interval, retention time.Duration) *ConversationCleanup {
	if interval <= 0 {
		interval = defaultConversationCleanupInterval
	}
	if retention <= 0 {
		retention = defaultFeedbackWaitRetention
	}

	return &ConversationCleanup{
		repo:      conversations.New(pool),
		log:       log,
		interval:  interval,
		retention: retention,
	}
}

func (c *ConversationCleanup) Run(ctx context.Context) {
	if c == nil || c.repo == nil {
		return
	}

	c.cleanup(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *ConversationCleanup) cleanup(ctx context.Context) {
	before := time.Now().Add(-c.retention)

	deleted, err := c.repo.DeleteStaleFeedbackWaits(ctx, before)
	if err != nil {
		c.log.Warn("conversation cleanup failed", "error", err)
		return
	}

	if deleted > 0 {
		c.log.Info("conversation cleanup deleted stale feedback waits", "deleted", deleted)
	}
}
