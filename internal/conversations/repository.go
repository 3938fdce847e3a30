// Package conversations records bot conversation state rows. The engagement
// core only writes the feedback_wait marker the inbound bot reads to
// interpret a customer's rating reply.
package conversations

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BotTypeFeedbackWait marks a conversation waiting for a feedback rating.
const BotTypeFeedbackWait = "feedback_wait"

// Conversation represents one bot exchange with a customer.
type Conversation struct {
	ID              uuid.UUID
	ProjectID       uuid.UUID
	CustomerPhone   string
	CustomerName    string
	CustomerMessage string
	BotResponse     string
	BotType         string
	CreatedAt       time.Time
}

// Repository provides database operations for conversations.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new conversations repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a conversation row.
func (r *Repository) Create(ctx context.Context, conv *Conversation) error {
	if conv.ID == uuid.Nil {
		conv.ID = uuid.New()
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO conversations (id, project_id, customer_phone, customer_name, customer_message, bot_response, bot_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		conv.ID, conv.ProjectID, conv.CustomerPhone, conv.CustomerName,
		conv.CustomerMessage, conv.BotResponse, conv.BotType, conv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}

	return nil
}

// DeleteStaleFeedbackWaits removes feedback_wait markers older than the given
// time. A marker the customer never answered would otherwise hijack their next
// unrelated message as a rating.
func (r *Repository) DeleteStaleFeedbackWaits(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM conversations WHERE bot_type = $1 AND created_at < $2`

	tag, err := r.pool.Exec(ctx, query, BotTypeFeedbackWait, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale feedback waits: %w", err)
	}

	return tag.RowsAffected(), nil
}
