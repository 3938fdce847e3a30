package reactivation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Attempt is one recorded re-engagement attempt. Rows are append-only: the
// only later mutations are the response/reactivation attribution fields.
type Attempt struct {
	ID                 uuid.UUID
	ProjectID          uuid.UUID
	CustomerPhone      string
	CustomerName       string
	LastVisitDate      time.Time
	DaysInactive       int
	AttemptNumber      int
	MessageSent        string
	CustomerResponded  bool
	CustomerResponse   *string
	Reactivated        bool
	NewAppointmentID   *uuid.UUID
	DiscountOffered    bool
	DiscountPercentage *int
	CreatedAt          time.Time
}

// Repository provides database operations for reactivation attempts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new reactivation attempts repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetLatestByCustomerPhone returns the most recent attempt for a customer
// within a tenant, or nil when the customer has never been contacted.
func (r *Repository) GetLatestByCustomerPhone(ctx context.Context, projectID uuid.UUID, customerPhone string) (*Attempt, error) {
	query := `
		SELECT id, project_id, customer_phone, COALESCE(customer_name, ''), last_visit_date,
		       days_inactive, attempt_number, message_sent, customer_responded,
		       customer_response, reactivated, new_appointment_id, discount_offered,
		       discount_percentage, created_at
		FROM customer_reactivations
		WHERE project_id = $1 AND customer_phone = $2
		ORDER BY created_at DESC
		LIMIT 1`

	var a Attempt
	err := r.pool.QueryRow(ctx, query, projectID, customerPhone).Scan(
		&a.ID, &a.ProjectID, &a.CustomerPhone, &a.CustomerName, &a.LastVisitDate,
		&a.DaysInactive, &a.AttemptNumber, &a.MessageSent, &a.CustomerResponded,
		&a.CustomerResponse, &a.Reactivated, &a.NewAppointmentID, &a.DiscountOffered,
		&a.DiscountPercentage, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest reactivation attempt: %w", err)
	}

	return &a, nil
}

// Create inserts a new attempt. Called only after a successful dispatch.
func (r *Repository) Create(ctx context.Context, attempt *Attempt) error {
	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO customer_reactivations (
			id, project_id, customer_phone, customer_name, last_visit_date,
			days_inactive, attempt_number, message_sent, discount_offered,
			discount_percentage, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		attempt.ID, attempt.ProjectID, attempt.CustomerPhone, attempt.CustomerName,
		attempt.LastVisitDate, attempt.DaysInactive, attempt.AttemptNumber,
		attempt.MessageSent, attempt.DiscountOffered, attempt.DiscountPercentage,
		attempt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create reactivation attempt: %w", err)
	}

	return nil
}

// MarkReactivated attributes a new booking to the customer's most recent
// attempt. A customer without attempts is a no-op.
func (r *Repository) MarkReactivated(ctx context.Context, projectID uuid.UUID, customerPhone string, appointmentID uuid.UUID) error {
	query := `
		UPDATE customer_reactivations
		SET reactivated = TRUE, new_appointment_id = $3
		WHERE id = (
			SELECT id FROM customer_reactivations
			WHERE project_id = $1 AND customer_phone = $2
			ORDER BY created_at DESC
			LIMIT 1
		)`

	if _, err := r.pool.Exec(ctx, query, projectID, customerPhone, appointmentID); err != nil {
		return fmt.Errorf("failed to mark reactivated: %w", err)
	}

	return nil
}

// RecordCustomerResponse stores the customer's reply on their most recent
// attempt.
func (r *Repository) RecordCustomerResponse(ctx context.Context, projectID uuid.UUID, customerPhone, response string) error {
	query := `
		UPDATE customer_reactivations
		SET customer_responded = TRUE, customer_response = $3
		WHERE id = (
			SELECT id FROM customer_reactivations
			WHERE project_id = $1 AND customer_phone = $2
			ORDER BY created_at DESC
			LIMIT 1
		)`

	if _, err := r.pool.Exec(ctx, query, projectID, customerPhone, response); err != nil {
		return fmt.Errorf("failed to record customer response: %w", err)
	}

	return nil
}
