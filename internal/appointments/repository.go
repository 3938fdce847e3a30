// Package appointments provides database operations for appointments and the
// inactivity projection the reactivation campaign consumes.
package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"citaplan_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Appointment statuses used by the engagement core.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Details is an appointment joined with its customer, service and employee
// context, as the notifier needs it for rendering.
type Details struct {
	ID            uuid.UUID
	ProjectID     uuid.UUID
	AppUserID     uuid.UUID
	EmployeeID    *uuid.UUID
	ServiceID     *uuid.UUID
	StartTime     time.Time
	EndTime       *time.Time
	Status        string
	ReminderSent  bool
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	AuthProvider  string
	ServiceName   string
	EmployeeName  string
}

// InactivityCandidate is a customer whose most recent non-cancelled
// appointment predates the campaign threshold and who has no future
// appointments. It is computed fresh on every run, never persisted.
type InactivityCandidate struct {
	CustomerPhone string
	CustomerName  string
	CustomerEmail string
	AuthProvider  string
	LastVisit     time.Time
}

// Employee is the minimal employee projection used for assignment.
type Employee struct {
	ID   uuid.UUID
	Name string
}

// Repository provides database operations for appointments.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new appointments repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetDetails retrieves an appointment with customer, service and employee
// context joined in.
func (r *Repository) GetDetails(ctx context.Context, id uuid.UUID) (*Details, error) {
	query := `
		SELECT a.id, a.project_id, a.app_user_id, a.employee_id, a.service_id,
		       a.start_time, a.end_time, a.status, a.reminder_sent,
		       COALESCE(u.full_name, ''), COALESCE(u.phone, ''), COALESCE(u.email, ''),
		       u.auth_provider,
		       COALESCE(s.name, ''), COALESCE(e.name, '')
		FROM appointments a
		JOIN app_users u ON u.id = a.app_user_id
		LEFT JOIN services s ON s.id = a.service_id
		LEFT JOIN employees e ON e.id = a.employee_id
		WHERE a.id = $1`

	var d Details
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.ProjectID, &d.AppUserID, &d.EmployeeID, &d.ServiceID,
		&d.StartTime, &d.EndTime, &d.Status, &d.ReminderSent,
		&d.CustomerName, &d.CustomerPhone, &d.CustomerEmail,
		&d.AuthProvider,
		&d.ServiceName, &d.EmployeeName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("appointment not found")
		}
		return nil, fmt.Errorf("failed to get appointment details: %w", err)
	}

	return &d, nil
}

// MarkReminderSent flips the reminder_sent flag. The flag is set once and
// never reset.
func (r *Repository) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE appointments SET reminder_sent = TRUE, updated_at = now() WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("appointment not found")
	}

	return nil
}

// GetInactiveCustomers returns the customers of one tenant whose latest
// non-cancelled appointment is older than threshold and who have nothing
// scheduled in the future. Ordering is whatever the database returns.
func (r *Repository) GetInactiveCustomers(ctx context.Context, projectID uuid.UUID, threshold time.Time) ([]InactivityCandidate, error) {
	query := `
		SELECT COALESCE(u.phone, ''), COALESCE(u.full_name, ''), COALESCE(u.email, ''),
		       u.auth_provider, MAX(a.start_time) AS last_visit
		FROM appointments a
		JOIN app_users u ON u.id = a.app_user_id
		WHERE a.project_id = $1 AND a.status <> 'cancelled'
		GROUP BY u.id, u.phone, u.full_name, u.email, u.auth_provider
		HAVING MAX(a.start_time) < $2
		   AND COUNT(*) FILTER (WHERE a.start_time > now()) = 0`

	rows, err := r.pool.Query(ctx, query, projectID, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to query inactive customers: %w", err)
	}
	defer rows.Close()

	var candidates []InactivityCandidate
	for rows.Next() {
		var c InactivityCandidate
		if err := rows.Scan(&c.CustomerPhone, &c.CustomerName, &c.CustomerEmail, &c.AuthProvider, &c.LastVisit); err != nil {
			return nil, fmt.Errorf("failed to scan inactivity candidate: %w", err)
		}
		candidates = append(candidates, c)
	}

	return candidates, rows.Err()
}

// ListActiveEmployees returns the tenant's active employees for assignment.
func (r *Repository) ListActiveEmployees(ctx context.Context, projectID uuid.UUID) ([]Employee, error) {
	query := `SELECT id, name FROM employees WHERE project_id = $1 AND active ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.Name); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}

	return employees, rows.Err()
}

// AssignEmployee sets the employee on an appointment that was booked without
// one.
func (r *Repository) AssignEmployee(ctx context.Context, appointmentID, employeeID uuid.UUID) error {
	query := `UPDATE appointments SET employee_id = $2, updated_at = now() WHERE id = $1 AND employee_id IS NULL`

	if _, err := r.pool.Exec(ctx, query, appointmentID, employeeID); err != nil {
		return fmt.Errorf("failed to assign employee: %w", err)
	}

	return nil
}
