// Package tenants provides read access to project (tenant) records, including
// the channel credentials the engagement core needs for routing decisions.
package tenants

import (
	"context"
	"errors"
	"fmt"

	"citaplan_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Project represents the tenant database model. Channel credentials are
// nullable: a tenant without WhatsApp credentials simply falls through to the
// next channel in priority order.
type Project struct {
	ID                    uuid.UUID `db:"id"`
	Name                  string    `db:"name"`
	Address               *string   `db:"address"`
	Timezone              *string   `db:"timezone"`
	OwnerEmail            *string   `db:"owner_email"`
	WhatsAppPhoneNumberID *string   `db:"whatsapp_phone_number_id"`
	WhatsAppAccessToken   *string   `db:"whatsapp_access_token"`
	TelegramBotToken      *string   `db:"telegram_bot_token"`
}

// HasWhatsApp reports whether the tenant has complete WhatsApp credentials.
func (p *Project) HasWhatsApp() bool {
	return strValue(p.WhatsAppPhoneNumberID) != "" && strValue(p.WhatsAppAccessToken) != ""
}

// WhatsAppPhoneID returns the WhatsApp phone number ID, or "" when unset.
func (p *Project) WhatsAppPhoneID() string { return strValue(p.WhatsAppPhoneNumberID) }

// WhatsAppToken returns the WhatsApp access token, or "" when unset.
func (p *Project) WhatsAppToken() string { return strValue(p.WhatsAppAccessToken) }

// TelegramToken returns the Telegram bot token, or "" when unset.
func (p *Project) TelegramToken() string { return strValue(p.TelegramBotToken) }

// AddressValue returns the tenant address, or "" when unset.
func (p *Project) AddressValue() string { return strValue(p.Address) }

// TimezoneValue returns the tenant IANA timezone, or "" when unset.
func (p *Project) TimezoneValue() string { return strValue(p.Timezone) }

// OwnerEmailValue returns the owner email, or "" when unset.
func (p *Project) OwnerEmailValue() string { return strValue(p.OwnerEmail) }

// Repository provides database operations for projects.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new tenants repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const projectColumns = `id, name, address, timezone, owner_email,
	whatsapp_phone_number_id, whatsapp_access_token, telegram_bot_token`

// ListAll returns every project. The daily campaign iterates this list; no
// ordering is guaranteed.
func (r *Repository) ListAll(ctx context.Context) ([]Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := scanProject(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}

	return projects, rows.Err()
}

// GetByID retrieves a project by its ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	var p Project
	row := r.pool.QueryRow(ctx, query, id)
	if err := scanProject(row, &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("project not found")
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &p, nil
}

func scanProject(row pgx.Row, p *Project) error {
	return row.Scan(
		&p.ID, &p.Name, &p.Address, &p.Timezone, &p.OwnerEmail,
		&p.WhatsAppPhoneNumberID, &p.WhatsAppAccessToken, &p.TelegramBotToken,
	)
}

func strValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
