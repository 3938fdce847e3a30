package botconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"citaplan_backend/platform/apperr"
	"citaplan_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides read access to per-tenant bot configuration.
type Repository struct {
	pool *pgxpool.Pool
	val  *validator.Validator
}

// New creates a new botconfig repository.
func New(pool *pgxpool.Pool, val *validator.Validator) *Repository {
	return &Repository{pool: pool, val: val}
}

// GetReactivationConfig loads and parses the tenant's reactivation config.
// Absent, malformed or invalid config returns (nil, nil): the feature is
// treated as disabled for that tenant, never as a failure.
func (r *Repository) GetReactivationConfig(ctx context.Context, projectID uuid.UUID) (*ReactivationConfig, error) {
	raw, err := r.rawConfig(ctx, projectID, "reactivation_config")
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	return ParseReactivationConfig(r.val, raw), nil
}

// GetTransactionalConfig loads and parses the tenant's transactional config.
// Absent or invalid config returns (nil, nil).
func (r *Repository) GetTransactionalConfig(ctx context.Context, projectID uuid.UUID) (*TransactionalConfig, error) {
	raw, err := r.rawConfig(ctx, projectID, "transactional_config")
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	return ParseTransactionalConfig(r.val, raw), nil
}

// GetFeedbackConfig loads and parses the tenant's feedback config.
// Absent or invalid config returns (nil, nil).
func (r *Repository) GetFeedbackConfig(ctx context.Context, projectID uuid.UUID) (*FeedbackConfig, error) {
	raw, err := r.rawConfig(ctx, projectID, "feedback_config")
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	return ParseFeedbackConfig(r.val, raw), nil
}

// rawConfig returns the raw JSON for one config column. The column name is
// always one of the fixed identifiers above, never user input.
func (r *Repository) rawConfig(ctx context.Context, projectID uuid.UUID, column string) ([]byte, error) {
	query := fmt.Sprintf(`SELECT %s FROM project_bot_configs WHERE project_id = $1`, column)

	var raw []byte
	err := r.pool.QueryRow(ctx, query, projectID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("bot config not found")
		}
		return nil, fmt.Errorf("failed to load %s: %w", column, err)
	}
	if len(raw) == 0 {
		return nil, apperr.NotFound("bot config empty")
	}

	return raw, nil
}

// ParseReactivationConfig unmarshals raw JSON over the defaults and validates
// the result. An unusable document yields nil (feature disabled).
func ParseReactivationConfig(val *validator.Validator, raw []byte) *ReactivationConfig {
	cfg := defaultReactivationConfig()
	if !parseInto(val, raw, &cfg) {
		return nil
	}
	return &cfg
}

// ParseTransactionalConfig unmarshals raw JSON over the defaults and validates
// the result. An unusable document yields nil.
func ParseTransactionalConfig(val *validator.Validator, raw []byte) *TransactionalConfig {
	cfg := defaultTransactionalConfig()
	if !parseInto(val, raw, &cfg) {
		return nil
	}
	return &cfg
}

// ParseFeedbackConfig unmarshals raw JSON over the defaults and validates the
// result. An unusable document yields nil.
func ParseFeedbackConfig(val *validator.Validator, raw []byte) *FeedbackConfig {
	cfg := defaultFeedbackConfig()
	if !parseInto(val, raw, &cfg) {
		return nil
	}
	return &cfg
}

func parseInto(val *validator.Validator, raw []byte, out any) bool {
	if err := json.Unmarshal(raw, out); err != nil {
		return false
	}
	if val != nil {
		if err := val.Struct(out); err != nil {
			return false
		}
	}
	return true
}
