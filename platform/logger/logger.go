// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Context key types for storing values in context
type contextKey string

const (
	// TenantIDKey is the context key for the tenant (project) ID
	TenantIDKey contextKey = "tenant_id"
	// TaskIDKey is the context key for the scheduler task ID
	TaskIDKey contextKey = "task_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
// Supports tenant_id and task_id from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if tenantID, ok := ctx.Value(TenantIDKey).(string); ok && tenantID != "" {
		newLogger = newLogger.WithTenantID(tenantID)
	}

	if taskID, ok := ctx.Value(TaskIDKey).(string); ok && taskID != "" {
		newLogger = &Logger{
			Logger: newLogger.With(slog.String("task_id", taskID)),
		}
	}

	return newLogger
}

// WithTenantID returns a logger with the tenant ID attached.
func (l *Logger) WithTenantID(tenantID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("tenant_id", tenantID)),
	}
}

// MessageSent logs a successful outbound message.
func (l *Logger) MessageSent(channel, destination, kind string, tenantID uuid.UUID) {
	l.Info("message_sent",
		slog.String("channel", channel),
		slog.String("destination", destination),
		slog.String("kind", kind),
		slog.String("tenant_id", tenantID.String()),
	)
}

// MessageFailed logs a failed outbound message.
func (l *Logger) MessageFailed(channel, destination, kind string, tenantID uuid.UUID, err error) {
	l.Error("message_failed",
		slog.String("channel", channel),
		slog.String("destination", destination),
		slog.String("kind", kind),
		slog.String("tenant_id", tenantID.String()),
		slog.String("error", err.Error()),
	)
}

// CampaignRun logs the outcome of a per-tenant campaign run.
func (l *Logger) CampaignRun(tenantID uuid.UUID, candidates, sent, skipped int) {
	l.Info("campaign_run",
		slog.String("tenant_id", tenantID.String()),
		slog.Int("candidates", candidates),
		slog.Int("sent", sent),
		slog.Int("skipped", skipped),
	)
}
