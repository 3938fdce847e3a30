// Package engagement wires the customer engagement orchestrator: the
// reactivation campaign, the reminder/feedback notifier and their event
// subscriptions. This module subscribes to events so the scheduler worker
// never needs to know about campaign internals.
package engagement

import (
	"context"
	"fmt"

	"citaplan_backend/internal/appointments"
	"citaplan_backend/internal/assignment"
	"citaplan_backend/internal/botconfig"
	"citaplan_backend/internal/conversations"
	"citaplan_backend/internal/email"
	"citaplan_backend/internal/engagement/dispatch"
	"citaplan_backend/internal/engagement/notifier"
	"citaplan_backend/internal/engagement/reactivation"
	"citaplan_backend/internal/events"
	"citaplan_backend/internal/tenants"
	"citaplan_backend/platform/config"
	"citaplan_backend/platform/logger"
	"citaplan_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module bundles the engagement services and their event subscriptions.
type Module struct {
	Reactivation *reactivation.Service
	Notifier     *notifier.Service

	appts    *appointments.Repository
	strategy assignment.Strategy
	log      *logger.Logger
}

// New creates the engagement module with all repositories wired to the pool.
// The dispatcher and alert sender are injected so worker and tests can swap
// transports.
func New(pool *pgxpool.Pool, val *validator.Validator, cfg config.MessagingConfig, dispatcher *dispatch.Dispatcher, alerts email.Sender, log *logger.Logger) *Module {
	tenantRepo := tenants.New(pool)
	configRepo := botconfig.New(pool, val)
	apptRepo := appointments.New(pool)
	convoRepo := conversations.New(pool)
	attemptRepo := reactivation.NewRepository(pool)

	campaign := reactivation.New(
		tenantRepo, configRepo, apptRepo, attemptRepo, dispatcher,
		cfg.GetDefaultCountryCode(), log,
	)

	notify := notifier.New(
		apptRepo, tenantRepo, configRepo, convoRepo, dispatcher, alerts,
		cfg.GetDefaultCountryCode(), cfg.GetDefaultTimezone(), log,
	)

	return &Module{
		Reactivation: campaign,
		Notifier:     notify,
		appts:        apptRepo,
		strategy:     assignment.NewRoundRobin(),
		log:          log,
	}
}

// SetAssignmentStrategy overrides the employee selection strategy.
func (m *Module) SetAssignmentStrategy(strategy assignment.Strategy) {
	if strategy != nil {
		m.strategy = strategy
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "engagement"
}

// RegisterHandlers subscribes the module to its domain events.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.ReactivationRunDue{}.EventName(), events.HandlerFunc(m.handleReactivationRunDue))
	bus.Subscribe(events.AppointmentReminderDue{}.EventName(), events.HandlerFunc(m.handleReminderDue))
	bus.Subscribe(events.FeedbackRequestDue{}.EventName(), events.HandlerFunc(m.handleFeedbackDue))
	bus.Subscribe(events.AppointmentBooked{}.EventName(), events.HandlerFunc(m.handleAppointmentBooked))
	bus.Subscribe(events.NegativeFeedbackReceived{}.EventName(), events.HandlerFunc(m.handleNegativeFeedback))
}

func (m *Module) handleReactivationRunDue(ctx context.Context, event events.Event) error {
	if _, ok := event.(events.ReactivationRunDue); !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	return m.Reactivation.RunDailyCampaign(ctx)
}

func (m *Module) handleReminderDue(ctx context.Context, event events.Event) error {
	e, ok := event.(events.AppointmentReminderDue)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	return m.Notifier.SendAppointmentReminder(ctx, e.AppointmentID)
}

func (m *Module) handleFeedbackDue(ctx context.Context, event events.Event) error {
	e, ok := event.(events.FeedbackRequestDue)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	return m.Notifier.SendFeedbackRequest(ctx, e.AppointmentID)
}

// handleAppointmentBooked attributes the booking to a prior reactivation
// attempt and assigns an employee to bot-created bookings that lack one.
func (m *Module) handleAppointmentBooked(ctx context.Context, event events.Event) error {
	e, ok := event.(events.AppointmentBooked)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	if err := m.Reactivation.HandleAppointmentBooked(ctx, e.TenantID, e.CustomerPhone, e.AppointmentID); err != nil {
		return err
	}

	return m.assignEmployeeIfMissing(ctx, e)
}

func (m *Module) assignEmployeeIfMissing(ctx context.Context, e events.AppointmentBooked) error {
	details, err := m.appts.GetDetails(ctx, e.AppointmentID)
	if err != nil {
		// A booking deleted before the event is handled is not an error.
		return nil
	}
	if details.EmployeeID != nil {
		return nil
	}

	employees, err := m.appts.ListActiveEmployees(ctx, e.TenantID)
	if err != nil {
		return err
	}
	if len(employees) == 0 {
		return nil
	}

	pick := m.strategy.Next(len(employees))
	if pick < 0 {
		return nil
	}

	if err := m.appts.AssignEmployee(ctx, e.AppointmentID, employees[pick].ID); err != nil {
		return err
	}

	m.log.Info("employee assigned",
		"appointment_id", e.AppointmentID.String(),
		"employee_id", employees[pick].ID.String(),
	)
	return nil
}

func (m *Module) handleNegativeFeedback(ctx context.Context, event events.Event) error {
	e, ok := event.(events.NegativeFeedbackReceived)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	return m.Notifier.NotifyNegativeFeedback(ctx, e.TenantID, e.CustomerName, e.Rating, e.Comment)
}
