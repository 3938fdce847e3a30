// Package notifier sends appointment reminders and feedback requests for
// single appointments, with at-most-once semantics for reminders. Failed
// dispatches surface as errors so the scheduler's retry mechanism re-invokes
// the routine; the notifier itself never retries.
package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"citaplan_backend/internal/appointments"
	"citaplan_backend/internal/botconfig"
	"citaplan_backend/internal/conversations"
	"citaplan_backend/internal/engagement/channel"
	"citaplan_backend/internal/engagement/dispatch"
	"citaplan_backend/internal/engagement/template"
	"citaplan_backend/internal/tenants"
	"citaplan_backend/platform/apperr"
	"citaplan_backend/platform/logger"

	"github.com/google/uuid"
)

// AppointmentReader loads appointment context and flips notification flags.
type AppointmentReader interface {
	GetDetails(ctx context.Context, id uuid.UUID) (*appointments.Details, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID) error
}

// TenantReader loads a single tenant.
type TenantReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*tenants.Project, error)
}

// ConfigReader loads the per-tenant messaging configuration.
type ConfigReader interface {
	GetTransactionalConfig(ctx context.Context, projectID uuid.UUID) (*botconfig.TransactionalConfig, error)
	GetFeedbackConfig(ctx context.Context, projectID uuid.UUID) (*botconfig.FeedbackConfig, error)
}

// ConversationWriter records bot conversation state.
type ConversationWriter interface {
	Create(ctx context.Context, conv *conversations.Conversation) error
}

// Dispatcher sends a rendered message through the selected channel.
type Dispatcher interface {
	Send(ctx context.Context, tenant channel.TenantChannels, decision channel.Decision, text string) error
}

// AlertSender emails the project owner. May be a no-op when email is
// disabled.
type AlertSender interface {
	SendOwnerAlert(ctx context.Context, to, subject, body string) error
}

// Service implements the reminder and feedback notifier.
type Service struct {
	appts       AppointmentReader
	tenants     TenantReader
	configs     ConfigReader
	convos      ConversationWriter
	dispatcher  Dispatcher
	alerts      AlertSender
	countryCode string
	defaultTZ   string
	now         func() time.Time
	log         *logger.Logger
}

// New creates the notifier service.
func New(appts AppointmentReader, tenantReader TenantReader, configs ConfigReader, convos ConversationWriter, dispatcher Dispatcher, alerts AlertSender, countryCode, defaultTZ string, log *logger.Logger) *Service {
	return &Service{
		appts:       appts,
		tenants:     tenantReader,
		configs:     configs,
		convos:      convos,
		dispatcher:  dispatcher,
		alerts:      alerts,
		countryCode: countryCode,
		defaultTZ:   defaultTZ,
		now:         time.Now,
		log:         log,
	}
}

// SetClock overrides the time source, used in tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// SendAppointmentReminder sends the reminder for one appointment. It is safe
// to invoke repeatedly: the reminder_sent flag guarantees at most one send.
// A dispatch failure returns an error so the scheduler retries.
func (s *Service) SendAppointmentReminder(ctx context.Context, appointmentID uuid.UUID) error {
	details, err := s.appts.GetDetails(ctx, appointmentID)
	if err != nil {
		if apperr.IsNotFound(err) {
			s.log.Warn("reminder skipped, appointment not found", "appointment_id", appointmentID.String())
			return nil
		}
		return err
	}

	if details.Status != appointments.StatusConfirmed && details.Status != appointments.StatusPending {
		s.log.Info("reminder skipped by status",
			"appointment_id", appointmentID.String(),
			"status", details.Status,
		)
		return nil
	}

	if details.ReminderSent {
		s.log.Info("reminder already sent", "appointment_id", appointmentID.String())
		return nil
	}

	project, err := s.tenants.GetByID(ctx, details.ProjectID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil
		}
		return err
	}

	message := template.DefaultReminderMessage
	cfg, err := s.configs.GetTransactionalConfig(ctx, details.ProjectID)
	if err != nil {
		return err
	}
	if cfg != nil && cfg.ReminderMessage != "" {
		message = s.renderReminder(cfg.ReminderMessage, details, project)
	}

	decision, tenantChannels, err := s.selectChannel(details, project)
	if err != nil {
		return err
	}

	if err := s.dispatcher.Send(ctx, tenantChannels, decision, message); err != nil {
		s.log.MessageFailed(string(decision.Channel), decision.Destination, "reminder", project.ID, err)
		return fmt.Errorf("send reminder for appointment %s: %w", appointmentID, err)
	}

	if err := s.appts.MarkReminderSent(ctx, appointmentID); err != nil {
		return err
	}

	s.log.MessageSent(string(decision.Channel), decision.Destination, "reminder", project.ID)
	return nil
}

// SendFeedbackRequest sends the post-appointment feedback request. Duplicate
// suppression is an external scheduling concern; every invocation attempts a
// send when the guards pass.
func (s *Service) SendFeedbackRequest(ctx context.Context, appointmentID uuid.UUID) error {
	details, err := s.appts.GetDetails(ctx, appointmentID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil
		}
		return err
	}

	if details.Status != appointments.StatusConfirmed {
		s.log.Info("feedback request skipped by status",
			"appointment_id", appointmentID.String(),
			"status", details.Status,
		)
		return nil
	}

	cfg, err := s.configs.GetFeedbackConfig(ctx, details.ProjectID)
	if err != nil {
		return err
	}
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	project, err := s.tenants.GetByID(ctx, details.ProjectID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil
		}
		return err
	}

	messageTemplate := cfg.RequestMessage
	if messageTemplate == "" {
		messageTemplate = template.DefaultFeedbackMessage
	}
	message := s.renderFeedback(messageTemplate, details, project)

	if strings.TrimSpace(details.CustomerPhone) != "" {
		conv := &conversations.Conversation{
			ProjectID:       details.ProjectID,
			CustomerPhone:   details.CustomerPhone,
			CustomerName:    details.CustomerName,
			CustomerMessage: "(system trigger)",
			BotResponse:     message,
			BotType:         conversations.BotTypeFeedbackWait,
		}
		if err := s.convos.Create(ctx, conv); err != nil {
			return err
		}
	}

	decision, tenantChannels, err := s.selectChannel(details, project)
	if err != nil {
		return err
	}

	if err := s.dispatcher.Send(ctx, tenantChannels, decision, message); err != nil {
		s.log.MessageFailed(string(decision.Channel), decision.Destination, "feedback", project.ID, err)
		return fmt.Errorf("send feedback request for appointment %s: %w", appointmentID, err)
	}

	s.log.MessageSent(string(decision.Channel), decision.Destination, "feedback", project.ID)
	return nil
}

// NotifyNegativeFeedback alerts the project owner about a low rating when the
// tenant opted in. The alert itself is best effort; a missing owner email or
// disabled alerting only logs.
func (s *Service) NotifyNegativeFeedback(ctx context.Context, projectID uuid.UUID, customerName string, rating int, comment string) error {
	s.log.Warn("negative feedback received",
		"tenant_id", projectID.String(),
		"rating", rating,
	)

	cfg, err := s.configs.GetFeedbackConfig(ctx, projectID)
	if err != nil {
		return err
	}
	if cfg == nil || !cfg.NotifyOwnerOnNegative {
		return nil
	}

	project, err := s.tenants.GetByID(ctx, projectID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil
		}
		return err
	}

	owner := project.OwnerEmailValue()
	if owner == "" {
		s.log.Warn("negative feedback alert skipped, no owner email", "tenant_id", projectID.String())
		return nil
	}

	if customerName == "" {
		customerName = template.FallbackCustomerName
	}

	subject := fmt.Sprintf("Alerta: calificación %d/5 en %s", rating, project.Name)
	body := fmt.Sprintf("%s dejó una calificación de %d/5.\n\n%s", customerName, rating, comment)

	return s.alerts.SendOwnerAlert(ctx, owner, subject, body)
}

// selectChannel builds the tenant channel projection and picks the channel
// for the appointment's customer. No channel is a hard failure.
func (s *Service) selectChannel(details *appointments.Details, project *tenants.Project) (channel.Decision, channel.TenantChannels, error) {
	tenantChannels := channel.TenantChannels{
		WhatsAppPhoneNumberID: project.WhatsAppPhoneID(),
		WhatsAppAccessToken:   project.WhatsAppToken(),
		TelegramBotToken:      project.TelegramToken(),
		DefaultCountryCode:    s.countryCode,
	}

	decision, ok := channel.Select(channel.CustomerIdentity{
		Name:         details.CustomerName,
		Phone:        details.CustomerPhone,
		Email:        details.CustomerEmail,
		AuthProvider: details.AuthProvider,
	}, tenantChannels)
	if !ok {
		return channel.Decision{}, tenantChannels, dispatch.ErrNoChannel
	}

	return decision, tenantChannels, nil
}

// renderReminder substitutes the reminder tokens, including the tenant-local
// date/time and the relative phrase for how soon the appointment starts.
func (s *Service) renderReminder(tmpl string, details *appointments.Details, project *tenants.Project) string {
	loc := template.Location(project.TimezoneValue(), s.defaultTZ)

	name := details.CustomerName
	if strings.TrimSpace(name) == "" {
		name = template.FallbackCustomerName
	}
	service := details.ServiceName
	if service == "" {
		service = template.FallbackServiceName
	}
	employee := details.EmployeeName
	if employee == "" {
		employee = template.FallbackEmployeeName
	}

	return template.Render(tmpl, map[string]string{
		"name":          name,
		"service":       service,
		"date":          template.FormatDate(details.StartTime, loc),
		"time":          template.FormatTime(details.StartTime, loc),
		"employee":      employee,
		"address":       template.FormatAddress(project.AddressValue()),
		"company":       project.Name,
		"relative_time": template.RelativeTime(details.StartTime.Sub(s.now())),
	})
}

// renderFeedback substitutes the feedback request tokens.
func (s *Service) renderFeedback(tmpl string, details *appointments.Details, project *tenants.Project) string {
	loc := template.Location(project.TimezoneValue(), s.defaultTZ)

	name := details.CustomerName
	if strings.TrimSpace(name) == "" {
		name = template.FallbackCustomerName
	}
	service := details.ServiceName
	if service == "" {
		service = template.FallbackServiceName
	}
	employee := details.EmployeeName
	if employee == "" {
		employee = template.FallbackEmployeeName
	}

	return template.Render(tmpl, map[string]string{
		"customerName": name,
		"name":         name,
		"service":      service,
		"date":         template.FormatDate(details.StartTime, loc),
		"time":         template.FormatTime(details.StartTime, loc),
		"employee":     employee,
	})
}
