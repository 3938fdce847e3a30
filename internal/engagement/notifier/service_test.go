package notifier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"citaplan_backend/internal/appointments"
	"citaplan_backend/internal/botconfig"
	"citaplan_backend/internal/conversations"
	"citaplan_backend/internal/engagement/channel"
	"citaplan_backend/internal/tenants"
	"citaplan_backend/platform/apperr"
	"citaplan_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeAppointments struct {
	details      map[uuid.UUID]*appointments.Details
	reminderSent []uuid.UUID
}

func (f *fakeAppointments) GetDetails(_ context.Context, id uuid.UUID) (*appointments.Details, error) {
	d, ok := f.details[id]
	if !ok {
		return nil, apperr.NotFound("appointment not found")
	}
	return d, nil
}

func (f *fakeAppointments) MarkReminderSent(_ context.Context, id uuid.UUID) error {
	f.reminderSent = append(f.reminderSent, id)
	return nil
}

type fakeTenants struct {
	projects map[uuid.UUID]*tenants.Project
}

func (f *fakeTenants) GetByID(_ context.Context, id uuid.UUID) (*tenants.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, apperr.NotFound("project not found")
	}
	return p, nil
}

type fakeConfigs struct {
	transactional *botconfig.TransactionalConfig
	feedback      *botconfig.FeedbackConfig
}

func (f *fakeConfigs) GetTransactionalConfig(context.Context, uuid.UUID) (*botconfig.TransactionalConfig, error) {
	return f.transactional, nil
}

func (f *fakeConfigs) GetFeedbackConfig(context.Context, uuid.UUID) (*botconfig.FeedbackConfig, error) {
	return f.feedback, nil
}

type fakeConversations struct {
	created []*conversations.Conversation
}

func (f *fakeConversations) Create(_ context.Context, conv *conversations.Conversation) error {
	f.created = append(f.created, conv)
	return nil
}

type fakeDispatcher struct {
	sent []string
	err  error
}

func (f *fakeDispatcher) Send(_ context.Context, _ channel.TenantChannels, _ channel.Decision, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, text)
	return nil
}

type fakeAlerts struct {
	subjects []string
	bodies   []string
	to       []string
}

func (f *fakeAlerts) SendOwnerAlert(_ context.Context, to, subject, body string) error {
	f.to = append(f.to, to)
	f.subjects = append(f.subjects, subject)
	f.bodies = append(f.bodies, body)
	return nil
}

func strPtr(s string) *string { return &s }

type fixture struct {
	svc    *Service
	appts  *fakeAppointments
	convos *fakeConversations
	disp   *fakeDispatcher
	alerts *fakeAlerts

	projectID uuid.UUID
	apptID    uuid.UUID
}

func newFixture(configs *fakeConfigs) *fixture {
	projectID := uuid.New()
	apptID := uuid.New()

	appts := &fakeAppointments{details: map[uuid.UUID]*appointments.Details{
		apptID: {
			ID:            apptID,
			ProjectID:     projectID,
			StartTime:     time.Date(2025, time.June, 2, 15, 0, 0, 0, time.UTC),
			Status:        appointments.StatusConfirmed,
			CustomerName:  "Ana",
			CustomerPhone: "3001234567",
			CustomerEmail: "ana@example.com",
			ServiceName:   "Corte",
			EmployeeName:  "Luisa",
		},
	}}

	projects := &fakeTenants{projects: map[uuid.UUID]*tenants.Project{
		projectID: {
			ID:                    projectID,
			Name:                  "Clinica Test",
			OwnerEmail:            strPtr("owner@example.com"),
			WhatsAppPhoneNumberID: strPtr("100200"),
			WhatsAppAccessToken:   strPtr("token"),
		},
	}}

	convos := &fakeConversations{}
	disp := &fakeDispatcher{}
	alerts := &fakeAlerts{}

	svc := New(appts, projects, configs, convos, disp, alerts, "57", "", logger.New("test"))

	return &fixture{
		svc:       svc,
		appts:     appts,
		convos:    convos,
		disp:      disp,
		alerts:    alerts,
		projectID: projectID,
		apptID:    apptID,
	}
}

func TestReminderSendsAndMarksOnce(t *testing.T) {
	f := newFixture(&fakeConfigs{})

	if err := f.svc.SendAppointmentReminder(context.Background(), f.apptID); err != nil {
		t.Fatalf("SendAppointmentReminder() error = %v", err)
	}
	if len(f.disp.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(f.disp.sent))
	}
	if len(f.appts.reminderSent) != 1 {
		t.Fatalf("marked %d reminders, want 1", len(f.appts.reminderSent))
	}

	// Re-delivery of the same task is a no-op.
	f.appts.details[f.apptID].ReminderSent = true
	if err := f.svc.SendAppointmentReminder(context.Background(), f.apptID); err != nil {
		t.Fatalf("SendAppointmentReminder() error = %v", err)
	}
	if len(f.disp.sent) != 1 {
		t.Fatalf("sent %d messages after repeat, want 1", len(f.disp.sent))
	}
}

func TestReminderSkipsCancelled(t *testing.T) {
	f := newFixture(&fakeConfigs{})
	f.appts.details[f.apptID].Status = appointments.StatusCancelled

	if err := f.svc.SendAppointmentReminder(context.Background(), f.apptID); err != nil {
		t.Fatalf("SendAppointmentReminder() error = %v", err)
	}
	if len(f.disp.sent) != 0 {
		t.Fatalf("sent %d messages for cancelled appointment, want 0", len(f.disp.sent))
	}
}

func TestReminderMissingAppointmentIsNoop(t *testing.T) {
	f := newFixture(&fakeConfigs{})

	if err := f.svc.SendAppointmentReminder(context.Background(), uuid.New()); err != nil {
		t.Fatalf("SendAppointmentReminder() error = %v", err)
	}
	if len(f.disp.sent) != 0 {
		t.Fatalf("sent %d messages, want 0", len(f.disp.sent))
	}
}

func TestReminderDispatchFailurePropagatesWithoutMarking(t *testing.T) {
	f := newFixture(&fakeConfigs{})
	f.disp.err = errors.New("provider down")

	if err := f.svc.SendAppointmentReminder(context.Background(), f.apptID); err == nil {
		t.Fatal("expected dispatch error to propagate for retry")
	}
	if len(f.appts.reminderSent) != 0 {
		t.Fatalf("marked %d reminders after failed send, want 0", len(f.appts.reminderSent))
	}
}

func TestReminderRendersTemplateTokens(t *testing.T) {
	f := newFixture(&fakeConfigs{transactional: &botconfig.TransactionalConfig{
		SendReminder:        true,
		ReminderHoursBefore: 24,
		ReminderMessage:     "Hola {name}, tu cita de {service} con {employee} es {relative_time}.",
	}})

	f.svc.SetClock(func() time.Time {
		// Twenty hours before the appointment start.
		return time.Date(2025, time.June, 1, 19, 0, 0, 0, time.UTC)
	})

	if err := f.svc.SendAppointmentReminder(context.Background(), f.apptID); err != nil {
		t.Fatalf("SendAppointmentReminder() error = %v", err)
	}

	want := "Hola Ana, tu cita de Corte con Luisa es en 20 horas."
	if f.disp.sent[0] != want {
		t.Fatalf("message = %q, want %q", f.disp.sent[0], want)
	}
}

func TestReminderRelativeTimeNextDay(t *testing.T) {
	f := newFixture(&fakeConfigs{transactional: &botconfig.TransactionalConfig{
		SendReminder:    true,
		ReminderMessage: "Tu cita es {relative_time}.",
	}})

	f.svc.SetClock(func() time.Time {
		return time.Date(2025, time.June, 1, 14, 0, 0, 0, time.UTC)
	})

	if err := f.svc.SendAppointmentReminder(context.Background(), f.apptID); err != nil {
		t.Fatalf("SendAppointmentReminder() error = %v", err)
	}
	if f.disp.sent[0] != "Tu cita es mañana." {
		t.Fatalf("message = %q", f.disp.sent[0])
	}
}

func TestReminderDefaultMessageWithoutConfig(t *testing.T) {
	f := newFixture(&fakeConfigs{})

	if err := f.svc.SendAppointmentReminder(context.Background(), f.apptID); err != nil {
		t.Fatalf("SendAppointmentReminder() error = %v", err)
	}
	if f.disp.sent[0] != "Hola, recordamos tu cita pendiente." {
		t.Fatalf("message = %q", f.disp.sent[0])
	}
}

func TestFeedbackRequestWritesWaitMarkerBeforeSend(t *testing.T) {
	f := newFixture(&fakeConfigs{feedback: &botconfig.FeedbackConfig{
		Enabled:        true,
		DelayHours:     1,
		RequestMessage: "Hola {customerName}, califícanos del 1 al 5.",
	}})

	if err := f.svc.SendFeedbackRequest(context.Background(), f.apptID); err != nil {
		t.Fatalf("SendFeedbackRequest() error = %v", err)
	}

	if len(f.convos.created) != 1 {
		t.Fatalf("created %d conversations, want 1", len(f.convos.created))
	}
	conv := f.convos.created[0]
	if conv.BotType != conversations.BotTypeFeedbackWait {
		t.Fatalf("bot type = %q, want feedback_wait", conv.BotType)
	}
	if conv.BotResponse != "Hola Ana, califícanos del 1 al 5." {
		t.Fatalf("bot response = %q", conv.BotResponse)
	}
	if len(f.disp.sent) != 1 || f.disp.sent[0] != conv.BotResponse {
		t.Fatalf("sent = %v", f.disp.sent)
	}
}

func TestFeedbackRequestOnlyForConfirmed(t *testing.T) {
	f := newFixture(&fakeConfigs{feedback: &botconfig.FeedbackConfig{Enabled: true, DelayHours: 1}})
	f.appts.details[f.apptID].Status = appointments.StatusPending

	if err := f.svc.SendFeedbackRequest(context.Background(), f.apptID); err != nil {
		t.Fatalf("SendFeedbackRequest() error = %v", err)
	}
	if len(f.disp.sent) != 0 {
		t.Fatalf("sent %d messages for pending appointment, want 0", len(f.disp.sent))
	}
}

func TestFeedbackRequestDisabledConfigIsNoop(t *testing.T) {
	f := newFixture(&fakeConfigs{feedback: &botconfig.FeedbackConfig{Enabled: false}})

	if err := f.svc.SendFeedbackRequest(context.Background(), f.apptID); err != nil {
		t.Fatalf("SendFeedbackRequest() error = %v", err)
	}
	if len(f.disp.sent) != 0 || len(f.convos.created) != 0 {
		t.Fatal("disabled feedback config must send nothing")
	}
}

func TestNegativeFeedbackAlertsOwner(t *testing.T) {
	f := newFixture(&fakeConfigs{feedback: &botconfig.FeedbackConfig{
		Enabled:               true,
		NotifyOwnerOnNegative: true,
	}})

	if err := f.svc.NotifyNegativeFeedback(context.Background(), f.projectID, "Ana", 2, "Muy lenta la atención"); err != nil {
		t.Fatalf("NotifyNegativeFeedback() error = %v", err)
	}

	if len(f.alerts.to) != 1 || f.alerts.to[0] != "owner@example.com" {
		t.Fatalf("alert recipients = %v", f.alerts.to)
	}
	if !strings.Contains(f.alerts.subjects[0], "2/5") {
		t.Fatalf("subject = %q, want the rating in it", f.alerts.subjects[0])
	}
	if !strings.Contains(f.alerts.bodies[0], "Muy lenta la atención") {
		t.Fatalf("body = %q, want the comment in it", f.alerts.bodies[0])
	}
}

func TestNegativeFeedbackRespectsOptOut(t *testing.T) {
	f := newFixture(&fakeConfigs{feedback: &botconfig.FeedbackConfig{
		Enabled:               true,
		NotifyOwnerOnNegative: false,
	}})

	if err := f.svc.NotifyNegativeFeedback(context.Background(), f.projectID, "Ana", 1, ""); err != nil {
		t.Fatalf("NotifyNegativeFeedback() error = %v", err)
	}
	if len(f.alerts.to) != 0 {
		t.Fatalf("alerts sent = %v, want none", f.alerts.to)
	}
}
