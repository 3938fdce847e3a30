// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"citaplan_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus creates a new in-memory event bus.
var NewInMemoryBus = events.NewInMemoryBus

// =============================================================================
// Engagement Domain Events
// =============================================================================

// ReactivationRunDue is published when the daily reactivation campaign
// should run across all tenants.
type ReactivationRunDue struct {
	BaseEvent
}

func (e ReactivationRunDue) EventName() string { return "engagement.reactivation.run_due" }

// AppointmentReminderDue is published when an appointment reminder reaches
// its scheduled send time.
type AppointmentReminderDue struct {
	BaseEvent
	AppointmentID uuid.UUID `json:"appointmentId"`
	TenantID      uuid.UUID `json:"tenantId"`
}

func (e AppointmentReminderDue) EventName() string { return "engagement.appointment.reminder_due" }

// FeedbackRequestDue is published when an appointment's feedback request
// reaches its scheduled send time.
type FeedbackRequestDue struct {
	BaseEvent
	AppointmentID uuid.UUID `json:"appointmentId"`
	TenantID      uuid.UUID `json:"tenantId"`
}

func (e FeedbackRequestDue) EventName() string { return "engagement.appointment.feedback_due" }

// AppointmentBooked is published when the booking API records a new
// appointment. The engagement module uses it to attribute reactivations and
// to schedule the reminder and feedback tasks.
type AppointmentBooked struct {
	BaseEvent
	AppointmentID uuid.UUID `json:"appointmentId"`
	TenantID      uuid.UUID `json:"tenantId"`
	CustomerPhone string    `json:"customerPhone"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
}

func (e AppointmentBooked) EventName() string { return "engagement.appointment.booked" }

// NegativeFeedbackReceived is published when a customer leaves a rating below
// the tenant's threshold. The engagement module may alert the project owner.
type NegativeFeedbackReceived struct {
	BaseEvent
	TenantID      uuid.UUID `json:"tenantId"`
	CustomerName  string    `json:"customerName"`
	CustomerPhone string    `json:"customerPhone"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
}

func (e NegativeFeedbackReceived) EventName() string { return "engagement.feedback.negative" }
