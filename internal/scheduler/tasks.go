package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskReactivationDaily = "reactivation.daily"

const TaskAppointmentReminder = "appointments.reminder"

const TaskFeedbackRequest = "appointments.feedback"

const TaskAppointmentBooked = "appointments.booked"

const TaskNegativeFeedback = "feedback.negative"

type AppointmentReminderPayload struct {
	AppointmentID string `json:"appointmentId"`
	TenantID      string `json:"tenantId"`
}

type FeedbackRequestPayload struct {
	AppointmentID string `json:"appointmentId"`
	TenantID      string `json:"tenantId"`
}

type AppointmentBookedPayload struct {
	AppointmentID string    `json:"appointmentId"`
	TenantID      string    `json:"tenantId"`
	CustomerPhone string    `json:"customerPhone"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
}

type NegativeFeedbackPayload struct {
	TenantID      string `json:"tenantId"`
	CustomerName  string `json:"customerName"`
	CustomerPhone string `json:"customerPhone"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
}

func NewReactivationDailyTask() *asynq.Task {
	return asynq.NewTask(TaskReactivationDaily, nil)
}

func NewAppointmentReminderTask(payload AppointmentReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAppointmentReminder, data), nil
}

func ParseAppointmentReminderPayload(task *asynq.Task) (AppointmentReminderPayload, error) {
	var payload AppointmentReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return AppointmentReminderPayload{}, err
	}
	return payload, nil
}

func NewFeedbackRequestTask(payload FeedbackRequestPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFeedbackRequest, data), nil
}

func ParseFeedbackRequestPayload(task *asynq.Task) (FeedbackRequestPayload, error) {
	var payload FeedbackRequestPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return FeedbackRequestPayload{}, err
	}
	return payload, nil
}

func NewAppointmentBookedTask(payload AppointmentBookedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAppointmentBooked, data), nil
}

func ParseAppointmentBookedPayload(task *asynq.Task) (AppointmentBookedPayload, error) {
	var payload AppointmentBookedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return AppointmentBookedPayload{}, err
	}
	return payload, nil
}

func NewNegativeFeedbackTask(payload NegativeFeedbackPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNegativeFeedback, data), nil
}

func ParseNegativeFeedbackPayload(task *asynq.Task) (NegativeFeedbackPayload, error) {
	var payload NegativeFeedbackPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return NegativeFeedbackPayload{}, err
	}
	return payload, nil
}
