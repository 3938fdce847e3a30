package scheduler

import (
	"context"
	"fmt"
	"time"

	"citaplan_backend/internal/botconfig"
	"citaplan_backend/internal/events"
	"citaplan_backend/platform/config"
	"citaplan_backend/platform/logger"
	"citaplan_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Worker consumes engagement tasks and translates them into domain events.
// Handlers return errors only when a retry can help; everything else is
// handled by the subscribed modules.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	configs   configReader
	followUps FollowUpScheduler
	bus       events.Bus
	log       *logger.Logger
}

type configReader interface {
	GetTransactionalConfig(ctx context.Context, projectID uuid.UUID) (*botconfig.TransactionalConfig, error)
	GetFeedbackConfig(ctx context.Context, projectID uuid.UUID) (*botconfig.FeedbackConfig, error)
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, val *validator.Validator, followUps FollowUpScheduler, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		configs:   botconfig.New(pool, val),
		followUps: followUps,
		bus:       bus,
		log:       log,
	}

	mux.HandleFunc(TaskReactivationDaily, w.handleReactivationDaily)
	mux.HandleFunc(TaskAppointmentReminder, w.handleAppointmentReminder)
	mux.HandleFunc(TaskFeedbackRequest, w.handleFeedbackRequest)
	mux.HandleFunc(TaskAppointmentBooked, w.handleAppointmentBooked)
	mux.HandleFunc(TaskNegativeFeedback, w.handleNegativeFeedback)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleReactivationDaily(ctx context.Context, _ *asynq.Task) error {
	if w.bus == nil {
		return nil
	}

	return w.bus.PublishSync(ctx, events.ReactivationRunDue{
		BaseEvent: events.NewBaseEvent(),
	})
}

func (w *Worker) handleAppointmentReminder(ctx context.Context, task *asynq.Task) error {
	if w.bus == nil {
		return nil
	}

	payload, err := ParseAppointmentReminderPayload(task)
	if err != nil {
		return err
	}

	apptID, err := uuid.Parse(payload.AppointmentID)
	if err != nil {
		return err
	}
	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		return err
	}

	return w.bus.PublishSync(ctx, events.AppointmentReminderDue{
		BaseEvent:     events.NewBaseEvent(),
		AppointmentID: apptID,
		TenantID:      tenantID,
	})
}

func (w *Worker) handleFeedbackRequest(ctx context.Context, task *asynq.Task) error {
	if w.bus == nil {
		return nil
	}

	payload, err := ParseFeedbackRequestPayload(task)
	if err != nil {
		return err
	}

	apptID, err := uuid.Parse(payload.AppointmentID)
	if err != nil {
		return err
	}
	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		return err
	}

	return w.bus.PublishSync(ctx, events.FeedbackRequestDue{
		BaseEvent:     events.NewBaseEvent(),
		AppointmentID: apptID,
		TenantID:      tenantID,
	})
}

// handleAppointmentBooked schedules the follow-up sends the tenant configured
// for the booking, then hands the event to the engagement module for
// reactivation attribution and employee assignment.
func (w *Worker) handleAppointmentBooked(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseAppointmentBookedPayload(task)
	if err != nil {
		return err
	}

	apptID, err := uuid.Parse(payload.AppointmentID)
	if err != nil {
		return err
	}
	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		return err
	}

	if err := w.scheduleFollowUps(ctx, payload); err != nil {
		return err
	}

	if w.bus == nil {
		return nil
	}

	return w.bus.PublishSync(ctx, events.AppointmentBooked{
		BaseEvent:     events.NewBaseEvent(),
		AppointmentID: apptID,
		TenantID:      tenantID,
		CustomerPhone: payload.CustomerPhone,
		StartTime:     payload.StartTime,
		EndTime:       payload.EndTime,
	})
}

func (w *Worker) scheduleFollowUps(ctx context.Context, payload AppointmentBookedPayload) error {
	if w.followUps == nil || w.configs == nil {
		return nil
	}

	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		return err
	}

	transactional, err := w.configs.GetTransactionalConfig(ctx, tenantID)
	if err != nil {
		return err
	}
	if transactional != nil && transactional.SendReminder {
		runAt := payload.StartTime.Add(-time.Duration(transactional.ReminderHoursBefore) * time.Hour)
		// Late bookings inside the reminder window still get one immediately.
		if err := w.followUps.ScheduleAppointmentReminder(ctx, AppointmentReminderPayload{
			AppointmentID: payload.AppointmentID,
			TenantID:      payload.TenantID,
		}, runAt); err != nil {
			return err
		}
	}

	feedback, err := w.configs.GetFeedbackConfig(ctx, tenantID)
	if err != nil {
		return err
	}
	if feedback != nil && feedback.Enabled {
		runAt := payload.EndTime.Add(time.Duration(feedback.DelayHours) * time.Hour)
		if err := w.followUps.ScheduleFeedbackRequest(ctx, FeedbackRequestPayload{
			AppointmentID: payload.AppointmentID,
			TenantID:      payload.TenantID,
		}, runAt); err != nil {
			return err
		}
	}

	return nil
}

func (w *Worker) handleNegativeFeedback(ctx context.Context, task *asynq.Task) error {
	if w.bus == nil {
		return nil
	}

	payload, err := ParseNegativeFeedbackPayload(task)
	if err != nil {
		return err
	}

	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		return err
	}

	return w.bus.PublishSync(ctx, events.NegativeFeedbackReceived{
		BaseEvent:     events.NewBaseEvent(),
		TenantID:      tenantID,
		CustomerName:  payload.CustomerName,
		CustomerPhone: payload.CustomerPhone,
		Rating:        payload.Rating,
		Comment:       payload.Comment,
	})
}
