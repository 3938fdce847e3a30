// Package reactivation implements the re-engagement campaign: it finds
// inactive customers per tenant, applies cooldown and attempt-limit policy,
// renders the escalating message variant and records each successful send.
package reactivation

import (
	"context"
	"strconv"
	"strings"
	"time"

	"citaplan_backend/internal/appointments"
	"citaplan_backend/internal/botconfig"
	"citaplan_backend/internal/engagement/channel"
	"citaplan_backend/internal/engagement/template"
	"citaplan_backend/internal/tenants"
	"citaplan_backend/platform/logger"

	"github.com/google/uuid"
)

// TenantLister loads the tenants the daily campaign iterates.
type TenantLister interface {
	ListAll(ctx context.Context) ([]tenants.Project, error)
}

// ConfigReader loads the per-tenant campaign configuration.
type ConfigReader interface {
	GetReactivationConfig(ctx context.Context, projectID uuid.UUID) (*botconfig.ReactivationConfig, error)
}

// CandidateSource computes the inactivity projection for one tenant.
type CandidateSource interface {
	GetInactiveCustomers(ctx context.Context, projectID uuid.UUID, threshold time.Time) ([]appointments.InactivityCandidate, error)
}

// AttemptStore persists and queries reactivation attempts.
type AttemptStore interface {
	GetLatestByCustomerPhone(ctx context.Context, projectID uuid.UUID, customerPhone string) (*Attempt, error)
	Create(ctx context.Context, attempt *Attempt) error
	MarkReactivated(ctx context.Context, projectID uuid.UUID, customerPhone string, appointmentID uuid.UUID) error
}

// Dispatcher sends a rendered message through the selected channel.
type Dispatcher interface {
	Send(ctx context.Context, tenant channel.TenantChannels, decision channel.Decision, text string) error
}

// Service runs the reactivation campaign.
type Service struct {
	tenants     TenantLister
	configs     ConfigReader
	candidates  CandidateSource
	attempts    AttemptStore
	dispatcher  Dispatcher
	countryCode string
	now         func() time.Time
	log         *logger.Logger
}

// New creates the campaign service.
func New(tenantLister TenantLister, configs ConfigReader, candidates CandidateSource, attempts AttemptStore, dispatcher Dispatcher, countryCode string, log *logger.Logger) *Service {
	return &Service{
		tenants:     tenantLister,
		configs:     configs,
		candidates:  candidates,
		attempts:    attempts,
		dispatcher:  dispatcher,
		countryCode: countryCode,
		now:         time.Now,
		log:         log,
	}
}

// SetClock overrides the time source, used in tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// RunDailyCampaign processes every tenant once, sequentially. A tenant
// failure is logged and never stops the remaining tenants.
func (s *Service) RunDailyCampaign(ctx context.Context) error {
	s.log.Info("daily reactivation campaign starting")

	projects, err := s.tenants.ListAll(ctx)
	if err != nil {
		return err
	}

	for i := range projects {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		project := &projects[i]
		if err := s.RunCampaignForTenant(ctx, project); err != nil {
			s.log.Error("campaign failed for tenant",
				"tenant_id", project.ID.String(),
				"tenant_name", project.Name,
				"error", err,
			)
		}
	}

	s.log.Info("daily reactivation campaign completed")
	return nil
}

// RunCampaignForTenant runs the campaign for a single tenant. Absent or
// disabled config is a silent no-op; per-candidate failures are contained
// inside the loop.
func (s *Service) RunCampaignForTenant(ctx context.Context, project *tenants.Project) error {
	cfg, err := s.configs.GetReactivationConfig(ctx, project.ID)
	if err != nil {
		return err
	}
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	now := s.now()
	threshold := now.Add(-time.Duration(cfg.DelayDays) * 24 * time.Hour)

	candidates, err := s.candidates.GetInactiveCustomers(ctx, project.ID, threshold)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return nil
	}

	s.log.Info("inactive candidates found",
		"tenant_id", project.ID.String(),
		"count", len(candidates),
	)

	tenantChannels := channel.TenantChannels{
		WhatsAppPhoneNumberID: project.WhatsAppPhoneID(),
		WhatsAppAccessToken:   project.WhatsAppToken(),
		TelegramBotToken:      project.TelegramToken(),
		DefaultCountryCode:    s.countryCode,
	}

	var sent, skipped int
	for i := range candidates {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		ok, err := s.processCandidate(ctx, project.ID, tenantChannels, cfg, &candidates[i], now)
		if err != nil {
			skipped++
			s.log.Error("candidate processing failed",
				"tenant_id", project.ID.String(),
				"phone", candidates[i].CustomerPhone,
				"error", err,
			)
			continue
		}
		if ok {
			sent++
		} else {
			skipped++
		}
	}

	s.log.CampaignRun(project.ID, len(candidates), sent, skipped)
	return nil
}

// processCandidate applies the attempt-limit and cooldown policy, renders the
// message and dispatches it. It reports whether a message went out; an
// attempt is recorded if and only if dispatch succeeded.
func (s *Service) processCandidate(ctx context.Context, projectID uuid.UUID, tenantChannels channel.TenantChannels, cfg *botconfig.ReactivationConfig, candidate *appointments.InactivityCandidate, now time.Time) (bool, error) {
	if strings.TrimSpace(candidate.CustomerPhone) == "" {
		return false, nil
	}

	lastAttempt, err := s.attempts.GetLatestByCustomerPhone(ctx, projectID, candidate.CustomerPhone)
	if err != nil {
		return false, err
	}

	attemptNumber := 1
	if lastAttempt != nil {
		attemptNumber = lastAttempt.AttemptNumber + 1
	}

	// Exhausted candidates stay excluded until a new booking resets their
	// inactivity status.
	if attemptNumber > cfg.MaxAttempts {
		return false, nil
	}

	if lastAttempt != nil {
		cooldown := time.Duration(cfg.DaysBetweenAttempts) * 24 * time.Hour
		if now.Sub(lastAttempt.CreatedAt) < cooldown {
			return false, nil
		}
	}

	daysInactive := int(now.Sub(candidate.LastVisit).Hours() / 24)
	message := s.renderMessage(cfg, candidate, attemptNumber, daysInactive)

	decision, ok := channel.Select(channel.CustomerIdentity{
		Name:         candidate.CustomerName,
		Phone:        candidate.CustomerPhone,
		Email:        candidate.CustomerEmail,
		AuthProvider: candidate.AuthProvider,
	}, tenantChannels)
	if !ok {
		return false, nil
	}

	// A failed dispatch writes no record: the candidate stays eligible for
	// the next scheduled run.
	if err := s.dispatcher.Send(ctx, tenantChannels, decision, message); err != nil {
		s.log.MessageFailed(string(decision.Channel), decision.Destination, "reactivation", projectID, err)
		return false, nil
	}

	attempt := &Attempt{
		ProjectID:       projectID,
		CustomerPhone:   candidate.CustomerPhone,
		CustomerName:    candidate.CustomerName,
		LastVisitDate:   candidate.LastVisit,
		DaysInactive:    daysInactive,
		AttemptNumber:   attemptNumber,
		MessageSent:     message,
		DiscountOffered: cfg.OfferDiscount,
	}
	if cfg.OfferDiscount {
		pct := cfg.DiscountPercentage
		attempt.DiscountPercentage = &pct
	}

	if err := s.attempts.Create(ctx, attempt); err != nil {
		return false, err
	}

	s.log.MessageSent(string(decision.Channel), decision.Destination, "reactivation", projectID)
	return true, nil
}

// renderMessage selects the escalation variant for the attempt number,
// substitutes tokens and appends the discount offer when it is not already
// embedded in the base message.
func (s *Service) renderMessage(cfg *botconfig.ReactivationConfig, candidate *appointments.InactivityCandidate, attemptNumber, daysInactive int) string {
	messageTemplate := template.DefaultReactivationMessage
	if len(cfg.Messages) > 0 {
		// Variants cycle rather than clamp once attempts outnumber them.
		messageTemplate = cfg.Messages[(attemptNumber-1)%len(cfg.Messages)]
	}

	name := candidate.CustomerName
	if strings.TrimSpace(name) == "" {
		name = template.FallbackCustomerName
	}

	message := template.Render(messageTemplate, map[string]string{
		"name": name,
		"days": strconv.Itoa(daysInactive),
	})

	if cfg.OfferDiscount && cfg.DiscountMessage != "" {
		discountMsg := template.Render(cfg.DiscountMessage, map[string]string{
			"discount": strconv.Itoa(cfg.DiscountPercentage),
		})
		// Exact substring check: a template that already embeds the rendered
		// discount text must not get it twice.
		if !strings.Contains(message, discountMsg) {
			message += " " + discountMsg
		}
	}

	return message
}

// HandleAppointmentBooked attributes a new booking to the customer's most
// recent reactivation attempt, if any.
func (s *Service) HandleAppointmentBooked(ctx context.Context, projectID uuid.UUID, customerPhone string, appointmentID uuid.UUID) error {
	if strings.TrimSpace(customerPhone) == "" {
		return nil
	}

	lastAttempt, err := s.attempts.GetLatestByCustomerPhone(ctx, projectID, customerPhone)
	if err != nil {
		return err
	}
	if lastAttempt == nil || lastAttempt.Reactivated {
		return nil
	}

	return s.attempts.MarkReactivated(ctx, projectID, customerPhone, appointmentID)
}
