// Package dispatch sends rendered messages through the transport matching a
// channel decision. Transports are injected capabilities; the dispatcher only
// routes, paces and reports per-attempt success or failure.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"citaplan_backend/internal/engagement/channel"
	"citaplan_backend/platform/logger"

	"golang.org/x/time/rate"
)

// ErrNoChannel is returned when a send is attempted without a usable channel.
var ErrNoChannel = errors.New("no messaging channel available for customer")

// WhatsAppSender sends a text through the Meta WhatsApp Cloud API.
type WhatsAppSender interface {
	SendText(ctx context.Context, phoneNumberID, accessToken, toPhone, text string) error
}

// TelegramSender sends a text through the Telegram Bot API.
type TelegramSender interface {
	SendMessage(ctx context.Context, botToken, chatID, text string) error
}

// SMSSender sends a text by SMS.
type SMSSender interface {
	Send(ctx context.Context, toPhone, text string) error
}

// Dispatcher routes messages to the transport for a channel decision.
// Outbound sends are paced by a shared rate limiter; the limiter waits
// rather than rejects, so pacing never drops a message.
type Dispatcher struct {
	whatsapp WhatsAppSender
	telegram TelegramSender
	sms      SMSSender
	limiter  *rate.Limiter
	log      *logger.Logger
}

// New creates a dispatcher. ratePerSecond bounds outbound provider calls; a
// non-positive value disables pacing.
func New(wa WhatsAppSender, tg TelegramSender, sms SMSSender, ratePerSecond float64, log *logger.Logger) *Dispatcher {
	var limiter *rate.Limiter
	if ratePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSecond), 1)
	}

	return &Dispatcher{
		whatsapp: wa,
		telegram: tg,
		sms:      sms,
		limiter:  limiter,
		log:      log,
	}
}

// Send delivers text to the destination chosen by the selector, using the
// tenant's credentials. A nil error means the provider accepted the message.
func (d *Dispatcher) Send(ctx context.Context, tenant channel.TenantChannels, decision channel.Decision, text string) error {
	if decision.Channel == "" || decision.Destination == "" {
		return ErrNoChannel
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	switch decision.Channel {
	case channel.WhatsApp:
		if !tenant.HasWhatsApp() {
			return fmt.Errorf("whatsapp selected but tenant credentials missing")
		}
		return d.whatsapp.SendText(ctx, tenant.WhatsAppPhoneNumberID, tenant.WhatsAppAccessToken, decision.Destination, text)
	case channel.Telegram:
		if tenant.TelegramBotToken == "" {
			return fmt.Errorf("telegram selected but tenant bot token missing")
		}
		return d.telegram.SendMessage(ctx, tenant.TelegramBotToken, decision.Destination, text)
	case channel.SMS:
		return d.sms.Send(ctx, decision.Destination, text)
	default:
		return fmt.Errorf("unknown channel %q", decision.Channel)
	}
}
