package dispatch

import (
	"context"
	"errors"
	"testing"

	"citaplan_backend/internal/engagement/channel"
	"citaplan_backend/platform/logger"
)

type fakeWhatsApp struct {
	calls []string
	err   error
}

func (f *fakeWhatsApp) SendText(_ context.Context, phoneNumberID, _, toPhone, _ string) error {
	f.calls = append(f.calls, phoneNumberID+"->"+toPhone)
	return f.err
}

type fakeTelegram struct {
	calls []string
}

func (f *fakeTelegram) SendMessage(_ context.Context, _, chatID, _ string) error {
	f.calls = append(f.calls, chatID)
	return nil
}

type fakeSMS struct {
	calls []string
}

func (f *fakeSMS) Send(_ context.Context, toPhone, _ string) error {
	f.calls = append(f.calls, toPhone)
	return nil
}

func newTestDispatcher(wa *fakeWhatsApp, tg *fakeTelegram, sms *fakeSMS) *Dispatcher {
	return New(wa, tg, sms, 0, logger.New("test"))
}

func TestSendRoutesWhatsApp(t *testing.T) {
	wa := &fakeWhatsApp{}
	d := newTestDispatcher(wa, &fakeTelegram{}, &fakeSMS{})

	tenant := channel.TenantChannels{WhatsAppPhoneNumberID: "100", WhatsAppAccessToken: "tok"}
	decision := channel.Decision{Channel: channel.WhatsApp, Destination: "573001234567"}

	if err := d.Send(context.Background(), tenant, decision, "hola"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(wa.calls) != 1 || wa.calls[0] != "100->573001234567" {
		t.Fatalf("whatsapp calls = %v", wa.calls)
	}
}

func TestSendRoutesTelegram(t *testing.T) {
	tg := &fakeTelegram{}
	d := newTestDispatcher(&fakeWhatsApp{}, tg, &fakeSMS{})

	tenant := channel.TenantChannels{TelegramBotToken: "bot"}
	decision := channel.Decision{Channel: channel.Telegram, Destination: "987654"}

	if err := d.Send(context.Background(), tenant, decision, "hola"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(tg.calls) != 1 || tg.calls[0] != "987654" {
		t.Fatalf("telegram calls = %v", tg.calls)
	}
}

func TestSendRoutesSMSWithoutCredentials(t *testing.T) {
	sms := &fakeSMS{}
	d := newTestDispatcher(&fakeWhatsApp{}, &fakeTelegram{}, sms)

	decision := channel.Decision{Channel: channel.SMS, Destination: "3001234567"}

	if err := d.Send(context.Background(), channel.TenantChannels{}, decision, "hola"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(sms.calls) != 1 {
		t.Fatalf("sms calls = %v", sms.calls)
	}
}

func TestSendEmptyDecisionIsNoChannel(t *testing.T) {
	d := newTestDispatcher(&fakeWhatsApp{}, &fakeTelegram{}, &fakeSMS{})

	err := d.Send(context.Background(), channel.TenantChannels{}, channel.Decision{}, "hola")
	if !errors.Is(err, ErrNoChannel) {
		t.Fatalf("Send() error = %v, want ErrNoChannel", err)
	}
}

func TestSendWhatsAppWithoutCredentialsFails(t *testing.T) {
	wa := &fakeWhatsApp{}
	d := newTestDispatcher(wa, &fakeTelegram{}, &fakeSMS{})

	decision := channel.Decision{Channel: channel.WhatsApp, Destination: "573001234567"}

	if err := d.Send(context.Background(), channel.TenantChannels{}, decision, "hola"); err == nil {
		t.Fatal("expected error for missing credentials")
	}
	if len(wa.calls) != 0 {
		t.Fatalf("whatsapp should not be called, got %v", wa.calls)
	}
}

func TestSendPropagatesProviderError(t *testing.T) {
	wa := &fakeWhatsApp{err: errors.New("provider down")}
	d := newTestDispatcher(wa, &fakeTelegram{}, &fakeSMS{})

	tenant := channel.TenantChannels{WhatsAppPhoneNumberID: "100", WhatsAppAccessToken: "tok"}
	decision := channel.Decision{Channel: channel.WhatsApp, Destination: "573001234567"}

	if err := d.Send(context.Background(), tenant, decision, "hola"); err == nil {
		t.Fatal("expected provider error")
	}
}
