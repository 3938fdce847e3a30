// Package channel decides which messaging channel reaches a customer. The
// selection is a pure function over the customer identity and the tenant's
// configured credentials; it performs no I/O.
package channel

import (
	"strings"

	"citaplan_backend/platform/phone"
)

// Channel identifies a messaging transport.
type Channel string

const (
	WhatsApp Channel = "whatsapp"
	Telegram Channel = "telegram"
	SMS      Channel = "sms"
)

// TelegramSyntheticDomain marks customers created from Telegram chats. Their
// email is synthetic and their phone field holds the Telegram chat id.
const TelegramSyntheticDomain = "@telegram.temp"

// AuthProviderEmail is the local email/password auth provider; those
// customers are reachable by SMS.
const AuthProviderEmail = "email"

// CustomerIdentity is the customer-side input to channel selection.
type CustomerIdentity struct {
	Name         string
	Phone        string
	Email        string
	AuthProvider string
}

// TenantChannels is the tenant-side input: a read-only projection of the
// tenant's channel credentials.
type TenantChannels struct {
	WhatsAppPhoneNumberID string
	WhatsAppAccessToken   string
	TelegramBotToken      string
	DefaultCountryCode    string
}

// HasWhatsApp reports whether the tenant has complete WhatsApp credentials.
func (t TenantChannels) HasWhatsApp() bool {
	return t.WhatsAppPhoneNumberID != "" && t.WhatsAppAccessToken != ""
}

// Decision is the outcome of channel selection.
type Decision struct {
	Channel     Channel
	Destination string
}

// Select picks the channel for a customer in priority order: Telegram for
// synthetic Telegram identities, WhatsApp when the tenant has credentials,
// SMS for local email/password accounts. The second return value is false
// when no channel applies; the caller must treat that as a hard failure.
func Select(customer CustomerIdentity, tenant TenantChannels) (Decision, bool) {
	if strings.HasSuffix(customer.Email, TelegramSyntheticDomain) {
		// Phone field is repurposed as the chat id for these records.
		return Decision{Channel: Telegram, Destination: customer.Phone}, true
	}

	if tenant.HasWhatsApp() {
		destination := phone.ForMessaging(customer.Phone, tenant.DefaultCountryCode)
		return Decision{Channel: WhatsApp, Destination: destination}, true
	}

	if customer.AuthProvider == AuthProviderEmail {
		return Decision{Channel: SMS, Destination: customer.Phone}, true
	}

	return Decision{}, false
}
