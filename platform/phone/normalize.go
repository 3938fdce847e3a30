// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "CO"

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// ForMessaging prepares a phone number for the WhatsApp Cloud API: the plus
// sign and spaces are stripped, and a bare 10-digit national number gains the
// default country code. Numbers of any other shape pass through unchanged.
func ForMessaging(input, countryCode string) string {
	target := strings.TrimSpace(input)
	target = strings.ReplaceAll(target, "+", "")
	target = strings.ReplaceAll(target, " ", "")

	if len(target) == 10 && countryCode != "" && !strings.HasPrefix(target, countryCode) {
		target = countryCode + target
	}

	return target
}
