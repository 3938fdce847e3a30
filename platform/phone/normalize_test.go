package phone

import "testing"

func TestForMessaging(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		countryCode string
		want        string
	}{
		{"bare national number gains country code", "3001234567", "57", "573001234567"},
		{"plus and spaces stripped", "+57 300 1234567", "57", "573001234567"},
		{"already prefixed passes through", "573001234567", "57", "573001234567"},
		{"ten digits starting with code kept as is", "5730012345", "57", "5730012345"},
		{"short number unchanged", "12345", "57", "12345"},
		{"long international unchanged", "14155550123", "57", "14155550123"},
		{"empty country code leaves national number", "3001234567", "", "3001234567"},
		{"surrounding whitespace trimmed", "  3001234567  ", "57", "573001234567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ForMessaging(tt.input, tt.countryCode); got != tt.want {
				t.Fatalf("ForMessaging(%q, %q) = %q, want %q", tt.input, tt.countryCode, got, tt.want)
			}
		})
	}
}

func TestNormalizeE164(t *testing.T) {
	if got := NormalizeE164("300 123 4567"); got != "+573001234567" {
		t.Fatalf("NormalizeE164() = %q, want +573001234567", got)
	}
	if got := NormalizeE164("not a phone"); got != "not a phone" {
		t.Fatalf("NormalizeE164(invalid) = %q, want input back", got)
	}
	if got := NormalizeE164("   "); got != "" {
		t.Fatalf("NormalizeE164(blank) = %q, want empty", got)
	}
}
