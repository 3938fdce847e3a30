// Package template renders customer-facing message templates. Rendering is
// pure string substitution: named tokens in braces are replaced with values,
// unknown tokens are left untouched so template authors can spot them.
package template

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Fallback strings used when a tenant has not customized its messages.
// Customer-facing copy is Spanish across the platform.
const (
	DefaultReactivationMessage = "Hola {name}, hace tiempo que no te vemos. ¿Te gustaría agendar una nueva cita?"
	DefaultReminderMessage     = "Hola, recordamos tu cita pendiente."
	DefaultFeedbackMessage     = "Hola {customerName}, ¿cómo calificarías tu experiencia del 1 al 5?"

	FallbackCustomerName = "Cliente"
	FallbackServiceName  = "Servicio"
	FallbackEmployeeName = "nuestro equipo"
)

// Render substitutes {token} placeholders with the given values.
func Render(tmpl string, tokens map[string]string) string {
	result := tmpl
	for key, value := range tokens {
		result = strings.ReplaceAll(result, "{"+key+"}", value)
	}
	return result
}

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// FormatDate renders a date as "2 de enero" in the given location.
func FormatDate(t time.Time, loc *time.Location) string {
	local := t.In(loc)
	return fmt.Sprintf("%d de %s", local.Day(), spanishMonths[local.Month()-1])
}

// FormatTime renders a clock time as "03:04 PM" in the given location.
func FormatTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("03:04 PM")
}

// FormatAddress prefixes a non-empty address with a location pin, and renders
// nothing for a blank one.
func FormatAddress(address string) string {
	if strings.TrimSpace(address) == "" {
		return ""
	}
	return "📍 " + address
}

// RelativeTime produces the human phrase for how soon an appointment starts:
// "mañana" at 22 hours or more, "en N horas" (rounded, minimum 1) at 90
// minutes or more, "en breve" below that.
func RelativeTime(until time.Duration) string {
	if until >= 22*time.Hour {
		return "mañana"
	}
	if until >= 90*time.Minute {
		hours := int(math.Round(until.Hours()))
		if hours < 1 {
			hours = 1
		}
		return fmt.Sprintf("en %d horas", hours)
	}
	return "en breve"
}

// Location resolves a tenant's IANA timezone, falling back to the platform
// default and finally to a fixed UTC-5 offset when neither resolves.
func Location(tenantTZ, defaultTZ string) *time.Location {
	for _, name := range []string{tenantTZ, defaultTZ} {
		if strings.TrimSpace(name) == "" {
			continue
		}
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.FixedZone("UTC-5", -5*60*60)
}
