package responder

import (
	"strings"

	"github.com/elliotchance/pie/v2"
)

type Intent string

const (
	IntentAppointment Intent = "appointment"
	IntentAddPet      Intent = "add_pet"
	IntentMedication  Intent = "medication"
	IntentPetInfo     Intent = "pet_info"
	IntentFallback    Intent = "fallback"
)

type intentRule struct {
	intent   Intent
	keywords []string
}

// Rule order matters: the first matching rule wins, so classification
// is a pure function of the message content.
var intentRules = []intentRule{
	{IntentAppointment, []string{"appointment", "book a visit", "schedule a visit"}},
	{IntentAddPet, []string{"new pet", "add pet", "add a pet", "register pet"}},
	{IntentMedication, []string{"medication", "medicine", "pill", "vaccine"}},
	{IntentPetInfo, []string{"pet info", "health record", "medical record", "checkup history"}},
}

func classify(content string) Intent {
	lowered := strings.ToLower(content)

	idx := pie.FindFirstUsing(intentRules, func(rule intentRule) bool {
		return pie.Any(rule.keywords, func(kw string) bool {
			return strings.Contains(lowered, kw)
		})
	})
	if idx < 0 {
		return IntentFallback
	}

	return intentRules[idx].intent
}
