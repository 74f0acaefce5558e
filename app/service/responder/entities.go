package responder

import (
	"regexp"
	"strings"

	"github.com/elliotchance/pie/v2"
)

var speciesPattern = regexp.MustCompile(`(?i)\b(dog|cat|bird|fish|hamster|rabbit|turtle|snake)\b`)

var knownBreeds = []string{
	"labrador", "poodle", "bulldog", "shepherd", "beagle", "terrier",
	"siamese", "persian", "maine coon", "bengal", "ragdoll",
}

// extractEntities pulls pet species/breed mentions out of free text.
func extractEntities(text string) map[string]string {
	entities := make(map[string]string)

	if match := speciesPattern.FindString(text); match != "" {
		entities["species"] = strings.ToLower(match)
	}

	lowered := strings.ToLower(text)
	idx := pie.FindFirstUsing(knownBreeds, func(breed string) bool {
		return strings.Contains(lowered, breed)
	})
	if idx >= 0 {
		entities["breed"] = knownBreeds[idx]
	}

	return entities
}
