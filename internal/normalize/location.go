package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/avisingh/tradescan/internal/model"
)

// knownStates is matched in this exact order; the list order doubles as the
// tie-break when a location names more than one region.
var knownStates = []string{
	"Maharashtra", "Gujarat", "Delhi", "Tamil Nadu", "Karnataka",
	"Uttar Pradesh", "West Bengal", "Rajasthan", "Haryana",
	"Telangana", "Andhra Pradesh", "Punjab", "Madhya Pradesh",
}

// CleanLocation collapses whitespace and title-cases a free-text location.
func CleanLocation(location string) string {
	if location == "" || location == model.LocationNotAvailable {
		return model.Unknown
	}

	collapsed := strings.Join(strings.Fields(location), " ")
	if collapsed == "" {
		return model.Unknown
	}
	return cases.Title(language.Und).String(collapsed)
}

// ExtractState resolves a state from a cleaned location. Known states match
// case-insensitively as substrings; otherwise the trimmed last comma segment
// stands in (the whole string when there is no comma).
func ExtractState(locationCleaned string) string {
	if locationCleaned == model.Unknown {
		return model.Unknown
	}

	lower := strings.ToLower(locationCleaned)
	for _, state := range knownStates {
		if strings.Contains(lower, strings.ToLower(state)) {
			return state
		}
	}

	parts := strings.Split(locationCleaned, ",")
	last := strings.TrimSpace(parts[len(parts)-1])
	if last == "" {
		return model.Unknown
	}
	return last
}
