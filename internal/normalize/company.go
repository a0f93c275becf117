package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/avisingh/tradescan/internal/model"
)

// legalSuffixes are removed in this order; multi-word forms go first so
// "Pvt Ltd" is stripped whole rather than leaving a dangling "Pvt".
var legalSuffixes = buildSuffixPatterns(
	"Pvt Ltd", "Private Limited", "Ltd", "Inc", "Corporation", "Corp",
)

func buildSuffixPatterns(suffixes ...string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(suffixes))
	for _, s := range suffixes {
		patterns = append(patterns, regexp.MustCompile(`(?i)\b`+s+`\b\.?`))
	}
	return patterns
}

// CleanCompany strips legal-entity suffixes and canonicalizes casing.
func CleanCompany(company string) string {
	if company == "" || company == model.Unknown {
		return model.Unknown
	}

	out := strings.TrimSpace(company)
	for _, re := range legalSuffixes {
		out = re.ReplaceAllString(out, "")
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return model.Unknown
	}
	return cases.Title(language.Und).String(out)
}
