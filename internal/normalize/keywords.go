package normalize

import (
	"strings"
	"unicode/utf8"
)

const maxKeywords = 5

var stopWords = map[string]struct{}{
	"and": {}, "or": {}, "the": {}, "a": {}, "an": {}, "in": {},
	"on": {}, "at": {}, "for": {}, "with": {}, "from": {}, "to": {},
}

// ExtractKeywords reduces a product name to at most five lowercase tokens,
// keeping original word order rather than ranking by frequency.
func ExtractKeywords(name string) []string {
	if name == "" {
		return nil
	}

	var keywords []string
	for _, word := range strings.Fields(strings.ToLower(name)) {
		if _, stop := stopWords[word]; stop {
			continue
		}
		if utf8.RuneCountInString(word) < 3 {
			continue
		}
		keywords = append(keywords, word)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}
