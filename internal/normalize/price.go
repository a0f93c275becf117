package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/avisingh/tradescan/internal/model"
)

// digitRun captures the first number in a price string. Commas are stripped
// before matching so grouped amounts like "₹ 5,000" parse as one run.
var digitRun = regexp.MustCompile(`\d+\.?\d*`)

// CleanPrice converts a free-text price into rupees. Magnitude words are
// applied in a fixed priority: lakh, then crore, then a bare "k". Only the
// first matching multiplier applies, even for pathological inputs naming
// more than one.
func CleanPrice(text string) *float64 {
	if text == "" || text == model.PriceNotAvailable {
		return nil
	}

	flat := strings.ReplaceAll(text, ",", "")
	match := digitRun.FindString(flat)
	if match == "" {
		return nil
	}

	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}

	lower := strings.ToLower(flat)
	switch {
	case strings.Contains(lower, "lakh"):
		value *= 100_000
	case strings.Contains(lower, "crore"):
		value *= 10_000_000
	case strings.Contains(lower, "k"):
		value *= 1_000
	}

	return model.Float64(value)
}

// CategorizePrice bins a cleaned price. Boundaries are half-open on the low
// end: exactly 1000 is Low, exactly 10000 is Medium, and so on.
func CategorizePrice(price *float64) model.PriceCategory {
	if price == nil {
		return model.PriceUnknown
	}
	switch p := *price; {
	case p < 1_000:
		return model.PriceBudget
	case p < 10_000:
		return model.PriceLow
	case p < 50_000:
		return model.PriceMedium
	case p < 100_000:
		return model.PriceHigh
	default:
		return model.PricePremium
	}
}
