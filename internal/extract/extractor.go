package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/avisingh/tradescan/internal/model"
)

const (
	minNameRunes = 11
	maxNameRunes = 199
)

var (
	// currencyPattern flags a text node as a plausible price fragment.
	currencyPattern = regexp.MustCompile(`(?i)₹|Rs|INR|Price`)
	// numberRun captures a comma-grouped digit run inside a price fragment.
	numberRun = regexp.MustCompile(`[\d,]+`)

	// noiseWords reject navigation chrome masquerading as product links.
	noiseWords = []string{"home", "about", "contact", "login", "category", "more"}
)

// Extractor scans parsed marketplace pages for anchor elements that look
// like product listings. Precision is heuristic: every filter reduces noise,
// none guarantees the survivors are real products.
type Extractor struct {
	now func() time.Time
}

func New() *Extractor {
	return &Extractor{now: time.Now}
}

// Extract walks anchors in document order and emits up to maxResults raw
// records. A malformed or empty document yields zero records, never an
// error. The document is not mutated.
func (e *Extractor) Extract(doc *goquery.Document, category, sourceName string, maxResults int) []model.RawRecord {
	if doc == nil || maxResults <= 0 {
		return nil
	}

	seen := make(map[string]struct{})
	var records []model.RawRecord

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		name := candidateName(sel)
		if !plausibleName(name) {
			return true
		}
		if _, dup := seen[name]; dup {
			return true
		}
		if containsNoise(name) {
			return true
		}
		seen[name] = struct{}{}

		priceText := model.PriceOnRequest
		var priceNumeric *float64
		if node := sel.Get(0); node.Parent != nil {
			if frag := findPriceFragment(node.Parent); frag != "" {
				priceText = frag
				priceNumeric = parseFirstNumber(frag)
			}
		}

		records = append(records, model.RawRecord{
			Name:         name,
			PriceText:    priceText,
			PriceNumeric: priceNumeric,
			Company:      model.CompanyPending,
			Location:     model.DefaultLocation,
			Category:     category,
			URL:          sel.AttrOr("href", ""),
			Source:       sourceName,
			ScrapedAt:    e.now(),
		})
		return len(records) < maxResults
	})

	return records
}

// candidateName prefers the title attribute over element text, with
// whitespace collapsed either way.
func candidateName(sel *goquery.Selection) string {
	name := strings.TrimSpace(sel.AttrOr("title", ""))
	if name == "" {
		name = sel.Text()
	}
	return strings.Join(strings.Fields(name), " ")
}

func plausibleName(name string) bool {
	if name == "" {
		return false
	}
	n := utf8.RuneCountInString(name)
	return n >= minNameRunes && n <= maxNameRunes
}

func containsNoise(name string) bool {
	lower := strings.ToLower(name)
	for _, word := range noiseWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// findPriceFragment returns the first text node under n, in document order,
// that mentions a currency marker. The anchor's own text participates: the
// scan covers the whole parent subtree.
func findPriceFragment(n *html.Node) string {
	if n.Type == html.TextNode {
		if currencyPattern.MatchString(n.Data) {
			return strings.TrimSpace(n.Data)
		}
		return ""
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if frag := findPriceFragment(c); frag != "" {
			return frag
		}
	}
	return ""
}

// parseFirstNumber parses the first comma-grouped digit run. A fragment
// without a parseable number leaves the numeric price unset; the text field
// is retained regardless.
func parseFirstNumber(fragment string) *float64 {
	match := numberRun.FindString(fragment)
	if match == "" {
		return nil
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return nil
	}
	return model.Float64(value)
}
