// Package analysis builds summary reports over normalized product tables.
package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/avisingh/tradescan/internal/model"
)

const topN = 5

// CountEntry pairs a grouping value with its row count.
type CountEntry struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// PriceStats summarizes the numeric prices present in a table.
type PriceStats struct {
	Count    int     `json:"count"`
	Coverage float64 `json:"coverage"` // share of rows carrying a numeric price
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
}

// Report is a deterministic snapshot of one product table.
type Report struct {
	TotalProducts   int          `json:"total_products"`
	Categories      int          `json:"unique_categories"`
	Companies       int          `json:"unique_companies"`
	States          int          `json:"unique_states"`
	Prices          PriceStats   `json:"prices"`
	AvgQualityScore float64      `json:"avg_quality_score"`
	TopCategories   []CountEntry `json:"top_categories"`
	TopStates       []CountEntry `json:"top_states"`
	PriceBins       []CountEntry `json:"price_bins"`
	SampleShare     float64      `json:"sample_share"` // share of synthetic rows
}

// Build computes the report. The same table always produces the same
// report; ties in the top lists break alphabetically.
func Build(records []model.Record) Report {
	var rep Report
	rep.TotalProducts = len(records)
	if len(records) == 0 {
		return rep
	}

	categories := make(map[string]int)
	companies := make(map[string]struct{})
	states := make(map[string]int)
	bins := make(map[string]int)
	var prices []float64
	qualitySum := 0
	sampled := 0

	for _, rec := range records {
		categories[rec.Category]++
		if rec.CompanyCleaned != model.Unknown {
			companies[rec.CompanyCleaned] = struct{}{}
		}
		if rec.State != model.Unknown {
			states[rec.State]++
		}
		bins[string(rec.PriceCategory)]++
		if rec.PriceCleaned != nil {
			prices = append(prices, *rec.PriceCleaned)
		}
		qualitySum += rec.QualityScore
		if rec.Source == model.SampleSource {
			sampled++
		}
	}

	rep.Categories = len(categories)
	rep.Companies = len(companies)
	rep.States = len(states)
	rep.Prices = priceStats(prices, len(records))
	rep.AvgQualityScore = round2(float64(qualitySum) / float64(len(records)))
	rep.TopCategories = topCounts(categories, topN)
	rep.TopStates = topCounts(states, topN)
	rep.PriceBins = topCounts(bins, len(bins))
	rep.SampleShare = round2(float64(sampled) / float64(len(records)))
	return rep
}

func priceStats(prices []float64, total int) PriceStats {
	if len(prices) == 0 {
		return PriceStats{}
	}
	sorted := append([]float64(nil), prices...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, p := range sorted {
		sum += p
	}
	mid := len(sorted) / 2
	median := sorted[mid]
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}

	return PriceStats{
		Count:    len(sorted),
		Coverage: round2(float64(len(sorted)) / float64(total)),
		Min:      sorted[0],
		Max:      sorted[len(sorted)-1],
		Mean:     round2(sum / float64(len(sorted))),
		Median:   median,
	}
}

func topCounts(counts map[string]int, n int) []CountEntry {
	entries := make([]CountEntry, 0, len(counts))
	for value, count := range counts {
		entries = append(entries, CountEntry{Value: value, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Value < entries[j].Value
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

// Render formats the report as a plain-text block for CLI output.
func Render(rep Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "products:          %d\n", rep.TotalProducts)
	fmt.Fprintf(&b, "categories:        %d\n", rep.Categories)
	fmt.Fprintf(&b, "companies:         %d\n", rep.Companies)
	fmt.Fprintf(&b, "states:            %d\n", rep.States)
	fmt.Fprintf(&b, "avg quality score: %.2f\n", rep.AvgQualityScore)
	fmt.Fprintf(&b, "sample share:      %.0f%%\n", rep.SampleShare*100)

	if rep.Prices.Count > 0 {
		fmt.Fprintf(&b, "prices (%d of %d rows): min %.2f / median %.2f / mean %.2f / max %.2f\n",
			rep.Prices.Count, rep.TotalProducts, rep.Prices.Min, rep.Prices.Median,
			rep.Prices.Mean, rep.Prices.Max)
	} else {
		b.WriteString("prices: none numeric\n")
	}

	writeSection := func(title string, entries []CountEntry) {
		if len(entries) == 0 {
			return
		}
		b.WriteString(title + "\n")
		for _, e := range entries {
			fmt.Fprintf(&b, "  %-30s %d\n", e.Value, e.Count)
		}
	}
	writeSection("top categories:", rep.TopCategories)
	writeSection("top states:", rep.TopStates)
	writeSection("price bins:", rep.PriceBins)

	return b.String()
}
