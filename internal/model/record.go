package model

import "time"

// Sentinel values carried through from extraction. Raw records use these
// instead of empty strings so the output table stays human-readable.
const (
	PriceOnRequest       = "Price on Request"
	PriceNotAvailable    = "Price not available"
	LocationNotAvailable = "Location not available"
	Unknown              = "Unknown"
	CompanyPending       = "To be updated"
	DefaultLocation      = "India"

	// SampleSource marks synthetically generated backfill records.
	SampleSource = "Enhanced Sample Data"
)

// PriceCategory is the bin a cleaned price falls into.
type PriceCategory string

const (
	PriceBudget  PriceCategory = "Budget"
	PriceLow     PriceCategory = "Low"
	PriceMedium  PriceCategory = "Medium"
	PriceHigh    PriceCategory = "High"
	PricePremium PriceCategory = "Premium"
	PriceUnknown PriceCategory = "Unknown"
)

// RawRecord is a product listing as extracted from a marketplace page or
// produced by the sample generator. It is immutable once emitted.
type RawRecord struct {
	Name         string    `json:"name"`
	PriceText    string    `json:"price"`
	PriceNumeric *float64  `json:"price_numeric"`
	Company      string    `json:"company"`
	Location     string    `json:"location"`
	Category     string    `json:"category"`
	Rating       string    `json:"rating,omitempty"`
	URL          string    `json:"url"`
	Source       string    `json:"source"`
	ScrapedAt    time.Time `json:"scraped_at"`
}

// Record is a RawRecord plus the derived fields computed by the
// normalization stage. Derived fields are pure functions of the raw
// inputs; State additionally depends on LocationCleaned.
type Record struct {
	RawRecord

	PriceCleaned    *float64      `json:"price_cleaned"`
	PriceCategory   PriceCategory `json:"price_category"`
	LocationCleaned string        `json:"location_cleaned"`
	State           string        `json:"state"`
	CompanyCleaned  string        `json:"company_cleaned"`
	Keywords        []string      `json:"product_keywords"`
	QualityScore    int           `json:"quality_score"`
}

// DedupKey identifies a record for deduplication. The key uses the raw
// company field, not the cleaned one: two listings whose companies differ
// only in legal suffix are distinct sellers.
func (r RawRecord) DedupKey() string {
	return r.Name + "\x00" + r.Company
}

// Float64 returns a pointer to v, for optional numeric fields.
func Float64(v float64) *float64 { return &v }
