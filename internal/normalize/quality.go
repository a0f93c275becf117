package normalize

import "github.com/avisingh/tradescan/internal/model"

// Field weights sum to exactly 100, so the raw sum is the score.
const (
	weightName     = 30
	weightPrice    = 25
	weightCompany  = 20
	weightLocation = 15
	weightURL      = 10
)

// qualityScore sums the weighted presence checks over a normalized record.
// The company check runs against the raw company field: "To be updated"
// still identifies a seller slot, only "Unknown" is treated as absent.
func qualityScore(rec model.Record) int {
	score := 0
	if rec.Name != "" {
		score += weightName
	}
	if rec.PriceCleaned != nil {
		score += weightPrice
	}
	if rec.Company != model.Unknown && rec.Company != "" {
		score += weightCompany
	}
	if rec.LocationCleaned != model.Unknown {
		score += weightLocation
	}
	if rec.URL != "" {
		score += weightURL
	}
	return score
}

// Apply computes every derived field for one raw record. It is pure: the
// same raw record always yields the same normalized record, and applying it
// to an already-normalized record's raw fields changes nothing.
func Apply(raw model.RawRecord) model.Record {
	rec := model.Record{RawRecord: raw}
	rec.PriceCleaned = CleanPrice(raw.PriceText)
	rec.PriceCategory = CategorizePrice(rec.PriceCleaned)
	rec.LocationCleaned = CleanLocation(raw.Location)
	rec.State = ExtractState(rec.LocationCleaned)
	rec.CompanyCleaned = CleanCompany(raw.Company)
	rec.Keywords = ExtractKeywords(raw.Name)
	rec.QualityScore = qualityScore(rec)
	return rec
}
