package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/avisingh/tradescan/internal/model"
)

// header is the fixed column order of the output table: the raw fields
// first, derived fields after, matching the JSON field set exactly.
var header = []string{
	"name", "price", "price_numeric", "company", "location", "category",
	"rating", "url", "source", "scraped_at",
	"price_cleaned", "price_category", "location_cleaned", "state",
	"company_cleaned", "product_keywords", "quality_score",
}

// Writer persists normalized record tables as timestamped CSV and JSON
// file pairs under one data directory.
type Writer struct {
	dir string
	now func() time.Time
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

// Write serializes the table to both formats. Both files carry the same
// field set and values; JSON keeps numbers as numbers and absent prices as
// null.
func (w *Writer) Write(records []model.Record, prefix string) (csvPath, jsonPath string, err error) {
	if prefix == "" {
		prefix = "products"
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", "", fmt.Errorf("dataset: create dir: %w", err)
	}

	stamp := w.now().Format("20060102_150405")
	csvPath = filepath.Join(w.dir, fmt.Sprintf("%s_%s.csv", prefix, stamp))
	jsonPath = filepath.Join(w.dir, fmt.Sprintf("%s_%s.json", prefix, stamp))

	if err := w.writeJSON(jsonPath, records); err != nil {
		return "", "", err
	}
	if err := w.writeCSV(csvPath, records); err != nil {
		return "", "", err
	}
	return csvPath, jsonPath, nil
}

func (w *Writer) writeJSON(path string, records []model.Record) error {
	if records == nil {
		records = []model.Record{}
	}
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("dataset: marshal json: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("dataset: write json: %w", err)
	}
	return nil
}

func (w *Writer) writeCSV(path string, records []model.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dataset: create csv: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("dataset: write header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			rec.Name,
			rec.PriceText,
			formatOptionalFloat(rec.PriceNumeric),
			rec.Company,
			rec.Location,
			rec.Category,
			rec.Rating,
			rec.URL,
			rec.Source,
			rec.ScrapedAt.Format(time.RFC3339),
			formatOptionalFloat(rec.PriceCleaned),
			string(rec.PriceCategory),
			rec.LocationCleaned,
			rec.State,
			rec.CompanyCleaned,
			strings.Join(rec.Keywords, " "),
			strconv.Itoa(rec.QualityScore),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("dataset: write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatOptionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
