package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/avisingh/tradescan/internal/model"
)

const maxListed = 10

// FileInfo describes one exported dataset file.
type FileInfo struct {
	Name       string         `json:"filename"`
	Size       int64          `json:"size_bytes"`
	Modified   time.Time      `json:"modified"`
	Rows       int            `json:"rows"`
	Categories map[string]int `json:"categories,omitempty"`
}

// Reader loads exported dataset files back into record tables.
type Reader struct {
	dir string
}

func NewReader(dir string) *Reader {
	return &Reader{dir: dir}
}

// Resolve maps a bare filename to a path inside the data directory,
// rejecting anything that tries to escape it.
func (r *Reader) Resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("dataset: invalid filename %q", name)
	}
	return filepath.Join(r.dir, name), nil
}

// Load reads a CSV or JSON dataset file into records. The format is
// chosen by extension.
func (r *Reader) Load(name string) ([]model.Record, error) {
	path, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return loadJSON(path)
	case ".csv":
		return loadCSV(path)
	default:
		return nil, fmt.Errorf("dataset: unsupported file type %q", filepath.Ext(path))
	}
}

// List returns the newest dataset files, most recent first, capped at
// ten entries.
func (r *Reader) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("dataset: read dir: %w", err)
	}

	var infos []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".csv" && ext != ".json" {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		info := FileInfo{Name: e.Name(), Size: fi.Size(), Modified: fi.ModTime()}
		if records, err := r.Load(e.Name()); err == nil {
			info.Rows = len(records)
			info.Categories = countCategories(records)
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Modified.After(infos[j].Modified)
	})
	if len(infos) > maxListed {
		infos = infos[:maxListed]
	}
	return infos, nil
}

// Latest returns the most recently written dataset file name with the
// given extension, or "" when none exist.
func (r *Reader) Latest(ext string) (string, error) {
	infos, err := r.List()
	if err != nil {
		return "", err
	}
	for _, info := range infos {
		if strings.EqualFold(filepath.Ext(info.Name), ext) {
			return info.Name, nil
		}
	}
	return "", nil
}

func countCategories(records []model.Record) map[string]int {
	if len(records) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, rec := range records {
		counts[rec.Category]++
	}
	return counts
}

func loadJSON(path string) ([]model.Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read json: %w", err)
	}
	var records []model.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("dataset: parse json: %w", err)
	}
	return records, nil
}

func loadCSV(path string) ([]model.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open csv: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	head, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("dataset: read header: %w", err)
	}

	col := make(map[string]int, len(head))
	for i, name := range head {
		col[strings.TrimSpace(name)] = i
	}
	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var records []model.Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: read row: %w", err)
		}

		var rec model.Record
		rec.Name = field(row, "name")
		rec.PriceText = field(row, "price")
		rec.PriceNumeric = parseOptionalFloat(field(row, "price_numeric"))
		rec.Company = field(row, "company")
		rec.Location = field(row, "location")
		rec.Category = field(row, "category")
		rec.Rating = field(row, "rating")
		rec.URL = field(row, "url")
		rec.Source = field(row, "source")
		if ts, err := time.Parse(time.RFC3339, field(row, "scraped_at")); err == nil {
			rec.ScrapedAt = ts
		}
		rec.PriceCleaned = parseOptionalFloat(field(row, "price_cleaned"))
		rec.PriceCategory = model.PriceCategory(field(row, "price_category"))
		rec.LocationCleaned = field(row, "location_cleaned")
		rec.State = field(row, "state")
		rec.CompanyCleaned = field(row, "company_cleaned")
		if kw := strings.Fields(field(row, "product_keywords")); len(kw) > 0 {
			rec.Keywords = kw
		}
		if score, err := strconv.Atoi(field(row, "quality_score")); err == nil {
			rec.QualityScore = score
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseOptionalFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
