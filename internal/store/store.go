// Package store persists normalized product records in Postgres. The store
// is optional; the pipeline runs file-only when no database is configured.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/avisingh/tradescan/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
    id               SERIAL PRIMARY KEY,
    name             TEXT NOT NULL,
    price_text       TEXT NOT NULL DEFAULT '',
    price_numeric    DOUBLE PRECISION,
    company          TEXT NOT NULL DEFAULT '',
    location         TEXT NOT NULL DEFAULT '',
    category         TEXT NOT NULL DEFAULT '',
    rating           TEXT NOT NULL DEFAULT '',
    url              TEXT NOT NULL DEFAULT '',
    source           TEXT NOT NULL DEFAULT '',
    scraped_at       TIMESTAMPTZ,
    price_cleaned    DOUBLE PRECISION,
    price_category   TEXT NOT NULL DEFAULT '',
    location_cleaned TEXT NOT NULL DEFAULT '',
    state            TEXT NOT NULL DEFAULT '',
    company_cleaned  TEXT NOT NULL DEFAULT '',
    keywords         TEXT[] NOT NULL DEFAULT '{}',
    quality_score    INTEGER NOT NULL DEFAULT 0,
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (name, company)
);

CREATE INDEX IF NOT EXISTS idx_products_category ON products (category);
CREATE INDEX IF NOT EXISTS idx_products_state ON products (state);
CREATE INDEX IF NOT EXISTS idx_products_quality ON products (quality_score);
`

// Filter narrows ListRecords. Zero values leave the dimension open.
type Filter struct {
	Category   string
	Source     string
	State      string
	MinQuality int
	Limit      int
	Offset     int
}

type Store struct {
	db *sql.DB
}

func New(connStr string) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the products table and its indexes if missing.
func (s *Store) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// SaveRecords upserts the table on the raw (name, company) key, the same
// identity deduplication uses, so reruns refresh rows instead of
// multiplying them.
func (s *Store) SaveRecords(ctx context.Context, records []model.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO products (
    name, price_text, price_numeric, company, location, category, rating,
    url, source, scraped_at, price_cleaned, price_category, location_cleaned,
    state, company_cleaned, keywords, quality_score, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW())
ON CONFLICT (name, company) DO UPDATE SET
    price_text       = EXCLUDED.price_text,
    price_numeric    = EXCLUDED.price_numeric,
    location         = EXCLUDED.location,
    category         = EXCLUDED.category,
    rating           = EXCLUDED.rating,
    url              = EXCLUDED.url,
    source           = EXCLUDED.source,
    scraped_at       = EXCLUDED.scraped_at,
    price_cleaned    = EXCLUDED.price_cleaned,
    price_category   = EXCLUDED.price_category,
    location_cleaned = EXCLUDED.location_cleaned,
    state            = EXCLUDED.state,
    company_cleaned  = EXCLUDED.company_cleaned,
    keywords         = EXCLUDED.keywords,
    quality_score    = EXCLUDED.quality_score,
    updated_at       = NOW()`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		_, err := stmt.ExecContext(ctx,
			rec.Name,
			rec.PriceText,
			nullFloat(rec.PriceNumeric),
			rec.Company,
			rec.Location,
			rec.Category,
			rec.Rating,
			rec.URL,
			rec.Source,
			rec.ScrapedAt,
			nullFloat(rec.PriceCleaned),
			string(rec.PriceCategory),
			rec.LocationCleaned,
			rec.State,
			rec.CompanyCleaned,
			pq.StringArray(rec.Keywords),
			rec.QualityScore,
		)
		if err != nil {
			return fmt.Errorf("upsert product %q: %w", rec.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// listQuery renders the filtered select. Split out so the SQL shape is
// testable without a database.
func listQuery(f Filter) (string, []interface{}, error) {
	builder := sq.Select(
		"name", "price_text", "price_numeric", "company", "location",
		"category", "rating", "url", "source", "scraped_at",
		"price_cleaned", "price_category", "location_cleaned", "state",
		"company_cleaned", "keywords", "quality_score",
	).
		From("products").
		OrderBy("updated_at DESC, id DESC").
		PlaceholderFormat(sq.Dollar)

	builder = applyFilter(builder, f)
	builder = builder.Limit(uint64(clampLimit(f.Limit, 100, 1000)))
	if f.Offset > 0 {
		builder = builder.Offset(uint64(f.Offset))
	}
	return builder.ToSql()
}

func applyFilter(builder sq.SelectBuilder, f Filter) sq.SelectBuilder {
	if f.Category != "" {
		builder = builder.Where(sq.Eq{"category": f.Category})
	}
	if f.Source != "" {
		builder = builder.Where(sq.Eq{"source": f.Source})
	}
	if f.State != "" {
		builder = builder.Where(sq.Eq{"state": f.State})
	}
	if f.MinQuality > 0 {
		builder = builder.Where(sq.GtOrEq{"quality_score": f.MinQuality})
	}
	return builder
}

// ListRecords returns stored records matching the filter, newest first.
func (s *Store) ListRecords(ctx context.Context, f Filter) ([]model.Record, error) {
	query, args, err := listQuery(f)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		var (
			rec          model.Record
			priceNumeric sql.NullFloat64
			priceCleaned sql.NullFloat64
			scrapedAt    sql.NullTime
			keywords     pq.StringArray
			category     string
		)
		err := rows.Scan(
			&rec.Name, &rec.PriceText, &priceNumeric, &rec.Company,
			&rec.Location, &rec.Category, &rec.Rating, &rec.URL, &rec.Source,
			&scrapedAt, &priceCleaned, &category, &rec.LocationCleaned,
			&rec.State, &rec.CompanyCleaned, &keywords, &rec.QualityScore,
		)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if priceNumeric.Valid {
			rec.PriceNumeric = model.Float64(priceNumeric.Float64)
		}
		if priceCleaned.Valid {
			rec.PriceCleaned = model.Float64(priceCleaned.Float64)
		}
		if scrapedAt.Valid {
			rec.ScrapedAt = scrapedAt.Time
		}
		rec.PriceCategory = model.PriceCategory(category)
		if len(keywords) > 0 {
			rec.Keywords = []string(keywords)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return records, nil
}

// CountRecords reports how many stored rows match the filter.
func (s *Store) CountRecords(ctx context.Context, f Filter) (int, error) {
	builder := applyFilter(sq.Select("COUNT(*)").From("products").PlaceholderFormat(sq.Dollar), f)

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

func clampLimit(limit, defaultLimit, maxLimit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
