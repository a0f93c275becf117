package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/avisingh/tradescan/internal/model"
	"github.com/avisingh/tradescan/internal/sample"
	"github.com/avisingh/tradescan/internal/source"
)

const listingPage = `<html><body>
<div class="card">
  <a href="/p/1" title="Industrial Safety Helmet with Chin Strap">view</a>
  <span>₹ 45,000 per unit</span>
</div>
<div class="card">
  <a href="/p/2">Fire Extinguisher 6kg ABC Powder Type</a>
  <span>Price: Call seller for quote</span>
</div>
<div class="card">
  <a href="/p/3">Reflective Safety Jacket Fluorescent</a>
</div>
<a href="/">Home</a>
</body></html>`

// fakeFetcher serves canned documents keyed by URL and records every
// request it sees.
type fakeFetcher struct {
	pages    map[string]string
	err      map[string]error
	requests []string
}

func (f *fakeFetcher) FetchDocument(_ context.Context, rawURL string) (*goquery.Document, error) {
	f.requests = append(f.requests, rawURL)
	if err := f.err[rawURL]; err != nil {
		return nil, err
	}
	html, ok := f.pages[rawURL]
	if !ok {
		return nil, errors.New("no page for " + rawURL)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func TestScrapeCategoryAccumulates(t *testing.T) {
	reg := source.Defaults()
	src, ok := reg.Get("tradeindia")
	if !ok {
		t.Fatal("tradeindia missing from defaults")
	}
	fetcher := &fakeFetcher{pages: map[string]string{
		src.SearchFor("safety equipment"): listingPage,
	}}

	agg := NewAggregator(fetcher, reg, sample.New(1))
	got := agg.ScrapeCategory(context.Background(), "safety equipment", []string{"tradeindia"}, 15)
	if got != 3 {
		t.Fatalf("ScrapeCategory = %d records, want 3", got)
	}

	records := agg.Records()
	if records[0].Name != "Industrial Safety Helmet with Chin Strap" {
		t.Errorf("first name = %q", records[0].Name)
	}
	if records[0].PriceNumeric == nil || *records[0].PriceNumeric != 45000 {
		t.Errorf("first price numeric = %v, want 45000", records[0].PriceNumeric)
	}
	if records[1].PriceNumeric != nil {
		t.Errorf("non-numeric price fragment should leave numeric nil, got %v", *records[1].PriceNumeric)
	}
	if records[2].PriceText != model.PriceOnRequest {
		t.Errorf("missing price fragment should default, got %q", records[2].PriceText)
	}
	for _, rec := range records {
		if rec.Source != src.Name {
			t.Errorf("source = %q, want %q", rec.Source, src.Name)
		}
		if rec.Category != "safety equipment" {
			t.Errorf("category = %q", rec.Category)
		}
	}
}

func TestScrapeCategorySourceFailureIsolated(t *testing.T) {
	reg := source.Defaults()
	tradeindia, _ := reg.Get("tradeindia")
	alibaba, _ := reg.Get("alibaba")

	fetcher := &fakeFetcher{
		pages: map[string]string{
			alibaba.SearchFor("safety equipment"): listingPage,
		},
		err: map[string]error{
			tradeindia.SearchFor("safety equipment"): errors.New("connection refused"),
		},
	}

	agg := NewAggregator(fetcher, reg, sample.New(1))
	got := agg.ScrapeCategory(context.Background(), "safety equipment",
		[]string{"tradeindia", "alibaba"}, 15)
	if got != 3 {
		t.Fatalf("failed source should contribute zero, not abort: got %d", got)
	}
	if len(fetcher.requests) != 2 {
		t.Errorf("both sources should be attempted, saw %d requests", len(fetcher.requests))
	}
}

func TestScrapeCategoryUnknownSourceSkipped(t *testing.T) {
	fetcher := &fakeFetcher{}
	agg := NewAggregator(fetcher, source.Defaults(), sample.New(1))

	got := agg.ScrapeCategory(context.Background(), "safety equipment", []string{"nosuch"}, 15)
	if got != 0 {
		t.Errorf("unknown source contributed %d records", got)
	}
	if len(fetcher.requests) != 0 {
		t.Errorf("unknown source should never be fetched")
	}
}

func TestAddSampleRecords(t *testing.T) {
	agg := NewAggregator(&fakeFetcher{}, source.Defaults(), sample.New(42))

	added := agg.AddSampleRecords("safety equipment", 4)
	if added != 4 {
		t.Fatalf("AddSampleRecords = %d, want 4", added)
	}
	for _, rec := range agg.Records() {
		if rec.Source != model.SampleSource {
			t.Errorf("sample source = %q", rec.Source)
		}
	}

	if added := agg.AddSampleRecords("unknown category", 4); added != 0 {
		t.Errorf("unknown category backfill = %d, want 0", added)
	}
	if agg.Len() != 4 {
		t.Errorf("Len = %d, want 4", agg.Len())
	}
}
