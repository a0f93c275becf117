package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/avisingh/tradescan/internal/extract"
	"github.com/avisingh/tradescan/internal/model"
	"github.com/avisingh/tradescan/internal/observability"
	"github.com/avisingh/tradescan/internal/sample"
	"github.com/avisingh/tradescan/internal/source"
)

// DocumentFetcher retrieves and parses one marketplace page. The fetch and
// parse layer owns all network I/O; the pipeline core never touches it.
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, rawURL string) (*goquery.Document, error)
}

// Aggregator drives the extractor across named sources and accumulates the
// running record set for one pipeline run. It is not safe for concurrent
// use; one run owns one aggregator.
type Aggregator struct {
	fetcher   DocumentFetcher
	registry  *source.Registry
	extractor *extract.Extractor
	generator *sample.Generator
	records   []model.RawRecord
}

func NewAggregator(fetcher DocumentFetcher, registry *source.Registry, generator *sample.Generator) *Aggregator {
	return &Aggregator{
		fetcher:   fetcher,
		registry:  registry,
		extractor: extract.New(),
		generator: generator,
	}
}

// ScrapeCategory runs extraction once per source, in the caller's order.
// Sources are independent: a failed or empty source contributes zero
// records and never aborts the remaining sources. Returns the number of
// records this category contributed.
func (a *Aggregator) ScrapeCategory(ctx context.Context, category string, sourceIDs []string, maxPerSource int) int {
	total := 0
	for _, id := range sourceIDs {
		total += a.scrapeSource(ctx, id, category, maxPerSource)
	}
	return total
}

func (a *Aggregator) scrapeSource(ctx context.Context, sourceID, category string, maxResults int) int {
	src, ok := a.registry.Get(sourceID)
	if !ok {
		log.Printf("aggregator: unknown source %q, skipping", sourceID)
		return 0
	}

	start := time.Now()
	doc, err := a.fetcher.FetchDocument(ctx, src.SearchFor(category))
	if err != nil {
		observability.IncError(observability.ClassifyFetchError(err), sourceID)
		log.Printf("aggregator: %s failed for %q: %v", src.Name, category, err)
		return 0
	}
	observability.IncPagesFetched()
	observability.ObserveFetchDuration(time.Since(start).Seconds())

	records := a.extractor.Extract(doc, category, src.Name, maxResults)
	observability.AddRecordsExtracted(len(records))
	a.records = append(a.records, records...)

	log.Printf("aggregator: %s contributed %d records for %q", src.Name, len(records), category)
	return len(records)
}

// AddSampleRecords appends synthetic backfill for a category. This path
// never fails; an unknown category simply adds nothing.
func (a *Aggregator) AddSampleRecords(category string, count int) int {
	records := a.generator.Generate(category, count)
	observability.AddRecordsSampled(len(records))
	a.records = append(a.records, records...)
	return len(records)
}

// Records returns a copy of the accumulated set, in insertion order.
func (a *Aggregator) Records() []model.RawRecord {
	out := make([]model.RawRecord, len(a.records))
	copy(out, a.records)
	return out
}

// Len reports the accumulated record count without copying.
func (a *Aggregator) Len() int { return len(a.records) }
