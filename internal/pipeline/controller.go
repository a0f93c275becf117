package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/avisingh/tradescan/internal/model"
	"github.com/avisingh/tradescan/internal/normalize"
	"github.com/avisingh/tradescan/internal/observability"
	"github.com/avisingh/tradescan/internal/sample"
	"github.com/avisingh/tradescan/internal/source"
)

// ErrRunInProgress rejects a second start while a run is in flight.
var ErrRunInProgress = errors.New("pipeline run already in progress")

const (
	defaultMaxPerSource = 15
	defaultOutputPrefix = "multi_source_products"
)

// RunRequest describes one pipeline invocation.
type RunRequest struct {
	Categories   []string // space-separated lowercase phrases
	Sources      []string // registry ids, in scrape order
	MaxPerSource int
	SampleCount  int // synthetic backfill per category; 0 disables
	OutputPrefix string
}

// RunResult summarizes a completed invocation.
type RunResult struct {
	Total    int
	CSVPath  string
	JSONPath string
}

// DatasetWriter persists the final normalized table.
type DatasetWriter interface {
	Write(records []model.Record, prefix string) (csvPath, jsonPath string, err error)
}

// Persister is an optional second sink for normalized records.
type Persister interface {
	SaveRecords(ctx context.Context, records []model.Record) error
}

// Controller sequences one full pipeline pass: aggregation across
// categories and sources, per-record normalization, deduplication, and the
// persistence handoff. The status tracker guards the single-in-flight-run
// invariant.
type Controller struct {
	fetcher  DocumentFetcher
	registry *source.Registry
	writer   DatasetWriter
	store    Persister // nil disables database persistence
	tracker  *StatusTracker

	newGenerator func() *sample.Generator
}

func NewController(fetcher DocumentFetcher, registry *source.Registry, writer DatasetWriter, store Persister, tracker *StatusTracker) *Controller {
	return &Controller{
		fetcher:  fetcher,
		registry: registry,
		writer:   writer,
		store:    store,
		tracker:  tracker,
		newGenerator: func() *sample.Generator {
			return sample.New(time.Now().UnixNano())
		},
	}
}

// SetGeneratorFactory overrides how per-run sample generators are built.
// Tests inject fixed seeds here for deterministic backfill.
func (c *Controller) SetGeneratorFactory(factory func() *sample.Generator) {
	c.newGenerator = factory
}

// Tracker exposes the status surface for readers.
func (c *Controller) Tracker() *StatusTracker { return c.tracker }

// Run executes the pipeline synchronously. It returns ErrRunInProgress
// when another run holds the slot.
func (c *Controller) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	if !c.tracker.TryStart() {
		return RunResult{}, ErrRunInProgress
	}
	return c.run(ctx, req)
}

// Start executes the pipeline in the background. The in-flight guard is
// claimed before returning, so callers can reject duplicates immediately.
func (c *Controller) Start(req RunRequest) error {
	if !c.tracker.TryStart() {
		return ErrRunInProgress
	}
	go func() {
		if _, err := c.run(context.Background(), req); err != nil {
			log.Printf("pipeline: background run failed: %v", err)
		}
	}()
	return nil
}

func (c *Controller) run(ctx context.Context, req RunRequest) (RunResult, error) {
	if len(req.Categories) == 0 {
		err := errors.New("no categories requested")
		c.tracker.Fail(err)
		observability.IncRunFailed()
		return RunResult{}, err
	}
	if req.MaxPerSource <= 0 {
		req.MaxPerSource = defaultMaxPerSource
	}
	if req.OutputPrefix == "" {
		req.OutputPrefix = defaultOutputPrefix
	}

	agg := NewAggregator(c.fetcher, c.registry, c.newGenerator())
	title := cases.Title(language.Und)

	for i, category := range req.Categories {
		display := title.String(category)
		c.tracker.SetCategory(display)
		c.tracker.SetProgress(i * 100 / len(req.Categories))
		c.tracker.SetMessage("Scraping " + display)

		agg.ScrapeCategory(ctx, category, req.Sources, req.MaxPerSource)
		if req.SampleCount > 0 {
			agg.AddSampleRecords(category, req.SampleCount)
		}
		c.tracker.SetTotal(agg.Len())
	}

	records := Dedup(normalizeAll(agg.Records()))

	csvPath, jsonPath, err := c.writer.Write(records, req.OutputPrefix)
	if err != nil {
		err = fmt.Errorf("write dataset: %w", err)
		c.tracker.Fail(err)
		observability.IncRunFailed()
		return RunResult{}, err
	}

	if c.store != nil {
		if err := c.store.SaveRecords(ctx, records); err != nil {
			err = fmt.Errorf("persist records: %w", err)
			observability.IncError(observability.ErrorStore, "store")
			c.tracker.Fail(err)
			observability.IncRunFailed()
			return RunResult{}, err
		}
	}

	message := fmt.Sprintf("Completed! %d products scraped", len(records))
	c.tracker.Finish(len(records), message, csvPath, jsonPath)
	observability.IncRunCompleted()

	return RunResult{Total: len(records), CSVPath: csvPath, JSONPath: jsonPath}, nil
}

// normalizeAll applies the full normalization stage to every raw record,
// independently and in order. Records without a name never reach the output
// table.
func normalizeAll(raw []model.RawRecord) []model.Record {
	out := make([]model.Record, 0, len(raw))
	for _, r := range raw {
		if r.Name == "" {
			continue
		}
		out = append(out, normalize.Apply(r))
	}
	return out
}

// Dedup keeps the first record for each raw (name, company) pair,
// preserving the table's original row order. The key deliberately uses the
// raw company field; cleaned companies can collide across real sellers.
func Dedup(records []model.Record) []model.Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]model.Record, 0, len(records))
	for _, rec := range records {
		key := rec.DedupKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out
}
