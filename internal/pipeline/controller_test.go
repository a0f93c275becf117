package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avisingh/tradescan/internal/model"
	"github.com/avisingh/tradescan/internal/sample"
	"github.com/avisingh/tradescan/internal/source"
)

type memWriter struct {
	records []model.Record
	prefix  string
	err     error
}

func (w *memWriter) Write(records []model.Record, prefix string) (string, string, error) {
	if w.err != nil {
		return "", "", w.err
	}
	w.records = records
	w.prefix = prefix
	return "data/" + prefix + ".csv", "data/" + prefix + ".json", nil
}

type memStore struct {
	saved []model.Record
	err   error
}

func (s *memStore) SaveRecords(_ context.Context, records []model.Record) error {
	if s.err != nil {
		return s.err
	}
	s.saved = records
	return nil
}

func newTestController(fetcher DocumentFetcher, writer DatasetWriter, store Persister) *Controller {
	c := NewController(fetcher, source.Defaults(), writer, store, NewStatusTracker())
	c.SetGeneratorFactory(func() *sample.Generator { return sample.New(42) })
	return c
}

func TestRunExtractsAndBackfills(t *testing.T) {
	reg := source.Defaults()
	src, _ := reg.Get("tradeindia")
	fetcher := &fakeFetcher{pages: map[string]string{
		src.SearchFor("safety equipment"): listingPage,
	}}
	writer := &memWriter{}
	c := newTestController(fetcher, writer, nil)

	res, err := c.Run(context.Background(), RunRequest{
		Categories:  []string{"safety equipment"},
		Sources:     []string{"tradeindia"},
		SampleCount: 2,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Sample names repeat only when the generator draws the same template,
	// prefix and company twice, so derive the expected row count from the
	// same seed instead of hardcoding it.
	uniqueSamples := make(map[string]struct{})
	for _, s := range sample.New(42).Generate("safety equipment", 2) {
		uniqueSamples[s.DedupKey()] = struct{}{}
	}
	want := 3 + len(uniqueSamples)

	if res.Total != want {
		t.Fatalf("Total = %d, want %d", res.Total, want)
	}
	if len(writer.records) != want {
		t.Fatalf("written rows = %d, want %d", len(writer.records), want)
	}

	sampled := 0
	for _, rec := range writer.records {
		if rec.Name == "" {
			t.Error("normalized row with empty name")
		}
		if rec.Category != "safety equipment" {
			t.Errorf("category = %q, want safety equipment", rec.Category)
		}
		if rec.Source == model.SampleSource {
			sampled++
		}
	}
	if sampled != len(uniqueSamples) {
		t.Errorf("sampled rows = %d, want %d", sampled, len(uniqueSamples))
	}
	if writer.prefix != defaultOutputPrefix {
		t.Errorf("prefix = %q, want %q", writer.prefix, defaultOutputPrefix)
	}

	st := c.Tracker().Snapshot()
	if st.Running {
		t.Error("tracker still running after Run")
	}
	if st.Progress != 100 || st.TotalProducts != want {
		t.Errorf("final status = %+v", st)
	}
	if st.CSVFile == "" || st.JSONFile == "" {
		t.Errorf("output paths missing from status: %+v", st)
	}
}

func TestRunDedupsAcrossSources(t *testing.T) {
	reg := source.Defaults()
	tradeindia, _ := reg.Get("tradeindia")
	alibaba, _ := reg.Get("alibaba")

	// Both sources serve the same page, so every record from the second
	// source is a raw (name, company) duplicate of the first.
	fetcher := &fakeFetcher{pages: map[string]string{
		tradeindia.SearchFor("safety equipment"): listingPage,
		alibaba.SearchFor("safety equipment"):    listingPage,
	}}
	writer := &memWriter{}
	c := newTestController(fetcher, writer, nil)

	res, err := c.Run(context.Background(), RunRequest{
		Categories: []string{"safety equipment"},
		Sources:    []string{"tradeindia", "alibaba"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Total != 3 {
		t.Fatalf("Total = %d, want 3 after dedup", res.Total)
	}
	for _, rec := range writer.records {
		if rec.Source != tradeindia.Name {
			t.Errorf("dedup should keep the first source's row, got %q", rec.Source)
		}
	}
}

func TestRunNoCategories(t *testing.T) {
	c := newTestController(&fakeFetcher{}, &memWriter{}, nil)

	_, err := c.Run(context.Background(), RunRequest{})
	if err == nil {
		t.Fatal("expected error for empty categories")
	}
	st := c.Tracker().Snapshot()
	if st.Running {
		t.Error("failed run left the running flag set")
	}
	if !c.Tracker().TryStart() {
		t.Error("slot should be free after a failed run")
	}
}

func TestRunWriterFailure(t *testing.T) {
	reg := source.Defaults()
	src, _ := reg.Get("tradeindia")
	fetcher := &fakeFetcher{pages: map[string]string{
		src.SearchFor("safety equipment"): listingPage,
	}}
	c := newTestController(fetcher, &memWriter{err: errors.New("disk full")}, nil)

	_, err := c.Run(context.Background(), RunRequest{
		Categories: []string{"safety equipment"},
		Sources:    []string{"tradeindia"},
	})
	if err == nil {
		t.Fatal("expected writer error to surface")
	}
	st := c.Tracker().Snapshot()
	if st.Running {
		t.Error("failed run left the running flag set")
	}
}

func TestRunPersistsToStore(t *testing.T) {
	reg := source.Defaults()
	src, _ := reg.Get("tradeindia")
	fetcher := &fakeFetcher{pages: map[string]string{
		src.SearchFor("safety equipment"): listingPage,
	}}
	store := &memStore{}
	c := newTestController(fetcher, &memWriter{}, store)

	res, err := c.Run(context.Background(), RunRequest{
		Categories: []string{"safety equipment"},
		Sources:    []string{"tradeindia"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(store.saved) != res.Total {
		t.Errorf("store saw %d records, want %d", len(store.saved), res.Total)
	}
}

func TestRunRejectedWhileInFlight(t *testing.T) {
	c := newTestController(&fakeFetcher{}, &memWriter{}, nil)
	if !c.Tracker().TryStart() {
		t.Fatal("could not claim slot")
	}

	if _, err := c.Run(context.Background(), RunRequest{Categories: []string{"safety equipment"}}); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("Run err = %v, want ErrRunInProgress", err)
	}
	if err := c.Start(RunRequest{Categories: []string{"safety equipment"}}); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("Start err = %v, want ErrRunInProgress", err)
	}
}

func TestStartRunsInBackground(t *testing.T) {
	reg := source.Defaults()
	src, _ := reg.Get("tradeindia")
	fetcher := &fakeFetcher{pages: map[string]string{
		src.SearchFor("safety equipment"): listingPage,
	}}
	writer := &memWriter{}
	c := newTestController(fetcher, writer, nil)

	if err := c.Start(RunRequest{
		Categories: []string{"safety equipment"},
		Sources:    []string{"tradeindia"},
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		st := c.Tracker().Snapshot()
		if !st.Running {
			if st.Progress != 100 {
				t.Errorf("background run finished with status %+v", st)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("background run did not finish")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
