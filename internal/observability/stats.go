package observability

import (
	"sync"
	"sync/atomic"
)

// StatsSnapshot is a point-in-time copy of the process counters. Readers
// tolerate slight staleness; no counter ever decreases.
type StatsSnapshot struct {
	PagesFetched     uint64            `json:"pages_fetched"`
	RecordsExtracted uint64            `json:"records_extracted"`
	RecordsSampled   uint64            `json:"records_sampled"`
	RunsCompleted    uint64            `json:"runs_completed"`
	RunsFailed       uint64            `json:"runs_failed"`
	ErrorsTotal      uint64            `json:"errors_total"`
	FetchSecondsAvg  float64           `json:"fetch_seconds_avg"`
	ErrorsByType     map[string]uint64 `json:"errors_by_type,omitempty"`
	ErrorsBySource   map[string]uint64 `json:"errors_by_source,omitempty"`
}

var (
	pagesFetched     uint64
	recordsExtracted uint64
	recordsSampled   uint64
	runsCompleted    uint64
	runsFailed       uint64
	errorsTotal      uint64

	fetchCount uint64
	fetchNanos uint64

	statsMu        sync.Mutex
	errorsByType   = map[string]uint64{}
	errorsBySource = map[string]uint64{}
)

func IncPagesFetched() {
	atomic.AddUint64(&pagesFetched, 1)
}

func AddRecordsExtracted(n int) {
	if n > 0 {
		atomic.AddUint64(&recordsExtracted, uint64(n))
	}
}

func AddRecordsSampled(n int) {
	if n > 0 {
		atomic.AddUint64(&recordsSampled, uint64(n))
	}
}

func IncRunCompleted() {
	atomic.AddUint64(&runsCompleted, 1)
}

func IncRunFailed() {
	atomic.AddUint64(&runsFailed, 1)
}

func ObserveFetchDuration(seconds float64) {
	if seconds <= 0 {
		return
	}
	atomic.AddUint64(&fetchCount, 1)
	atomic.AddUint64(&fetchNanos, uint64(seconds*1e9))
}

func IncError(errType, sourceID string) {
	if errType == "" {
		errType = "unknown"
	}
	if sourceID == "" {
		sourceID = "unknown"
	}
	atomic.AddUint64(&errorsTotal, 1)
	statsMu.Lock()
	errorsByType[errType]++
	errorsBySource[sourceID]++
	statsMu.Unlock()
}

func Snapshot() StatsSnapshot {
	statsMu.Lock()
	typeCopy := copyMap(errorsByType)
	sourceCopy := copyMap(errorsBySource)
	statsMu.Unlock()

	count := atomic.LoadUint64(&fetchCount)
	avg := 0.0
	if count > 0 {
		avg = float64(atomic.LoadUint64(&fetchNanos)) / float64(count) / 1e9
	}

	return StatsSnapshot{
		PagesFetched:     atomic.LoadUint64(&pagesFetched),
		RecordsExtracted: atomic.LoadUint64(&recordsExtracted),
		RecordsSampled:   atomic.LoadUint64(&recordsSampled),
		RunsCompleted:    atomic.LoadUint64(&runsCompleted),
		RunsFailed:       atomic.LoadUint64(&runsFailed),
		ErrorsTotal:      atomic.LoadUint64(&errorsTotal),
		FetchSecondsAvg:  avg,
		ErrorsByType:     typeCopy,
		ErrorsBySource:   sourceCopy,
	}
}

func copyMap(src map[string]uint64) map[string]uint64 {
	if len(src) == 0 {
		return map[string]uint64{}
	}
	out := make(map[string]uint64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
