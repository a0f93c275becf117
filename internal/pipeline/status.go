package pipeline

import "sync"

// Status is one pipeline invocation's externally visible state. Field names
// mirror the JSON the status endpoint serves.
type Status struct {
	Running         bool   `json:"is_scraping"`
	Progress        int    `json:"progress"`
	CurrentCategory string `json:"current_category"`
	TotalProducts   int    `json:"total_products"`
	Message         string `json:"message"`
	CSVFile         string `json:"csv_file,omitempty"`
	JSONFile        string `json:"json_file,omitempty"`
}

// StatusTracker is the single-writer/multi-reader progress record for the
// controller. The running pipeline is the only writer; any number of
// readers take snapshots and never block it. Progress is monotonically
// non-decreasing within one run.
type StatusTracker struct {
	mu sync.Mutex
	st Status
}

func NewStatusTracker() *StatusTracker {
	return &StatusTracker{st: Status{Message: "Ready"}}
}

// TryStart claims the single in-flight run slot. A second start while one
// run is active returns false; the caller must reject, not queue.
func (t *StatusTracker) TryStart() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.st.Running {
		return false
	}
	t.st = Status{Running: true, Message: "Starting"}
	return true
}

func (t *StatusTracker) SetCategory(category string) {
	t.mu.Lock()
	t.st.CurrentCategory = category
	t.mu.Unlock()
}

// SetProgress raises the progress percentage; lower values are ignored so
// readers never observe progress moving backwards.
func (t *StatusTracker) SetProgress(pct int) {
	t.mu.Lock()
	if pct > t.st.Progress {
		t.st.Progress = pct
	}
	t.mu.Unlock()
}

func (t *StatusTracker) SetTotal(n int) {
	t.mu.Lock()
	t.st.TotalProducts = n
	t.mu.Unlock()
}

func (t *StatusTracker) SetMessage(msg string) {
	t.mu.Lock()
	t.st.Message = msg
	t.mu.Unlock()
}

// Finish records a successful run and clears the running flag.
func (t *StatusTracker) Finish(total int, message, csvFile, jsonFile string) {
	t.mu.Lock()
	t.st.Running = false
	t.st.Progress = 100
	t.st.TotalProducts = total
	t.st.Message = message
	t.st.CSVFile = csvFile
	t.st.JSONFile = jsonFile
	t.mu.Unlock()
}

// Fail records a terminal failure and clears the running flag so a retry
// can claim the slot.
func (t *StatusTracker) Fail(err error) {
	t.mu.Lock()
	t.st.Running = false
	t.st.Message = "Error: " + err.Error()
	t.mu.Unlock()
}

// Snapshot returns a copy of the current status.
func (t *StatusTracker) Snapshot() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.st
}
