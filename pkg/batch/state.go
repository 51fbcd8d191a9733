package batch

import (
	"sort"
	"sync"
	"time"

	"github.com/tradeagents-hq/batchrunner/pkg/models"
)

// State is the shared ledger of one batch run: completed successes,
// permanent failures, and the pending retry set. Workers resolving
// items in parallel all funnel through its mutex, so the accounting
// invariants hold after every individual update, not just at round
// boundaries.
type State struct {
	mu         sync.Mutex
	successful map[string]models.Analysis
	failed     map[string]models.Failure
	retryQueue []*Task
	total      int
	completed  int
}

// NewState creates the ledger for a batch of the given size.
func NewState(total int) *State {
	return &State{
		successful: make(map[string]models.Analysis),
		failed:     make(map[string]models.Failure),
		total:      total,
	}
}

// AddSuccess records a terminal success for a ticker.
func (s *State) AddSuccess(result models.Analysis) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.successful[result.Ticker] = result
	s.completed++
}

// AddFailure records a terminal failure for a ticker.
func (s *State) AddFailure(ticker string, class ErrorClass, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failed[ticker] = models.Failure{
		Ticker:    ticker,
		Status:    "error",
		ErrorType: string(class),
		Message:   msg,
	}
	s.completed++
}

// AddRetry places a task on the retry queue. The queue is kept sorted
// by next-retry time so the soonest window is always at the front.
func (s *State) AddRetry(t *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.retryQueue = append(s.retryQueue, t)
	sort.Slice(s.retryQueue, func(i, j int) bool {
		return s.retryQueue[i].NextRetry.Before(s.retryQueue[j].NextRetry)
	})
}

// TakeReady removes and returns every task whose retry window has
// opened. Extraction is atomic: a task is either returned to the
// caller or still queued, never both, so ready tasks cannot be
// dispatched twice.
func (s *State) TakeReady(now time.Time) []*Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ready, remaining []*Task
	for _, t := range s.retryQueue {
		if t.Ready(now) {
			ready = append(ready, t)
		} else {
			remaining = append(remaining, t)
		}
	}
	s.retryQueue = remaining
	return ready
}

// DrainRetries removes and returns every queued task regardless of its
// retry window. Used to force-resolve leftovers at termination.
func (s *State) DrainRetries() []*Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	drained := s.retryQueue
	s.retryQueue = nil
	return drained
}

// NextRetryAt returns the earliest next-retry time in the queue.
func (s *State) NextRetryAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.retryQueue) == 0 {
		return time.Time{}, false
	}
	return s.retryQueue[0].NextRetry, true
}

// PendingRetries returns the current retry queue length.
func (s *State) PendingRetries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.retryQueue)
}

// IsComplete reports whether every ticker has been resolved.
func (s *State) IsComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed >= s.total
}

// Progress returns resolved and total counts.
func (s *State) Progress() (completed, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed, s.total
}

// Result assembles the batch outcome from the ledger. The maps are
// copies; the caller owns them.
func (s *State) Result() (map[string]models.Analysis, map[string]models.Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()

	successful := make(map[string]models.Analysis, len(s.successful))
	for k, v := range s.successful {
		successful[k] = v
	}
	failed := make(map[string]models.Failure, len(s.failed))
	for k, v := range s.failed {
		failed[k] = v
	}
	return successful, failed
}

// Snapshot is a point-in-time view of batch progress for reporting.
type Snapshot struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Successful     int     `json:"successful"`
	Failed         int     `json:"failed"`
	PendingRetries int     `json:"pending_retries"`
	NextRetryIn    float64 `json:"next_retry_in_seconds,omitempty"`
}

// Snapshot returns the current progress counters.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Total:          s.total,
		Completed:      s.completed,
		Successful:     len(s.successful),
		Failed:         len(s.failed),
		PendingRetries: len(s.retryQueue),
	}
	if len(s.retryQueue) > 0 {
		if wait := time.Until(s.retryQueue[0].NextRetry).Seconds(); wait > 0 {
			snap.NextRetryIn = wait
		}
	}
	return snap
}
