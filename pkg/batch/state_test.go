package batch

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tradeagents-hq/batchrunner/pkg/models"
)

func TestStateAccounting(t *testing.T) {
	state := NewState(3)

	completed, total := state.Progress()
	assert.Equal(t, 0, completed)
	assert.Equal(t, 3, total)
	assert.False(t, state.IsComplete())

	state.AddSuccess(models.Analysis{Ticker: "AAPL", Decision: "BUY"})
	state.AddFailure("MSFT", ErrorData, "Invalid ticker symbol")
	assert.False(t, state.IsComplete())

	state.AddSuccess(models.Analysis{Ticker: "NVDA", Decision: "HOLD"})
	assert.True(t, state.IsComplete())

	successful, failed := state.Result()
	assert.Len(t, successful, 2)
	assert.Len(t, failed, 1)
	assert.Equal(t, "data", failed["MSFT"].ErrorType)
	assert.Equal(t, "error", failed["MSFT"].Status)

	// No ticker appears in both ledgers
	for ticker := range successful {
		_, both := failed[ticker]
		assert.False(t, both, "ticker %s in both ledgers", ticker)
	}
}

func TestQueuedRetryDoesNotCountAsCompleted(t *testing.T) {
	state := NewState(2)
	state.AddSuccess(models.Analysis{Ticker: "AAPL", Decision: "BUY"})

	task := NewTask("MSFT", "2025-06-02")
	task.RecordFailure("ThrottlingException", fastPolicy())
	state.AddRetry(task)

	completed, _ := state.Progress()
	assert.Equal(t, 1, completed)
	assert.False(t, state.IsComplete())
	assert.Equal(t, 1, state.PendingRetries())
}

func TestTakeReadyIsAtomic(t *testing.T) {
	state := NewState(3)
	now := time.Now()

	ready1 := NewTask("AAPL", "2025-06-02")
	ready1.NextRetry = now.Add(-time.Second)
	ready2 := NewTask("MSFT", "2025-06-02")
	ready2.NextRetry = now.Add(-time.Minute)
	pending := NewTask("NVDA", "2025-06-02")
	pending.NextRetry = now.Add(time.Hour)

	state.AddRetry(ready1)
	state.AddRetry(ready2)
	state.AddRetry(pending)

	ready := state.TakeReady(now)
	assert.Len(t, ready, 2)
	assert.Equal(t, 1, state.PendingRetries())

	// Extracted tasks are gone; a second take must not re-dispatch them
	assert.Empty(t, state.TakeReady(now))
	assert.Equal(t, 1, state.PendingRetries())
}

func TestRetryQueueOrderedBySoonest(t *testing.T) {
	state := NewState(2)
	now := time.Now()

	late := NewTask("AAPL", "2025-06-02")
	late.NextRetry = now.Add(time.Hour)
	soon := NewTask("MSFT", "2025-06-02")
	soon.NextRetry = now.Add(time.Minute)

	state.AddRetry(late)
	state.AddRetry(soon)

	next, ok := state.NextRetryAt()
	assert.True(t, ok)
	assert.Equal(t, soon.NextRetry, next)
}

func TestNextRetryAtEmptyQueue(t *testing.T) {
	state := NewState(0)
	_, ok := state.NextRetryAt()
	assert.False(t, ok)
}

func TestDrainRetries(t *testing.T) {
	state := NewState(2)
	now := time.Now()

	t1 := NewTask("AAPL", "2025-06-02")
	t1.NextRetry = now.Add(time.Hour)
	t2 := NewTask("MSFT", "2025-06-02")
	t2.NextRetry = now.Add(2 * time.Hour)
	state.AddRetry(t1)
	state.AddRetry(t2)

	drained := state.DrainRetries()
	assert.Len(t, drained, 2)
	assert.Equal(t, 0, state.PendingRetries())
	assert.Empty(t, state.DrainRetries())
}

func TestSnapshot(t *testing.T) {
	state := NewState(4)
	state.AddSuccess(models.Analysis{Ticker: "AAPL", Decision: "BUY"})
	state.AddFailure("MSFT", ErrorAuth, "Permission denied")

	task := NewTask("NVDA", "2025-06-02")
	task.NextRetry = time.Now().Add(time.Minute)
	state.AddRetry(task)

	snap := state.Snapshot()
	assert.Equal(t, 4, snap.Total)
	assert.Equal(t, 2, snap.Completed)
	assert.Equal(t, 1, snap.Successful)
	assert.Equal(t, 1, snap.Failed)
	assert.Equal(t, 1, snap.PendingRetries)
	assert.Greater(t, snap.NextRetryIn, 0.0)
}

func TestConcurrentLedgerUpdates(t *testing.T) {
	const n = 100
	state := NewState(n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ticker := fmt.Sprintf("T%03d", i)
			if i%2 == 0 {
				state.AddSuccess(models.Analysis{Ticker: ticker, Decision: "HOLD"})
			} else {
				state.AddFailure(ticker, ErrorUnknown, "weird message")
			}
		}(i)
	}
	wg.Wait()

	completed, total := state.Progress()
	assert.Equal(t, n, completed)
	assert.Equal(t, n, total)
	assert.True(t, state.IsComplete())

	successful, failed := state.Result()
	assert.Equal(t, n, len(successful)+len(failed))
}
