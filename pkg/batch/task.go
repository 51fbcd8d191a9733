package batch

import (
	"math/rand"
	"time"
)

// MaxRetryAttempts is the retry ceiling per ticker. A ticker is
// dispatched at most once initially plus MaxRetryAttempts times on the
// retry path.
const MaxRetryAttempts = 3

// RetryPolicy controls retry backoff timing. The defaults bound
// worst-case retry latency to roughly 2.5 minutes across the attempt
// ceiling while the jitter avoids synchronized retry storms across
// many concurrently throttled tickers.
type RetryPolicy struct {
	// BaseDelay is the backoff base for the first retry; it doubles
	// per attempt.
	BaseDelay time.Duration
	// MinDelay is the floor applied after jitter.
	MinDelay time.Duration
}

// DefaultRetryPolicy returns the production backoff timing: 30s, 60s,
// 120s bases with ±25% jitter, floored at 15s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		BaseDelay: 30 * time.Second,
		MinDelay:  15 * time.Second,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.BaseDelay <= 0 {
		p.BaseDelay = def.BaseDelay
	}
	if p.MinDelay <= 0 {
		p.MinDelay = def.MinDelay
	}
	return p
}

// backoff computes the jittered delay before retry number attempt
// (1-based): base·2^(attempt-1) with ±25% symmetric jitter, floored at
// the policy minimum.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := p.BaseDelay << uint(attempt-1)
	jitter := time.Duration((2*rand.Float64() - 1) * 0.25 * float64(base))
	delay := base + jitter
	if delay < p.MinDelay {
		delay = p.MinDelay
	}
	return delay
}

// Task is the unit of scheduled work: one ticker plus its retry
// history and the earliest time it may run again.
type Task struct {
	Ticker    string
	Date      string
	Attempt   int
	LastError string
	NextRetry time.Time
}

// NewTask creates a first-attempt task for a ticker.
func NewTask(ticker, date string) *Task {
	return &Task{Ticker: ticker, Date: date}
}

// ShouldRetry reports whether the task is eligible for another retry:
// the attempt ceiling is not reached and the last recorded failure was
// a throttling error. A task with no recorded failure has nothing to
// retry.
func (t *Task) ShouldRetry() bool {
	if t.LastError == "" {
		return false
	}
	return t.Attempt < MaxRetryAttempts && Classify(t.LastError) == ErrorThrottling
}

// RecordFailure increments the attempt counter, stores the failure
// message, and schedules the next retry window per the policy.
func (t *Task) RecordFailure(msg string, policy RetryPolicy) {
	t.Attempt++
	t.LastError = msg
	t.NextRetry = time.Now().Add(policy.withDefaults().backoff(t.Attempt))
}

// Ready reports whether the retry window has opened.
func (t *Task) Ready(now time.Time) bool {
	return !t.NextRetry.After(now)
}
