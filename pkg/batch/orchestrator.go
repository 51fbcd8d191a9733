package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tradeagents-hq/batchrunner/pkg/backpressure"
	"github.com/tradeagents-hq/batchrunner/pkg/logger"
	"github.com/tradeagents-hq/batchrunner/pkg/metrics"
	"github.com/tradeagents-hq/batchrunner/pkg/models"
)

const (
	// DefaultWorkers is the initial worker count for a batch run.
	DefaultWorkers = 4

	// DefaultMaxTotalTime bounds the retry loop of one batch run.
	DefaultMaxTotalTime = 30 * time.Minute

	// DefaultPollInterval caps how long the orchestrator sleeps while
	// waiting for a retry window to open.
	DefaultPollInterval = 10 * time.Second
)

// Options configures one orchestrator. Zero values fall back to
// defaults, except MaxTotalTime where zero means no retry budget:
// the initial round still runs, but leftover retries are
// force-resolved immediately.
type Options struct {
	Workers      int
	MaxTotalTime time.Duration
	PollInterval time.Duration
	Policy       RetryPolicy
	Logger       logger.Logger
	Progress     ProgressFunc
}

// Orchestrator runs batches of analysis requests: an initial
// full-concurrency round, then retry rounds at halved concurrency
// until the batch completes, the retry queue empties, or the time
// budget runs out. Each run owns its own State; the orchestrator holds
// no cross-run mutable registries.
type Orchestrator struct {
	opts     Options
	analyze  AnalyzeFunc
	pressure *backpressure.Controller

	mu    sync.Mutex
	state *State
}

// NewOrchestrator creates an orchestrator for the given analysis function.
func NewOrchestrator(analyze AnalyzeFunc, opts Options) *Orchestrator {
	if opts.Workers < 1 {
		opts.Workers = DefaultWorkers
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	opts.Policy = opts.Policy.withDefaults()
	if opts.Logger == nil {
		opts.Logger = &logger.EmptyLogger{}
	}
	return &Orchestrator{
		opts:     opts,
		analyze:  analyze,
		pressure: backpressure.NewController(opts.Workers),
	}
}

// Snapshot returns progress of the run in flight, or a zero snapshot
// when no run has started.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	state := o.state
	o.mu.Unlock()

	if state == nil {
		return Snapshot{}
	}
	return state.Snapshot()
}

// Run executes one batch and blocks until every request is resolved.
// Per-ticker failures never propagate as errors; the only error cases
// are a nil analysis function and invalid input. On return the result
// accounts for every request exactly once.
func (o *Orchestrator) Run(ctx context.Context, requests []models.Request) (*models.Result, error) {
	if o.analyze == nil {
		return nil, fmt.Errorf("analysis function is required")
	}
	if err := validateRequests(requests); err != nil {
		return nil, err
	}

	start := time.Now()
	state := NewState(len(requests))
	o.mu.Lock()
	o.state = state
	o.mu.Unlock()

	o.pressure.Reset()
	workers := o.pressure.Workers()
	exec := &executor{
		analyze:  o.analyze,
		state:    state,
		policy:   o.opts.Policy,
		pressure: o.pressure,
		progress: o.opts.Progress,
		logger:   o.opts.Logger,
	}

	result := &models.Result{
		Successful:   map[string]models.Analysis{},
		Failed:       map[string]models.Failure{},
		FinalWorkers: workers,
	}
	if len(requests) == 0 {
		o.opts.Logger.Notice("No tickers to analyze")
		return result, nil
	}

	tasks := make([]*Task, len(requests))
	for i, req := range requests {
		tasks[i] = NewTask(req.Ticker, req.Date)
	}

	o.opts.Logger.Info("Round 1: analyzing %d tickers with %d workers", len(tasks), workers)
	exec.runRound(ctx, tasks, workers)
	rounds := 1

	deadline := start.Add(o.opts.MaxTotalTime)
	for !state.IsComplete() && state.PendingRetries() > 0 && time.Now().Before(deadline) && ctx.Err() == nil {
		ready := o.awaitRetryWindow(ctx, state, deadline)
		if len(ready) == 0 {
			break
		}

		workers = o.pressure.Degrade()
		rounds++
		o.opts.Logger.Info("Round %d: retrying %d throttled tickers with %d workers", rounds, len(ready), workers)
		metrics.RetriesExecuted.Add(float64(len(ready)))
		exec.runRound(ctx, ready, workers)
	}

	o.forceResolveLeftovers(ctx, state, deadline)

	result.Successful, result.Failed = state.Result()
	result.RoundsRun = rounds
	result.ElapsedSeconds = time.Since(start).Seconds()
	result.FinalWorkers = workers

	o.opts.Logger.Notice("Analyzed %d/%d tickers successfully in %d rounds (%.0fs)",
		len(result.Successful), len(requests), rounds, result.ElapsedSeconds)
	return result, nil
}

// awaitRetryWindow blocks until at least one retry window opens,
// sleeping in short increments. Returns nil when the queue empties,
// the deadline passes, or the context is cancelled.
func (o *Orchestrator) awaitRetryWindow(ctx context.Context, state *State, deadline time.Time) []*Task {
	for {
		now := time.Now()
		if !now.Before(deadline) {
			return nil
		}
		ready := state.TakeReady(now)
		metrics.RetryQueueSize.Set(float64(state.PendingRetries()))
		if len(ready) > 0 {
			return ready
		}

		next, ok := state.NextRetryAt()
		if !ok {
			return nil
		}

		wait := time.Until(next)
		if wait > o.opts.PollInterval {
			wait = o.opts.PollInterval
		}
		if remaining := time.Until(deadline); wait > remaining {
			wait = remaining
		}
		if wait < time.Millisecond {
			wait = time.Millisecond
		}
		metrics.NextRetryIn.Set(time.Until(next).Seconds())
		o.opts.Logger.Debug("Waiting %s for next retry window", wait.Round(time.Second))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// forceResolveLeftovers turns every task still queued at exit into a
// permanent failure so no ticker is silently dropped.
func (o *Orchestrator) forceResolveLeftovers(ctx context.Context, state *State, deadline time.Time) {
	leftovers := state.DrainRetries()
	if len(leftovers) == 0 {
		return
	}

	cancelled := ctx.Err() != nil
	deadlineHit := !time.Now().Before(deadline)
	if deadlineHit {
		o.opts.Logger.Notice("Time budget exhausted, abandoning %d queued retries", len(leftovers))
	}

	for _, t := range leftovers {
		var msg string
		switch {
		case cancelled:
			msg = "batch cancelled: " + t.LastError
		case deadlineHit:
			msg = "deadline exceeded: " + t.LastError
		default:
			msg = "max retries exceeded: " + t.LastError
		}
		class := Classify(t.LastError)
		state.AddFailure(t.Ticker, class, msg)
		metrics.MaxRetriesReached.WithLabelValues(string(class)).Inc()
		metrics.AnalysesCompleted.WithLabelValues("failed").Inc()
	}
	metrics.RetryQueueSize.Set(0)
}

// validateRequests rejects empty and duplicate tickers; every ticker
// must be unique within a batch.
func validateRequests(requests []models.Request) error {
	seen := make(map[string]struct{}, len(requests))
	for _, req := range requests {
		if req.Ticker == "" {
			return fmt.Errorf("empty ticker in batch input")
		}
		if _, dup := seen[req.Ticker]; dup {
			return fmt.Errorf("duplicate ticker in batch input: %s", req.Ticker)
		}
		seen[req.Ticker] = struct{}{}
	}
	return nil
}
