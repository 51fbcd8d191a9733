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

// AnalyzeFunc is the caller-supplied analysis routine. It must be safe
// to call concurrently for different tickers. There is no latency
// contract: a call may block for tens of seconds and is never
// cancelled mid-flight.
type AnalyzeFunc func(ctx context.Context, ticker, date string) (models.Analysis, error)

// Outcome is the disposition of one ticker within a round.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeRetry   Outcome = "retry"
	OutcomeFailed  Outcome = "failed"
)

// ProgressFunc observes per-ticker dispositions as they resolve.
// resolved and roundTotal count within the current round. Invocations
// are serialized by the executor.
type ProgressFunc func(ticker string, outcome Outcome, resolved, roundTotal int)

// executor runs one bounded-concurrency wave over a set of tasks and
// classifies every outcome into the batch state.
type executor struct {
	analyze  AnalyzeFunc
	state    *State
	policy   RetryPolicy
	pressure *backpressure.Controller
	progress ProgressFunc
	logger   logger.Logger

	progressMu sync.Mutex
}

// runRound executes all tasks with at most workers concurrently in
// flight and does not return while any task is outstanding. Every task
// receives exactly one disposition: success, queued-for-retry, or
// permanent failure.
func (e *executor) runRound(ctx context.Context, tasks []*Task, workers int) {
	if workers < 1 {
		workers = 1
	}
	metrics.ActiveWorkers.Set(float64(workers))
	metrics.BatchRounds.Inc()

	var (
		wg       sync.WaitGroup
		sem      = make(chan struct{}, workers)
		mu       sync.Mutex
		resolved int
	)

	for _, t := range tasks {
		wg.Add(1)
		sem <- struct{}{}
		go func(t *Task) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome := e.resolve(ctx, t)

			mu.Lock()
			resolved++
			n := resolved
			mu.Unlock()

			e.report(t.Ticker, outcome, n, len(tasks))
		}(t)
	}

	wg.Wait()
}

// resolve invokes the analysis function for one task and records the
// disposition in the batch state.
func (e *executor) resolve(ctx context.Context, t *Task) Outcome {
	start := time.Now()
	result, err := e.invoke(ctx, t)
	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())

	if err == nil {
		e.state.AddSuccess(result)
		metrics.AnalysesCompleted.WithLabelValues("success").Inc()
		return OutcomeSuccess
	}

	msg := err.Error()
	class := Classify(msg)
	metrics.AnalysisErrors.WithLabelValues(string(class)).Inc()

	if class == ErrorThrottling {
		e.pressure.RecordThrottle()

		// Eligibility is checked before recording the new failure, so
		// the attempt counter holds the number of scheduled retries.
		if t.Attempt == 0 || t.ShouldRetry() {
			t.RecordFailure(msg, e.policy)
			e.state.AddRetry(t)
			metrics.RetriesScheduled.Inc()
			e.logger.Debug("%s throttled, retry %d scheduled in %s",
				t.Ticker, t.Attempt, time.Until(t.NextRetry).Round(time.Second))
			return OutcomeRetry
		}

		e.state.AddFailure(t.Ticker, class, msg)
		metrics.MaxRetriesReached.WithLabelValues(string(class)).Inc()
		metrics.AnalysesCompleted.WithLabelValues("failed").Inc()
		return OutcomeFailed
	}

	e.state.AddFailure(t.Ticker, class, msg)
	metrics.PermanentFailures.WithLabelValues(string(class)).Inc()
	metrics.AnalysesCompleted.WithLabelValues("failed").Inc()
	return OutcomeFailed
}

// invoke calls the analysis function, converting a panic into a
// failure so a single bad ticker cannot abort the batch.
func (e *executor) invoke(ctx context.Context, t *Task) (result models.Analysis, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analysis panic for %s: %v", t.Ticker, r)
		}
	}()
	return e.analyze(ctx, t.Ticker, t.Date)
}

// report logs the disposition and notifies the progress observer.
// Progress is observable per item as it resolves, not batched at round
// end.
func (e *executor) report(ticker string, outcome Outcome, resolved, roundTotal int) {
	completed, total := e.state.Progress()
	metrics.BatchProgress.Set(float64(completed) / float64(total))

	switch outcome {
	case OutcomeSuccess:
		e.logger.Info("%s: analysis complete (%d/%d)", ticker, resolved, roundTotal)
	case OutcomeRetry:
		e.logger.Info("%s: throttled, will retry after cooldown (%d/%d)", ticker, resolved, roundTotal)
	case OutcomeFailed:
		e.logger.Error("%s: analysis failed permanently (%d/%d)", ticker, resolved, roundTotal)
	}

	if e.progress != nil {
		e.progressMu.Lock()
		e.progress(ticker, outcome, resolved, roundTotal)
		e.progressMu.Unlock()
	}
}
