package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for monitoring
var (
	AnalysesCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "batchrunner_analyses_completed_total",
		Help: "The total number of completed analyses by final status",
	}, []string{"status"})

	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "batchrunner_analysis_duration_seconds",
		Help:    "Time taken to analyze a single ticker",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10), // Start at 1s with 10 buckets doubling in size
	})

	AnalysisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "batchrunner_analysis_errors_total",
		Help: "Total number of analysis errors by classification",
	}, []string{"error_type"})

	PermanentFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "batchrunner_permanent_failures_total",
		Help: "Total number of permanent failures that will not be retried",
	}, []string{"error_type"})

	RetriesScheduled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "batchrunner_retries_scheduled_total",
		Help: "Number of throttled analyses placed on the retry queue",
	})

	RetriesExecuted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "batchrunner_retries_executed_total",
		Help: "Number of retries that were executed",
	})

	MaxRetriesReached = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "batchrunner_max_retries_reached_total",
		Help: "Number of tickers that exhausted their retry attempts",
	}, []string{"error_type"})

	RetryQueueSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "batchrunner_retry_queue_size",
		Help: "Current size of the retry queue",
	})

	NextRetryIn = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "batchrunner_next_retry_seconds",
		Help: "Seconds until the next scheduled retry",
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "batchrunner_active_workers",
		Help: "Worker count used for the current round",
	})

	BatchRounds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "batchrunner_rounds_total",
		Help: "Number of execution rounds run across all batches",
	})

	BatchProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "batchrunner_batch_progress_ratio",
		Help: "Fraction of the current batch that has been resolved",
	})
)
