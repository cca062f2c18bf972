// Package metrics provides Prometheus metrics recording for internal packages.
// This package exists to avoid import cycles between the database and pipeline
// packages.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// unitsTotal tracks evaluation units by terminal state
	unitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evalpipe_units_total",
			Help: "Total evaluation units of work by terminal state",
		},
		[]string{"evaluator_id", "state"},
	)

	// scoringDuration tracks scoring capability invocation duration in seconds
	scoringDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "evalpipe_scoring_duration_seconds",
			Help:    "Scoring capability invocation duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"template_id"},
	)

	// batchRuns tracks batch run outcomes
	batchRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evalpipe_batch_runs_total",
			Help: "Total batch runs by outcome",
		},
		[]string{"outcome"},
	)

	// llmRetries tracks remote scoring call retries
	llmRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "evalpipe_llm_retries_total",
			Help: "Total retried remote scoring calls",
		},
	)
)

// Terminal unit states recorded by RecordUnit.
const (
	UnitSampledOut     = "sampled_out"
	UnitIdempotentSkip = "idempotent_skip"
	UnitCheckFailed    = "check_failed"
	UnitPersisted      = "persisted"
	UnitPersistFailed  = "persist_failed"
	UnitConfigSkipped  = "config_skipped"
)

// RecordUnit records one evaluation unit reaching a terminal state
func RecordUnit(evaluatorID, state string) {
	unitsTotal.WithLabelValues(evaluatorID, state).Inc()
}

// RecordScoring records the duration of one scoring invocation
func RecordScoring(templateID string, duration time.Duration) {
	scoringDuration.WithLabelValues(templateID).Observe(duration.Seconds())
}

// RecordBatchRun records a batch run outcome ("completed", "aborted", "empty")
func RecordBatchRun(outcome string) {
	batchRuns.WithLabelValues(outcome).Inc()
}

// RecordLLMRetry records one retried remote scoring call
func RecordLLMRetry() {
	llmRetries.Inc()
}
