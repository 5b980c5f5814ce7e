// Package metrics provides Prometheus instrumentation for the pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Metric labels
const (
	labelStage  = "stage"
	labelStatus = "status"
)

// Metrics tracks per-stage pipeline activity
type Metrics struct {
	requestsTotal   prometheus.Counter
	requestsFailed  *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	invocations     *prometheus.CounterVec
	retrievalStatus *prometheus.CounterVec
	recordsFetched  prometheus.Histogram
	batchesAnalyzed prometheus.Counter
	emptyResults    prometheus.Counter

	logger *zap.Logger
}

// New creates a metrics tracker registered on the given registerer.
// Passing an isolated registry keeps tests independent.
func New(reg prometheus.Registerer, logger *zap.Logger) *Metrics {
	m := &Metrics{
		logger: logger,
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "log_pipeline",
			Name:      "requests_total",
			Help:      "Total number of prompts processed",
		}),
		requestsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "log_pipeline",
			Name:      "requests_failed_total",
			Help:      "Failed requests by stage",
		}, []string{labelStage}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "log_pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage",
			Buckets:   prometheus.DefBuckets,
		}, []string{labelStage}),
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "log_pipeline",
			Name:      "tool_invocations_total",
			Help:      "Tool invocations by handling status (processed or discarded)",
		}, []string{labelStatus}),
		retrievalStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "log_pipeline",
			Name:      "retrieval_responses_total",
			Help:      "Log store responses by outcome",
		}, []string{labelStatus}),
		recordsFetched: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "log_pipeline",
			Name:      "records_fetched",
			Help:      "Normalized records per retrieval",
			Buckets:   []float64{0, 10, 50, 100, 500, 1000, 5000},
		}),
		batchesAnalyzed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "log_pipeline",
			Name:      "batches_analyzed_total",
			Help:      "Analysis batches completed",
		}),
		emptyResults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "log_pipeline",
			Name:      "empty_results_total",
			Help:      "Requests that retrieved zero records",
		}),
	}

	reg.MustRegister(
		m.requestsTotal,
		m.requestsFailed,
		m.stageDuration,
		m.invocations,
		m.retrievalStatus,
		m.recordsFetched,
		m.batchesAnalyzed,
		m.emptyResults,
	)

	return m
}

// RecordRequest counts one processed prompt
func (m *Metrics) RecordRequest() {
	m.requestsTotal.Inc()
}

// RecordFailure counts a failed request against the stage that failed
func (m *Metrics) RecordFailure(stage string) {
	m.requestsFailed.WithLabelValues(stage).Inc()
}

// ObserveStage records a stage duration in seconds
func (m *Metrics) ObserveStage(stage string, seconds float64) {
	m.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordInvocation counts a tool invocation by handling status
func (m *Metrics) RecordInvocation(status string) {
	m.invocations.WithLabelValues(status).Inc()
}

// RecordRetrieval counts a log store response outcome ("ok", "rejected",
// "transport")
func (m *Metrics) RecordRetrieval(status string) {
	m.retrievalStatus.WithLabelValues(status).Inc()
}

// ObserveRecords records the normalized record count of one retrieval
func (m *Metrics) ObserveRecords(count int) {
	m.recordsFetched.Observe(float64(count))
	if count == 0 {
		m.emptyResults.Inc()
	}
}

// RecordBatches counts completed analysis batches
func (m *Metrics) RecordBatches(n int) {
	m.batchesAnalyzed.Add(float64(n))
}
