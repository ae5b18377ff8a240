/*-------------------------------------------------------------------------
 *
 * prometheus.go
 *    Prometheus metrics for DataGrub
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/metrics/prometheus.go
 *
 *-------------------------------------------------------------------------
 */

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	/* Request metrics */
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datagrub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datagrub_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	/* Evaluation metrics */
	evaluationExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datagrub_evaluation_executions_total",
			Help: "Total number of evaluation executions",
		},
		[]string{"adapter", "status"},
	)

	evaluationExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datagrub_evaluation_execution_duration_seconds",
			Help:    "Evaluation execution duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"adapter"},
	)

	evaluationBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "datagrub_evaluation_batch_size",
			Help:    "Number of evaluation ids per execution batch",
			Buckets: []float64{1, 2, 5, 10, 20, 50},
		},
	)

	adapterResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datagrub_adapter_resolutions_total",
			Help: "Total number of adapter resolutions by tier",
		},
		[]string{"tier", "outcome"},
	)

	/* Judge metrics */
	judgeCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datagrub_judge_calls_total",
			Help: "Total number of judge model calls",
		},
		[]string{"stage", "status"},
	)

	judgeTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datagrub_judge_tokens_total",
			Help: "Total number of judge model tokens",
		},
		[]string{"model", "type"},
	)

	comparisonsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datagrub_comparisons_total",
			Help: "Total number of comparison creations",
		},
		[]string{"status"},
	)
)

/* RecordHTTPRequest records HTTP request metrics */
func RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

/* RecordEvaluationExecution records one adapter execution */
func RecordEvaluationExecution(adapter, status string, duration time.Duration) {
	evaluationExecutionsTotal.WithLabelValues(adapter, status).Inc()
	evaluationExecutionDuration.WithLabelValues(adapter).Observe(duration.Seconds())
}

/* RecordEvaluationBatch records the size of an execution batch */
func RecordEvaluationBatch(size int) {
	evaluationBatchSize.Observe(float64(size))
}

/* RecordAdapterResolution records a resolution attempt outcome per tier */
func RecordAdapterResolution(tier, outcome string) {
	adapterResolutionsTotal.WithLabelValues(tier, outcome).Inc()
}

/* RecordJudgeCall records one judge model call */
func RecordJudgeCall(stage, status string) {
	judgeCallsTotal.WithLabelValues(stage, status).Inc()
}

/* RecordJudgeTokens records judge token usage */
func RecordJudgeTokens(model string, inputTokens, outputTokens int) {
	judgeTokensTotal.WithLabelValues(model, "input").Add(float64(inputTokens))
	judgeTokensTotal.WithLabelValues(model, "output").Add(float64(outputTokens))
}

/* RecordComparison records a comparison creation outcome */
func RecordComparison(status string) {
	comparisonsTotal.WithLabelValues(status).Inc()
}

/* MetricsHandler returns the Prometheus metrics HTTP handler */
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
