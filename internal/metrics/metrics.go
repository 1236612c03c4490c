package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"llmarena/internal/domain"
)

var (
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llmarena_evaluations_total",
			Help: "Total number of evaluation requests processed",
		},
		[]string{"mode"},
	)

	ModelResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llmarena_model_responses_total",
			Help: "Total number of per-model terminal events",
		},
		[]string{"model", "status"},
	)

	ModelErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llmarena_model_errors_total",
			Help: "Total number of per-model failures",
		},
		[]string{"model", "error_kind"},
	)

	ResponseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llmarena_response_duration_seconds",
			Help:    "Per-model response duration in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"model"},
	)

	TTFT = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llmarena_ttft_seconds",
			Help:    "Time to first streamed delta in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"model"},
	)

	TokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llmarena_tokens_total",
			Help: "Total completion tokens observed (estimated or reported)",
		},
		[]string{"model", "type"},
	)

	ActiveStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "llmarena_active_streams",
			Help: "Number of in-flight upstream model streams",
		},
	)

	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "llmarena_rate_limit_hits_total",
			Help: "Total number of inbound requests rejected by rate limiting",
		},
	)
)

func RecordEvaluation(mode string) {
	EvaluationsTotal.WithLabelValues(mode).Inc()
}

func RecordModelResponse(model string, m domain.ResponseMetrics) {
	ModelResponsesTotal.WithLabelValues(model, "ok").Inc()
	ResponseDuration.WithLabelValues(model).Observe(float64(m.Duration) / 1000)
	TTFT.WithLabelValues(model).Observe(float64(m.TTFT) / 1000)
	TokensTotal.WithLabelValues(model, "content").Add(float64(m.TokenCount))
	TokensTotal.WithLabelValues(model, "thinking").Add(float64(m.ThinkingTokenCount))
}

func RecordModelError(model, errorKind string) {
	ModelResponsesTotal.WithLabelValues(model, "error").Inc()
	ModelErrors.WithLabelValues(model, errorKind).Inc()
}

func IncrementActiveStreams() {
	ActiveStreams.Inc()
}

func DecrementActiveStreams() {
	ActiveStreams.Dec()
}

func RecordRateLimitHit() {
	RateLimitHits.Inc()
}
