package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EmbeddingMetrics holds all Prometheus metrics for the embedding client.
type EmbeddingMetrics struct {
	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	LatencyHistogram *prometheus.HistogramVec

	// Token metrics
	TokensInputTotal *prometheus.CounterVec

	// Resilient engine metrics
	RetriesTotal       *prometheus.CounterVec
	SplitsTotal        *prometheus.CounterVec
	DroppedInputsTotal *prometheus.CounterVec
}

// NewEmbeddingMetrics creates the metric set on the given registerer. Tests
// pass a fresh registry to avoid duplicate-registration panics.
func NewEmbeddingMetrics(reg prometheus.Registerer) *EmbeddingMetrics {
	factory := promauto.With(reg)

	return &EmbeddingMetrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "embed_requests_total",
				Help: "Total number of embedding requests",
			},
			[]string{"model", "status"},
		),

		LatencyHistogram: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "embed_latency_seconds",
				Help:    "Embedding request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model"},
		),

		TokensInputTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "embed_tokens_input_total",
				Help: "Estimated number of input tokens sent",
			},
			[]string{"model"},
		),

		RetriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "embed_retries_total",
				Help: "Total number of same-size batch retries",
			},
			[]string{"model", "reason"},
		),

		SplitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "embed_splits_total",
				Help: "Total number of batch splits after token-limit rejections",
			},
			[]string{"model"},
		),

		DroppedInputsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "embed_dropped_inputs_total",
				Help: "Total number of inputs dropped by the resilient engine",
			},
			[]string{"model", "reason"},
		),
	}
}

// NewDefaultEmbeddingMetrics registers the metric set on the default
// Prometheus registry.
func NewDefaultEmbeddingMetrics() *EmbeddingMetrics {
	return NewEmbeddingMetrics(prometheus.DefaultRegisterer)
}

// RecordRequest records a request outcome.
func (m *EmbeddingMetrics) RecordRequest(model, status string) {
	m.RequestsTotal.WithLabelValues(model, status).Inc()
}

// RecordLatency records a request latency.
func (m *EmbeddingMetrics) RecordLatency(model string, duration time.Duration) {
	m.LatencyHistogram.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordInputTokens records an estimated input token count.
func (m *EmbeddingMetrics) RecordInputTokens(model string, tokens int) {
	if tokens > 0 {
		m.TokensInputTotal.WithLabelValues(model).Add(float64(tokens))
	}
}

// RecordRetry records a same-size retry.
func (m *EmbeddingMetrics) RecordRetry(model, reason string) {
	m.RetriesTotal.WithLabelValues(model, reason).Inc()
}

// RecordSplit records a batch split.
func (m *EmbeddingMetrics) RecordSplit(model string) {
	m.SplitsTotal.WithLabelValues(model).Inc()
}

// RecordDroppedInputs records inputs given up on by the resilient engine.
func (m *EmbeddingMetrics) RecordDroppedInputs(model, reason string, count int) {
	if count > 0 {
		m.DroppedInputsTotal.WithLabelValues(model, reason).Add(float64(count))
	}
}
