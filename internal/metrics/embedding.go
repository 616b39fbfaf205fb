package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Encoder-facing instruments, fed by the instrumented embedder wrapper
// and the embedding cache.
var (
	// EmbeddingRequestsTotal counts encoder calls by outcome.
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "consdex",
			Name:      "embedding_requests_total",
			Help:      "Encoder calls by provider, model and outcome",
		},
		[]string{"provider", "model", "status"},
	)

	// EmbeddingRequestDuration tracks encoder round-trip latency. Buckets
	// start at 50ms; anything faster than that is a cache hit and never
	// reaches the encoder.
	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "consdex",
			Name:      "embedding_request_duration_seconds",
			Help:      "Encoder round-trip latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	// EmbeddingTokensTotal accumulates billed tokens.
	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "consdex",
			Name:      "embedding_tokens_total",
			Help:      "Encoder tokens consumed, split into prompt and total",
		},
		[]string{"provider", "model", "type"},
	)

	// EmbeddingErrorsTotal counts encoder failures by classified cause.
	EmbeddingErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "consdex",
			Name:      "embedding_errors_total",
			Help:      "Encoder failures by classified cause",
		},
		[]string{"provider", "model", "error_type"},
	)

	// EmbeddingCacheTotal splits lookups into "hit" and "miss".
	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "consdex",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache lookups by result (hit or miss)",
		},
		[]string{"result"},
	)
)

var registerEmbeddingOnce sync.Once

// RegisterEmbeddingMetrics registers the encoder instruments with the
// default registry. Safe to call more than once.
func RegisterEmbeddingMetrics() {
	registerEmbeddingOnce.Do(func() {
		prometheus.MustRegister(
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingTokensTotal,
			EmbeddingErrorsTotal,
			EmbeddingCacheTotal,
		)
	})
}
