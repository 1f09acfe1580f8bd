// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Provider call metrics, labelled by provider ("on-device", "remote") and model.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "semdex",
		Subsystem: "embedding",
		Name:      "requests_total",
		Help:      "Embedding provider calls by outcome",
	}, []string{"provider", "model", "status"})

	EmbeddingRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "semdex",
		Subsystem: "embedding",
		Name:      "request_duration_seconds",
		Help:      "Embedding provider call latency",
		// on-device calls land in the low buckets, remote ones above 50ms
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"provider", "model"})

	EmbeddingTokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "semdex",
		Subsystem: "embedding",
		Name:      "tokens_total",
		Help:      "Tokens billed by remote providers",
	}, []string{"provider", "model", "type"}) // type: prompt / total

	EmbeddingErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "semdex",
		Subsystem: "embedding",
		Name:      "errors_total",
		Help:      "Embedding provider errors by type",
	}, []string{"provider", "model", "error_type"})
)

// Provider chain metrics: fallback, budget, cache and breaker.
var (
	EmbeddingFallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "semdex",
		Subsystem: "embedding",
		Name:      "fallbacks_total",
		Help:      "Embeddings served by the fallback provider",
	}, []string{"from", "to", "reason"})

	EmbeddingBudgetTokensRemaining = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "semdex",
		Subsystem: "embedding",
		Name:      "budget_tokens_remaining",
		Help:      "Tokens left in the current budget window, -1 when uncapped",
	}, []string{"provider", "period"})

	EmbeddingCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "semdex",
		Subsystem: "embedding",
		Name:      "cache_total",
		Help:      "Embedding cache lookups by result",
	}, []string{"result"}) // hit_memory / hit_store / miss

	CircuitBreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "semdex",
		Name:      "circuit_breaker_state",
		Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"name"})

	CircuitBreakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "semdex",
		Name:      "circuit_breaker_transitions_total",
		Help:      "Circuit breaker state transitions",
	}, []string{"name", "from", "to"})
)

var registerEmbeddingOnce sync.Once

// RegisterEmbeddingMetrics registers the embedding collectors on the default
// registry. Later calls are no-ops.
func RegisterEmbeddingMetrics() {
	registerEmbeddingOnce.Do(func() {
		prometheus.MustRegister(
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingTokensTotal,
			EmbeddingErrorsTotal,
			EmbeddingFallbacksTotal,
			EmbeddingBudgetTokensRemaining,
			EmbeddingCacheTotal,
			CircuitBreakerState,
			CircuitBreakerTransitions,
		)
	})
}
