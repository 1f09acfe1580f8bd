package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Search and recommendation pipeline metrics.
var (
	SearchStageTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "semdex",
			Name:      "search_stage_total",
			Help:      "Search stage outcomes",
		},
		[]string{"stage", "outcome"}, // outcome: success / skip / fail
	)

	RecommendStrategyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "semdex",
			Name:      "recommend_strategy_total",
			Help:      "Recommendation requests by the strategy that produced the answer",
		},
		[]string{"strategy"}, // vector / heuristic / none
	)

	DimensionMismatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "semdex",
			Name:      "dimension_mismatch_total",
			Help:      "Vector comparisons skipped because embeddings came from different models",
		},
		[]string{"component"},
	)

	ReindexItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "semdex",
			Name:      "reindex_items_total",
			Help:      "Items processed by reindex runs",
		},
		[]string{"status"},
	)
)

var registerPipelineOnce sync.Once

// RegisterPipelineMetrics registers search, recommendation and reindex metrics.
// Later calls are no-ops.
func RegisterPipelineMetrics() {
	registerPipelineOnce.Do(func() {
		prometheus.MustRegister(SearchStageTotal, RecommendStrategyTotal, DimensionMismatchTotal, ReindexItemsTotal)
	})
}
