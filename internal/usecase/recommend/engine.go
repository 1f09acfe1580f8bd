package recommend

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/domain/content"
	domrec "github.com/kailas-cloud/semdex/internal/domain/recommend"
	"github.com/kailas-cloud/semdex/internal/logger"
	"github.com/kailas-cloud/semdex/internal/metrics"
	"github.com/kailas-cloud/semdex/internal/similarity"
)

// Engine ranks candidates against a target: vector similarity first, then
// the multi-factor heuristic. Safe for concurrent use.
type Engine struct {
	gates   Gates
	weights Weights
}

// NewEngine creates an engine. Gates and weights are used as given, so a
// zero gate accepts any positive score; start from DefaultGates and
// DefaultWeights to override single values.
func NewEngine(g Gates, w Weights) *Engine {
	return &Engine{gates: g.normalized(), weights: w.normalized()}
}

// Gates returns the effective gates.
func (e *Engine) Gates() Gates { return e.gates }

// Recommend returns at most MaxResults items related to target, never the
// target itself. An empty slice means no candidate cleared a gate.
func (e *Engine) Recommend(
	ctx context.Context, items []*content.Item, target *content.Item, useVector bool, embed Embedder,
) []domrec.Recommendation {
	cands := make([]*content.Item, 0, len(items))
	for _, it := range items {
		if it.Key != target.Key {
			cands = append(cands, it)
		}
	}

	if useVector {
		if vec := e.targetVector(ctx, target, embed); !vec.IsZero() {
			if recs := e.byVector(ctx, vec, cands); len(recs) > 0 {
				metrics.RecommendStrategyTotal.WithLabelValues(string(domrec.StrategyVector)).Inc()
				return recs
			}
		}
	}

	recs := e.byHeuristic(target, cands)
	strategy := string(domrec.StrategyHeuristic)
	if len(recs) == 0 {
		strategy = "none"
	}
	metrics.RecommendStrategyTotal.WithLabelValues(strategy).Inc()
	return recs
}

// targetVector returns the stored embedding, or one generated on the fly
// from the target's text. Candidates are never embedded here.
func (e *Engine) targetVector(ctx context.Context, target *content.Item, embed Embedder) domain.Embedding {
	if target.HasEmbedding() {
		return target.Embedding
	}
	if embed == nil {
		return domain.Embedding{}
	}
	log := logger.FromContext(ctx)

	text, err := content.EmbeddingText(target)
	if err != nil {
		log.Debug("Target has no embeddable text", zap.String("key", target.Key))
		return domain.Embedding{}
	}
	res, err := embed.Embed(ctx, text)
	if err != nil {
		log.Warn("On-the-fly target embedding failed", zap.String("key", target.Key), zap.Error(err))
		return domain.Embedding{}
	}
	vec := res.Vector()
	if err := vec.Validate(); err != nil {
		log.Warn("On-the-fly target embedding invalid", zap.String("key", target.Key), zap.Error(err))
		return domain.Embedding{}
	}
	return vec
}

func (e *Engine) byVector(ctx context.Context, target domain.Embedding, cands []*content.Item) []domrec.Recommendation {
	var recs []domrec.Recommendation
	mismatches := 0
	for _, c := range cands {
		if !c.HasEmbedding() {
			continue
		}
		sim, err := similarity.CosineChecked(target, c.Embedding)
		if errors.Is(err, domain.ErrDimensionMismatch) {
			mismatches++
			continue
		}
		if sim > e.gates.VectorMinSimilarity {
			recs = append(recs, domrec.New(c.Key, c.Kind(), sim, domrec.StrategyVector))
		}
	}
	if mismatches > 0 {
		metrics.DimensionMismatchTotal.WithLabelValues("recommend").Add(float64(mismatches))
		logger.FromContext(ctx).Warn("Skipped incomparable candidate vectors",
			zap.Int("count", mismatches),
			zap.String("provider", string(target.Provider)),
			zap.String("model", target.Model),
		)
	}
	return e.top(recs)
}

func (e *Engine) byHeuristic(target *content.Item, cands []*content.Item) []domrec.Recommendation {
	var recs []domrec.Recommendation
	for _, c := range cands {
		if score := e.weights.heuristicScore(target, c); score >= e.gates.HeuristicMinScore {
			recs = append(recs, domrec.New(c.Key, c.Kind(), score, domrec.StrategyHeuristic))
		}
	}
	return e.top(recs)
}

func (e *Engine) top(recs []domrec.Recommendation) []domrec.Recommendation {
	slices.SortStableFunc(recs, func(a, b domrec.Recommendation) int {
		return cmp.Compare(b.Score(), a.Score())
	})
	if len(recs) > e.gates.MaxResults {
		recs = recs[:e.gates.MaxResults]
	}
	return recs
}
