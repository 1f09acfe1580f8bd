package search

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/domain/content"
	"github.com/kailas-cloud/semdex/internal/domain/search/result"
	"github.com/kailas-cloud/semdex/internal/logger"
	"github.com/kailas-cloud/semdex/internal/metrics"
	"github.com/kailas-cloud/semdex/internal/repository/item"
	"github.com/kailas-cloud/semdex/internal/similarity"
)

// semanticStage ranks embedded items by hybrid score and supplements them
// with keyword matches among items that have no vector yet.
type semanticStage struct {
	items        ItemLister
	scorer       *similarity.Scorer
	scanLimit    int
	queryTimeout time.Duration
}

func (*semanticStage) Name() string { return "semantic" }

func (s *semanticStage) Run(ctx context.Context, q *query) StageResult {
	emb, err := q.embed.Embed(ctx, q.req.Query())
	if err != nil {
		return skipped("no query embedding: " + err.Error())
	}
	qv := emb.Vector()

	embedded, err := list(ctx, s.items, item.WithEmbedding, s.scanLimit, s.queryTimeout)
	if err != nil {
		return failed(err.Error())
	}

	var vec []result.Result
	mismatches := 0
	for _, it := range embedded {
		sim, err := similarity.CosineChecked(qv, it.Embedding)
		if errors.Is(err, domain.ErrDimensionMismatch) {
			mismatches++
		}
		sc := s.scorer.Hybrid(sim, it, q.terms)
		if s.scorer.Keep(sc) {
			vec = append(vec, result.New(it.Key, it.Kind(), sc.Value, sc.Mode))
		}
	}
	if mismatches > 0 {
		metrics.DimensionMismatchTotal.WithLabelValues("search").Add(float64(mismatches))
		logger.FromContext(ctx).Warn("Skipped incomparable item vectors",
			zap.Int("count", mismatches),
			zap.String("provider", string(qv.Provider)),
			zap.String("model", qv.Model),
			zap.Int("dim", qv.Dim()),
		)
	}
	rank(vec)
	if len(vec) > q.req.Limit() {
		vec = vec[:q.req.Limit()]
	}

	plain, err := list(ctx, s.items, item.WithoutEmbedding, s.scanLimit, s.queryTimeout)
	if err != nil {
		// the vector pass already succeeded; serve it without the supplement
		logger.FromContext(ctx).Warn("Keyword supplement failed", zap.Error(err))
		plain = nil
	}
	var kw []result.Result
	for _, it := range plain {
		sc := s.scorer.Keyword(it, q.terms)
		if len(sc.Matched) > 0 {
			kw = append(kw, result.New(it.Key, it.Kind(), sc.Value, sc.Mode))
		}
	}

	merged := merge(q.req.Limit(), vec, kw)
	if len(merged) == 0 {
		return skipped("no results above threshold")
	}
	return succeeded(merged)
}

// list runs one bounded store read under its own deadline.
func list(
	ctx context.Context, items ItemLister, f item.Filter, limit int, timeout time.Duration,
) ([]*content.Item, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return items.List(ctx, f, limit)
}
