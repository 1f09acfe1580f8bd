package search

import (
	"context"
	"time"

	"github.com/kailas-cloud/semdex/internal/domain/search/result"
	"github.com/kailas-cloud/semdex/internal/repository/item"
	"github.com/kailas-cloud/semdex/internal/similarity"
)

// keywordStage is the terminal stage: text matching over every item, vector or not.
type keywordStage struct {
	items        ItemLister
	scorer       *similarity.Scorer
	scanLimit    int
	queryTimeout time.Duration
}

func (*keywordStage) Name() string { return "keyword" }

func (s *keywordStage) Run(ctx context.Context, q *query) StageResult {
	all, err := list(ctx, s.items, item.All, s.scanLimit, s.queryTimeout)
	if err != nil {
		return failed(err.Error())
	}

	var rs []result.Result
	for _, it := range all {
		sc := s.scorer.Keyword(it, q.terms)
		if len(sc.Matched) > 0 {
			rs = append(rs, result.New(it.Key, it.Kind(), sc.Value, sc.Mode))
		}
	}
	if len(rs) == 0 {
		return skipped("no keyword matches")
	}
	return succeeded(merge(q.req.Limit(), rs))
}
