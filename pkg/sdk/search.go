package semdex

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/semdex/internal/domain/search/request"
)

// Search ranks items against query. Vector similarity is tried first; when
// it yields nothing the keyword pass answers. limit <= 0 uses the default.
// Only an invalid query is an error.
func (c *Client) Search(ctx context.Context, query string, limit int) (resp SearchResponse, err error) {
	defer c.obs.track("search", time.Now(), &err)

	req, err := request.New(query, limit, c.provider, "")
	if err != nil {
		return SearchResponse{}, fmt.Errorf("search: %w", err)
	}
	res := c.searchSvc.Search(ctx, &req, c.embed)

	results := make([]SearchResult, len(res.Results))
	for i := range res.Results {
		r := &res.Results[i]
		results[i] = SearchResult{
			Key:       r.Key(),
			Kind:      Kind(r.Kind()),
			Score:     r.Score(),
			MatchType: MatchType(r.Mode()),
		}
	}
	return SearchResponse{Results: results, VectorSearch: res.VectorSearch}, nil
}

// Recommend returns items related to key. With useVector false only the
// metadata heuristic runs. An unknown key yields an empty list.
func (c *Client) Recommend(ctx context.Context, key string, useVector bool) (recs []Recommendation, err error) {
	defer c.obs.track("recommend", time.Now(), &err)

	res, err := c.recSvc.RecommendFor(ctx, key, useVector, c.embed)
	if err != nil {
		return nil, fmt.Errorf("recommend %s: %w", key, err)
	}
	recs = make([]Recommendation, len(res))
	for i := range res {
		r := &res[i]
		recs[i] = Recommendation{
			Key:      r.Key(),
			Kind:     Kind(r.Kind()),
			Score:    r.Score(),
			Strategy: Strategy(r.Strategy()),
		}
	}
	return recs, nil
}

// Reindex re-embeds every stored item with the client's provider.
// Per-item failures are reported in the result, not returned.
func (c *Client) Reindex(ctx context.Context) (rep ReindexReport, err error) {
	defer c.obs.track("reindex", time.Now(), &err)

	run, err := c.reindexSvc.Run(ctx, c.embed)
	if err != nil {
		return ReindexReport{}, fmt.Errorf("reindex: %w", err)
	}
	rep = ReindexReport{
		RunID:   run.RunID,
		Updated: run.Summary.Updated,
		Skipped: run.Summary.Skipped,
		Failed:  run.Summary.Failed,
		Results: make([]ReindexResult, len(run.Results)),
	}
	for i, r := range run.Results {
		rep.Results[i] = ReindexResult{
			Key:    r.Key(),
			Status: string(r.Status()),
			Reason: string(r.Reason()),
			Err:    r.Err(),
		}
	}
	return rep, nil
}
