// Package search answers free-text queries through an ordered ladder of stages.
package search

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semdex/internal/domain/search/request"
	"github.com/kailas-cloud/semdex/internal/domain/search/result"
	"github.com/kailas-cloud/semdex/internal/logger"
	"github.com/kailas-cloud/semdex/internal/metrics"
	"github.com/kailas-cloud/semdex/internal/similarity"
)

// Config bounds the store reads of one search.
type Config struct {
	// VectorScanLimit caps the items read by each pass of the semantic stage.
	VectorScanLimit int
	// KeywordScanLimit caps the items read by the keyword stage.
	KeywordScanLimit int
	// QueryTimeout bounds each store read; zero leaves it to the caller's context.
	QueryTimeout time.Duration
}

// Response is the outcome of one search.
type Response struct {
	Results []result.Result
	// VectorSearch is true when a returned result came from the vector pass.
	VectorSearch bool
}

// Service runs the semantic stage, then the keyword stage, and stops at the first success.
type Service struct {
	scorer *similarity.Scorer
	stages []Stage
}

// New creates a search service.
func New(items ItemLister, scorer *similarity.Scorer, cfg Config) *Service {
	return newWithStages(scorer,
		&semanticStage{items: items, scorer: scorer, scanLimit: cfg.VectorScanLimit, queryTimeout: cfg.QueryTimeout},
		&keywordStage{items: items, scorer: scorer, scanLimit: cfg.KeywordScanLimit, queryTimeout: cfg.QueryTimeout},
	)
}

// newWithStages creates a service over an explicit stage list.
func newWithStages(scorer *similarity.Scorer, stages ...Stage) *Service {
	return &Service{scorer: scorer, stages: stages}
}

// Search runs the stage ladder. Stage failures never surface as errors; an
// exhausted ladder yields an empty response.
func (s *Service) Search(ctx context.Context, req *request.Request, embed Embedder) Response {
	log := logger.FromContext(ctx)
	q := &query{req: req, terms: s.scorer.ParseQuery(req.Query()), embed: embed}

	for _, st := range s.stages {
		res := st.Run(ctx, q)
		metrics.SearchStageTotal.WithLabelValues(st.Name(), res.Outcome.String()).Inc()

		switch res.Outcome {
		case Success:
			return Response{Results: res.Results, VectorSearch: fromVector(res.Results)}
		case Skip:
			log.Debug("Search stage skipped", zap.String("stage", st.Name()), zap.String("reason", res.Reason))
		case Fail:
			log.Warn("Search stage failed", zap.String("stage", st.Name()), zap.String("reason", res.Reason))
		}
	}
	return Response{}
}
