// Package reindex regenerates stored embeddings, possibly with another provider.
package reindex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/semdex/internal/domain"
	dombatch "github.com/kailas-cloud/semdex/internal/domain/batch"
	"github.com/kailas-cloud/semdex/internal/domain/content"
	"github.com/kailas-cloud/semdex/internal/logger"
	"github.com/kailas-cloud/semdex/internal/metrics"
	"github.com/kailas-cloud/semdex/internal/repository/item"
)

// DefaultConcurrency is the number of items embedded in parallel.
const DefaultConcurrency = 4

// Config tunes a reindex run.
type Config struct {
	Concurrency  int
	ScanLimit    int
	QueryTimeout time.Duration
}

// Report is the outcome of one run. Results keep the store's key order.
type Report struct {
	RunID   string
	Results []dombatch.Result
	Summary dombatch.Summary
}

// Service re-embeds every item and replaces its stored vector.
type Service struct {
	items ItemStore
	cfg   Config
}

// New creates a reindex service.
func New(items ItemStore, cfg Config) *Service {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Service{items: items, cfg: cfg}
}

// Run re-embeds all items with embed. Per-item failures are reported, not
// returned; only a failed item listing aborts the run.
func (s *Service) Run(ctx context.Context, embed Embedder) (Report, error) {
	runID := uuid.NewString()
	ctx, log := logger.With(ctx, zap.String("run_id", runID))

	items, err := s.list(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("reindex %s: %w", runID, err)
	}
	log.Info("Reindex started", zap.Int("items", len(items)), zap.Int("concurrency", s.cfg.Concurrency))
	start := time.Now()

	results := make([]dombatch.Result, len(items))
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, it := range items {
		g.Go(func() error {
			results[i] = s.reindexOne(ctx, it, embed)
			metrics.ReindexItemsTotal.WithLabelValues(string(results[i].Status())).Inc()
			return nil
		})
	}
	_ = g.Wait()

	rep := Report{RunID: runID, Results: results, Summary: dombatch.Summarize(results)}
	log.Info("Reindex finished",
		zap.Int("updated", rep.Summary.Updated),
		zap.Int("skipped", rep.Summary.Skipped),
		zap.Int("failed", rep.Summary.Failed),
		zap.Duration("took", time.Since(start)),
	)
	return rep, nil
}

func (s *Service) reindexOne(ctx context.Context, it *content.Item, embed Embedder) dombatch.Result {
	text, err := content.EmbeddingText(it)
	if err != nil {
		return dombatch.NewSkipped(it.Key, dombatch.ReasonNoContent)
	}

	res, err := embed.Embed(ctx, text)
	if err != nil {
		logger.FromContext(ctx).Warn("Reindex embedding failed", zap.String("key", it.Key), zap.Error(err))
		return dombatch.NewFailed(it.Key, embedReason(err), err)
	}
	vec := res.Vector()
	if err := vec.Validate(); err != nil {
		return dombatch.NewFailed(it.Key, dombatch.ReasonInvalidEmbedding, err)
	}

	if err := s.items.SetEmbedding(ctx, it.Key, vec); err != nil {
		logger.FromContext(ctx).Warn("Reindex store write failed", zap.String("key", it.Key), zap.Error(err))
		return dombatch.NewFailed(it.Key, dombatch.ReasonStoreWriteFailed, err)
	}
	return dombatch.NewUpdated(it.Key)
}

func (s *Service) list(ctx context.Context) ([]*content.Item, error) {
	if s.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.QueryTimeout)
		defer cancel()
	}
	return s.items.List(ctx, item.All, s.cfg.ScanLimit)
}

func embedReason(err error) dombatch.Reason {
	if errors.Is(err, domain.ErrInvalidEmbedding) {
		return dombatch.ReasonInvalidEmbedding
	}
	return dombatch.ReasonProviderUnavailable
}
