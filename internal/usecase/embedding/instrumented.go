// Package embedding composes embedding providers: budget, circuit breaker,
// fallback and per-request provider selection.
package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/metrics"
)

// BudgetChecker gates and charges calls against a token budget.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}

// InstrumentedEmbedder puts a remote provider behind the token budget.
// A refused call never reaches the provider; its ErrEmbeddingQuotaExceeded
// sends the fallback chain to the on-device model.
type InstrumentedEmbedder struct {
	inner  domain.Embedder
	label  string
	budget BudgetChecker
	logger *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder. budget may be nil.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string,
	budget BudgetChecker, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:  inner,
		label:  provider,
		budget: budget,
		logger: logger.With(zap.String("provider", provider), zap.String("model", model)),
	}
}

// Embed implements domain.Embedder.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if p.budget != nil {
		if err := p.budget.Check(ctx); err != nil {
			p.logger.Warn("Embedding refused by token budget", zap.Error(err))
			return domain.EmbeddingResult{}, err
		}
	}

	start := time.Now()
	res, err := p.inner.Embed(ctx, text)
	took := time.Since(start)
	if err != nil {
		p.logger.Warn("Embedding call failed", zap.Duration("took", took), zap.Error(err))
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	p.charge(res.TotalTokens)
	p.logger.Debug("Embedding call done",
		zap.Duration("took", took),
		zap.Int("dim", len(res.Embedding)),
		zap.Int("tokens", res.TotalTokens),
	)
	return res, nil
}

// charge books tokens and publishes what is left of each window.
func (p *InstrumentedEmbedder) charge(tokens int) {
	if p.budget == nil || tokens <= 0 {
		return
	}
	p.budget.Record(int64(tokens))
	g := metrics.EmbeddingBudgetTokensRemaining
	g.WithLabelValues(p.label, "daily").Set(float64(p.budget.RemainingDaily()))
	g.WithLabelValues(p.label, "monthly").Set(float64(p.budget.RemainingMonthly()))
}
