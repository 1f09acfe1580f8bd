package embedding

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/logger"
	"github.com/kailas-cloud/semdex/internal/metrics"
)

// FallbackEmbedder serves from primary and, on any primary failure, from
// secondary. The result names the provider that actually produced the vector.
type FallbackEmbedder struct {
	primary       domain.Embedder
	secondary     domain.Embedder
	from, to      domain.ProviderKind
	fallbackCount func(from, to, reason string)
}

// NewFallbackEmbedder chains primary (labelled from) to secondary (labelled to).
func NewFallbackEmbedder(primary domain.Embedder, from domain.ProviderKind, secondary domain.Embedder, to domain.ProviderKind) *FallbackEmbedder {
	return &FallbackEmbedder{
		primary:   primary,
		secondary: secondary,
		from:      from,
		to:        to,
		fallbackCount: func(from, to, reason string) {
			metrics.EmbeddingFallbacksTotal.WithLabelValues(from, to, reason).Inc()
		},
	}
}

// Embed implements domain.Embedder.
func (f *FallbackEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := f.primary.Embed(ctx, text)
	if err == nil {
		if err = res.Vector().Validate(); err == nil {
			return res, nil
		}
	}

	reason := fallbackReason(err)
	logger.FromContext(ctx).Warn("Embedding provider failed, falling back",
		zap.String("from", string(f.from)),
		zap.String("to", string(f.to)),
		zap.String("reason", reason),
		zap.Error(err),
	)
	f.fallbackCount(string(f.from), string(f.to), reason)
	domain.UsageFromContext(ctx).MarkFallback()

	res, ferr := f.secondary.Embed(ctx, text)
	if ferr != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("%s failed (%w), %s failed: %w", f.from, err, f.to, ferr)
	}
	return res, nil
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmbeddingQuotaExceeded):
		return "budget"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, domain.ErrInvalidEmbedding):
		return "invalid_embedding"
	default:
		return "unavailable"
	}
}
