package semdex

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/semdex/internal/domain"
)

// Embedder converts text to a vector. A custom Embedder takes the place of
// the built-in on-device model.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// customModel labels vectors produced by a caller-supplied Embedder.
const customModel = "custom"

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		Provider:     domain.ProviderOnDevice,
		Model:        customModel,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// HealthCheck embeds a probe string.
func (a *embedderAdapter) HealthCheck(ctx context.Context) error {
	_, err := a.Embed(ctx, "health")
	return err
}
