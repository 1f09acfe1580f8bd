package item

import (
	"context"

	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/domain/content"
)

// Repository stores items.
type Repository interface {
	Get(ctx context.Context, key string) (*content.Item, error)
	Put(ctx context.Context, it *content.Item) error
}

// Embedder vectorizes item text at ingestion.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
