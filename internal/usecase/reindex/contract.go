package reindex

import (
	"context"

	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/domain/content"
	"github.com/kailas-cloud/semdex/internal/repository/item"
)

// ItemStore lists items and overwrites their vectors.
type ItemStore interface {
	List(ctx context.Context, f item.Filter, limit int) ([]*content.Item, error)
	SetEmbedding(ctx context.Context, key string, e domain.Embedding) error
}

// Embedder vectorizes item text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
