package search

import (
	"context"

	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/domain/content"
	"github.com/kailas-cloud/semdex/internal/repository/item"
)

// ItemLister reads bounded pages of items for scoring.
type ItemLister interface {
	List(ctx context.Context, f item.Filter, limit int) ([]*content.Item, error)
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
