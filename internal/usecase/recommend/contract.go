package recommend

import (
	"context"

	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/domain/content"
	"github.com/kailas-cloud/semdex/internal/repository/item"
)

// ItemReader loads the target and the candidate page.
type ItemReader interface {
	Get(ctx context.Context, key string) (*content.Item, error)
	List(ctx context.Context, f item.Filter, limit int) ([]*content.Item, error)
}

// Embedder vectorizes a target that has no stored embedding.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
