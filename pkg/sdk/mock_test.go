package semdex

import (
	"context"

	"github.com/kailas-cloud/semdex/internal/domain/content"
	domrec "github.com/kailas-cloud/semdex/internal/domain/recommend"
	"github.com/kailas-cloud/semdex/internal/domain/search/request"
	recommenduc "github.com/kailas-cloud/semdex/internal/usecase/recommend"
	reindexuc "github.com/kailas-cloud/semdex/internal/usecase/reindex"
	searchuc "github.com/kailas-cloud/semdex/internal/usecase/search"
)

// --- itemUseCase mock ---

type mockItemUC struct {
	putFn func(ctx context.Context, key string, d content.Descriptor, analyzed bool) (*content.Item, error)
	getFn func(ctx context.Context, key string) (*content.Item, error)
}

func (m *mockItemUC) Put(ctx context.Context, key string, d content.Descriptor, analyzed bool) (*content.Item, error) {
	return m.putFn(ctx, key, d, analyzed)
}

func (m *mockItemUC) Get(ctx context.Context, key string) (*content.Item, error) {
	return m.getFn(ctx, key)
}

// --- searchUseCase mock ---

type mockSearchUC struct {
	fn func(ctx context.Context, req *request.Request) searchuc.Response
}

func (m *mockSearchUC) Search(ctx context.Context, req *request.Request, _ searchuc.Embedder) searchuc.Response {
	return m.fn(ctx, req)
}

// --- recommendUseCase mock ---

type mockRecommendUC struct {
	fn func(ctx context.Context, key string, useVector bool) ([]domrec.Recommendation, error)
}

func (m *mockRecommendUC) RecommendFor(
	ctx context.Context, key string, useVector bool, _ recommenduc.Embedder,
) ([]domrec.Recommendation, error) {
	return m.fn(ctx, key, useVector)
}

// --- reindexUseCase mock ---

type mockReindexUC struct {
	fn func(ctx context.Context) (reindexuc.Report, error)
}

func (m *mockReindexUC) Run(ctx context.Context, _ reindexuc.Embedder) (reindexuc.Report, error) {
	return m.fn(ctx)
}

// --- Embedder mock ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}
