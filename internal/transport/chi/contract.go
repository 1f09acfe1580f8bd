package chi

import (
	"context"

	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/domain/content"
	domrec "github.com/kailas-cloud/semdex/internal/domain/recommend"
	"github.com/kailas-cloud/semdex/internal/domain/search/request"
	domusage "github.com/kailas-cloud/semdex/internal/domain/usage"
	healthuc "github.com/kailas-cloud/semdex/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/semdex/internal/usecase/recommend"
	reindexuc "github.com/kailas-cloud/semdex/internal/usecase/reindex"
	searchuc "github.com/kailas-cloud/semdex/internal/usecase/search"
)

// Searcher runs the search stage ladder.
type Searcher interface {
	Search(ctx context.Context, req *request.Request, embed searchuc.Embedder) searchuc.Response
}

// Recommender ranks items related to a target.
type Recommender interface {
	RecommendFor(ctx context.Context, key string, useVector bool, embed recommenduc.Embedder) ([]domrec.Recommendation, error)
}

// Reindexer re-embeds every stored item.
type Reindexer interface {
	Run(ctx context.Context, embed reindexuc.Embedder) (reindexuc.Report, error)
}

// ItemService stores and reads items.
type ItemService interface {
	Put(ctx context.Context, key string, d content.Descriptor, analyzed bool) (*content.Item, error)
	Get(ctx context.Context, key string) (*content.Item, error)
}

// HealthChecker aggregates component checks.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// UsageReporter reports remote token consumption.
type UsageReporter interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}

// EmbedderSelector resolves the provider named by a request.
type EmbedderSelector interface {
	Default() domain.ProviderKind
	Select(kind domain.ProviderKind, model string) (domain.Embedder, error)
}
