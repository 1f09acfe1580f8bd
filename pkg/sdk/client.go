package semdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semdex/internal/db"
	dbBadger "github.com/kailas-cloud/semdex/internal/db/badger"
	dbRedis "github.com/kailas-cloud/semdex/internal/db/redis"
	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/domain/content"
	domrec "github.com/kailas-cloud/semdex/internal/domain/recommend"
	"github.com/kailas-cloud/semdex/internal/domain/search/request"
	domusage "github.com/kailas-cloud/semdex/internal/domain/usage"
	"github.com/kailas-cloud/semdex/internal/ondevice"
	"github.com/kailas-cloud/semdex/internal/repository/embcache"
	itemrepo "github.com/kailas-cloud/semdex/internal/repository/item"
	"github.com/kailas-cloud/semdex/internal/similarity"
	openaiEmb "github.com/kailas-cloud/semdex/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/semdex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/semdex/internal/usecase/health"
	itemuc "github.com/kailas-cloud/semdex/internal/usecase/item"
	recommenduc "github.com/kailas-cloud/semdex/internal/usecase/recommend"
	reindexuc "github.com/kailas-cloud/semdex/internal/usecase/reindex"
	searchuc "github.com/kailas-cloud/semdex/internal/usecase/search"
	usageuc "github.com/kailas-cloud/semdex/internal/usecase/usage"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultScanLimit        = 1000
	defaultOnDeviceModel    = "hash-384"
	defaultOpenAIModel      = "text-embedding-3-small"
	embedTimeout            = 10 * time.Second
	cacheSize               = 1024
)

// Internal interfaces, swapped for mocks in tests.
type itemUseCase interface {
	Put(ctx context.Context, key string, d content.Descriptor, analyzed bool) (*content.Item, error)
	Get(ctx context.Context, key string) (*content.Item, error)
}

type searchUseCase interface {
	Search(ctx context.Context, req *request.Request, embed searchuc.Embedder) searchuc.Response
}

type recommendUseCase interface {
	RecommendFor(
		ctx context.Context, key string, useVector bool, embed recommenduc.Embedder,
	) ([]domrec.Recommendation, error)
}

type reindexUseCase interface {
	Run(ctx context.Context, embed reindexuc.Embedder) (reindexuc.Report, error)
}

// Client is the semdex SDK entry point.
type Client struct {
	store      db.Store
	embed      domain.Embedder
	provider   domain.ProviderKind
	itemSvc    itemUseCase
	searchSvc  searchUseCase
	recSvc     recommendUseCase
	reindexSvc reindexUseCase
	healthSvc  healthUseCase
	usageSvc   usageUseCase
	obs        *observer
}

// New creates a semdex Client and opens the store.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{scanLimit: defaultScanLimit, onDeviceModel: defaultOnDeviceModel}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("semdex: store required (use WithValkey, WithRedis, WithBadger or WithInMemory)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("semdex: store not ready: %w", err)
	}

	c, err := wireClient(store, cfg, obs)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey", "redis":
		if len(cfg.addrs) == 0 || cfg.addrs[0] == "" {
			return nil, fmt.Errorf("semdex: %s address required", cfg.driver)
		}
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("semdex: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	case "badger":
		if cfg.badgerPath == "" && !cfg.inMemory {
			return nil, errors.New("semdex: badger directory required")
		}
		s, err := dbBadger.NewStore(dbBadger.Config{
			Path:     cfg.badgerPath,
			InMemory: cfg.inMemory,
			Logger:   zap.NewNop(),
		})
		if err != nil {
			return nil, fmt.Errorf("semdex: create badger store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("semdex: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	// Internal components log through zap; SDK callers get slog via the observer.
	log := zap.NewNop()

	var onDevice interface {
		domain.Embedder
		healthuc.EmbeddingChecker
	}
	if cfg.embedder != nil {
		onDevice = &embedderAdapter{inner: cfg.embedder}
	} else {
		onDevice = ondevice.NewEmbedder(ondevice.Config{
			Models: []string{cfg.onDeviceModel},
			Loader: ondevice.HashLoader{},
			Logger: log,
		})
	}
	checks := map[string]healthuc.EmbeddingChecker{"embedding_on_device": onDevice}

	var budget *embeddinguc.BudgetTracker
	regCfg := embeddinguc.RegistryConfig{
		Default: domain.ProviderOnDevice,
		OnDevice: func(string) (domain.Embedder, error) {
			return cached(onDevice, store, string(domain.ProviderOnDevice), log)
		},
		Timeout: embedTimeout,
	}
	if cfg.openAIKey != "" {
		model := cfg.openAIModel
		if model == "" {
			model = defaultOpenAIModel
		}
		remote := openaiEmb.NewEmbedder(&openaiEmb.Config{APIKey: cfg.openAIKey, Model: model, Logger: log})
		checks["embedding_remote"] = remote

		// Uncapped unless WithTokenBudget is set; it still counts tokens for Usage.
		budget = embeddinguc.NewBudgetTracker(
			string(domain.ProviderRemote), cfg.dailyTokens, cfg.monthlyTokens, embeddinguc.BudgetActionReject, log,
		)
		regCfg.Default = domain.ProviderRemote
		regCfg.Remote = func(string) (domain.Embedder, error) {
			instrumented := embeddinguc.NewInstrumentedEmbedder(remote, string(domain.ProviderRemote), model, budget, log)
			return cached(instrumented, store, string(domain.ProviderRemote)+":"+model, log)
		}
	}
	embed, err := embeddinguc.NewRegistry(regCfg).Select(regCfg.Default, "")
	if err != nil {
		return nil, fmt.Errorf("semdex: embedding provider: %w", err)
	}

	// Pass nil interface (not typed nil pointer!) when no remote provider is set.
	var budgetReader usageuc.BudgetReader
	if budget != nil {
		budgetReader = budget
	}

	items := itemrepo.New(store, 0)
	return &Client{
		store:    store,
		embed:    embed,
		provider: regCfg.Default,
		itemSvc:  itemuc.New(items, embed),
		searchSvc: searchuc.New(items, similarity.NewScorer(similarity.DefaultWeights()), searchuc.Config{
			VectorScanLimit:  cfg.scanLimit,
			KeywordScanLimit: cfg.scanLimit,
		}),
		recSvc: recommenduc.New(items,
			recommenduc.NewEngine(recommenduc.DefaultGates(), recommenduc.DefaultWeights()), cfg.scanLimit, 0),
		reindexSvc: reindexuc.New(items, reindexuc.Config{}),
		healthSvc:  healthuc.New(store, checks, 0),
		usageSvc:   usageuc.New(budgetReader),
		obs:        obs,
	}, nil
}

func cached(inner domain.Embedder, store db.Store, namespace string, log *zap.Logger) (domain.Embedder, error) {
	e, err := embcache.New(inner, store, embcache.Options{Namespace: namespace, L1Size: cacheSize}, log)
	if err != nil {
		return nil, fmt.Errorf("embedding cache: %w", err)
	}
	return e, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks store connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	defer c.obs.track("ping", time.Now(), &err)

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// usageUseCase is the internal interface for usage reports.
type usageUseCase interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}
