package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semdex/internal/config"
	"github.com/kailas-cloud/semdex/internal/db"
	dbBadger "github.com/kailas-cloud/semdex/internal/db/badger"
	dbRedis "github.com/kailas-cloud/semdex/internal/db/redis"
	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/metrics"
	"github.com/kailas-cloud/semdex/internal/ondevice"
	budgetrepo "github.com/kailas-cloud/semdex/internal/repository/budget"
	"github.com/kailas-cloud/semdex/internal/repository/embcache"
	itemrepo "github.com/kailas-cloud/semdex/internal/repository/item"
	"github.com/kailas-cloud/semdex/internal/similarity"
	chiTransport "github.com/kailas-cloud/semdex/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/semdex/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/semdex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/semdex/internal/usecase/health"
	itemuc "github.com/kailas-cloud/semdex/internal/usecase/item"
	recommenduc "github.com/kailas-cloud/semdex/internal/usecase/recommend"
	reindexuc "github.com/kailas-cloud/semdex/internal/usecase/reindex"
	searchuc "github.com/kailas-cloud/semdex/internal/usecase/search"
	usageuc "github.com/kailas-cloud/semdex/internal/usecase/usage"
)

// Budget counters outlive their period so the month total survives a restart near midnight.
const (
	budgetDailyTTL   = 48 * time.Hour
	budgetMonthlyTTL = 62 * 24 * time.Hour
)

// app is the composition root shared by the serve and reindex commands.
type app struct {
	store    db.Store
	registry *embeddinguc.Registry
	reindex  *reindexuc.Service
	server   *chiTransport.Server
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	store, err := openStore(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database", zap.String("driver", cfg.Database.Driver))

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	budget := newBudgetTracker(ctx, cfg.Embedding.Remote.Budget, store, logger)

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	var budgetChecker embeddinguc.BudgetChecker
	var budgetReader usageuc.BudgetReader
	if budget != nil {
		budgetChecker = budget
		budgetReader = budget
	}

	onDevice := newOnDevice(cfg.Embedding.OnDevice, logger)
	remote := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:        cfg.Embedding.Remote.APIKey,
		BaseURL:       cfg.Embedding.Remote.BaseURL,
		Model:         cfg.Embedding.Remote.Model,
		Dimensions:    cfg.Embedding.Remote.Dimensions,
		MaxInputChars: cfg.Embedding.MaxInputChars,
		Logger:        logger,
	})

	chains := chainBuilder{cfg: cfg.Embedding, store: store, budget: budgetChecker, logger: logger}
	registry := embeddinguc.NewRegistry(embeddinguc.RegistryConfig{
		Default:  domain.ProviderKind(cfg.Embedding.DefaultProvider),
		OnDevice: chains.onDevice(onDevice),
		Remote:   chains.remote(remote),
		Timeout:  cfg.Embedding.Timeout(),
	})
	ingestEmbedder, err := registry.Select(registry.Default(), "")
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("default embedding provider: %w", err)
	}
	logger.Info("Embedding providers configured",
		zap.String("default", string(registry.Default())),
		zap.Strings("ondevice_models", cfg.Embedding.OnDevice.Models),
		zap.String("remote_model", cfg.Embedding.Remote.Model),
		zap.Bool("remote_key_set", cfg.Embedding.Remote.APIKey != ""),
	)

	items := itemrepo.New(store, cfg.Database.MaxScan)
	queryTimeout := cfg.Database.QueryTimeout()

	searchSvc := searchuc.New(items, similarity.NewScorer(cfg.Search.Weights), searchuc.Config{
		VectorScanLimit:  cfg.Search.VectorScanLimit,
		KeywordScanLimit: cfg.Search.KeywordScanLimit,
		QueryTimeout:     queryTimeout,
	})
	engine := recommenduc.NewEngine(cfg.Recommend.Gates, cfg.Recommend.Weights)
	recommendSvc := recommenduc.New(items, engine, cfg.Recommend.ScanLimit, queryTimeout)
	reindexSvc := reindexuc.New(items, reindexuc.Config{
		Concurrency:  cfg.Reindex.Concurrency,
		ScanLimit:    cfg.Database.MaxScan,
		QueryTimeout: queryTimeout,
	})
	itemSvc := itemuc.New(items, ingestEmbedder)

	checks := map[string]healthuc.EmbeddingChecker{"embedding_on_device": onDevice}
	if cfg.Embedding.Remote.APIKey != "" {
		checks["embedding_remote"] = remote
	}
	healthSvc := healthuc.New(store, checks, 0)

	server := chiTransport.NewServer(chiTransport.Services{
		Search:    searchSvc,
		Recommend: recommendSvc,
		Reindex:   reindexSvc,
		Items:     itemSvc,
		Health:    healthSvc,
		Usage:     usageuc.New(budgetReader),
		Embedders: registry,
	}, logger)

	return &app{store: store, registry: registry, reindex: reindexSvc, server: server}, nil
}

// Close releases the store.
func (a *app) Close() {
	a.store.Close()
}

func openStore(cfg config.DatabaseConfig, logger *zap.Logger) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverValkey, config.DriverRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverBadger:
		s, err := dbBadger.NewStore(dbBadger.Config{
			Path:     cfg.Badger.Path,
			InMemory: cfg.Badger.InMemory,
			Logger:   logger.Named("badger"),
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// newBudgetTracker returns nil when no limit is configured.
func newBudgetTracker(
	ctx context.Context, cfg config.BudgetConfig, store db.Store, logger *zap.Logger,
) *embeddinguc.BudgetTracker {
	if cfg.DailyTokenLimit <= 0 && cfg.MonthlyTokenLimit <= 0 {
		return nil
	}
	action := embeddinguc.BudgetActionWarn
	if cfg.Action == string(embeddinguc.BudgetActionReject) {
		action = embeddinguc.BudgetActionReject
	}
	budget := embeddinguc.NewBudgetTracker(
		string(domain.ProviderRemote), cfg.DailyTokenLimit, cfg.MonthlyTokenLimit, action, logger,
	)
	// Connect persistence store, loads current counters from DB.
	return budget.WithStore(ctx, budgetrepo.New(store, budgetDailyTTL, budgetMonthlyTTL))
}

func newOnDevice(cfg config.OnDeviceConfig, logger *zap.Logger) *ondevice.Embedder {
	loader := ondevice.Router{Builtin: ondevice.HashLoader{}}
	if cfg.RuntimeURL != "" {
		loader.Runtime = ondevice.NewRuntimeLoader(cfg.RuntimeURL)
	}
	return ondevice.NewEmbedder(ondevice.Config{
		Models:      cfg.Models,
		Loader:      loader,
		LoadTimeout: time.Duration(cfg.LoadTimeoutSec) * time.Second,
		RetryAfter:  time.Duration(cfg.RetryAfterSec) * time.Second,
		Logger:      logger.Named("ondevice"),
	})
}

// chainBuilder assembles per-model provider chains for the registry.
type chainBuilder struct {
	cfg    config.EmbeddingConfig
	store  db.Store
	budget embeddinguc.BudgetChecker
	logger *zap.Logger
}

// onDevice builds: on-device model -> Cached.
func (c chainBuilder) onDevice(base *ondevice.Embedder) embeddinguc.Factory {
	return func(model string) (domain.Embedder, error) {
		if model == "" && len(c.cfg.OnDevice.Models) > 0 {
			model = c.cfg.OnDevice.Models[0]
		}
		return c.cached(base.WithModel(model), string(domain.ProviderOnDevice)+":"+model)
	}
}

// remote builds: OpenAI model -> Breaker -> Instrumented (budget) -> Cached.
// Cache hits skip the budget and the breaker entirely.
func (c chainBuilder) remote(base *openaiEmb.Embedder) embeddinguc.Factory {
	return func(model string) (domain.Embedder, error) {
		leaf := base.WithModel(model)
		name := string(domain.ProviderRemote) + ":" + leaf.Model()

		var e domain.Embedder = embeddinguc.NewBreakerEmbedder(leaf, name, embeddinguc.BreakerSettings{
			MinRequests:      c.cfg.Remote.Breaker.MinRequests,
			FailureRatio:     c.cfg.Remote.Breaker.FailureRatio,
			Interval:         time.Duration(c.cfg.Remote.Breaker.IntervalSec) * time.Second,
			OpenTimeout:      time.Duration(c.cfg.Remote.Breaker.OpenTimeoutSec) * time.Second,
			HalfOpenRequests: c.cfg.Remote.Breaker.HalfOpenRequests,
		}, c.logger)
		e = embeddinguc.NewInstrumentedEmbedder(e, string(domain.ProviderRemote), leaf.Model(), c.budget, c.logger)
		return c.cached(e, name)
	}
}

func (c chainBuilder) cached(inner domain.Embedder, namespace string) (domain.Embedder, error) {
	e, err := embcache.New(inner, c.store, embcache.Options{
		Namespace:  namespace,
		L1Size:     c.cfg.Cache.Size,
		TTL:        time.Duration(c.cfg.Cache.TTLSec) * time.Second,
		CacheTotal: metrics.EmbeddingCacheTotal,
	}, c.logger)
	if err != nil {
		return nil, fmt.Errorf("embedding cache %s: %w", namespace, err)
	}
	return e, nil
}
