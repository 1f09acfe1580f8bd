// Package embcache memoizes embeddings in an in-process LRU backed by the KV store.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/semdex/internal/db"
	"github.com/kailas-cloud/semdex/internal/domain"
)

var cacheKeyPrefix = domain.KeyPrefix + "emb_cache:"

// store is the consumer interface for the embedding cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Options configures a CachedEmbedder.
type Options struct {
	// Namespace separates vector spaces, usually "<provider>:<model>".
	Namespace string
	// L1Size is the in-process LRU capacity. 0 disables L1.
	L1Size int
	// TTL bounds L2 entries. 0 keeps them forever.
	TTL time.Duration
	// CacheTotal counts lookups by result ("hit_memory", "hit_store", "miss").
	CacheTotal *prometheus.CounterVec
}

// entry is the L2 payload.
type entry struct {
	Provider domain.ProviderKind `json:"p"`
	Model    string              `json:"m"`
	Vector   []byte              `json:"v"`
}

// CachedEmbedder wraps one provider and remembers its vectors. Concurrent
// misses for the same text share one upstream call.
type CachedEmbedder struct {
	inner      domain.Embedder
	store      store
	l1         *lru.Cache[string, domain.EmbeddingResult]
	flight     singleflight.Group
	namespace  string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator. s may be nil to run with L1 only.
func New(inner domain.Embedder, s store, opts Options, logger *zap.Logger) (*CachedEmbedder, error) {
	c := &CachedEmbedder{
		inner:      inner,
		store:      s,
		namespace:  opts.Namespace,
		ttl:        opts.TTL,
		cacheTotal: opts.CacheTotal,
		logger:     logger,
	}
	if opts.L1Size > 0 {
		l1, err := lru.New[string, domain.EmbeddingResult](opts.L1Size)
		if err != nil {
			return nil, fmt.Errorf("embedding lru: %w", err)
		}
		c.l1 = l1
	}
	return c, nil
}

// Embed returns a cached embedding or calls the inner embedder.
// A hit reports zero tokens and the provider/model that originally produced the vector.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.cacheKey(text)

	if c.l1 != nil {
		if res, ok := c.l1.Get(key); ok {
			c.incCache("hit_memory")
			return res, nil
		}
	}

	v, err, _ := c.flight.Do(key, func() (any, error) {
		if res, ok := c.getFromStore(ctx, key); ok {
			c.incCache("hit_store")
			c.remember(key, res)
			return res, nil
		}

		c.incCache("miss")
		res, err := c.inner.Embed(ctx, text)
		if err != nil {
			return domain.EmbeddingResult{}, err
		}
		if err := res.Vector().Validate(); err != nil {
			return domain.EmbeddingResult{}, err
		}
		c.remember(key, res)
		c.putToStore(ctx, key, res)
		return res, nil
	})
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	return v.(domain.EmbeddingResult), nil
}

func (c *CachedEmbedder) remember(key string, res domain.EmbeddingResult) {
	if c.l1 == nil {
		return
	}
	res.PromptTokens, res.TotalTokens = 0, 0
	c.l1.Add(key, res)
}

func (c *CachedEmbedder) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedEmbedder) cacheKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return cacheKeyPrefix + c.namespace + ":" + hex.EncodeToString(h[:])
}

func (c *CachedEmbedder) getFromStore(ctx context.Context, key string) (domain.EmbeddingResult, bool) {
	if c.store == nil {
		return domain.EmbeddingResult{}, false
	}
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached embedding", zap.String("key", key), zap.Error(err))
		}
		return domain.EmbeddingResult{}, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		c.logger.Warn("Failed to parse cached embedding", zap.String("key", key), zap.Error(err))
		return domain.EmbeddingResult{}, false
	}
	vec, err := db.DecodeVector(e.Vector)
	if err != nil || len(vec) == 0 {
		c.logger.Warn("Dropping corrupt cached embedding", zap.String("key", key), zap.Error(err))
		return domain.EmbeddingResult{}, false
	}
	return domain.EmbeddingResult{Embedding: vec, Provider: e.Provider, Model: e.Model}, true
}

func (c *CachedEmbedder) putToStore(ctx context.Context, key string, res domain.EmbeddingResult) {
	if c.store == nil {
		return
	}
	data, err := json.Marshal(entry{Provider: res.Provider, Model: res.Model, Vector: db.EncodeVector(res.Embedding)})
	if err != nil {
		c.logger.Warn("Failed to encode embedding for cache", zap.Error(err))
		return
	}
	if c.ttl > 0 {
		err = c.store.SetWithTTL(ctx, key, data, c.ttl)
	} else {
		err = c.store.Set(ctx, key, data)
	}
	if err != nil {
		c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
}
