// Package item stores content items as hashes in db.Store.
package item

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/domain/content"
)

var keyPrefix = domain.KeyPrefix + "item:"

const fetchBatch = 100

// Filter selects items by embedding presence.
type Filter int

// List filters.
const (
	All Filter = iota
	WithEmbedding
	WithoutEmbedding
)

func (f Filter) match(it *content.Item) bool {
	switch f {
	case WithEmbedding:
		return it.HasEmbedding()
	case WithoutEmbedding:
		return !it.HasEmbedding()
	default:
		return true
	}
}

// store is the consumer interface for items (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string, limit int) ([]string, error)
}

// Repo implements the item repository used by the usecases.
type Repo struct {
	store   store
	maxScan int
}

// New creates an item repository. maxScan caps how many keys one List call
// walks; 0 means unbounded.
func New(s store, maxScan int) *Repo {
	return &Repo{store: s, maxScan: maxScan}
}

// Get loads one item.
func (r *Repo) Get(ctx context.Context, key string) (*content.Item, error) {
	h, err := r.store.HGetAll(ctx, itemKey(key))
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w: %w", key, domain.ErrStoreQueryFailed, err)
	}
	if len(h) == 0 {
		return nil, fmt.Errorf("item %s: %w", key, domain.ErrItemNotFound)
	}
	return fromHash(key, h)
}

// Put writes the whole item. An item stored without an embedding loses any
// previous vector, so stale vectors never outlive their content.
func (r *Repo) Put(ctx context.Context, it *content.Item) error {
	h, err := toHash(it)
	if err != nil {
		return err
	}
	k := itemKey(it.Key)
	if !it.HasEmbedding() {
		if err := r.store.HDel(ctx, k, embeddingFields...); err != nil {
			return fmt.Errorf("clear embedding %s: %w", it.Key, err)
		}
	}
	if err := r.store.HSet(ctx, k, h); err != nil {
		return fmt.Errorf("put item %s: %w", it.Key, err)
	}
	return nil
}

// SetEmbedding overwrites the stored vector of an existing item.
func (r *Repo) SetEmbedding(ctx context.Context, key string, e domain.Embedding) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("set embedding %s: %w", key, err)
	}
	k := itemKey(key)
	ok, err := r.store.Exists(ctx, k)
	if err != nil {
		return fmt.Errorf("set embedding %s: %w", key, err)
	}
	if !ok {
		return fmt.Errorf("set embedding %s: %w", key, domain.ErrItemNotFound)
	}
	if err := r.store.HSet(ctx, k, embeddingHash(e)); err != nil {
		return fmt.Errorf("set embedding %s: %w", key, err)
	}
	return nil
}

// List returns up to limit items matching the filter, ordered by key.
// limit <= 0 returns every match within the scan bound.
func (r *Repo) List(ctx context.Context, f Filter, limit int) ([]*content.Item, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*", r.maxScan)
	if err != nil {
		return nil, fmt.Errorf("list items: %w: %w", domain.ErrStoreQueryFailed, err)
	}
	slices.Sort(keys)

	var out []*content.Item
	for start := 0; start < len(keys); start += fetchBatch {
		batch := keys[start:min(start+fetchBatch, len(keys))]
		hashes, err := r.store.HGetAllMulti(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("list items: %w: %w", domain.ErrStoreQueryFailed, err)
		}
		for i, h := range hashes {
			if len(h) == 0 {
				continue // deleted between scan and fetch
			}
			it, err := fromHash(strings.TrimPrefix(batch[i], keyPrefix), h)
			if err != nil {
				continue
			}
			if !f.match(it) {
				continue
			}
			out = append(out, it)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
	}
	return out, nil
}

func itemKey(key string) string {
	return keyPrefix + key
}
