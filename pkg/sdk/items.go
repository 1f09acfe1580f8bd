package semdex

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/semdex/internal/domain/content"
)

// Put stores an item under key and embeds it. If no provider can embed the
// item it is still stored, without a vector, and picked up by Reindex.
func (c *Client) Put(ctx context.Context, key string, kind Kind, d Descriptor, analyzed bool) (item Item, err error) {
	defer c.obs.track("put", time.Now(), &err)

	k, err := content.ParseKind(string(kind))
	if err != nil {
		return Item{}, fmt.Errorf("put %s: %w: %w", key, ErrInvalidDescriptor, err)
	}
	desc, err := content.FromFields(k, &d)
	if err != nil {
		return Item{}, fmt.Errorf("put %s: %w", key, err)
	}
	it, err := c.itemSvc.Put(ctx, key, desc, analyzed)
	if err != nil {
		return Item{}, fmt.Errorf("put %s: %w", key, err)
	}
	return itemFromDomain(it), nil
}

// Get returns a stored item. A missing key yields ErrItemNotFound.
func (c *Client) Get(ctx context.Context, key string) (item Item, err error) {
	defer c.obs.track("get", time.Now(), &err)

	it, err := c.itemSvc.Get(ctx, key)
	if err != nil {
		return Item{}, fmt.Errorf("get %s: %w", key, err)
	}
	return itemFromDomain(it), nil
}
