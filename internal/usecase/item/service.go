// Package item is the ingestion-side write path: store a descriptor and embed it.
package item

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/domain/content"
	"github.com/kailas-cloud/semdex/internal/logger"
)

// MaxKeyLength is the longest accepted item key, in runes.
const MaxKeyLength = 1024

// Service handles item writes with best-effort vectorization.
type Service struct {
	repo  Repository
	embed Embedder
	now   func() time.Time
}

// New creates an item service. embed may be nil, in which case items are stored without vectors.
func New(repo Repository, embed Embedder) *Service {
	return &Service{repo: repo, embed: embed, now: time.Now}
}

// Put stores the descriptor under key and embeds it. An embedding failure
// is not an error: the item is stored without a vector and picked up by reindex.
// A re-put keeps the original creation time.
func (s *Service) Put(ctx context.Context, key string, d content.Descriptor, analyzed bool) (*content.Item, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	it := &content.Item{Key: key, Descriptor: d, Analyzed: analyzed, CreatedAt: s.now().UTC()}
	prev, err := s.repo.Get(ctx, key)
	switch {
	case err == nil:
		it.CreatedAt = prev.CreatedAt
	case !errors.Is(err, domain.ErrItemNotFound):
		return nil, fmt.Errorf("load item: %w", err)
	}

	it.Embedding = s.vectorize(ctx, it)
	if err := s.repo.Put(ctx, it); err != nil {
		return nil, fmt.Errorf("put item: %w", err)
	}
	return it, nil
}

// Get returns one item.
func (s *Service) Get(ctx context.Context, key string) (*content.Item, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	it, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

func (s *Service) vectorize(ctx context.Context, it *content.Item) domain.Embedding {
	if s.embed == nil {
		return domain.Embedding{}
	}
	log := logger.FromContext(ctx).With(zap.String("key", it.Key))

	text, err := content.EmbeddingText(it)
	if err != nil {
		log.Debug("Item has no embeddable text")
		return domain.Embedding{}
	}
	res, err := s.embed.Embed(ctx, text)
	if err != nil {
		log.Warn("Storing item without embedding", zap.Error(err))
		return domain.Embedding{}
	}
	vec := res.Vector()
	if err := vec.Validate(); err != nil {
		log.Warn("Storing item without embedding", zap.Error(err))
		return domain.Embedding{}
	}
	return vec
}

// ValidateKey rejects blank keys, keys longer than MaxKeyLength runes and
// keys carrying control characters.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("key is required: %w", domain.ErrInvalidKey)
	}
	if utf8.RuneCountInString(key) > MaxKeyLength {
		return fmt.Errorf("key too long (max %d): %w", MaxKeyLength, domain.ErrInvalidKey)
	}
	if strings.ContainsFunc(key, unicode.IsControl) {
		return fmt.Errorf("key contains control characters: %w", domain.ErrInvalidKey)
	}
	return nil
}
