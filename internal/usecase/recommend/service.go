// Package recommend suggests items related to a target item.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/domain/content"
	domrec "github.com/kailas-cloud/semdex/internal/domain/recommend"
	"github.com/kailas-cloud/semdex/internal/logger"
	"github.com/kailas-cloud/semdex/internal/repository/item"
)

// Service loads the target and its candidates and runs the engine.
type Service struct {
	items        ItemReader
	engine       *Engine
	scanLimit    int
	queryTimeout time.Duration
}

// New creates a recommendation service. scanLimit caps the candidate page.
func New(items ItemReader, engine *Engine, scanLimit int, queryTimeout time.Duration) *Service {
	return &Service{items: items, engine: engine, scanLimit: scanLimit, queryTimeout: queryTimeout}
}

// RecommendFor recommends items related to targetKey. An unknown key and a
// failing store both yield an empty list; only a blank key is an error.
func (s *Service) RecommendFor(
	ctx context.Context, targetKey string, useVector bool, embed Embedder,
) ([]domrec.Recommendation, error) {
	targetKey = strings.TrimSpace(targetKey)
	if targetKey == "" {
		return nil, fmt.Errorf("target key is required: %w", domain.ErrInvalidQuery)
	}
	log := logger.FromContext(ctx).With(zap.String("target", targetKey))

	target, err := s.get(ctx, targetKey)
	switch {
	case errors.Is(err, domain.ErrItemNotFound):
		log.Debug("Recommendation target not found")
		return nil, nil
	case err != nil:
		log.Warn("Recommendation target lookup failed", zap.Error(err))
		return nil, nil
	}

	cands, err := s.list(ctx)
	if err != nil {
		log.Warn("Recommendation candidates lookup failed", zap.Error(err))
		return nil, nil
	}
	return s.engine.Recommend(ctx, cands, target, useVector, embed), nil
}

func (s *Service) get(ctx context.Context, key string) (*content.Item, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.items.Get(ctx, key)
}

func (s *Service) list(ctx context.Context) ([]*content.Item, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.items.List(ctx, item.All, s.scanLimit)
}

func (s *Service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}
