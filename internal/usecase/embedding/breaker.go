package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/metrics"
)

// BreakerSettings configures the remote provider circuit breaker.
type BreakerSettings struct {
	// MinRequests is the number of calls in Interval before the ratio counts.
	MinRequests  uint32
	FailureRatio float64
	Interval     time.Duration
	// OpenTimeout is how long the circuit stays open before probing.
	OpenTimeout time.Duration
	// HalfOpenRequests caps probes while half-open.
	HalfOpenRequests uint32
}

// BreakerEmbedder stops calling a failing provider for a while. Calls made
// while open fail at once with ErrProviderUnavailable, so the fallback
// takes over without waiting on timeouts.
type BreakerEmbedder struct {
	inner domain.Embedder
	cb    *gobreaker.CircuitBreaker[domain.EmbeddingResult]
}

// NewBreakerEmbedder wraps inner with a circuit breaker named name.
func NewBreakerEmbedder(inner domain.Embedder, name string, s BreakerSettings, logger *zap.Logger) *BreakerEmbedder {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[domain.EmbeddingResult](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.HalfOpenRequests,
		Interval:    s.Interval,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.Requests < s.MinRequests {
				return false
			}
			return float64(c.TotalFailures)/float64(c.Requests) >= s.FailureRatio
		},
		// caller cancellation and budget rejections say nothing about provider health
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, domain.ErrEmbeddingQuotaExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &BreakerEmbedder{inner: inner, cb: cb}
}

// Embed implements domain.Embedder.
func (b *BreakerEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := b.cb.Execute(func() (domain.EmbeddingResult, error) {
		return b.inner.Embed(ctx, text)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return domain.EmbeddingResult{}, fmt.Errorf("circuit %s: %w: %w", b.cb.Name(), domain.ErrProviderUnavailable, err)
	}
	return res, err
}

// State reports the current breaker state.
func (b *BreakerEmbedder) State() gobreaker.State {
	return b.cb.State()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
