// Package ondevice produces embeddings locally, without a remote API.
package ondevice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/metrics"
	"github.com/kailas-cloud/semdex/internal/similarity"
)

// Pipeline runs one model on one input.
type Pipeline interface {
	Run(ctx context.Context, text string) (Tensor, error)
}

// Loader turns a model name into a ready pipeline.
type Loader interface {
	Load(ctx context.Context, model string) (Pipeline, error)
}

// Router sends builtin model names to Builtin and everything else to Runtime.
type Router struct {
	Builtin Loader
	Runtime Loader
}

// Load implements Loader.
func (r Router) Load(ctx context.Context, model string) (Pipeline, error) {
	if strings.HasPrefix(model, BuiltinPrefix) {
		return r.Builtin.Load(ctx, model)
	}
	if r.Runtime == nil {
		return nil, fmt.Errorf("model %q needs a local runtime, none configured", model)
	}
	return r.Runtime.Load(ctx, model)
}

// Config holds on-device provider settings.
type Config struct {
	// Models are tried in order until one loads.
	Models      []string
	Loader      Loader
	LoadTimeout time.Duration
	// RetryAfter is how long a failed load is reported before loading again.
	RetryAfter time.Duration
	Logger     *zap.Logger
}

// Embedder is the on-device provider. It is built once at startup; the first
// Embed loads a pipeline and every later call reuses it. A failed load is
// remembered for RetryAfter, then the next call loads again.
type Embedder struct {
	models      []string
	loader      Loader
	loadTimeout time.Duration
	retryAfter  time.Duration
	logger      *zap.Logger
	now         func() time.Time

	loadMu   sync.Mutex // serializes loads
	pipe     Pipeline
	model    string
	loadErr  error
	failedAt time.Time

	mu       sync.Mutex
	variants map[string]*Embedder
}

// NewEmbedder creates an on-device embedder. No model is loaded until first use.
func NewEmbedder(cfg Config) *Embedder {
	timeout := cfg.LoadTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retry := cfg.RetryAfter
	if retry <= 0 {
		retry = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Embedder{
		models:      cfg.Models,
		loader:      cfg.Loader,
		loadTimeout: timeout,
		retryAfter:  retry,
		logger:      logger,
		now:         time.Now,
		variants:    make(map[string]*Embedder),
	}
}

// WithModel returns an embedder that prefers model and falls back to the
// configured list. Variants are cached so each model loads at most once.
func (e *Embedder) WithModel(model string) *Embedder {
	if model == "" || (len(e.models) > 0 && e.models[0] == model) {
		return e
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if v, ok := e.variants[model]; ok {
		return v
	}
	models := append([]string{model}, e.models...)
	v := NewEmbedder(Config{
		Models:      models,
		Loader:      e.loader,
		LoadTimeout: e.loadTimeout,
		RetryAfter:  e.retryAfter,
		Logger:      e.logger,
	})
	v.now = e.now
	e.variants[model] = v
	return v
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	pipe, model, err := e.pipeline(ctx)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("on-device: %w: %w", domain.ErrProviderUnavailable, err)
	}

	provider := string(domain.ProviderOnDevice)
	start := time.Now()

	out, err := pipe.Run(ctx, text)
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(provider, model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(provider, model, "inference").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("on-device %s: %w: %w", model, domain.ErrProviderUnavailable, err)
	}

	vec, err := Flatten(out)
	if err != nil {
		metrics.EmbeddingErrorsTotal.WithLabelValues(provider, model, "invalid_output").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("on-device %s: %w: %w", model, domain.ErrInvalidEmbedding, err)
	}
	vec = similarity.Normalize(append([]float32(nil), vec...))

	res := domain.EmbeddingResult{Embedding: vec, Provider: domain.ProviderOnDevice, Model: model}
	if err := res.Vector().Validate(); err != nil {
		metrics.EmbeddingErrorsTotal.WithLabelValues(provider, model, "invalid_output").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("on-device %s: %w", model, err)
	}
	if isZero(vec) {
		return domain.EmbeddingResult{}, fmt.Errorf("on-device %s: zero vector: %w", model, domain.ErrInvalidEmbedding)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(provider, model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(provider, model).Observe(time.Since(start).Seconds())
	return res, nil
}

// HealthCheck reports whether any configured model can be loaded.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, _, err := e.pipeline(ctx); err != nil {
		return fmt.Errorf("on-device: %w", err)
	}
	return nil
}

// Model returns the loaded model name, or empty before the first load.
func (e *Embedder) Model() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model
}

func (e *Embedder) pipeline(ctx context.Context) (Pipeline, string, error) {
	if pipe, model, ok, err := e.cached(); ok {
		return pipe, model, err
	}

	e.loadMu.Lock()
	defer e.loadMu.Unlock()
	// another caller may have finished the load while we waited
	if pipe, model, ok, err := e.cached(); ok {
		return pipe, model, err
	}

	// a cancelled first caller must not poison the cached load
	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.loadTimeout)
	defer cancel()

	pipe, model, err := e.load(loadCtx)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pipe, e.model, e.loadErr = pipe, model, err
	if err != nil {
		e.failedAt = e.now()
	}
	return pipe, model, err
}

// cached returns the loaded pipeline, or a failure still inside its retry window.
func (e *Embedder) cached() (Pipeline, string, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case e.pipe != nil:
		return e.pipe, e.model, true, nil
	case e.loadErr != nil && e.now().Sub(e.failedAt) < e.retryAfter:
		return nil, "", true, e.loadErr
	}
	return nil, "", false, nil
}

func (e *Embedder) load(ctx context.Context) (Pipeline, string, error) {
	if len(e.models) == 0 {
		return nil, "", errors.New("no models configured")
	}
	if e.loader == nil {
		return nil, "", errors.New("no loader configured")
	}

	var errs []error
	for _, model := range e.models {
		pipe, err := e.loader.Load(ctx, model)
		if err == nil {
			e.logger.Info("On-device model loaded", zap.String("model", model))
			return pipe, model, nil
		}
		e.logger.Warn("On-device model failed to load", zap.String("model", model), zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", model, err))
	}
	return nil, "", fmt.Errorf("all models failed: %w", errors.Join(errs...))
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
