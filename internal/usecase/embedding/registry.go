package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kailas-cloud/semdex/internal/domain"
)

// Factory builds a provider chain for one model. An empty model means the
// provider's configured default.
type Factory func(model string) (domain.Embedder, error)

// RegistryConfig wires the two providers.
type RegistryConfig struct {
	Default  domain.ProviderKind
	OnDevice Factory
	// Remote is optional. Without it remote requests go straight to on-device.
	Remote  Factory
	Timeout time.Duration
}

// Registry resolves a (provider, model) request into a ready embedder.
// Chains are built once per pair and reused.
type Registry struct {
	cfg RegistryConfig

	mu     sync.Mutex
	chains map[chainKey]domain.Embedder
	leaves map[chainKey]domain.Embedder
}

type chainKey struct {
	kind  domain.ProviderKind
	model string
}

// NewRegistry creates a registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.Default == "" {
		cfg.Default = domain.ProviderOnDevice
	}
	return &Registry{
		cfg:    cfg,
		chains: make(map[chainKey]domain.Embedder),
		leaves: make(map[chainKey]domain.Embedder),
	}
}

// Default returns the provider used when a request names none.
func (r *Registry) Default() domain.ProviderKind { return r.cfg.Default }

// Select returns the embedder for kind and model. Remote chains always fall
// back to the default on-device model, so a remote failure still yields a vector.
func (r *Registry) Select(kind domain.ProviderKind, model string) (domain.Embedder, error) {
	if kind == "" {
		kind = r.cfg.Default
	}
	key := chainKey{kind: kind, model: model}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.chains[key]; ok {
		return e, nil
	}
	e, err := r.build(kind, model)
	if err != nil {
		return nil, err
	}
	r.chains[key] = e
	return e, nil
}

func (r *Registry) build(kind domain.ProviderKind, model string) (domain.Embedder, error) {
	switch kind {
	case domain.ProviderOnDevice:
		local, err := r.leaf(domain.ProviderOnDevice, model)
		if err != nil {
			return nil, err
		}
		return recording{inner: r.bounded(local)}, nil

	case domain.ProviderRemote:
		local, err := r.leaf(domain.ProviderOnDevice, "")
		if err != nil {
			return nil, err
		}
		if r.cfg.Remote == nil {
			return recording{inner: r.bounded(local)}, nil
		}
		remote, err := r.leaf(domain.ProviderRemote, model)
		if err != nil {
			return nil, err
		}
		chain := NewFallbackEmbedder(r.bounded(remote), domain.ProviderRemote, r.bounded(local), domain.ProviderOnDevice)
		return recording{inner: chain}, nil

	default:
		return nil, fmt.Errorf("provider %q: %w", kind, domain.ErrInvalidQuery)
	}
}

// leaf builds a provider once per (kind, model), so chains share caches and breakers.
func (r *Registry) leaf(kind domain.ProviderKind, model string) (domain.Embedder, error) {
	key := chainKey{kind: kind, model: model}
	if e, ok := r.leaves[key]; ok {
		return e, nil
	}
	factory := r.cfg.OnDevice
	if kind == domain.ProviderRemote {
		factory = r.cfg.Remote
	}
	e, err := factory(model)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", kind, model, err)
	}
	r.leaves[key] = e
	return e, nil
}

func (r *Registry) bounded(e domain.Embedder) domain.Embedder {
	if r.cfg.Timeout <= 0 {
		return e
	}
	return timeoutEmbedder{inner: e, timeout: r.cfg.Timeout}
}

// timeoutEmbedder gives each provider its own deadline, so a slow remote
// leaves time for the fallback.
type timeoutEmbedder struct {
	inner   domain.Embedder
	timeout time.Duration
}

func (t timeoutEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Embed(ctx, text)
}

// recording reports successful calls into the request usage collector.
type recording struct {
	inner domain.Embedder
}

func (r recording) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := r.inner.Embed(ctx, text)
	if err != nil {
		return res, err
	}
	domain.UsageFromContext(ctx).Record(res)
	return res, nil
}
