package domain

import (
	"context"
	"fmt"
)

// Embedder is the shared text vectorization contract between layers.
// A failed call returns an error wrapping ErrProviderUnavailable or ErrInvalidEmbedding.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ProviderKind names an embedding provider variant.
type ProviderKind string

// Provider variants.
const (
	ProviderOnDevice ProviderKind = "on-device"
	ProviderRemote   ProviderKind = "remote"
)

// ParseProviderKind converts a request string into a provider kind.
// An empty string yields the fallback kind.
func ParseProviderKind(s string, fallback ProviderKind) (ProviderKind, error) {
	switch ProviderKind(s) {
	case "":
		return fallback, nil
	case ProviderOnDevice, ProviderRemote:
		return ProviderKind(s), nil
	default:
		return "", fmt.Errorf("unknown embedding provider %q", s)
	}
}

// EmbeddingResult carries the embedding vector, its origin and token usage through the decorator chain.
// Provider and Model report what actually produced the vector, including after a fallback.
type EmbeddingResult struct {
	Embedding    []float32
	Provider     ProviderKind
	Model        string
	PromptTokens int
	TotalTokens  int
}

// Vector returns the result as a labelled embedding.
func (r EmbeddingResult) Vector() Embedding {
	return Embedding{Values: r.Embedding, Provider: r.Provider, Model: r.Model}
}
