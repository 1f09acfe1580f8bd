package domain

import (
	"fmt"
	"math"
)

// Embedding is a stored vector together with the provider and model that produced it.
// Vectors from different (provider, model) pairs are not comparable.
type Embedding struct {
	Values   []float32
	Provider ProviderKind
	Model    string
}

// Dim returns the vector length.
func (e Embedding) Dim() int { return len(e.Values) }

// IsZero reports whether the embedding is absent.
func (e Embedding) IsZero() bool { return len(e.Values) == 0 }

// Validate rejects empty vectors and vectors with NaN or infinite elements.
func (e Embedding) Validate() error {
	if len(e.Values) == 0 {
		return fmt.Errorf("empty vector: %w", ErrInvalidEmbedding)
	}
	for i, v := range e.Values {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("non-finite value at %d: %w", i, ErrInvalidEmbedding)
		}
	}
	return nil
}

// Comparable reports whether two embeddings live in the same vector space.
// Lengths must match. When both sides are labelled, provider and model must match too.
func (e Embedding) Comparable(other Embedding) bool {
	if len(e.Values) == 0 || len(e.Values) != len(other.Values) {
		return false
	}
	if e.labelled() && other.labelled() {
		return e.Provider == other.Provider && e.Model == other.Model
	}
	return true
}

func (e Embedding) labelled() bool {
	return e.Provider != "" || e.Model != ""
}
