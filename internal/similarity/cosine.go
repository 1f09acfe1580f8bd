// Package similarity scores items against queries and against each other.
package similarity

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/semdex/internal/domain"
)

// Cosine returns the cosine similarity of a and b in [-1, 1].
// Vectors of different length and zero-magnitude vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// rounding can push self-similarity past 1
	return math.Max(-1, math.Min(1, sim))
}

// CosineChecked compares two labelled embeddings. Incomparable embeddings
// score 0 with ErrDimensionMismatch so callers can log and count them.
func CosineChecked(a, b domain.Embedding) (float64, error) {
	if !a.Comparable(b) {
		return 0, fmt.Errorf("%d (%s/%s) vs %d (%s/%s): %w",
			a.Dim(), a.Provider, a.Model, b.Dim(), b.Provider, b.Model, domain.ErrDimensionMismatch)
	}
	return Cosine(a.Values, b.Values), nil
}

// Normalize scales v to unit length in place and returns it. Zero vectors are left untouched.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		v[i] = float32(float64(x) / norm)
	}
	return v
}
