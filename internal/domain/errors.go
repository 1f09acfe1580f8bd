package domain

import "errors"

var (
	// ErrItemNotFound signals a missing content item.
	ErrItemNotFound = errors.New("item not found")
	// ErrInvalidQuery signals an empty or malformed search query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidKey signals an empty or malformed item key.
	ErrInvalidKey = errors.New("invalid item key")
	// ErrInvalidDescriptor signals a descriptor that does not fit its content kind.
	ErrInvalidDescriptor = errors.New("invalid descriptor")
	// ErrNoContent signals that an item yields no embeddable text.
	ErrNoContent = errors.New("no content available")

	// ErrProviderUnavailable signals that no embedding could be produced.
	// Consumers treat it as "no embedding", never as a request failure.
	ErrProviderUnavailable = errors.New("embedding provider unavailable")
	// ErrInvalidEmbedding signals an empty vector or one with non-finite values.
	ErrInvalidEmbedding = errors.New("invalid embedding")
	// ErrDimensionMismatch signals vectors from different models or of different length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")

	// ErrStoreQueryFailed signals a failed or timed out store read.
	ErrStoreQueryFailed = errors.New("store query failed")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
)
