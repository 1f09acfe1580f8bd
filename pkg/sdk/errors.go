package semdex

import "github.com/kailas-cloud/semdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrItemNotFound           = domain.ErrItemNotFound
	ErrInvalidQuery           = domain.ErrInvalidQuery
	ErrInvalidKey             = domain.ErrInvalidKey
	ErrInvalidDescriptor      = domain.ErrInvalidDescriptor
	ErrStoreQueryFailed       = domain.ErrStoreQueryFailed
	ErrEmbeddingQuotaExceeded = domain.ErrEmbeddingQuotaExceeded
)
