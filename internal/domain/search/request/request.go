package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/semdex/internal/domain"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultLimit   = 10
	MaxLimit       = 100
)

// Request is a validated search query.
type Request struct {
	query    string
	limit    int
	provider domain.ProviderKind
	model    string
}

// New validates and normalizes search parameters.
// An empty or whitespace-only query is rejected with domain.ErrInvalidQuery.
func New(query string, limit int, provider domain.ProviderKind, model string) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("query is required: %w", domain.ErrInvalidQuery)
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars): %w", MaxQueryLength, domain.ErrInvalidQuery)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Request{
		query:    query,
		limit:    limit,
		provider: provider,
		model:    model,
	}, nil
}

// Query returns the trimmed search query text.
func (r *Request) Query() string { return r.query }

// Limit returns the maximum results to return.
func (r *Request) Limit() int { return r.limit }

// Provider returns the requested embedding provider.
func (r *Request) Provider() domain.ProviderKind { return r.provider }

// Model returns the requested embedding model, empty for the provider default.
func (r *Request) Model() string { return r.model }
