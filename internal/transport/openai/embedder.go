// Package openai is the remote embedding provider, speaking the
// OpenAI-compatible embeddings API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/metrics"
)

const providerLabel = string(domain.ProviderRemote)

// Embedder calls a hosted embedding model.
type Embedder struct {
	client     *openai.Client
	hasKey     bool
	model      openai.EmbeddingModel
	dimensions int
	maxChars   int
	user       string
	logger     *zap.Logger
}

// Config holds the remote provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	// MaxInputChars truncates input before sending. 0 disables truncation.
	MaxInputChars int
	User          string
	Logger        *zap.Logger
}

// NewEmbedder creates the remote provider. A missing API key is not an error
// here: every call then fails fast with ErrProviderUnavailable.
func NewEmbedder(cfg *Config) *Embedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Embedder{
		client:     openai.NewClientWithConfig(clientCfg),
		hasKey:     cfg.APIKey != "",
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		maxChars:   cfg.MaxInputChars,
		user:       cfg.User,
		logger:     logger,
	}
}

// WithModel returns a provider for another model on the same client.
func (e *Embedder) WithModel(model string) *Embedder {
	if model == "" || openai.EmbeddingModel(model) == e.model {
		return e
	}
	c := *e
	c.model = openai.EmbeddingModel(model)
	// dimensions are model specific
	c.dimensions = 0
	return &c
}

// Model returns the model name.
func (e *Embedder) Model() string { return string(e.model) }

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	model := string(e.model)
	if !e.hasKey {
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerLabel, model, "no_credentials").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("remote: api key not configured: %w", domain.ErrProviderUnavailable)
	}

	req := openai.EmbeddingRequest{
		Input:          []string{truncate(text, e.maxChars)},
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           e.user,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerLabel, model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerLabel, model, errorType(err)).Inc()
		return domain.EmbeddingResult{}, parseAPIError(err)
	}

	if len(resp.Data) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerLabel, model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerLabel, model, "empty_response").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("remote: empty embedding response: %w", domain.ErrInvalidEmbedding)
	}

	res := domain.EmbeddingResult{
		Embedding:    resp.Data[0].Embedding,
		Provider:     domain.ProviderRemote,
		Model:        model,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}
	if err := res.Vector().Validate(); err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerLabel, model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerLabel, model, "invalid_vector").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("remote %s: %w", model, err)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(providerLabel, model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(providerLabel, model).Observe(duration.Seconds())
	if res.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(providerLabel, model, "prompt").Add(float64(res.PromptTokens))
		metrics.EmbeddingTokensTotal.WithLabelValues(providerLabel, model, "total").Add(float64(res.TotalTokens))
	}
	return res, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if !e.hasKey {
		return fmt.Errorf("remote: api key not configured: %w", domain.ErrProviderUnavailable)
	}
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "api_error"
	}
}

// parseAPIError turns a client error into ErrProviderUnavailable with the
// most useful detail the server sent.
func parseAPIError(err error) error {
	wrap := domain.ErrProviderUnavailable

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("remote API error %d: %s: %w: %w", reqErr.HTTPStatusCode, detail, wrap, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("remote API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("remote request failed: %w: %w", wrap, err)
}

// extractDetail reads the "detail" field some OpenAI-compatible hosts use
// instead of the standard error object.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
