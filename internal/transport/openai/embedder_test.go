package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterEmbeddingMetrics()
	os.Exit(m.Run())
}

type embeddingRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions"`
}

// embeddingServer answers like an OpenAI-compatible host and records the last request.
func embeddingServer(t *testing.T, vec []float32, tokens int, last *embeddingRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		if last != nil {
			_ = json.NewDecoder(r.Body).Decode(last)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  "test-model",
			"data":   []map[string]any{{"object": "embedding", "index": 0, "embedding": vec}},
			"usage":  map[string]int{"prompt_tokens": tokens, "total_tokens": tokens},
		})
	}))
}

func newTestEmbedder(url string, maxChars int) *Embedder {
	return NewEmbedder(&Config{
		APIKey:        "test-key",
		BaseURL:       url,
		Model:         "test-model",
		Dimensions:    4,
		MaxInputChars: maxChars,
		Logger:        zap.NewNop(),
	})
}

func TestEmbedder_Embed(t *testing.T) {
	var last embeddingRequest
	server := embeddingServer(t, []float32{0.1, 0.2, 0.3, 0.4}, 42, &last)
	defer server.Close()

	res, err := newTestEmbedder(server.URL, 0).Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(res.Embedding) != 4 || res.Embedding[3] != 0.4 {
		t.Errorf("unexpected vector: %v", res.Embedding)
	}
	if res.Provider != domain.ProviderRemote || res.Model != "test-model" {
		t.Errorf("labels = %s/%s", res.Provider, res.Model)
	}
	if res.PromptTokens != 42 || res.TotalTokens != 42 {
		t.Errorf("tokens = %d/%d, want 42", res.PromptTokens, res.TotalTokens)
	}
	if last.Dimensions != 4 || last.Input[0] != "hello world" {
		t.Errorf("unexpected request: %+v", last)
	}
}

func TestEmbedder_TruncatesInput(t *testing.T) {
	var last embeddingRequest
	server := embeddingServer(t, []float32{1}, 1, &last)
	defer server.Close()

	long := strings.Repeat("é", 50)
	if _, err := newTestEmbedder(server.URL, 10).Embed(context.Background(), long); err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if got := []rune(last.Input[0]); len(got) != 10 {
		t.Errorf("sent %d runes, want 10", len(got))
	}
}

func TestEmbedder_WithModel(t *testing.T) {
	var last embeddingRequest
	server := embeddingServer(t, []float32{1, 0}, 1, &last)
	defer server.Close()

	base := newTestEmbedder(server.URL, 0)
	if base.WithModel("") != base || base.WithModel("test-model") != base {
		t.Error("default model must return the receiver")
	}
	other := base.WithModel("text-embedding-3-large")
	res, err := other.Embed(context.Background(), "x")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if last.Model != "text-embedding-3-large" || res.Model != "text-embedding-3-large" {
		t.Errorf("model sent %q, labelled %q", last.Model, res.Model)
	}
	if last.Dimensions != 0 {
		t.Errorf("dimensions must not carry across models, got %d", last.Dimensions)
	}
}

func TestEmbedder_MissingAPIKeyMakesNoCall(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	e := NewEmbedder(&Config{BaseURL: server.URL, Model: "m"})
	if _, err := e.Embed(context.Background(), "x"); !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if err := e.HealthCheck(context.Background()); err == nil {
		t.Error("expected health check failure without a key")
	}
	if calls.Load() != 0 {
		t.Errorf("made %d network calls without a key", calls.Load())
	}
}

func TestEmbedder_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":{"message":"rate limit exceeded","type":"rate_limit_error"}}`))
			},
			want: domain.ErrProviderUnavailable,
		},
		{
			name: "detail body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(`{"detail":"upstream down"}`))
			},
			want: domain.ErrProviderUnavailable,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"data": [`))
			},
			want: domain.ErrProviderUnavailable,
		},
		{
			name: "empty data",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
			},
			want: domain.ErrInvalidEmbedding,
		},
		{
			name: "empty vector",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"object":"list","data":[{"index":0,"embedding":[]}]}`))
			},
			want: domain.ErrInvalidEmbedding,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := newTestEmbedder(server.URL, 0).Embed(context.Background(), "hello")
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestEmbedder_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := newTestEmbedder(server.URL, 0).Embed(ctx, "hello")
	if !errors.Is(err, domain.ErrProviderUnavailable) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected unavailable deadline error, got %v", err)
	}
}

func TestExtractDetail(t *testing.T) {
	if got := extractDetail([]byte(`{"detail":"bad model"}`)); got != "bad model" {
		t.Errorf("got %q", got)
	}
	if got := extractDetail([]byte(`not json`)); got != "" {
		t.Errorf("got %q", got)
	}
}
