package ondevice

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const warmupText = "warmup"

// RuntimeLoader loads models served by a local inference runtime that speaks
// the OpenAI embeddings protocol on localhost (Ollama, llama.cpp server).
type RuntimeLoader struct {
	client *openai.Client
}

// NewRuntimeLoader creates a loader for the runtime at baseURL, e.g. http://localhost:11434/v1.
func NewRuntimeLoader(baseURL string) *RuntimeLoader {
	cfg := openai.DefaultConfig("")
	cfg.BaseURL = baseURL
	return &RuntimeLoader{client: openai.NewClientWithConfig(cfg)}
}

// Load implements Loader. A model counts as loaded once a warm-up embedding succeeds.
func (l *RuntimeLoader) Load(ctx context.Context, model string) (Pipeline, error) {
	p := &runtimePipeline{client: l.client, model: openai.EmbeddingModel(model)}
	if _, err := p.Run(ctx, warmupText); err != nil {
		return nil, fmt.Errorf("warm up %s: %w", model, err)
	}
	return p, nil
}

type runtimePipeline struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func (p *runtimePipeline) Run(ctx context.Context, text string) (Tensor, error) {
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          p.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	})
	if err != nil {
		return Tensor{}, fmt.Errorf("runtime embed: %w", err)
	}
	if len(resp.Data) == 0 {
		return Tensor{}, fmt.Errorf("runtime returned no embedding")
	}
	vec := resp.Data[0].Embedding
	return Tensor{Data: vec, Shape: []int{len(vec)}}, nil
}
