package item

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/domain/content"
)

// --- Mocks ---

type mockRepo struct {
	items  map[string]*content.Item
	getErr error
	putErr error
	puts   int
}

func (m *mockRepo) Get(_ context.Context, key string) (*content.Item, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if it, ok := m.items[key]; ok {
		return it, nil
	}
	return nil, domain.ErrItemNotFound
}

func (m *mockRepo) Put(_ context.Context, it *content.Item) error {
	if m.putErr != nil {
		return m.putErr
	}
	if m.items == nil {
		m.items = make(map[string]*content.Item)
	}
	m.puts++
	m.items[it.Key] = it
	return nil
}

type mockEmbedder struct {
	vec    []float32
	err    error
	called bool
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.called = true
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, Provider: domain.ProviderOnDevice, Model: "hash-2"}, nil
}

func summary(s string) content.Descriptor {
	return content.Text{Common: content.Common{Summary: s}}
}

// --- Tests ---

func TestPut_EmbedsWithDefaultProvider(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, &mockEmbedder{vec: []float32{0.6, 0.8}})

	it, err := svc.Put(context.Background(), "notes.txt", summary("meeting notes"), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !it.HasEmbedding() || it.Embedding.Provider != domain.ProviderOnDevice || it.Embedding.Model != "hash-2" {
		t.Errorf("unexpected embedding: %+v", it.Embedding)
	}
	if !repo.items["notes.txt"].Analyzed {
		t.Error("analyzed flag not stored")
	}
}

func TestPut_EmbeddingFailureStoresWithoutVector(t *testing.T) {
	tests := []struct {
		name  string
		embed *mockEmbedder
	}{
		{"provider unavailable", &mockEmbedder{err: domain.ErrProviderUnavailable}},
		{"invalid vector", &mockEmbedder{vec: []float32{}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockRepo{}
			it, err := New(repo, tc.embed).Put(context.Background(), "a.txt", summary("hello"), false)
			if err != nil {
				t.Fatalf("embedding failure must not fail the write: %v", err)
			}
			if it.HasEmbedding() || repo.puts != 1 {
				t.Errorf("expected stored item without vector, puts=%d", repo.puts)
			}
		})
	}
}

func TestPut_NoContentSkipsEmbedding(t *testing.T) {
	embed := &mockEmbedder{vec: []float32{1}}
	it, err := New(&mockRepo{}, embed).Put(context.Background(), "empty.pdf", content.Document{}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if embed.called || it.HasEmbedding() {
		t.Error("sentinel text must not be embedded")
	}
}

func TestPut_KeepsCreatedAt(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	repo := &mockRepo{items: map[string]*content.Item{"a.txt": {Key: "a.txt", CreatedAt: created}}}
	svc := New(repo, nil)

	it, err := svc.Put(context.Background(), "a.txt", summary("v2"), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !it.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", it.CreatedAt, created)
	}
}

func TestPut_StoreErrors(t *testing.T) {
	if _, err := New(&mockRepo{getErr: domain.ErrStoreQueryFailed}, nil).
		Put(context.Background(), "a", summary("x"), false); !errors.Is(err, domain.ErrStoreQueryFailed) {
		t.Errorf("get failure: got %v", err)
	}
	putErr := errors.New("READONLY")
	if _, err := New(&mockRepo{putErr: putErr}, nil).
		Put(context.Background(), "a", summary("x"), false); !errors.Is(err, putErr) {
		t.Errorf("put failure: got %v", err)
	}
}

func TestGet(t *testing.T) {
	repo := &mockRepo{items: map[string]*content.Item{"a.txt": {Key: "a.txt"}}}
	svc := New(repo, nil)

	if _, err := svc.Get(context.Background(), "a.txt"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Get(context.Background(), "b.txt"); !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{"report.pdf", false},
		{"photos/2024/beach.jpg", false},
		{"", true},
		{"   ", true},
		{"bad\nkey", true},
		{strings.Repeat("k", MaxKeyLength+1), true},
	}
	for _, tc := range tests {
		err := ValidateKey(tc.key)
		if (err != nil) != tc.wantErr {
			t.Errorf("ValidateKey(%q) error = %v, wantErr %v", tc.key, err, tc.wantErr)
		}
		if err != nil && !errors.Is(err, domain.ErrInvalidKey) {
			t.Errorf("expected ErrInvalidKey, got %v", err)
		}
	}
}
