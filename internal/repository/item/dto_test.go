package item

import (
	"encoding/base64"
	"math"
	"testing"

	"github.com/kailas-cloud/semdex/internal/db"
	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/domain/content"
)

func textHash(vector string) map[string]string {
	return map[string]string{
		fieldKind:       string(content.KindText),
		fieldDescriptor: `{"summary":"grocery list"}`,
		fieldVector:     vector,
		fieldProvider:   string(domain.ProviderOnDevice),
		fieldModel:      "hash-2",
	}
}

func TestEmbeddingHash_TextSafe(t *testing.T) {
	// 0.6 and -1e-30 encode to bytes that are not valid UTF-8.
	e := domain.Embedding{Values: []float32{0.6, -1e-30, 0.8}, Provider: domain.ProviderOnDevice, Model: "hash-3"}
	h := embeddingHash(e)

	if _, err := base64.StdEncoding.DecodeString(h[fieldVector]); err != nil {
		t.Fatalf("vector field is not base64: %v", err)
	}
	got, ok := decodeEmbedding(h)
	if !ok {
		t.Fatal("expected the encoded vector to decode")
	}
	for i, v := range e.Values {
		if got.Values[i] != v {
			t.Errorf("values[%d] = %v, want %v", i, got.Values[i], v)
		}
	}
}

func TestFromHash_InvalidVectorIsAbsent(t *testing.T) {
	enc := func(v []float32) string { return base64.StdEncoding.EncodeToString(db.EncodeVector(v)) }

	tests := []struct {
		name   string
		vector string
	}{
		{"nan", enc([]float32{float32(math.NaN()), 1})},
		{"inf", enc([]float32{1, float32(math.Inf(1))})},
		{"not base64", "@@@"},
		{"truncated blob", base64.StdEncoding.EncodeToString([]byte{1, 2, 3})},
		{"empty blob", base64.StdEncoding.EncodeToString(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, err := fromHash("notes.txt", textHash(tt.vector))
			if err != nil {
				t.Fatalf("fromHash: %v", err)
			}
			if it.HasEmbedding() {
				t.Errorf("invalid vector accepted: %v", it.Embedding.Values)
			}
		})
	}
}
