package item

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/kailas-cloud/semdex/internal/db"
	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/domain/content"
)

// Hash field names.
const (
	fieldKey        = "key"
	fieldKind       = "kind"
	fieldDescriptor = "descriptor"
	fieldAnalyzed   = "analyzed"
	fieldCreatedAt  = "created_at"
	fieldVector     = "vector"
	fieldProvider   = "provider"
	fieldModel      = "model"
)

var embeddingFields = []string{fieldVector, fieldProvider, fieldModel}

func toHash(it *content.Item) (map[string]string, error) {
	fields := content.ToFields(it.Descriptor)
	desc, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshal descriptor: %w", err)
	}

	analyzed := "0"
	if it.Analyzed {
		analyzed = "1"
	}
	h := map[string]string{
		fieldKey:        it.Key,
		fieldKind:       string(it.Kind()),
		fieldDescriptor: string(desc),
		fieldAnalyzed:   analyzed,
		fieldCreatedAt:  strconv.FormatInt(it.CreatedAt.UnixMilli(), 10),
	}
	if it.HasEmbedding() {
		for k, v := range embeddingHash(it.Embedding) {
			h[k] = v
		}
	}
	return h, nil
}

// The vector field is base64 of the float32 blob; hash values must survive
// stores that keep them as JSON strings.
func embeddingHash(e domain.Embedding) map[string]string {
	return map[string]string{
		fieldVector:   base64.StdEncoding.EncodeToString(db.EncodeVector(e.Values)),
		fieldProvider: string(e.Provider),
		fieldModel:    e.Model,
	}
}

func fromHash(key string, h map[string]string) (*content.Item, error) {
	kind, err := content.ParseKind(h[fieldKind])
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", key, err)
	}

	var fields content.Fields
	if raw := h[fieldDescriptor]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			return nil, fmt.Errorf("item %s: decode descriptor: %w", key, err)
		}
	}
	desc, err := content.FromFields(kind, &fields)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", key, err)
	}

	it := &content.Item{
		Key:        key,
		Descriptor: desc,
		Analyzed:   h[fieldAnalyzed] == "1",
	}
	if ms, err := strconv.ParseInt(h[fieldCreatedAt], 10, 64); err == nil {
		it.CreatedAt = time.UnixMilli(ms).UTC()
	}

	// An unreadable or invalid vector is treated as absent; the next reindex rewrites it.
	if e, ok := decodeEmbedding(h); ok {
		it.Embedding = e
	}
	return it, nil
}

func decodeEmbedding(h map[string]string) (domain.Embedding, bool) {
	raw := h[fieldVector]
	if raw == "" {
		return domain.Embedding{}, false
	}
	blob, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return domain.Embedding{}, false
	}
	vec, err := db.DecodeVector(blob)
	if err != nil {
		return domain.Embedding{}, false
	}
	e := domain.Embedding{
		Values:   vec,
		Provider: domain.ProviderKind(h[fieldProvider]),
		Model:    h[fieldModel],
	}
	if e.Validate() != nil {
		return domain.Embedding{}, false
	}
	return e, true
}
