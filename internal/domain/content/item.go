package content

import (
	"time"

	"github.com/kailas-cloud/semdex/internal/domain"
)

// Item is one piece of content known to the engine. The key is the filename.
type Item struct {
	Key        string
	Descriptor Descriptor
	Embedding  domain.Embedding
	Analyzed   bool
	CreatedAt  time.Time
}

// Kind returns the content kind of the item.
func (i *Item) Kind() Kind {
	if i.Descriptor == nil {
		return KindUnknown
	}
	return i.Descriptor.Kind()
}

// HasEmbedding reports whether the item carries a usable vector.
func (i *Item) HasEmbedding() bool {
	return !i.Embedding.IsZero()
}
