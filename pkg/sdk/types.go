package semdex

import (
	"time"

	"github.com/kailas-cloud/semdex/internal/domain/content"
)

// Kind is the content type of an item.
type Kind string

// Kind constants.
const (
	KindText     Kind = "text"
	KindDocument Kind = "document"
	KindTabular  Kind = "tabular"
	KindImage    Kind = "image"
	KindVideo    Kind = "video"
	KindUnknown  Kind = "unknown"
)

// Descriptor is the flat form of an item's metadata. Only the fields of the
// item's kind may be set: Caption, Scene, OCRText and Objects for images,
// Scenes and Actions for videos, Columns and NumericStats for tables.
type Descriptor = content.Fields

// Scene is a timestamped description of a video segment.
type Scene = content.SceneFields

// ColumnStats summarizes one numeric column of a table.
type ColumnStats = content.StatsFields

// Item is a stored piece of content.
type Item struct {
	Key        string
	Kind       Kind
	Analyzed   bool
	Descriptor Descriptor
	// Dimensions is 0 when the item has no vector yet.
	Dimensions int
	Provider   string
	Model      string
	CreatedAt  time.Time
}

// MatchType tells how a search hit was found.
type MatchType string

// MatchType constants.
const (
	MatchVector  MatchType = "vector"
	MatchKeyword MatchType = "keyword"
	// MatchHybrid hits matched both by vector and by keyword.
	MatchHybrid MatchType = "hybrid"
)

// SearchResult is a single search hit.
type SearchResult struct {
	Key       string
	Kind      Kind
	Score     float64
	MatchType MatchType
}

// SearchResponse holds ranked hits. VectorSearch reports whether any hit
// came from vector similarity.
type SearchResponse struct {
	Results      []SearchResult
	VectorSearch bool
}

// Strategy tells how a recommendation was produced.
type Strategy string

// Strategy constants.
const (
	StrategyVector    Strategy = "vector"
	StrategyHeuristic Strategy = "heuristic"
)

// Recommendation is one item related to a target.
type Recommendation struct {
	Key      string
	Kind     Kind
	Score    float64
	Strategy Strategy
}

// ReindexResult is the outcome of one item in a reindex run.
type ReindexResult struct {
	Key    string
	Status string // "updated", "skipped", "failed"
	Reason string
	Err    error
}

// ReindexReport summarizes a reindex run.
type ReindexReport struct {
	RunID   string
	Updated int
	Skipped int
	Failed  int
	Results []ReindexResult
}

func itemFromDomain(it *content.Item) Item {
	out := Item{
		Key:        it.Key,
		Kind:       Kind(it.Kind()),
		Analyzed:   it.Analyzed,
		Descriptor: content.ToFields(it.Descriptor),
		CreatedAt:  it.CreatedAt,
	}
	if it.HasEmbedding() {
		out.Dimensions = it.Embedding.Dim()
		out.Provider = string(it.Embedding.Provider)
		out.Model = it.Embedding.Model
	}
	return out
}
