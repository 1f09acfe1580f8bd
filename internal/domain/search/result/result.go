package result

import (
	"github.com/kailas-cloud/semdex/internal/domain/content"
	"github.com/kailas-cloud/semdex/internal/domain/search/mode"
)

// Result is a single search hit. Scores are comparable only within one search.
type Result struct {
	key   string
	kind  content.Kind
	score float64
	mode  mode.Mode
}

// New creates a search result.
func New(key string, kind content.Kind, score float64, m mode.Mode) Result {
	return Result{key: key, kind: kind, score: score, mode: m}
}

// Key returns the item key.
func (r *Result) Key() string { return r.key }

// Kind returns the item content kind.
func (r *Result) Kind() content.Kind { return r.kind }

// Score returns the relevance score.
func (r *Result) Score() float64 { return r.score }

// Mode returns how the item matched.
func (r *Result) Mode() mode.Mode { return r.mode }
