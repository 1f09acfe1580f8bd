package recommend

import "github.com/kailas-cloud/semdex/internal/domain/content"

// Strategy is the ranking strategy that produced a recommendation.
type Strategy string

// Recommendation strategies.
const (
	StrategyVector    Strategy = "vector"
	StrategyHeuristic Strategy = "heuristic"
)

// Recommendation is a ranked item related to a target.
// Vector scores are cosine similarities; heuristic scores are accumulated weights.
type Recommendation struct {
	key      string
	kind     content.Kind
	score    float64
	strategy Strategy
}

// New creates a recommendation.
func New(key string, kind content.Kind, score float64, s Strategy) Recommendation {
	return Recommendation{key: key, kind: kind, score: score, strategy: s}
}

// Key returns the recommended item key.
func (r *Recommendation) Key() string { return r.key }

// Kind returns the recommended item content kind.
func (r *Recommendation) Kind() content.Kind { return r.kind }

// Score returns the ranking score.
func (r *Recommendation) Score() float64 { return r.score }

// Strategy returns the strategy that produced the recommendation.
func (r *Recommendation) Strategy() Strategy { return r.strategy }
