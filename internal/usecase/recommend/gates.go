package recommend

// Gates are the acceptance thresholds of the two strategies. A candidate
// below its gate is dropped.
type Gates struct {
	// VectorMinSimilarity must be strictly exceeded by the cosine similarity.
	VectorMinSimilarity float64 `yaml:"vector_min_similarity"`
	// HeuristicMinScore must be reached by the accumulated heuristic score.
	HeuristicMinScore float64 `yaml:"heuristic_min_score"`
	MaxResults        int     `yaml:"max_results"`
}

// DefaultGates returns the stock gates.
func DefaultGates() Gates {
	return Gates{VectorMinSimilarity: 0.15, HeuristicMinScore: 3.0, MaxResults: 5}
}

// normalized keeps both thresholds as given and only replaces a
// non-positive MaxResults.
func (g Gates) normalized() Gates {
	if g.MaxResults <= 0 {
		g.MaxResults = DefaultGates().MaxResults
	}
	return g
}
