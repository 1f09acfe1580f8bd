package mode

// Mode describes how a search result matched the query.
type Mode string

// Match modes.
const (
	// Vector means the result matched on embedding similarity alone.
	Vector Mode = "vector"
	// Keyword means the result matched on text fields alone.
	Keyword Mode = "keyword"
	// Hybrid combines a positive vector similarity with a keyword match.
	Hybrid Mode = "hybrid"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Vector || m == Keyword || m == Hybrid
}

// FromVector reports whether the match was contributed by the vector pass.
func (m Mode) FromVector() bool {
	return m == Vector || m == Hybrid
}
