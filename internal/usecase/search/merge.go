package search

import (
	"cmp"
	"slices"

	"github.com/kailas-cloud/semdex/internal/domain/search/result"
)

// merge concatenates result lists, drops repeated keys (the first occurrence
// wins), sorts by score descending and truncates to limit.
func merge(limit int, lists ...[]result.Result) []result.Result {
	seen := make(map[string]struct{})
	var out []result.Result
	for _, list := range lists {
		for _, r := range list {
			if _, dup := seen[r.Key()]; dup {
				continue
			}
			seen[r.Key()] = struct{}{}
			out = append(out, r)
		}
	}
	rank(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// rank sorts by score descending. Ties keep their input order.
func rank(rs []result.Result) {
	slices.SortStableFunc(rs, func(a, b result.Result) int {
		return cmp.Compare(b.Score(), a.Score())
	})
}

// fromVector reports whether any result was contributed by the vector pass.
func fromVector(rs []result.Result) bool {
	for _, r := range rs {
		if r.Mode().FromVector() {
			return true
		}
	}
	return false
}
