package mode

import "testing"

func TestIsValid(t *testing.T) {
	valid := []Mode{Vector, Keyword, Hybrid}
	for _, m := range valid {
		if !m.IsValid() {
			t.Errorf("%q.IsValid() = false, want true", m)
		}
	}

	invalid := []Mode{"", "semantic", "geo", "HYBRID"}
	for _, m := range invalid {
		if m.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", m)
		}
	}
}

func TestFromVector(t *testing.T) {
	if !Vector.FromVector() || !Hybrid.FromVector() {
		t.Error("vector and hybrid come from the vector pass")
	}
	if Keyword.FromVector() {
		t.Error("keyword does not come from the vector pass")
	}
}
