package similarity

import (
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/semdex/internal/domain/content"
	"github.com/kailas-cloud/semdex/internal/domain/search/mode"
)

// Category names a matchable field group of an item.
type Category string

// Matchable categories.
const (
	CategoryFilename   Category = "filename"
	CategorySummary    Category = "summary"
	CategoryHighlights Category = "highlights"
	CategoryTags       Category = "tags"
	CategoryObjects    Category = "objects"
	CategoryCaption    Category = "caption"
	CategoryScene      Category = "scene"
	CategoryOCRText    Category = "ocr_text"
	CategoryScenes     Category = "scenes"
	CategoryActions    Category = "actions"
	CategoryColumns    Category = "columns"
	CategoryStatKeys   Category = "stat_keys"
)

// Score is the outcome of scoring one item against a query.
type Score struct {
	Value   float64
	Mode    mode.Mode
	Matched []Category
}

// Query is a lower-cased search query split into matchable terms.
type Query struct {
	full  string
	terms []string
}

// Scorer applies Weights to items. Safe for concurrent use.
type Scorer struct {
	w Weights
}

// NewScorer creates a scorer. Weights are used as given; a zero weight
// disables its bonus. Start from DefaultWeights to override a few.
func NewScorer(w Weights) *Scorer {
	return &Scorer{w: w.normalized()}
}

// Weights returns the effective weights.
func (s *Scorer) Weights() Weights { return s.w }

// ParseQuery prepares a query for matching. Terms shorter than the configured
// minimum only match as part of the full query.
func (s *Scorer) ParseQuery(q string) Query {
	full := strings.ToLower(strings.TrimSpace(q))
	var terms []string
	for _, t := range strings.Fields(full) {
		if utf8.RuneCountInString(t) >= s.w.MinTermLength {
			terms = append(terms, t)
		}
	}
	return Query{full: full, terms: terms}
}

// Hybrid combines a vector similarity with keyword bonuses for every matching category.
func (s *Scorer) Hybrid(vectorSim float64, item *content.Item, q Query) Score {
	matched := s.match(item, q)

	value := vectorSim
	for _, c := range matched {
		value += s.bonus(c)
	}

	m := mode.Vector
	switch {
	case len(matched) > 0 && vectorSim > 0:
		m = mode.Hybrid
	case len(matched) > 0:
		m = mode.Keyword
	}
	return Score{Value: value, Mode: m, Matched: matched}
}

// Keyword scores an item without a vector. Items with no matching category score 0.
func (s *Scorer) Keyword(item *content.Item, q Query) Score {
	matched := s.match(item, q)
	if len(matched) == 0 {
		return Score{Mode: mode.Keyword}
	}

	value := s.w.KeywordBase
	for _, c := range matched {
		if c == CategoryFilename {
			value = s.w.KeywordFilename
			break
		}
	}
	value += s.w.KeywordPerCategory * float64(len(matched))
	return Score{Value: value, Mode: mode.Keyword, Matched: matched}
}

// Keep reports whether a scored result belongs in the output.
func (s *Scorer) Keep(sc Score) bool {
	return sc.Value > s.w.KeepThreshold || len(sc.Matched) > 0
}

func (s *Scorer) match(item *content.Item, q Query) []Category {
	if q.full == "" {
		return nil
	}
	var matched []Category
	for _, f := range fieldsOf(item) {
		if q.matchesAny(f.values) {
			matched = append(matched, f.category)
		}
	}
	return matched
}

func (s *Scorer) bonus(c Category) float64 {
	switch c {
	case CategoryFilename:
		return s.w.Filename
	case CategorySummary:
		return s.w.Summary
	case CategoryHighlights:
		return s.w.Highlights
	case CategoryTags:
		return s.w.Tags
	case CategoryObjects:
		return s.w.Objects
	case CategoryCaption:
		return s.w.Caption
	case CategoryScene:
		return s.w.Scene
	case CategoryOCRText:
		return s.w.OCRText
	case CategoryScenes:
		return s.w.Scenes
	case CategoryActions:
		return s.w.Actions
	case CategoryColumns:
		return s.w.Columns
	case CategoryStatKeys:
		return s.w.StatKeys
	}
	return 0
}

func (q Query) matchesAny(values []string) bool {
	for _, v := range values {
		if v == "" {
			continue
		}
		lv := strings.ToLower(v)
		if strings.Contains(lv, q.full) {
			return true
		}
		for _, t := range q.terms {
			if strings.Contains(lv, t) {
				return true
			}
		}
	}
	return false
}

type field struct {
	category Category
	values   []string
}

func fieldsOf(item *content.Item) []field {
	fields := []field{{CategoryFilename, []string{item.Key}}}

	d := item.Descriptor
	if d == nil {
		return fields
	}
	base := d.Base()
	fields = append(fields,
		field{CategorySummary, []string{base.Summary}},
		field{CategoryHighlights, base.Highlights},
		field{CategoryTags, base.Tags},
	)

	switch v := d.(type) {
	case content.Image:
		fields = append(fields,
			field{CategoryObjects, v.Objects},
			field{CategoryCaption, []string{v.Caption}},
			field{CategoryScene, []string{v.Scene}},
			field{CategoryOCRText, []string{v.OCRText}},
		)
	case content.Video:
		scenes := make([]string, len(v.Scenes))
		for i, sc := range v.Scenes {
			scenes[i] = sc.Description
		}
		fields = append(fields,
			field{CategoryObjects, v.Objects},
			field{CategoryScenes, scenes},
			field{CategoryActions, v.Actions},
		)
	case content.Tabular:
		keys := make([]string, 0, len(v.NumericStats))
		for k := range v.NumericStats {
			keys = append(keys, k)
		}
		fields = append(fields,
			field{CategoryColumns, v.Columns},
			field{CategoryStatKeys, keys},
		)
	case content.Text, content.Document, content.Unknown:
	}
	return fields
}
