package recommend

import (
	"strings"
	"unicode"

	"github.com/kailas-cloud/semdex/internal/domain/content"
)

// Weights are the heuristic factor weights.
type Weights struct {
	SameKind          float64 `yaml:"same_kind"`
	CrossModalImage   float64 `yaml:"cross_modal_image"`
	CrossModalVideo   float64 `yaml:"cross_modal_video"`
	SharedTag         float64 `yaml:"shared_tag"`
	SharedObject      float64 `yaml:"shared_object"`
	SharedKeyword     float64 `yaml:"shared_keyword"`
	KeywordBonus      float64 `yaml:"keyword_bonus"`
	KeywordBonusMin   int     `yaml:"keyword_bonus_min"`
	ImageDetailWord   float64 `yaml:"image_detail_word"`
	DocHighlightWord  float64 `yaml:"doc_highlight_word"`
	TabularColumn     float64 `yaml:"tabular_column"`
	AnalyzedCandidate float64 `yaml:"analyzed_candidate"`
}

// DefaultWeights returns the stock heuristic weights.
func DefaultWeights() Weights {
	return Weights{
		SameKind:          0.5,
		CrossModalImage:   2,
		CrossModalVideo:   1.5,
		SharedTag:         1.5,
		SharedObject:      2,
		SharedKeyword:     2,
		KeywordBonus:      2,
		KeywordBonusMin:   3,
		ImageDetailWord:   1,
		DocHighlightWord:  2.5,
		TabularColumn:     2,
		AnalyzedCandidate: 0.5,
	}
}

// normalized only replaces a non-positive KeywordBonusMin.
func (w Weights) normalized() Weights {
	if w.KeywordBonusMin <= 0 {
		w.KeywordBonusMin = DefaultWeights().KeywordBonusMin
	}
	return w
}

// heuristicScore accumulates relatedness factors between target and candidate.
func (w Weights) heuristicScore(target, cand *content.Item) float64 {
	var score float64
	sameKind := target.Kind() == cand.Kind()
	if sameKind {
		score += w.SameKind
	}

	tb, cb := base(target), base(cand)
	tWords, cWords := keywords(tb.Summary), keywords(cb.Summary)

	score += w.crossModal(target, cand, tWords)
	score += w.crossModal(cand, target, cWords)

	score += w.SharedTag * float64(overlap(lowerSet(tb.Tags), lowerSet(cb.Tags)))
	score += w.SharedObject * float64(overlap(lowerSet(content.Objects(target.Descriptor)), lowerSet(content.Objects(cand.Descriptor))))

	if shared := overlap(tWords, cWords); shared > 0 {
		score += w.SharedKeyword * float64(shared)
		if shared >= w.KeywordBonusMin {
			score += w.KeywordBonus
		}
	}

	if sameKind {
		score += w.deepMatch(target, cand)
	}
	if cand.Analyzed {
		score += w.AnalyzedCandidate
	}
	return score
}

// crossModal scores document summary keywords found in the media fields of the other item.
func (w Weights) crossModal(doc, media *content.Item, docWords map[string]struct{}) float64 {
	if doc.Kind() != content.KindDocument || len(docWords) == 0 {
		return 0
	}
	switch m := media.Descriptor.(type) {
	case content.Image:
		return w.CrossModalImage * float64(containedIn(docWords, strings.ToLower(strings.Join(m.Objects, " "))))
	case content.Video:
		parts := make([]string, 0, len(m.Scenes)+len(m.Actions))
		for _, s := range m.Scenes {
			parts = append(parts, s.Description)
		}
		parts = append(parts, m.Actions...)
		return w.CrossModalVideo * float64(containedIn(docWords, strings.ToLower(strings.Join(parts, " "))))
	}
	return 0
}

func (w Weights) deepMatch(target, cand *content.Item) float64 {
	switch t := target.Descriptor.(type) {
	case content.Image:
		c, _ := cand.Descriptor.(content.Image)
		return w.ImageDetailWord * float64(overlap(keywords(t.Scene+" "+t.Caption), keywords(c.Scene+" "+c.Caption)))
	case content.Document:
		c, _ := cand.Descriptor.(content.Document)
		return w.DocHighlightWord * float64(overlap(
			keywords(strings.Join(t.Highlights, " ")), keywords(strings.Join(c.Highlights, " "))))
	case content.Tabular:
		c, _ := cand.Descriptor.(content.Tabular)
		return w.TabularColumn * float64(overlap(lowerSet(t.Columns), lowerSet(c.Columns)))
	}
	return 0
}

func base(it *content.Item) content.Common {
	if it.Descriptor == nil {
		return content.Common{}
	}
	return it.Descriptor.Base()
}

var stopWords = map[string]struct{}{
	"about": {}, "after": {}, "also": {}, "been": {}, "before": {}, "being": {},
	"from": {}, "have": {}, "here": {}, "into": {}, "more": {}, "most": {},
	"only": {}, "other": {}, "over": {}, "some": {}, "such": {}, "than": {},
	"that": {}, "their": {}, "them": {}, "then": {}, "there": {}, "these": {},
	"they": {}, "this": {}, "those": {}, "very": {}, "were": {}, "what": {},
	"when": {}, "where": {}, "which": {}, "while": {}, "with": {}, "would": {},
	"your": {}, "shows": {}, "contains": {}, "image": {}, "video": {}, "document": {},
}

// keywords returns the distinct lower-cased words longer than three runes
// that are not stop words.
func keywords(text string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(words))
	for _, word := range words {
		if len([]rune(word)) <= 3 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		set[word] = struct{}{}
	}
	return set
}

func lowerSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

func overlap(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func containedIn(words map[string]struct{}, text string) int {
	if text == "" {
		return 0
	}
	n := 0
	for w := range words {
		if strings.Contains(text, w) {
			n++
		}
	}
	return n
}
