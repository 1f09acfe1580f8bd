package content

import (
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/semdex/internal/domain"
)

// NoContent is returned by BuildText when no descriptor field yields text.
// Callers must not embed it.
const NoContent = "No content available"

// BuildText renders the embeddable text of an item from its descriptor fields in
// priority order, followed by a file type token. The result is whitespace
// normalized and capped at domain.MaxEmbeddingTextChars runes.
func BuildText(item *Item) string {
	d := item.Descriptor
	if d == nil {
		d = Unknown{}
	}

	parts := commonParts(d.Base())

	switch v := d.(type) {
	case Image:
		parts = appendJoined(parts, v.Objects)
		parts = appendNonEmpty(parts, v.Caption, v.Scene, v.OCRText)
	case Video:
		parts = appendJoined(parts, v.Objects)
		for _, s := range v.Scenes {
			parts = appendNonEmpty(parts, s.Description)
		}
		parts = appendJoined(parts, v.Actions)
	case Tabular:
		parts = appendNonEmpty(parts, tabularText(v))
	case Text, Document, Unknown:
	}

	text := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	if text == "" {
		return NoContent
	}

	text += " file type: " + string(d.Kind())
	return truncateRunes(text, domain.MaxEmbeddingTextChars)
}

// Embeddable reports whether text produced by BuildText may be sent to a provider.
func Embeddable(text string) bool {
	return text != NoContent && strings.TrimSpace(text) != ""
}

// EmbeddingText returns the embeddable text of an item or ErrNoContent.
func EmbeddingText(item *Item) (string, error) {
	text := BuildText(item)
	if !Embeddable(text) {
		return "", domain.ErrNoContent
	}
	return text, nil
}

func commonParts(c Common) []string {
	parts := make([]string, 0, 8)
	parts = appendNonEmpty(parts, c.Summary)
	parts = appendJoined(parts, c.Highlights)
	parts = appendJoined(parts, c.Tags)
	return parts
}

func tabularText(t Tabular) string {
	var b strings.Builder
	if len(t.Columns) > 0 {
		b.WriteString("columns: ")
		b.WriteString(strings.Join(t.Columns, ", "))
	}
	if len(t.NumericStats) == 0 {
		return b.String()
	}

	cols := make([]string, 0, len(t.NumericStats))
	for col := range t.NumericStats {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	for _, col := range cols {
		s := t.NumericStats[col]
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString("stats: ")
		b.WriteString(col)
		b.WriteString(" min=" + formatFloat(s.Min))
		b.WriteString(" max=" + formatFloat(s.Max))
		b.WriteString(" avg=" + formatFloat(s.Avg))
		b.WriteString(" count=" + strconv.Itoa(s.Count))
	}
	return b.String()
}

func appendNonEmpty(parts []string, values ...string) []string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			parts = append(parts, v)
		}
	}
	return parts
}

func appendJoined(parts, values []string) []string {
	return appendNonEmpty(parts, strings.Join(values, " "))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
