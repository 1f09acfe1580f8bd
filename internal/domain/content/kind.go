package content

import "fmt"

// Kind is the coarse content type of an item.
type Kind string

// Content kinds.
const (
	KindText     Kind = "text"
	KindDocument Kind = "document"
	KindTabular  Kind = "tabular"
	KindImage    Kind = "image"
	KindVideo    Kind = "video"
	KindUnknown  Kind = "unknown"
)

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindText, KindDocument, KindTabular, KindImage, KindVideo, KindUnknown:
		return true
	}
	return false
}

// ParseKind converts a string into a Kind. Empty input maps to KindUnknown.
func ParseKind(s string) (Kind, error) {
	if s == "" {
		return KindUnknown, nil
	}
	k := Kind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("unknown content kind %q", s)
	}
	return k, nil
}
