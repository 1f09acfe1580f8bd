package content

// Descriptor is the typed metadata of one item. Each kind has its own variant
// carrying only the fields relevant to it.
type Descriptor interface {
	Kind() Kind
	Base() Common
	isDescriptor()
}

// Common holds fields shared by every variant.
type Common struct {
	Summary    string
	Highlights []string
	Tags       []string
}

// Base returns the shared fields.
func (c Common) Base() Common { return c }

func (Common) isDescriptor() {}

// Text describes plain text content.
type Text struct{ Common }

// Kind implements Descriptor.
func (Text) Kind() Kind { return KindText }

// Document describes paginated documents (pdf, docx and similar).
type Document struct{ Common }

// Kind implements Descriptor.
func (Document) Kind() Kind { return KindDocument }

// Unknown describes content of an unrecognized type.
type Unknown struct{ Common }

// Kind implements Descriptor.
func (Unknown) Kind() Kind { return KindUnknown }

// Image describes a still image.
type Image struct {
	Common
	Caption string
	Scene   string
	OCRText string
	Objects []string
}

// Kind implements Descriptor.
func (Image) Kind() Kind { return KindImage }

// Scene is a timestamped description of a video segment.
type Scene struct {
	Timestamp   float64 // seconds
	Description string
}

// Video describes a video clip.
type Video struct {
	Common
	Scenes  []Scene
	Actions []string
	Objects []string
}

// Kind implements Descriptor.
func (Video) Kind() Kind { return KindVideo }

// ColumnStats holds computed statistics of one numeric column.
type ColumnStats struct {
	Min   float64
	Max   float64
	Avg   float64
	Count int
}

// Tabular describes spreadsheet-like content.
type Tabular struct {
	Common
	Columns      []string
	NumericStats map[string]ColumnStats
}

// Kind implements Descriptor.
func (Tabular) Kind() Kind { return KindTabular }

// Objects returns detected objects for images and videos, nil otherwise.
func Objects(d Descriptor) []string {
	switch v := d.(type) {
	case Image:
		return v.Objects
	case Video:
		return v.Objects
	}
	return nil
}

// Empty returns the empty descriptor of the given kind.
func Empty(k Kind) Descriptor {
	switch k {
	case KindText:
		return Text{}
	case KindDocument:
		return Document{}
	case KindTabular:
		return Tabular{}
	case KindImage:
		return Image{}
	case KindVideo:
		return Video{}
	default:
		return Unknown{}
	}
}
