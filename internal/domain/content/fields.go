package content

import (
	"fmt"

	"github.com/kailas-cloud/semdex/internal/domain"
)

// Fields is the flat wire form of a descriptor, shared by storage and HTTP.
type Fields struct {
	Summary      string                 `json:"summary,omitempty"`
	Highlights   []string               `json:"highlights,omitempty"`
	Tags         []string               `json:"tags,omitempty"`
	Caption      string                 `json:"caption,omitempty"`
	Scene        string                 `json:"scene,omitempty"`
	OCRText      string                 `json:"ocr_text,omitempty"`
	Objects      []string               `json:"objects,omitempty"`
	Scenes       []SceneFields          `json:"scenes,omitempty"`
	Actions      []string               `json:"actions,omitempty"`
	Columns      []string               `json:"columns,omitempty"`
	NumericStats map[string]StatsFields `json:"numeric_stats,omitempty"`
}

// SceneFields is the wire form of a video scene.
type SceneFields struct {
	Timestamp   float64 `json:"timestamp"`
	Description string  `json:"description"`
}

// StatsFields is the wire form of column statistics.
type StatsFields struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	Count int     `json:"count"`
}

// FromFields builds the variant for kind k. Fields that do not belong to the
// kind are rejected with ErrInvalidDescriptor.
func FromFields(k Kind, f *Fields) (Descriptor, error) {
	if !k.IsValid() {
		return nil, fmt.Errorf("kind %q: %w", k, domain.ErrInvalidDescriptor)
	}
	if err := checkFieldsFit(k, f); err != nil {
		return nil, err
	}

	common := Common{Summary: f.Summary, Highlights: f.Highlights, Tags: f.Tags}
	switch k {
	case KindText:
		return Text{Common: common}, nil
	case KindDocument:
		return Document{Common: common}, nil
	case KindImage:
		return Image{
			Common: common, Caption: f.Caption, Scene: f.Scene,
			OCRText: f.OCRText, Objects: f.Objects,
		}, nil
	case KindVideo:
		scenes := make([]Scene, len(f.Scenes))
		for i, s := range f.Scenes {
			scenes[i] = Scene(s)
		}
		return Video{Common: common, Scenes: scenes, Actions: f.Actions, Objects: f.Objects}, nil
	case KindTabular:
		var stats map[string]ColumnStats
		if len(f.NumericStats) > 0 {
			stats = make(map[string]ColumnStats, len(f.NumericStats))
			for col, s := range f.NumericStats {
				stats[col] = ColumnStats(s)
			}
		}
		return Tabular{Common: common, Columns: f.Columns, NumericStats: stats}, nil
	default:
		return Unknown{Common: common}, nil
	}
}

// ToFields flattens a descriptor into its wire form.
func ToFields(d Descriptor) Fields {
	if d == nil {
		return Fields{}
	}
	base := d.Base()
	f := Fields{Summary: base.Summary, Highlights: base.Highlights, Tags: base.Tags}

	switch v := d.(type) {
	case Image:
		f.Caption, f.Scene, f.OCRText, f.Objects = v.Caption, v.Scene, v.OCRText, v.Objects
	case Video:
		f.Actions, f.Objects = v.Actions, v.Objects
		if len(v.Scenes) > 0 {
			f.Scenes = make([]SceneFields, len(v.Scenes))
			for i, s := range v.Scenes {
				f.Scenes[i] = SceneFields(s)
			}
		}
	case Tabular:
		f.Columns = v.Columns
		if len(v.NumericStats) > 0 {
			f.NumericStats = make(map[string]StatsFields, len(v.NumericStats))
			for col, s := range v.NumericStats {
				f.NumericStats[col] = StatsFields(s)
			}
		}
	case Text, Document, Unknown:
	}
	return f
}

func checkFieldsFit(k Kind, f *Fields) error {
	imageOnly := f.Caption != "" || f.Scene != "" || f.OCRText != ""
	videoOnly := len(f.Scenes) > 0 || len(f.Actions) > 0
	tabularOnly := len(f.Columns) > 0 || len(f.NumericStats) > 0
	hasObjects := len(f.Objects) > 0

	var bad string
	switch {
	case imageOnly && k != KindImage:
		bad = "caption/scene/ocr_text"
	case videoOnly && k != KindVideo:
		bad = "scenes/actions"
	case tabularOnly && k != KindTabular:
		bad = "columns/numeric_stats"
	case hasObjects && k != KindImage && k != KindVideo:
		bad = "objects"
	}
	if bad != "" {
		return fmt.Errorf("%s not allowed for kind %q: %w", bad, k, domain.ErrInvalidDescriptor)
	}
	return nil
}
