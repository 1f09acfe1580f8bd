package similarity

// Weights holds keyword bonuses and thresholds. One value is loaded from
// config at startup and stays constant for the process.
type Weights struct {
	// KeepThreshold is the minimum score a result without keyword matches must exceed.
	KeepThreshold float64 `yaml:"keep_threshold"`

	Filename   float64 `yaml:"filename"`
	Summary    float64 `yaml:"summary"`
	Highlights float64 `yaml:"highlights"`
	Tags       float64 `yaml:"tags"`
	Objects    float64 `yaml:"objects"`
	Caption    float64 `yaml:"caption"`
	Scene      float64 `yaml:"scene"`
	OCRText    float64 `yaml:"ocr_text"`
	Scenes     float64 `yaml:"scenes"`
	Actions    float64 `yaml:"actions"`
	Columns    float64 `yaml:"columns"`
	StatKeys   float64 `yaml:"stat_keys"`

	// Keyword-only scoring.
	KeywordBase        float64 `yaml:"keyword_base"`
	KeywordFilename    float64 `yaml:"keyword_filename"`
	KeywordPerCategory float64 `yaml:"keyword_per_category"`

	// MinTermLength is the shortest query term matched on its own.
	MinTermLength int `yaml:"min_term_length"`
}

// DefaultWeights returns the stock weights.
func DefaultWeights() Weights {
	return Weights{
		KeepThreshold:      0.05,
		Filename:           0.30,
		Summary:            0.20,
		Highlights:         0.15,
		Tags:               0.15,
		Objects:            0.15,
		Caption:            0.15,
		Scene:              0.10,
		OCRText:            0.10,
		Scenes:             0.10,
		Actions:            0.10,
		Columns:            0.10,
		StatKeys:           0.10,
		KeywordBase:        0.4,
		KeywordFilename:    0.6,
		KeywordPerCategory: 0.03,
		MinTermLength:      3,
	}
}

// normalized keeps every weight as given, zero included, and only replaces
// a non-positive MinTermLength.
func (w Weights) normalized() Weights {
	if w.MinTermLength <= 0 {
		w.MinTermLength = DefaultWeights().MinTermLength
	}
	return w
}
