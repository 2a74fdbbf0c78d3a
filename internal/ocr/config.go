package ocr

import "strings"

// Iterator levels accepted by Config.Level.
const (
	LevelLine  = "line"
	LevelWord  = "word"
	LevelBlock = "block"
)

// DefaultPageSegMode is Tesseract's sparse-text mode, which finds as much
// scattered text as possible in no particular order. Screenshots rarely
// have a single flowing layout.
const DefaultPageSegMode = 11

// Config configures the Tesseract engine.
type Config struct {
	// Languages lists Tesseract language codes, e.g. ["eng", "deu"].
	Languages []string `yaml:"languages" json:"languages" validate:"dive,required"`

	// TessdataPrefix points at the directory holding *.traineddata files.
	// Empty uses Tesseract's compiled-in default or TESSDATA_PREFIX.
	TessdataPrefix string `yaml:"tessdata_prefix,omitempty" json:"tessdata_prefix,omitempty"`

	// PageSegMode is the Tesseract page segmentation mode (0-13).
	PageSegMode int `yaml:"page_seg_mode,omitempty" json:"page_seg_mode,omitempty" validate:"gte=0,lte=13"`

	// Level selects the granularity of reported regions.
	Level string `yaml:"level,omitempty" json:"level,omitempty" validate:"omitempty,oneof=line word block"`
}

// DefaultConfig returns English, line-level recognition in sparse-text mode.
func DefaultConfig() Config {
	return Config{
		Languages:   []string{"eng"},
		PageSegMode: DefaultPageSegMode,
		Level:       LevelLine,
	}
}

// WithDefaults fills empty fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if len(c.Languages) == 0 {
		c.Languages = d.Languages
	}
	if c.PageSegMode == 0 {
		c.PageSegMode = d.PageSegMode
	}
	if c.Level == "" {
		c.Level = d.Level
	}
	return c
}

// LanguageSpec joins the languages the way Tesseract expects ("eng+deu").
func (c Config) LanguageSpec() string {
	return strings.Join(c.Languages, "+")
}
