package ocr

import (
	"context"
	"errors"
	"image"
	"math"
	"strings"

	"github.com/ironsheep/ocr-som/internal/element"
	"github.com/ironsheep/ocr-som/internal/geometry"
)

// ErrDetectorUnavailable is returned when a recognition engine cannot be
// constructed or fails while recognizing.
var ErrDetectorUnavailable = errors.New("text detector unavailable")

// Point is a recognizer coordinate. Engines may report sub-pixel corners.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Recognition is one text region reported by an engine.
type Recognition struct {
	// Quad holds the four corners of the region, usually clockwise from
	// the top-left. Rotated text produces a non-axis-aligned quad.
	Quad [4]Point `json:"quad"`

	// Text is the recognized string.
	Text string `json:"text"`

	// Confidence is the engine's score, nominally in [0, 1].
	Confidence float64 `json:"confidence"`
}

// Recognizer finds and reads text in an image.
//
// Implementations return regions in their native order, which callers
// preserve. An image without text yields an empty slice and no error.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) ([]Recognition, error)
}

// RectQuad returns the quad of an axis-aligned rectangle, clockwise from the
// top-left corner.
func RectQuad(r image.Rectangle) [4]Point {
	x1, y1 := float64(r.Min.X), float64(r.Min.Y)
	x2, y2 := float64(r.Max.X), float64(r.Max.Y)
	return [4]Point{{x1, y1}, {x2, y1}, {x2, y2}, {x1, y2}}
}

// Adapt converts engine output into text elements for an image of the given
// size.
//
// Each quad is truncated to integer pixels; its axis-aligned envelope is
// clamped to [0,width]x[0,height] and becomes the element box. Entries with
// blank text or an empty clamped box are dropped. Confidence is clamped to
// [0, 1] (NaN becomes 0). Elements keep the engine's order and get
// placeholder ids equal to their position.
func Adapt(recs []Recognition, width, height int) []element.Element {
	out := make([]element.Element, 0, len(recs))
	for _, r := range recs {
		text := strings.TrimSpace(r.Text)
		if text == "" {
			continue
		}

		var polygon [4]geometry.Point
		for i, p := range r.Quad {
			polygon[i] = geometry.Point{X: truncate(p.X), Y: truncate(p.Y)}
		}

		box := geometry.Envelope(polygon[:]).Clamp(width, height)
		if box.Empty() {
			continue
		}

		out = append(out, element.NewText(len(out), box, text, clampConfidence(r.Confidence), polygon))
	}
	return out
}

// truncate converts a coordinate toward zero, saturating at the int range.
func truncate(v float64) int {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	}
	return int(v)
}

func clampConfidence(c float64) float64 {
	if math.IsNaN(c) || c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// Static is a Recognizer that always reports the same regions. A nil
// Static reports no text, which disables recognition.
type Static []Recognition

// Recognize returns a copy of the fixed regions.
func (s Static) Recognize(ctx context.Context, _ image.Image) ([]Recognition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]Recognition{}, s...), nil
}

// Info implements Describer. A nil Static reports recognition as disabled.
func (s Static) Info() Info {
	if s == nil {
		return Info{Available: true, Backend: "disabled"}
	}
	return Info{Available: true, Backend: "static"}
}

// Info describes the recognition backend.
type Info struct {
	Available      bool     `json:"available"`
	Backend        string   `json:"backend"`
	Version        string   `json:"version,omitempty"`
	Languages      []string `json:"languages,omitempty"`
	TessdataPrefix string   `json:"tessdata_prefix,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// Describer is implemented by engines that can report backend details.
type Describer interface {
	Info() Info
}
