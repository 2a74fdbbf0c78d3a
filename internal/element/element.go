// Package element defines the detected-element model produced by the
// Set-of-Mark pipeline and the merger that assigns final ids.
package element

import (
	"github.com/ironsheep/ocr-som/internal/geometry"
)

// Kind discriminates the element variants.
type Kind string

const (
	// KindText is a region reported by the text recognizer.
	KindText Kind = "text"

	// KindContour is a non-text region proposed by a geometric heuristic.
	KindContour Kind = "contour"
)

// TextInfo holds the fields that only exist for text elements.
type TextInfo struct {
	// Text is the recognized string. Never empty.
	Text string `json:"text"`

	// Confidence is the recognizer's score in [0, 1].
	Confidence float64 `json:"confidence"`

	// Polygon is the recognizer's (possibly rotated) quadrilateral,
	// truncated to integer pixels. Box is its axis-aligned envelope.
	Polygon [4]geometry.Point `json:"polygon"`
}

// Element is one marked region of a screenshot.
//
// The embedded *TextInfo is non-nil exactly when Kind == KindText, so text
// fields are promoted for text elements and omitted from JSON for contours.
type Element struct {
	// ID is the element's position in the final merged sequence.
	ID int `json:"id"`

	// Kind is "text" or "contour".
	Kind Kind `json:"type"`

	// Box is the axis-aligned bounding box, inside the image bounds.
	Box geometry.Box `json:"box"`

	*TextInfo
}

// NewText builds a text element.
func NewText(id int, box geometry.Box, text string, confidence float64, polygon [4]geometry.Point) Element {
	return Element{
		ID:   id,
		Kind: KindText,
		Box:  box,
		TextInfo: &TextInfo{
			Text:       text,
			Confidence: confidence,
			Polygon:    polygon,
		},
	}
}

// NewContour builds a contour element.
func NewContour(id int, box geometry.Box) Element {
	return Element{ID: id, Kind: KindContour, Box: box}
}

// IsText reports whether the element is a text element.
func (e Element) IsText() bool {
	return e.Kind == KindText && e.TextInfo != nil
}

// Boxes returns the boxes of the given elements in order.
func Boxes(elements []Element) []geometry.Box {
	boxes := make([]geometry.Box, len(elements))
	for i, e := range elements {
		boxes[i] = e.Box
	}
	return boxes
}
