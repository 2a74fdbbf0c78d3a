//go:build !cgo

package ocr

import (
	"context"
	"fmt"
	"image"
)

// TesseractAvailable reports whether this build links the Tesseract engine.
const TesseractAvailable = false

// Tesseract is unavailable in builds without CGO.
type Tesseract struct{}

// NewTesseract always fails in builds without CGO.
func NewTesseract(cfg Config) (*Tesseract, error) {
	return nil, fmt.Errorf("%w: tesseract support not compiled in (build with CGO_ENABLED=1)", ErrDetectorUnavailable)
}

// Recognize always fails.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) ([]Recognition, error) {
	return nil, fmt.Errorf("%w: tesseract support not compiled in", ErrDetectorUnavailable)
}

// Info reports the missing backend.
func (t *Tesseract) Info() Info {
	return Info{Available: false, Backend: "none", Error: "tesseract support not compiled in"}
}

// Close is a no-op.
func (t *Tesseract) Close() error {
	return nil
}
