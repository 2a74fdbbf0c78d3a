package som

import (
	"errors"

	"github.com/ironsheep/ocr-som/internal/detection"
	"github.com/ironsheep/ocr-som/internal/ocr"
)

var (
	// ErrInvalidImage is returned when the input cannot be decoded.
	ErrInvalidImage = errors.New("invalid image")

	// ErrDetectorUnavailable is returned when the text recognizer cannot be
	// constructed or fails.
	ErrDetectorUnavailable = ocr.ErrDetectorUnavailable

	// ErrInvalidOptions is returned when options fail validation.
	ErrInvalidOptions = detection.ErrInvalidOptions
)
