package imaging

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Format names accepted by Encode.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

// Encode encodes img as PNG or JPEG and returns the bytes with their MIME type.
//
// An empty format means PNG. "jpg" is accepted as an alias for "jpeg".
func Encode(img image.Image, format string) ([]byte, string, error) {
	if format == "" {
		format = FormatPNG
	}
	f, err := imaging.FormatFromExtension(format)
	if err != nil {
		return nil, "", fmt.Errorf("unsupported output format %q: %w", format, err)
	}

	var mime string
	switch f {
	case imaging.PNG:
		mime = "image/png"
	case imaging.JPEG:
		mime = "image/jpeg"
	default:
		return nil, "", fmt.Errorf("unsupported output format %q", format)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, f, imaging.JPEGQuality(95)); err != nil {
		return nil, "", fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), mime, nil
}
