//go:build cgo

package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/ocr-som/internal/imaging"
)

// TesseractAvailable reports whether this build links the Tesseract engine.
const TesseractAvailable = true

// Tesseract is a Recognizer backed by a long-lived gosseract client.
//
// The client is not safe for concurrent use, so calls are serialized.
type Tesseract struct {
	mu     sync.Mutex
	client *gosseract.Client
	cfg    Config
	level  gosseract.PageIteratorLevel
}

// NewTesseract creates and initializes a Tesseract engine.
//
// The engine is exercised once on a blank image so that missing language
// data is reported here rather than on the first screenshot.
//
// # Errors
//
//   - Returns an error wrapping ErrDetectorUnavailable if the client cannot
//     be configured or initialized
func NewTesseract(cfg Config) (*Tesseract, error) {
	cfg = cfg.WithDefaults()

	level, err := iteratorLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDetectorUnavailable, err)
	}

	client := gosseract.NewClient()
	fail := func(step string, err error) (*Tesseract, error) {
		client.Close()
		return nil, fmt.Errorf("%w: failed to %s: %v", ErrDetectorUnavailable, step, err)
	}

	if cfg.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(cfg.TessdataPrefix); err != nil {
			return fail("set tessdata path", err)
		}
	}
	if err := client.SetLanguage(cfg.Languages...); err != nil {
		return fail("set language", err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(cfg.PageSegMode)); err != nil {
		return fail("set page segmentation mode", err)
	}

	probe, _, err := imaging.Encode(image.NewGray(image.Rect(0, 0, 8, 8)), imaging.FormatPNG)
	if err != nil {
		return fail("encode probe image", err)
	}
	if err := client.SetImageFromBytes(probe); err != nil {
		return fail("set probe image", err)
	}
	if _, err := client.Text(); err != nil {
		return fail("initialize tesseract", err)
	}

	return &Tesseract{client: client, cfg: cfg, level: level}, nil
}

// Recognize runs OCR on img and returns one region per line (or word or
// block, per Config.Level). Confidence is scaled from 0-100 to 0-1.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) ([]Recognition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, _, err := imaging.Encode(img, imaging.FormatPNG)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDetectorUnavailable, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client == nil {
		return nil, fmt.Errorf("%w: recognizer closed", ErrDetectorUnavailable)
	}
	if err := t.client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: failed to set image: %v", ErrDetectorUnavailable, err)
	}

	boxes, err := t.client.GetBoundingBoxes(t.level)
	if err != nil {
		return nil, fmt.Errorf("%w: recognition failed: %v", ErrDetectorUnavailable, err)
	}

	recs := make([]Recognition, 0, len(boxes))
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		recs = append(recs, Recognition{
			Quad:       RectQuad(box.Box),
			Text:       text,
			Confidence: box.Confidence / 100.0,
		})
	}
	return recs, nil
}

// Info reports the engine version and configuration.
func (t *Tesseract) Info() Info {
	t.mu.Lock()
	defer t.mu.Unlock()

	info := Info{
		Available:      t.client != nil,
		Backend:        "gosseract",
		Languages:      append([]string(nil), t.cfg.Languages...),
		TessdataPrefix: t.cfg.TessdataPrefix,
	}
	if t.client != nil {
		info.Version = t.client.Version()
	}
	return info
}

// Close releases the native client.
func (t *Tesseract) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}

func iteratorLevel(level string) (gosseract.PageIteratorLevel, error) {
	switch level {
	case LevelLine, "":
		return gosseract.RIL_TEXTLINE, nil
	case LevelWord:
		return gosseract.RIL_WORD, nil
	case LevelBlock:
		return gosseract.RIL_BLOCK, nil
	}
	return 0, fmt.Errorf("unknown iterator level %q", level)
}
