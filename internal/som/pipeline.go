package som

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/ocr-som/internal/annotate"
	"github.com/ironsheep/ocr-som/internal/detection"
	"github.com/ironsheep/ocr-som/internal/element"
	"github.com/ironsheep/ocr-som/internal/imaging"
	"github.com/ironsheep/ocr-som/internal/ocr"
)

// Mode selects which detectors a run uses.
type Mode int

const (
	// ModeMark runs text recognition and contour detection.
	ModeMark Mode = iota

	// ModeText runs text recognition only.
	ModeText

	// ModeContours runs contour detection only; no recognizer is needed.
	ModeContours
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ModeMark:
		return "mark"
	case ModeText:
		return "text"
	case ModeContours:
		return "contours"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Result is the output of one pipeline run.
type Result struct {
	// RunID identifies the run in logs.
	RunID string `json:"run_id"`

	// Width and Height are the dimensions of the processed image.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Count is len(Elements).
	Count int `json:"count"`

	// TextCount and ContourCount break Count down by kind.
	TextCount    int `json:"text_count"`
	ContourCount int `json:"contour_count"`

	// Elements holds text elements then contour elements, ids 0..Count-1.
	Elements []element.Element `json:"elements"`

	// AnnotatedImage is the encoded marked image, nil when not requested or
	// when rendering failed.
	AnnotatedImage []byte `json:"-"`

	// MimeType is the type of AnnotatedImage.
	MimeType string `json:"mime_type,omitempty"`

	// AnnotationError describes a rendering failure. Elements stay valid.
	AnnotationError string `json:"annotation_error,omitempty"`

	// Elapsed is the wall time of the run.
	Elapsed time.Duration `json:"-"`
}

// Pipeline runs Set-of-Mark detection and annotation.
//
// A Pipeline is safe for concurrent use if its recognizer is. It owns the
// recognizer and releases it on Close.
type Pipeline struct {
	recognizer ocr.Recognizer
	defaults   Options
	log        logrus.FieldLogger
	render     func(image.Image, []element.Element, string) ([]byte, string, error)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDefaults sets the options used for fields a request leaves unset.
func WithDefaults(opts Options) Option {
	return func(p *Pipeline) {
		p.defaults = opts
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Pipeline) {
		p.log = log
	}
}

// New creates a Pipeline around a text recognizer. rec may be nil, in which
// case only ModeContours runs succeed.
func New(rec ocr.Recognizer, opts ...Option) *Pipeline {
	p := &Pipeline{recognizer: rec, render: annotate.Render}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logrus.StandardLogger()
	}
	return p
}

// Defaults returns the effective default options.
func (p *Pipeline) Defaults() Options {
	return p.defaults.WithDefaults()
}

// Process decodes an encoded image and runs the full pipeline on it.
func (p *Pipeline) Process(ctx context.Context, data []byte, opts Options) (*Result, error) {
	img, err := decode(data)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, img, ModeMark, opts)
}

// ProcessFile reads and decodes an image file and runs the full pipeline.
func (p *Pipeline) ProcessFile(ctx context.Context, path string, opts Options) (*Result, error) {
	img, err := imaging.DecodeFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return p.Run(ctx, img, ModeMark, opts)
}

// ProcessImage runs the full pipeline on a decoded image.
func (p *Pipeline) ProcessImage(ctx context.Context, img image.Image, opts Options) (*Result, error) {
	return p.Run(ctx, img, ModeMark, opts)
}

// RecognizeText decodes an encoded image and returns its text elements only.
func (p *Pipeline) RecognizeText(ctx context.Context, data []byte, opts Options) (*Result, error) {
	img, err := decode(data)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, img, ModeText, opts)
}

// DetectContours decodes an encoded image and returns its contour elements
// only. It never touches the recognizer.
func (p *Pipeline) DetectContours(ctx context.Context, data []byte, opts Options) (*Result, error) {
	img, err := decode(data)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, img, ModeContours, opts)
}

// Run processes a decoded image in the given mode.
//
// The run is all-or-nothing: a canceled context, an invalid option or a
// recognizer failure returns an error and no partial result.
func (p *Pipeline) Run(ctx context.Context, img image.Image, mode Mode, opts Options) (*Result, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: no image", ErrInvalidImage)
	}

	opts = opts.Merge(p.defaults)
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.WithDefaults()

	start := time.Now()
	runID := uuid.NewString()
	log := p.log.WithFields(logrus.Fields{
		"run_id": runID,
		"mode":   mode.String(),
	})

	img = imaging.Normalize(img)
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidImage)
	}
	log.WithFields(logrus.Fields{"width": width, "height": height}).Debug("processing image")

	text := make([]element.Element, 0)
	if mode != ModeContours {
		var err error
		if text, err = p.recognize(ctx, img); err != nil {
			log.WithError(err).Error("text recognition failed")
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	contours := make([]element.Element, 0)
	if mode != ModeText && opts.ContourDetection() {
		det, err := detection.NewDetector(opts.Options, log)
		if err != nil {
			return nil, err
		}
		if contours, err = det.Detect(ctx, img, element.Boxes(text)); err != nil {
			return nil, err
		}
	}

	elements := element.Merge(text, contours)
	nText, nContour := element.Count(elements)
	res := &Result{
		RunID:        runID,
		Width:        width,
		Height:       height,
		Count:        len(elements),
		TextCount:    nText,
		ContourCount: nContour,
		Elements:     elements,
	}

	if opts.WantImage() {
		data, mime, err := p.render(img, elements, opts.Format())
		if err != nil {
			log.WithError(err).Warn("annotation failed, returning elements only")
			res.AnnotationError = err.Error()
		} else {
			res.AnnotatedImage = data
			res.MimeType = mime
		}
	}

	res.Elapsed = time.Since(start)
	log.WithFields(logrus.Fields{
		"text":       nText,
		"contours":   nContour,
		"elapsed_ms": res.Elapsed.Milliseconds(),
	}).Info("set-of-mark run complete")

	return res, nil
}

// recognize runs the recognizer and adapts its output. Any recognizer
// failure is reported as ErrDetectorUnavailable unless the context ended.
func (p *Pipeline) recognize(ctx context.Context, img image.Image) ([]element.Element, error) {
	if p.recognizer == nil {
		return nil, fmt.Errorf("%w: no text recognizer configured", ErrDetectorUnavailable)
	}

	recs, err := p.recognizer.Recognize(ctx, img)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, ErrDetectorUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrDetectorUnavailable, err)
	}

	bounds := img.Bounds()
	return ocr.Adapt(recs, bounds.Dx(), bounds.Dy()), nil
}

// Info describes the pipeline configuration.
type Info struct {
	Recognizer ocr.Info `json:"recognizer"`
	Defaults   Options  `json:"defaults"`
}

// Info reports the recognizer status and the effective default options.
// It may construct a lazily built recognizer.
func (p *Pipeline) Info() Info {
	info := Info{Defaults: p.Defaults()}
	switch r := p.recognizer.(type) {
	case nil:
		info.Recognizer = ocr.Info{Available: false, Backend: "none", Error: "no text recognizer configured"}
	case ocr.Describer:
		info.Recognizer = r.Info()
	default:
		info.Recognizer = ocr.Info{Available: true, Backend: fmt.Sprintf("%T", r)}
	}
	return info
}

// Close releases the recognizer if it holds resources.
func (p *Pipeline) Close() error {
	if c, ok := p.recognizer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return img, nil
}
