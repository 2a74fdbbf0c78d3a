package som

import (
	"fmt"

	"github.com/ironsheep/ocr-som/internal/detection"
	"github.com/ironsheep/ocr-som/internal/imaging"
)

// Options configures one pipeline invocation.
//
// Zero fields fall back to the pipeline defaults, then to the built-in
// defaults. The boolean switches are pointers so that "unset" differs from
// "false".
type Options struct {
	detection.Options `yaml:",inline"`

	// DetectContours enables the contour passes (default true).
	DetectContours *bool `json:"detect_contours,omitempty" yaml:"detect_contours,omitempty"`

	// ReturnImage enables rendering of the marked image (default true).
	ReturnImage *bool `json:"return_image,omitempty" yaml:"return_image,omitempty"`

	// ImageFormat is the encoding of the marked image: "png" or "jpeg".
	ImageFormat string `json:"image_format,omitempty" yaml:"image_format,omitempty"`
}

// Bool returns a pointer to v, for the optional switches in Options.
func Bool(v bool) *bool {
	return &v
}

// ContourDetection reports whether the contour passes run.
func (o Options) ContourDetection() bool {
	return o.DetectContours == nil || *o.DetectContours
}

// WantImage reports whether the marked image is rendered.
func (o Options) WantImage() bool {
	return o.ReturnImage == nil || *o.ReturnImage
}

// Format returns the marked image format, defaulting to PNG.
func (o Options) Format() string {
	if o.ImageFormat == "" {
		return imaging.FormatPNG
	}
	return o.ImageFormat
}

// Merge returns o with zero fields taken from base.
func (o Options) Merge(base Options) Options {
	d, b := &o.Options, base.Options
	if d.MinArea == 0 {
		d.MinArea = b.MinArea
	}
	if d.MaxArea == 0 {
		d.MaxArea = b.MaxArea
	}
	if d.MinSide == 0 {
		d.MinSide = b.MinSide
	}
	if d.MinAspectRatio == 0 {
		d.MinAspectRatio = b.MinAspectRatio
	}
	if d.MaxAspectRatio == 0 {
		d.MaxAspectRatio = b.MaxAspectRatio
	}
	if d.FillRatioThreshold == 0 {
		d.FillRatioThreshold = b.FillRatioThreshold
	}
	if d.SaturationThreshold == 0 {
		d.SaturationThreshold = b.SaturationThreshold
	}
	if d.IoUThreshold == 0 {
		d.IoUThreshold = b.IoUThreshold
	}
	if len(d.EdgeThresholds) == 0 {
		d.EdgeThresholds = b.EdgeThresholds
	}
	if d.DilateRadius == 0 {
		d.DilateRadius = b.DilateRadius
	}
	if d.CloseRadius == 0 {
		d.CloseRadius = b.CloseRadius
	}
	if !d.SuppressTextOverlap {
		d.SuppressTextOverlap = b.SuppressTextOverlap
	}
	if d.TextOverlapThreshold == 0 {
		d.TextOverlapThreshold = b.TextOverlapThreshold
	}
	if o.DetectContours == nil {
		o.DetectContours = base.DetectContours
	}
	if o.ReturnImage == nil {
		o.ReturnImage = base.ReturnImage
	}
	if o.ImageFormat == "" {
		o.ImageFormat = base.ImageFormat
	}
	return o
}

// WithDefaults returns o with every unset field given its built-in default.
func (o Options) WithDefaults() Options {
	o.Options = o.Options.WithDefaults()
	o.DetectContours = Bool(o.ContourDetection())
	o.ReturnImage = Bool(o.WantImage())
	o.ImageFormat = o.Format()
	return o
}

// Validate checks the options. Failures wrap ErrInvalidOptions.
func (o Options) Validate() error {
	if err := o.Options.Validate(); err != nil {
		return err
	}
	switch o.Format() {
	case imaging.FormatPNG, imaging.FormatJPEG, "jpg":
		return nil
	}
	return fmt.Errorf("%w: unsupported image format %q", ErrInvalidOptions, o.ImageFormat)
}
