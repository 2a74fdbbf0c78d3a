package detection

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrInvalidOptions is returned when Options fail validation.
var ErrInvalidOptions = errors.New("invalid options")

// Default option values.
const (
	DefaultMinArea              = 500
	DefaultMaxArea              = 50000
	DefaultMinSide              = 15
	DefaultMinAspectRatio       = 0.2
	DefaultMaxAspectRatio       = 5.0
	DefaultFillRatioThreshold   = 0.5
	DefaultSaturationThreshold  = 80
	DefaultIoUThreshold         = 0.5
	DefaultDilateRadius         = 1.0
	DefaultCloseRadius          = 2.0
	DefaultTextOverlapThreshold = 0.3
)

// DefaultEdgeThresholds are the Canny (low, high) pairs tried by the edge
// passes, from most to least sensitive.
var DefaultEdgeThresholds = []ThresholdPair{
	{Low: 30, High: 100},
	{Low: 50, High: 150},
	{Low: 100, High: 200},
}

// ThresholdPair is a Canny hysteresis threshold pair on the 0-255 gray
// scale. It serializes as [low, high] in both JSON and YAML.
type ThresholdPair struct {
	Low  int `validate:"gte=0,ltfield=High"`
	High int `validate:"lte=255"`
}

// String implements fmt.Stringer.
func (p ThresholdPair) String() string {
	return fmt.Sprintf("(%d,%d)", p.Low, p.High)
}

// MarshalJSON encodes the pair as [low, high].
func (p ThresholdPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.Low, p.High})
}

// UnmarshalJSON decodes a pair from [low, high].
func (p *ThresholdPair) UnmarshalJSON(data []byte) error {
	var v [2]int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("threshold pair must be [low, high]: %w", err)
	}
	p.Low, p.High = v[0], v[1]
	return nil
}

// MarshalYAML encodes the pair as a two element flow sequence.
func (p ThresholdPair) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, v := range []int{p.Low, p.High} {
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprint(v)})
	}
	return node, nil
}

// UnmarshalYAML decodes a pair from a two element sequence.
func (p *ThresholdPair) UnmarshalYAML(value *yaml.Node) error {
	var v []int
	if err := value.Decode(&v); err != nil || len(v) != 2 {
		return fmt.Errorf("line %d: threshold pair must be [low, high]", value.Line)
	}
	p.Low, p.High = v[0], v[1]
	return nil
}

// Options tunes the contour passes and the Deduplicator.
//
// Every field is optional: a zero value means "use the default". Call
// WithDefaults to obtain the effective options and Validate to check them.
type Options struct {
	// MinArea and MaxArea bound candidate areas in square pixels
	// (both exclusive).
	MinArea int `json:"min_area,omitempty" yaml:"min_area,omitempty" validate:"gte=0"`
	MaxArea int `json:"max_area,omitempty" yaml:"max_area,omitempty" validate:"gtfield=MinArea"`

	// MinSide is the minimum width and height of an accepted box.
	MinSide int `json:"min_side,omitempty" yaml:"min_side,omitempty" validate:"gte=0"`

	// MinAspectRatio and MaxAspectRatio bound width/height (inclusive).
	MinAspectRatio float64 `json:"min_aspect_ratio,omitempty" yaml:"min_aspect_ratio,omitempty" validate:"gte=0"`
	MaxAspectRatio float64 `json:"max_aspect_ratio,omitempty" yaml:"max_aspect_ratio,omitempty" validate:"gtefield=MinAspectRatio"`

	// FillRatioThreshold is the minimum contour-area to box-area ratio
	// (exclusive) for edge-pass candidates.
	FillRatioThreshold float64 `json:"fill_ratio_threshold,omitempty" yaml:"fill_ratio_threshold,omitempty" validate:"gte=0,lte=1"`

	// SaturationThreshold is the HSV saturation (0-255) above which a pixel
	// belongs to the saturation mask.
	SaturationThreshold int `json:"saturation_threshold,omitempty" yaml:"saturation_threshold,omitempty" validate:"gte=0,lte=255"`

	// IoUThreshold is the maximum overlap allowed between accepted boxes.
	IoUThreshold float64 `json:"iou_threshold,omitempty" yaml:"iou_threshold,omitempty" validate:"gt=0,lte=1"`

	// EdgeThresholds lists the Canny threshold pairs, one edge pass each.
	// Passes run in ascending (low, high) order whatever order is given.
	EdgeThresholds []ThresholdPair `json:"edge_thresholds,omitempty" yaml:"edge_thresholds,omitempty" validate:"dive"`

	// DilateRadius grows edge masks before contour extraction.
	DilateRadius float64 `json:"dilate_radius,omitempty" yaml:"dilate_radius,omitempty" validate:"gte=0"`

	// CloseRadius closes gaps in the saturation mask.
	CloseRadius float64 `json:"close_radius,omitempty" yaml:"close_radius,omitempty" validate:"gte=0"`

	// SuppressTextOverlap rejects contours whose overlap with any text box
	// exceeds TextOverlapThreshold of the contour's own area.
	SuppressTextOverlap  bool    `json:"suppress_text_overlap,omitempty" yaml:"suppress_text_overlap,omitempty"`
	TextOverlapThreshold float64 `json:"text_overlap_threshold,omitempty" yaml:"text_overlap_threshold,omitempty" validate:"gte=0,lte=1"`
}

// WithDefaults returns a copy of o with every zero field replaced by its
// default.
func (o Options) WithDefaults() Options {
	if o.MinArea == 0 {
		o.MinArea = DefaultMinArea
	}
	if o.MaxArea == 0 {
		o.MaxArea = DefaultMaxArea
	}
	if o.MinSide == 0 {
		o.MinSide = DefaultMinSide
	}
	if o.MinAspectRatio == 0 {
		o.MinAspectRatio = DefaultMinAspectRatio
	}
	if o.MaxAspectRatio == 0 {
		o.MaxAspectRatio = DefaultMaxAspectRatio
	}
	if o.FillRatioThreshold == 0 {
		o.FillRatioThreshold = DefaultFillRatioThreshold
	}
	if o.SaturationThreshold == 0 {
		o.SaturationThreshold = DefaultSaturationThreshold
	}
	if o.IoUThreshold == 0 {
		o.IoUThreshold = DefaultIoUThreshold
	}
	if len(o.EdgeThresholds) == 0 {
		o.EdgeThresholds = append([]ThresholdPair(nil), DefaultEdgeThresholds...)
	} else {
		o.EdgeThresholds = append([]ThresholdPair(nil), o.EdgeThresholds...)
	}
	// Pass order decides which duplicate survives dedup, so edge passes
	// always run from the lowest pair up.
	slices.SortStableFunc(o.EdgeThresholds, func(a, b ThresholdPair) int {
		return cmp.Or(cmp.Compare(a.Low, b.Low), cmp.Compare(a.High, b.High))
	})
	if o.DilateRadius == 0 {
		o.DilateRadius = DefaultDilateRadius
	}
	if o.CloseRadius == 0 {
		o.CloseRadius = DefaultCloseRadius
	}
	if o.TextOverlapThreshold == 0 {
		o.TextOverlapThreshold = DefaultTextOverlapThreshold
	}
	return o
}

var validate = validator.New()

// Validate checks the effective options (after defaults are applied).
// Failures wrap ErrInvalidOptions and name the offending fields.
func (o Options) Validate() error {
	err := validate.Struct(o.WithDefaults())
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidOptions, strings.Join(msgs, "; "))
}
