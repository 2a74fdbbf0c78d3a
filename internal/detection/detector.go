package detection

import (
	"context"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/ocr-som/internal/element"
	"github.com/ironsheep/ocr-som/internal/geometry"
	"github.com/ironsheep/ocr-som/internal/imaging"
)

// Detector finds non-text interactive regions in an image.
//
// A Detector holds no per-image state and is safe for concurrent use.
type Detector struct {
	opts Options
	log  logrus.FieldLogger
}

// NewDetector creates a Detector with the given options. Zero fields take
// their defaults.
//
// # Errors
//
//   - Returns an error wrapping ErrInvalidOptions if the options fail
//     validation
func NewDetector(opts Options, log logrus.FieldLogger) (*Detector, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Detector{opts: opts.WithDefaults(), log: log}, nil
}

// Options returns the effective options.
func (d *Detector) Options() Options {
	return d.opts
}

// Detect runs every pass and returns the accepted regions as contour
// elements in acceptance order. Element ids are placeholders equal to the
// position in the returned slice.
//
// text holds recognized text boxes, used only when SuppressTextOverlap is
// set. Detect returns ctx.Err() if the context is canceled before the
// passes complete.
func (d *Detector) Detect(ctx context.Context, img image.Image, text []geometry.Box) ([]element.Element, error) {
	candidates, err := d.Candidates(ctx, img)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	dedup := NewDeduplicator(bounds.Dx(), bounds.Dy(), d.opts, text)

	rejected := make(map[string]int)
	contours := make([]element.Element, 0)
	for _, c := range candidates {
		if reason := dedup.Check(c); reason != RejectNone {
			rejected[reason]++
			continue
		}
		dedup.Offer(c)
		contours = append(contours, element.NewContour(len(contours), c.Box))
	}

	d.log.WithFields(logrus.Fields{
		"candidates": len(candidates),
		"accepted":   len(contours),
		"rejected":   rejected,
	}).Debug("contour detection complete")

	return contours, nil
}

// Candidates runs every heuristic pass and returns the candidates in the
// fixed submission order: one block per edge threshold pair in ascending
// (low, high) order, then the saturation pass.
func (d *Detector) Candidates(ctx context.Context, img image.Image) ([]Candidate, error) {
	img = imaging.Normalize(img)
	pairs := d.opts.EdgeThresholds
	results := make([][]Candidate, len(pairs)+1)

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		results[len(pairs)] = d.saturationPass(img)
		return nil
	})

	if len(pairs) > 0 {
		grad := imaging.ComputeGradient(img)
		for i, pair := range pairs {
			eg.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				results[i] = d.edgePass(grad, pair)
				return nil
			})
		}
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	candidates := make([]Candidate, 0, total)
	for _, r := range results {
		candidates = append(candidates, r...)
	}
	return candidates, nil
}

// edgePass extracts candidates from the Canny edges of one threshold pair.
// Sparse edge clusters are dropped by the fill-ratio test.
func (d *Detector) edgePass(grad *imaging.Gradient, pair ThresholdPair) []Candidate {
	edges := grad.Edges(pair.Low, pair.High)
	mask := imaging.Dilate(edges, d.opts.DilateRadius)

	name := fmt.Sprintf("edge%s", pair)
	out := make([]Candidate, 0)
	for _, c := range FindExternalContours(mask) {
		if !d.areaInRange(c.Area) {
			continue
		}
		if geometry.FillRatio(c.Area, c.Box.Area()) <= d.opts.FillRatioThreshold {
			continue
		}
		out = append(out, Candidate{Box: c.Box, Pass: name})
	}

	d.log.WithFields(logrus.Fields{
		"pass":       name,
		"candidates": len(out),
	}).Trace("edge pass complete")
	return out
}

// saturationPass extracts candidates from strongly colored regions.
func (d *Detector) saturationPass(img image.Image) []Candidate {
	mask := imaging.SaturationMask(img, d.opts.SaturationThreshold)
	mask = imaging.Close(mask, d.opts.CloseRadius)

	out := make([]Candidate, 0)
	for _, c := range FindExternalContours(mask) {
		if !d.areaInRange(c.Area) {
			continue
		}
		out = append(out, Candidate{Box: c.Box, Pass: "saturation"})
	}

	d.log.WithFields(logrus.Fields{
		"pass":       "saturation",
		"candidates": len(out),
	}).Trace("saturation pass complete")
	return out
}

func (d *Detector) areaInRange(area int) bool {
	return area > d.opts.MinArea && area < d.opts.MaxArea
}
