package detection

import (
	"github.com/ironsheep/ocr-som/internal/geometry"
)

// Candidate is a region proposed by one of the heuristic passes.
type Candidate struct {
	// Box is the candidate's bounding box.
	Box geometry.Box

	// Pass names the heuristic that produced the candidate, for logging.
	Pass string
}

// Rejection reasons reported by Deduplicator.Check.
const (
	RejectNone        = ""
	RejectBounds      = "out of bounds"
	RejectSide        = "side too short"
	RejectArea        = "area out of range"
	RejectAspect      = "aspect ratio out of range"
	RejectOverlap     = "overlaps accepted box"
	RejectTextOverlap = "overlaps text"
)

// Deduplicator validates candidates and suppresses overlapping ones.
//
// It is created fresh for each image and used from a single goroutine.
// Candidates must be offered in a deterministic order: the first accepted
// box wins and later boxes overlapping it by more than the IoU threshold
// are dropped. Boxes are never merged.
type Deduplicator struct {
	width    int
	height   int
	opts     Options
	text     []geometry.Box
	accepted []geometry.Box
}

// NewDeduplicator creates a Deduplicator for an image of the given size.
//
// text holds the boxes of recognized text. They are only consulted when
// opts.SuppressTextOverlap is set. opts is completed with defaults.
func NewDeduplicator(width, height int, opts Options, text []geometry.Box) *Deduplicator {
	return &Deduplicator{
		width:  width,
		height: height,
		opts:   opts.WithDefaults(),
		text:   append([]geometry.Box(nil), text...),
	}
}

// Check reports why a candidate would be rejected, or RejectNone if Offer
// would accept it. It does not change the Deduplicator.
func (d *Deduplicator) Check(c Candidate) string {
	b := c.Box
	if !b.Within(d.width, d.height) {
		return RejectBounds
	}

	w, h := b.Width(), b.Height()
	if w < d.opts.MinSide || h < d.opts.MinSide {
		return RejectSide
	}

	area := b.Area()
	if area <= d.opts.MinArea || area >= d.opts.MaxArea {
		return RejectArea
	}

	aspect := geometry.AspectRatio(w, h)
	if aspect < d.opts.MinAspectRatio || aspect > d.opts.MaxAspectRatio {
		return RejectAspect
	}

	for _, a := range d.accepted {
		if geometry.IoU(b, a) > d.opts.IoUThreshold {
			return RejectOverlap
		}
	}

	if d.opts.SuppressTextOverlap {
		limit := d.opts.TextOverlapThreshold * float64(area)
		for _, t := range d.text {
			if float64(b.OverlapArea(t)) > limit {
				return RejectTextOverlap
			}
		}
	}

	return RejectNone
}

// Offer accepts the candidate if it passes every check and records its box.
func (d *Deduplicator) Offer(c Candidate) bool {
	if d.Check(c) != RejectNone {
		return false
	}
	d.accepted = append(d.accepted, c.Box)
	return true
}

// Accepted returns the accepted boxes in acceptance order.
func (d *Deduplicator) Accepted() []geometry.Box {
	return append([]geometry.Box(nil), d.accepted...)
}
