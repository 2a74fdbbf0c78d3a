package geometry

import (
	"fmt"
	"math"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Point represents a 2D coordinate in pixel space.
//
// Points serialize as a two element JSON array [x, y].
type Point struct {
	X int
	Y int
}

// MarshalJSON encodes the point as [x, y].
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.X, p.Y})
}

// UnmarshalJSON decodes a point from [x, y].
func (p *Point) UnmarshalJSON(data []byte) error {
	var v [2]int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("point must be [x, y]: %w", err)
	}
	p.X, p.Y = v[0], v[1]
	return nil
}

// Box is an axis-aligned rectangle in pixel coordinates.
//
// X1/Y1 are inclusive, X2/Y2 are exclusive. Boxes serialize as a four
// element JSON array [x1, y1, x2, y2].
type Box struct {
	X1 int
	Y1 int
	X2 int
	Y2 int
}

// NewBox builds a box from its top-left corner and size.
func NewBox(x, y, w, h int) Box {
	return Box{X1: x, Y1: y, X2: x + w, Y2: y + h}
}

// MarshalJSON encodes the box as [x1, y1, x2, y2].
func (b Box) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]int{b.X1, b.Y1, b.X2, b.Y2})
}

// UnmarshalJSON decodes a box from [x1, y1, x2, y2].
func (b *Box) UnmarshalJSON(data []byte) error {
	var v [4]int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("box must be [x1, y1, x2, y2]: %w", err)
	}
	b.X1, b.Y1, b.X2, b.Y2 = v[0], v[1], v[2], v[3]
	return nil
}

// String implements fmt.Stringer.
func (b Box) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", b.X1, b.Y1, b.X2, b.Y2)
}

// Width returns X2 - X1, or 0 for inverted boxes.
func (b Box) Width() int {
	if b.X2 <= b.X1 {
		return 0
	}
	return b.X2 - b.X1
}

// Height returns Y2 - Y1, or 0 for inverted boxes.
func (b Box) Height() int {
	if b.Y2 <= b.Y1 {
		return 0
	}
	return b.Y2 - b.Y1
}

// Area returns the box area in square pixels.
func (b Box) Area() int {
	return b.Width() * b.Height()
}

// Empty reports whether the box covers no pixels.
func (b Box) Empty() bool {
	return b.X1 >= b.X2 || b.Y1 >= b.Y2
}

// Within reports whether the box is non-empty and lies entirely inside an
// image of the given size. Touching the right or bottom edge (X2 == width)
// is inside; exceeding it is not.
func (b Box) Within(width, height int) bool {
	if b.Empty() {
		return false
	}
	return b.X1 >= 0 && b.Y1 >= 0 && b.X2 <= width && b.Y2 <= height
}

// Intersect returns the overlapping region of two boxes. The result is
// empty when the boxes do not overlap.
func (b Box) Intersect(o Box) Box {
	r := Box{
		X1: max(b.X1, o.X1),
		Y1: max(b.Y1, o.Y1),
		X2: min(b.X2, o.X2),
		Y2: min(b.Y2, o.Y2),
	}
	if r.Empty() {
		return Box{}
	}
	return r
}

// OverlapArea returns the area shared by two boxes.
func (b Box) OverlapArea(o Box) int {
	return b.Intersect(o).Area()
}

// Clamp restricts the box to [0,width]x[0,height]. The result may be empty
// if the box lies completely outside the image.
func (b Box) Clamp(width, height int) Box {
	return Box{
		X1: clamp(b.X1, 0, width),
		Y1: clamp(b.Y1, 0, height),
		X2: clamp(b.X2, 0, width),
		Y2: clamp(b.Y2, 0, height),
	}
}

// Envelope returns the axis-aligned bounding box of a set of points, with
// the maximum corner taken as-is (the points are treated as corner
// coordinates, not pixel centers). It returns an empty box for no points.
func Envelope(points []Point) Box {
	if len(points) == 0 {
		return Box{}
	}
	b := Box{X1: math.MaxInt, Y1: math.MaxInt, X2: math.MinInt, Y2: math.MinInt}
	for _, p := range points {
		b.X1 = min(b.X1, p.X)
		b.Y1 = min(b.Y1, p.Y)
		b.X2 = max(b.X2, p.X)
		b.Y2 = max(b.Y2, p.Y)
	}
	return b
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
