// Package annotate draws numbered Set-of-Mark markers onto a screenshot.
//
// Every element gets a colored outline and a filled label tab carrying its
// id in white. Rendering is deterministic: the same image and elements
// always produce the same pixels.
package annotate

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"slices"
	"strconv"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/ocr-som/internal/element"
	somimaging "github.com/ironsheep/ocr-som/internal/imaging"
)

// Marker geometry in pixels.
const (
	StrokeWidth   = 2
	LabelPadX     = 6
	LabelPadY     = 4
	labelInsetX   = LabelPadX / 2
	labelInsetTop = LabelPadY / 2
)

// paletteHex is the ordered marker palette. Element i uses entry
// i % len(paletteHex).
var paletteHex = []string{
	"#ff6b6b", "#4ecdc4", "#ffe66d", "#c77dff", "#6bb9f0",
	"#ffb347", "#a2d9ce", "#ff9aa2", "#b5ead7", "#ffdab9",
}

// Palette holds the parsed marker colors.
var Palette = mustParsePalette(paletteHex)

var labelText = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

func mustParsePalette(hexes []string) []color.NRGBA {
	out := make([]color.NRGBA, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			panic(fmt.Sprintf("annotate: bad palette color %q: %v", h, err))
		}
		r, g, b := c.RGB255()
		out[i] = color.NRGBA{R: r, G: g, B: b, A: 255}
	}
	return out
}

// ColorFor returns the marker color for an element id.
func ColorFor(id int) color.NRGBA {
	if id < 0 {
		id = -id
	}
	return Palette[id%len(Palette)]
}

// Annotate draws markers for elements onto a copy of img and returns it.
// img is never modified. Elements are drawn in id order, so later ids
// paint over earlier ones where markers overlap.
func Annotate(img image.Image, elements []element.Element) *image.NRGBA {
	dst := imaging.Clone(img)

	ordered := slices.Clone(elements)
	slices.SortStableFunc(ordered, func(a, b element.Element) int {
		return a.ID - b.ID
	})

	face := basicfont.Face7x13
	for _, e := range ordered {
		drawMarker(dst, face, e)
	}
	return dst
}

// Render annotates img and encodes the result ("png" or "jpeg"), returning
// the bytes and their MIME type.
func Render(img image.Image, elements []element.Element, format string) ([]byte, string, error) {
	data, mime, err := somimaging.Encode(Annotate(img, elements), format)
	if err != nil {
		return nil, "", fmt.Errorf("failed to render annotated image: %w", err)
	}
	return data, mime, nil
}

// LabelRect returns where the label tab for an element is drawn.
//
// The tab sits on top of the box, left-aligned with it. If that would leave
// the image, the tab is placed just inside the top edge of the box instead.
func LabelRect(face font.Face, e element.Element) image.Rectangle {
	w, h := labelSize(face, strconv.Itoa(e.ID))
	x, y := e.Box.X1, e.Box.Y1-h
	if y < 0 {
		y = e.Box.Y1
	}
	return image.Rect(x, y, x+w, y+h)
}

func labelSize(face font.Face, text string) (int, int) {
	m := face.Metrics()
	textW := font.MeasureString(face, text).Ceil()
	textH := (m.Ascent + m.Descent).Ceil()
	return textW + LabelPadX, textH + LabelPadY
}

func drawMarker(dst *image.NRGBA, face font.Face, e element.Element) {
	c := ColorFor(e.ID)
	b := e.Box

	// Outline, drawn inward so it stays inside the box
	for s := 0; s < StrokeWidth; s++ {
		x1, y1, x2, y2 := b.X1+s, b.Y1+s, b.X2-1-s, b.Y2-1-s
		if x1 > x2 || y1 > y2 {
			break
		}
		fill(dst, image.Rect(x1, y1, x2+1, y1+1), c)
		fill(dst, image.Rect(x1, y2, x2+1, y2+1), c)
		fill(dst, image.Rect(x1, y1, x1+1, y2+1), c)
		fill(dst, image.Rect(x2, y1, x2+1, y2+1), c)
	}

	label := strconv.Itoa(e.ID)
	r := LabelRect(face, e)
	fill(dst, r, c)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(labelText),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(r.Min.X + labelInsetX),
			Y: fixed.I(r.Min.Y+labelInsetTop) + face.Metrics().Ascent,
		},
	}
	d.DrawString(label)
}

func fill(dst *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}
