package detection

import (
	"image"

	"github.com/ironsheep/ocr-som/internal/geometry"
)

// Contour is an external foreground component of a binary mask.
type Contour struct {
	// Box is the pixel envelope of the component (X2/Y2 exclusive).
	Box geometry.Box

	// Area is the number of pixels enclosed by the component's outer
	// boundary: its own pixels plus every hole inside it.
	Area int

	// Pixels is the number of foreground pixels in the component.
	Pixels int
}

// FindExternalContours returns the outermost foreground components of a
// binary mask (any non-zero pixel is foreground).
//
// # Algorithm
//
//  1. Mark background reachable from the image border (4-connected)
//  2. Label foreground components with an iterative flood fill
//     (8-connected, stack-based to avoid deep recursion)
//  3. Keep a component only if it touches the border or is 4-adjacent to
//     border-reachable background; components nested in holes are skipped
//  4. Measure the enclosed area by filling the background around the
//     component inside its padded bounding box
//
// Contours are returned in raster order of each component's first pixel.
func FindExternalContours(mask *image.Gray) []Contour {
	b := mask.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	fg := make([]bool, width*height)
	for y := 0; y < height; y++ {
		row := mask.Pix[mask.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < width; x++ {
			fg[y*width+x] = row[x] != 0
		}
	}

	outside := markOutside(fg, width, height)
	labels := make([]int32, width*height)
	contours := make([]Contour, 0)

	var label int32
	stack := make([]int, 0, 256)
	for start := range fg {
		if !fg[start] || labels[start] != 0 {
			continue
		}
		label++

		box := geometry.Box{X1: width, Y1: height}
		pixels := 0
		external := false

		labels[start] = label
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%width, i/width
			pixels++

			box.X1 = min(box.X1, x)
			box.Y1 = min(box.Y1, y)
			box.X2 = max(box.X2, x+1)
			box.Y2 = max(box.Y2, y+1)

			if x == 0 || y == 0 || x == width-1 || y == height-1 {
				external = true
			}

			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= width || ny >= height {
						continue
					}
					j := ny*width + nx
					if fg[j] {
						if labels[j] == 0 {
							labels[j] = label
							stack = append(stack, j)
						}
					} else if (dx == 0 || dy == 0) && outside[j] {
						external = true
					}
				}
			}
		}

		if !external {
			continue
		}
		contours = append(contours, Contour{
			Box:    box,
			Area:   enclosedArea(labels, label, box, width, height),
			Pixels: pixels,
		})
	}

	return contours
}

// markOutside flags background pixels 4-connected to the image border.
func markOutside(fg []bool, width, height int) []bool {
	outside := make([]bool, width*height)
	stack := make([]int, 0, 2*(width+height))

	push := func(i int) {
		if !fg[i] && !outside[i] {
			outside[i] = true
			stack = append(stack, i)
		}
	}
	for x := 0; x < width; x++ {
		push(x)
		push((height-1)*width + x)
	}
	for y := 0; y < height; y++ {
		push(y * width)
		push(y*width + width - 1)
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%width, i/width
		if x > 0 {
			push(i - 1)
		}
		if x < width-1 {
			push(i + 1)
		}
		if y > 0 {
			push(i - width)
		}
		if y < height-1 {
			push(i + width)
		}
	}
	return outside
}

// enclosedArea counts the cells of the component's bounding box that are
// not reachable from outside the component.
//
// The box is padded by one cell on every side so the fill can walk around
// the component; padding cells beyond the image count as background.
func enclosedArea(labels []int32, label int32, box geometry.Box, width, height int) int {
	x0, y0 := box.X1-1, box.Y1-1
	w, h := box.Width()+2, box.Height()+2

	isComponent := func(lx, ly int) bool {
		x, y := x0+lx, y0+ly
		if x < 0 || y < 0 || x >= width || y >= height {
			return false
		}
		return labels[y*width+x] == label
	}

	reached := make([]bool, w*h)
	stack := []int{0}
	reached[0] = true
	count := 1
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		lx, ly := i%w, i/w
		for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
			nx, ny := lx+d[0], ly+d[1]
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			j := ny*w + nx
			if reached[j] || isComponent(nx, ny) {
				continue
			}
			reached[j] = true
			count++
			stack = append(stack, j)
		}
	}

	return w*h - count
}
