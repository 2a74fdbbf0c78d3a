package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
)

// blurRadius is the Gaussian radius applied before gradient computation.
const blurRadius = 1.0

// Gradient holds the thinned gradient magnitude of a grayscale image, the
// part of Canny edge detection that does not depend on thresholds.
//
// Compute it once per image and call Edges for each (low, high) threshold
// pair; the hysteresis step is the only per-pair work.
type Gradient struct {
	Width  int
	Height int

	// mag is the non-maximum-suppressed magnitude, row-major.
	// Values are in 8-bit gray units times the Sobel gain, so thresholds
	// compare the same way they do for OpenCV's Canny on 8-bit input.
	mag []float64
}

// ComputeGradient runs the threshold-independent stages of Canny edge
// detection.
//
// # Algorithm
//
//  1. Grayscale conversion (bild effect.Grayscale)
//  2. Gaussian blur to reduce noise (bild blur.Gaussian)
//  3. Sobel operators for X and Y gradients, magnitude = sqrt(Gx² + Gy²)
//  4. Non-maximum suppression: keep only local maxima along the gradient
//     direction, thinning edges to 1 pixel
//
// Border pixels never carry a magnitude.
func ComputeGradient(img image.Image) *Gradient {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	g := &Gradient{Width: width, Height: height, mag: make([]float64, width*height)}
	if width < 3 || height < 3 {
		return g
	}

	gray := effect.Grayscale(img)
	blurred := blur.Gaussian(gray, blurRadius)

	lum := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			// blur.Gaussian returns RGBA with equal channels for gray input
			lum[y*width+x] = float64(blurred.Pix[y*blurred.Stride+x*4])
		}
	}

	magnitude := make([]float64, width*height)
	direction := make([]float64, width*height)

	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					v := lum[py*width+px]
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}
			magnitude[y*width+x] = math.Sqrt(gx*gx + gy*gy)
			direction[y*width+x] = math.Atan2(gy, gx)
		}
	}

	// Non-maximum suppression
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			angle := direction[i]
			mag := magnitude[i]
			if mag == 0 {
				continue
			}

			var n1, n2 float64
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
				n1 = magnitude[i-1]
				n2 = magnitude[i+1]
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				n1 = magnitude[i-width+1]
				n2 = magnitude[i+width-1]
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				n1 = magnitude[i-width]
				n2 = magnitude[i+width]
			default:
				n1 = magnitude[i-width-1]
				n2 = magnitude[i+width+1]
			}

			if mag >= n1 && mag >= n2 {
				g.mag[i] = mag
			}
		}
	}

	return g
}

// Edges applies hysteresis thresholding and returns a binary mask where
// edge pixels are 255 and everything else is 0.
//
//   - Pixels at or above high are strong edges and always kept
//   - Pixels between low and high are kept only if 8-connected, directly or
//     through other weak pixels, to a strong edge
//   - Pixels below low are discarded
func (g *Gradient) Edges(low, high int) *image.Gray {
	mask := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	if g.Width == 0 || g.Height == 0 {
		return mask
	}

	lowT := float64(low)
	highT := float64(high)
	if lowT > highT {
		lowT, highT = highT, lowT
	}

	stack := make([]int, 0, 256)
	for i, m := range g.mag {
		if m > 0 && m >= highT && mask.Pix[i] == 0 {
			mask.Pix[i] = 255
			stack = append(stack, i)
		}
	}

	// Grow strong edges through connected weak pixels
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%g.Width, i/g.Width
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= g.Width || ny >= g.Height {
					continue
				}
				j := ny*g.Width + nx
				if mask.Pix[j] == 0 && g.mag[j] > 0 && g.mag[j] >= lowT {
					mask.Pix[j] = 255
					stack = append(stack, j)
				}
			}
		}
	}

	return mask
}

// clamp constrains an integer value to the range [lo, hi].
// Used for boundary handling in convolution operations.
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
