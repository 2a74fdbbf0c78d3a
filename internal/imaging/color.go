package imaging

import (
	"image"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// SaturationMask thresholds the HSV saturation channel of an image.
//
// Saturation is scaled to 0-255 (the OpenCV convention for 8-bit HSV), and a
// pixel is foreground (255) when its saturation is strictly greater than
// threshold. Fully transparent pixels are background.
//
// Flat-colored icons and buttons often produce no strong edges against a
// similarly bright background but stand out clearly in saturation; grays,
// whites and blacks have zero saturation and never pass.
func SaturationMask(img image.Image, threshold int) *image.Gray {
	src := imaging.Clone(img)
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	mask := image.NewGray(image.Rect(0, 0, w, h))

	limit := float64(threshold) / 255.0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*src.Stride + x*4
			if src.Pix[i+3] == 0 {
				continue
			}
			c := colorful.Color{
				R: float64(src.Pix[i]) / 255.0,
				G: float64(src.Pix[i+1]) / 255.0,
				B: float64(src.Pix[i+2]) / 255.0,
			}
			_, s, _ := c.Hsv()
			if s > limit {
				mask.Pix[y*mask.Stride+x] = 255
			}
		}
	}
	return mask
}

// Saturation returns the HSV saturation of a pixel scaled to 0-255.
func Saturation(img image.Image, x, y int) int {
	c, ok := colorful.MakeColor(img.At(x, y))
	if !ok {
		return 0
	}
	_, s, _ := c.Hsv()
	return int(s*255 + 0.5)
}
