package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
)

// Dilate grows the foreground of a binary mask by radius pixels.
//
// A radius of 1 samples a 3x3 neighborhood, enough to bridge the 1-pixel
// gaps Canny leaves in otherwise continuous outlines. A radius <= 0 returns
// a copy of the mask.
func Dilate(mask *image.Gray, radius float64) *image.Gray {
	if radius <= 0 {
		return copyGray(mask)
	}
	return binarize(effect.Dilate(mask, radius))
}

// Erode shrinks the foreground of a binary mask by radius pixels.
func Erode(mask *image.Gray, radius float64) *image.Gray {
	if radius <= 0 {
		return copyGray(mask)
	}
	return binarize(effect.Erode(mask, radius))
}

// Close performs a morphological closing (dilate, then erode), filling
// gaps and pinholes smaller than the radius without growing the shape.
func Close(mask *image.Gray, radius float64) *image.Gray {
	if radius <= 0 {
		return copyGray(mask)
	}
	return Erode(Dilate(mask, radius), radius)
}

// CountNonZero returns the number of foreground pixels in a mask.
func CountNonZero(mask *image.Gray) int {
	count := 0
	b := mask.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+b.Dx()]
		for _, v := range row {
			if v != 0 {
				count++
			}
		}
	}
	return count
}

// binarize converts a bild RGBA result back into a 0/255 mask with a
// (0,0) origin.
func binarize(img *image.RGBA) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	mask := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if img.Pix[y*img.Stride+x*4] >= 128 {
				mask.Pix[y*mask.Stride+x] = 255
			}
		}
	}
	return mask
}

func copyGray(mask *image.Gray) *image.Gray {
	b := mask.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		copy(out.Pix[y*out.Stride:y*out.Stride+b.Dx()], mask.Pix[y*mask.Stride:y*mask.Stride+b.Dx()])
	}
	return out
}
