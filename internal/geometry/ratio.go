package geometry

// IoU returns the intersection-over-union of two boxes.
//
// The result is in [0, 1]: 0 for disjoint boxes (or when both are empty),
// 1 for identical non-empty boxes.
func IoU(a, b Box) float64 {
	inter := a.OverlapArea(b)
	if inter == 0 {
		return 0
	}
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// FillRatio returns contourArea / boxArea.
//
// It measures how solid a region is compared to its bounding rectangle:
// dense shapes score close to 1, sparse edge clusters score low.
// Returns 0 when boxArea is not positive.
func FillRatio(contourArea, boxArea int) float64 {
	if boxArea <= 0 || contourArea <= 0 {
		return 0
	}
	return float64(contourArea) / float64(boxArea)
}

// AspectRatio returns w / h, or 0 when h is not positive.
func AspectRatio(w, h int) float64 {
	if h <= 0 || w <= 0 {
		return 0
	}
	return float64(w) / float64(h)
}
