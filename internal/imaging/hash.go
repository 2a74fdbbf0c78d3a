package imaging

import (
	"fmt"
	"image"

	"github.com/corona10/goimagehash"
)

// PerceptualHash returns the 64-bit perception hash of img in goimagehash's
// string form ("p:<hex>").
//
// Two screenshots of the same screen state hash within a few bits of each
// other, so clients can tell whether a new capture is worth marking again.
func PerceptualHash(img image.Image) (string, error) {
	h, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return "", fmt.Errorf("failed to hash image: %w", err)
	}
	return h.ToString(), nil
}

// HashDistance returns the Hamming distance between the perception hashes
// of two images. 0 means perceptually identical.
func HashDistance(a, b image.Image) (int, error) {
	ha, err := goimagehash.PerceptionHash(a)
	if err != nil {
		return 0, fmt.Errorf("failed to hash image: %w", err)
	}
	hb, err := goimagehash.PerceptionHash(b)
	if err != nil {
		return 0, fmt.Errorf("failed to hash image: %w", err)
	}
	return ha.Distance(hb)
}
