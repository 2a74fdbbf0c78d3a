// Package imaging provides the raster primitives used to find interactive
// regions in a screenshot.
//
// It covers decoding and encoding, Canny edge detection split into a
// threshold-independent gradient stage and per-threshold hysteresis,
// binary morphology (dilate, erode, close) and HSV saturation masking,
// plus perceptual hashing for telling screenshots apart.
// All operations work with standard Go image.Image types and use a coordinate
// system where (0,0) is at the top-left corner, X increases rightward, and Y
// increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - Decoded images are normalized so their bounds start at (0,0)
//
// # Masks
//
// Binary masks are *image.Gray values with a (0,0) origin where foreground
// pixels are 255 and background pixels are 0. Every function returning a
// mask allocates a new one; input images and masks are never modified.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. A Gradient is read-only
// after ComputeGradient returns, so Edges may be called from several
// goroutines at once. Other operations are stateless.
//
// # Error Handling
//
// Decoding failures wrap ErrDecode. Raster operations on valid images do not
// fail; degenerate inputs (zero or tiny dimensions) produce empty masks.
package imaging
