// Package som is the Set-of-Mark pipeline: it finds the interactive-looking
// regions of a screenshot, numbers them, and draws the numbers on the image.
//
// A Pipeline fuses two detectors. The text recognizer reports lines of
// text; the contour detector proposes outlined or strongly colored regions.
// Text elements come first in recognizer order, contours follow in
// acceptance order, and ids are the final positions. For a fixed image and
// options the ids and the rendered image are identical on every run.
//
// # Errors
//
//   - ErrInvalidImage: the bytes or file cannot be decoded
//   - ErrDetectorUnavailable: the text recognizer cannot start or fails
//   - ErrInvalidOptions: options fail validation
//
// A failure while rendering the marked image is not fatal: the result keeps
// its elements and reports the problem in Result.AnnotationError.
package som
