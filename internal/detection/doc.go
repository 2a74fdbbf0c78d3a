// Package detection proposes non-text interactive regions in a screenshot
// and filters them into a deduplicated, deterministically ordered set.
//
// Buttons, input fields, icons and cards rarely carry text that a
// recognizer picks up, but they do have visible outlines or saturated fills.
// The Detector runs two families of heuristic passes over the image and
// feeds every candidate region through a Deduplicator.
//
// # Passes
//
//   - Edge passes: Canny edges for each configured (low, high) threshold
//     pair, dilated to close single-pixel gaps, then external contours
//     filtered by area and fill ratio.
//   - Saturation pass: an HSV saturation mask, morphologically closed, then
//     external contours filtered by area.
//
// The gradient shared by all edge passes is computed once per image. Pass
// masks are computed concurrently, but candidates always reach the
// Deduplicator in a fixed order (edge pairs in ascending order, then
// saturation), so the output does not depend on scheduling.
//
// # Contours
//
// FindExternalContours is a raster analog of outer-boundary contour
// tracing: foreground components are 8-connected, background is
// 4-connected, and components sitting inside another component's hole are
// not reported. A contour's area counts its pixels plus the holes it
// encloses.
//
// # Deduplication
//
// A candidate is accepted when its box lies inside the image, passes the
// size and aspect-ratio limits, and does not overlap any earlier accepted
// box by more than the IoU threshold. The first accepted box wins; boxes
// are never merged. Text boxes are optionally used to suppress contours
// that mostly cover recognized text.
//
// # Coordinate System
//
// All boxes use the geometry package convention: origin at the top-left,
// X1/Y1 inclusive, X2/Y2 exclusive.
package detection
