// Package geometry provides the box arithmetic shared by every stage of the
// Set-of-Mark pipeline.
//
// # Coordinate System
//
// All coordinates are 0-based pixel positions with the origin at the top-left
// corner of the image:
//   - (X1, Y1) is the top-left corner of a box (inclusive)
//   - (X2, Y2) is the bottom-right corner of a box (exclusive)
//   - Width = X2 - X1, Height = Y2 - Y1
//
// A box that covers the full last column of a 400px wide image therefore has
// X2 == 400, and is still considered inside the image.
//
// # Degenerate Input
//
// Every function in this package is pure and total. Empty or inverted boxes
// have zero area, and the ratio helpers return 0 instead of dividing by zero.
package geometry
