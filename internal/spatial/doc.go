// Package spatial turns a flat list of object detections into an ordered list
// of relationship facts describing the layout of a single still image.
//
// The engine runs two passes over the detections:
//
//  1. Dominance: every detection whose box covers more than a fraction of the
//     frame (10% by default) yields one fact tagged with a horizontal zone
//     (left, center or right third of the frame). Facts keep detection order.
//  2. Pairs: every unordered pair (i, j), i < j, whose box centers are closer
//     than a fraction of the frame width (15% by default) becomes a candidate.
//     Candidates are ranked by score = distance - IoU*OverlapWeight, ascending,
//     with ties kept in enumeration order, and truncated to MaxPairs (15).
//
// The result is all dominance facts followed by the ranked pair facts.
//
// # Coordinate System
//
// Boxes are axis-aligned (x1, y1, x2, y2) rectangles in pixel coordinates of
// the frame, origin top-left, with x1 <= x2 and y1 <= y2. Zero-area boxes are
// valid: they have area 0 and never cause a division by zero.
//
// # Errors
//
// Malformed boxes, non-finite coordinates and non-positive frame sizes are
// rejected with an *InvalidInputError that matches ErrInvalidInput. An empty
// detection list is not an error and yields no facts.
//
// # Thread Safety
//
// An Engine holds only its immutable Config. Infer never mutates its input and
// may be called concurrently.
package spatial
