package spatial

import "math"

// Box is an axis-aligned bounding box in pixel coordinates.
type Box struct {
	X1 float64 `json:"x1"` // Left edge
	Y1 float64 `json:"y1"` // Top edge
	X2 float64 `json:"x2"` // Right edge
	Y2 float64 `json:"y2"` // Bottom edge
}

// Point is a position in pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Center returns the midpoint of the box.
func (b Box) Center() Point {
	return Point{X: (b.X1 + b.X2) / 2, Y: (b.Y1 + b.Y2) / 2}
}

// Width returns X2 - X1.
func (b Box) Width() float64 { return b.X2 - b.X1 }

// Height returns Y2 - Y1.
func (b Box) Height() float64 { return b.Y2 - b.Y1 }

// Area returns the box area. A degenerate box has area 0.
func (b Box) Area() float64 {
	return b.Width() * b.Height()
}

// CenterDistance returns the Euclidean distance between the centers of a and b.
func CenterDistance(a, b Box) float64 {
	ca, cb := a.Center(), b.Center()
	return math.Hypot(ca.X-cb.X, ca.Y-cb.Y)
}

// IoU returns the intersection-over-union of a and b, in [0, 1].
//
// Boxes that do not intersect, or only touch along an edge, give 0. When the
// union is 0 (both boxes degenerate) the result is 0 rather than NaN.
func IoU(a, b Box) float64 {
	left := math.Max(a.X1, b.X1)
	top := math.Max(a.Y1, b.Y1)
	right := math.Min(a.X2, b.X2)
	bottom := math.Min(a.Y2, b.Y2)

	if right < left || bottom < top {
		return 0
	}

	intersection := (right - left) * (bottom - top)
	union := a.Area() + b.Area() - intersection
	if union == 0 {
		return 0
	}
	return intersection / union
}
