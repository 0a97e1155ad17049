package geometry

import "math"

// Point is a 2D point or vector.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Pt is a convenience constructor for Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Mul returns p scaled by s.
func (p Point) Mul(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Length returns the length of the vector.
func (p Point) Length() float64 {
	return math.Hypot(p.X, p.Y)
}

// Distance returns the distance between two points.
func (p Point) Distance(q Point) float64 {
	return p.Sub(q).Length()
}

// Near reports whether p and q are within eps of each other on both axes.
func (p Point) Near(q Point, eps float64) bool {
	return math.Abs(p.X-q.X) <= eps && math.Abs(p.Y-q.Y) <= eps
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Perpendicular returns the unit left normal (-dy, dx) of the direction
// from p to q. ok is false when the two points coincide.
func Perpendicular(p, q Point) (n Point, ok bool) {
	d := q.Sub(p)
	l := d.Length()
	if l == 0 {
		return Point{}, false
	}
	return Point{X: -d.Y / l, Y: d.X / l}, true
}

// CrossStroke returns the endpoint of a stroke of the given length that
// starts at q and runs perpendicular to the segment p→q. Ticks and end caps
// share this construction. ok is false for a zero-length segment.
func CrossStroke(p, q Point, length float64) (Point, bool) {
	n, ok := Perpendicular(p, q)
	if !ok {
		return Point{}, false
	}
	return q.Add(n.Mul(length)), true
}
