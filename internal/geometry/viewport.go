package geometry

import (
	"errors"
	"fmt"
	"math"
)

// Default viewport parameters.
const (
	DefaultViewportSize = 100.0
	DefaultPadding      = 0.1
)

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min, Max Point
	ok       bool
}

// BoundsOf returns the bounding box of pts. The zero Bounds is empty.
func BoundsOf(pts []Point) Bounds {
	var b Bounds
	for _, p := range pts {
		b = b.Extend(p)
	}
	return b
}

// Extend returns b grown to include p.
func (b Bounds) Extend(p Point) Bounds {
	if !b.ok {
		return Bounds{Min: p, Max: p, ok: true}
	}
	b.Min.X = math.Min(b.Min.X, p.X)
	b.Min.Y = math.Min(b.Min.Y, p.Y)
	b.Max.X = math.Max(b.Max.X, p.X)
	b.Max.Y = math.Max(b.Max.Y, p.Y)
	return b
}

// Empty reports whether no points have been added.
func (b Bounds) Empty() bool { return !b.ok }

// Center returns the midpoint of the box.
func (b Bounds) Center() Point {
	return Point{X: (b.Min.X + b.Max.X) / 2, Y: (b.Min.Y + b.Max.Y) / 2}
}

// Width returns the horizontal extent.
func (b Bounds) Width() float64 { return b.Max.X - b.Min.X }

// Height returns the vertical extent.
func (b Bounds) Height() float64 { return b.Max.Y - b.Min.Y }

// Viewport is the square normalized output space, e.g. 0 0 100 100.
type Viewport struct {
	Size    float64 `json:"size" yaml:"size"`
	Padding float64 `json:"padding" yaml:"padding"` // fraction of Size on each side
}

// DefaultViewport returns the 100x100 viewport with 10% padding.
func DefaultViewport() Viewport {
	return Viewport{Size: DefaultViewportSize, Padding: DefaultPadding}
}

// Validate checks that the viewport is usable.
func (v Viewport) Validate() error {
	if !(v.Size > 0) || math.IsInf(v.Size, 0) {
		return fmt.Errorf("viewport size must be positive, got %v", v.Size)
	}
	if !(v.Padding >= 0 && v.Padding < 0.5) {
		return errors.New("viewport padding must be in [0, 0.5)")
	}
	return nil
}

// Fit returns the transform mapping b into the viewport. Scaling is
// uniform, so the longer side of b spans the padded area and the box is
// centered. A degenerate box (single point) is centered without scaling.
func (v Viewport) Fit(b Bounds) Matrix {
	if b.Empty() {
		return Identity()
	}
	avail := v.Size * (1 - 2*v.Padding)
	extent := math.Max(b.Width(), b.Height())
	scale := 1.0
	if extent > 0 {
		scale = avail / extent
	}
	c := b.Center()
	half := v.Size / 2
	return Translate(half, half).Multiply(Scale(scale, scale)).Multiply(Translate(-c.X, -c.Y))
}
