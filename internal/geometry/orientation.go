package geometry

import (
	"fmt"
	"math"
)

// Orientation is the presentation-only placement of a glyph. It never
// affects encoding or decoding identity.
type Orientation struct {
	// Rotation in degrees, clockwise on screen.
	Rotation float64 `json:"rotation" yaml:"rotation"`

	// Mirror reflects horizontally about the lattice center.
	Mirror bool `json:"mirror" yaml:"mirror"`

	// FlipVertical reflects vertically about the lattice center.
	FlipVertical bool `json:"flip_vertical" yaml:"flip_vertical"`
}

// IsIdentity reports whether the orientation leaves coordinates unchanged.
func (o Orientation) IsIdentity() bool {
	return !o.Mirror && !o.FlipVertical && math.Mod(o.Rotation, 360) == 0
}

// Validate rejects rotations that are not finite numbers.
func (o Orientation) Validate() error {
	if math.IsNaN(o.Rotation) || math.IsInf(o.Rotation, 0) {
		return fmt.Errorf("rotation must be finite, got %v", o.Rotation)
	}
	return nil
}

// Matrix returns the orientation as an affine transform about center.
// Order: mirror, then flip, then rotate.
func (o Orientation) Matrix(center Point) Matrix {
	sx, sy := 1.0, 1.0
	if o.Mirror {
		sx = -1
	}
	if o.FlipVertical {
		sy = -1
	}

	toOrigin := Translate(-center.X, -center.Y)
	back := Translate(center.X, center.Y)

	// Mirror and flip are both scale steps about the same center, applied
	// before the rotation.
	m := Scale(sx, sy).Multiply(toOrigin)
	m = RotateDegrees(o.Rotation).Multiply(m)
	return back.Multiply(m)
}
